package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cpitracker/internal/core"
)

const (
	MinK = 2
	MaxK = 5

	DefaultSeed    = 42
	DefaultMinRows = 10
	DefaultNInit   = 10
	DefaultMaxIter = 300
	DefaultTol     = 1e-4
)

var ErrInvalidK = errors.New("cluster count out of range")

// Options tunes a clustering run. Zero fields take the defaults.
type Options struct {
	Seed    uint64
	MinRows int
	NInit   int
	MaxIter int
	Tol     float64
}

func (o Options) withDefaults() Options {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MinRows <= 0 {
		o.MinRows = DefaultMinRows
	}
	if o.NInit <= 0 {
		o.NInit = DefaultNInit
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	return o
}

// Assignment pairs a clustered observation with its group label.
type Assignment struct {
	Observation core.Observation
	Label       int
}

// Result is the outcome of a clustering run. When Skipped is true there were
// fewer complete rows than Options.MinRows or than k, and no labels were
// produced.
type Result struct {
	K           int
	Considered  int
	Skipped     bool
	Assignments []Assignment
	Sizes       []int
	Inertia     float64
}

// Run clusters the complete rows of the view into k groups. Rows missing any
// feature are dropped first. Labels are numbered by first appearance in row
// order, so equal inputs always give equal output.
func Run(rows []core.Observation, k int, opts Options) (Result, error) {
	if k < MinK || k > MaxK {
		return Result{}, fmt.Errorf("%w: k=%d (allowed %d-%d)", ErrInvalidK, k, MinK, MaxK)
	}
	opts = opts.withDefaults()

	kept := make([]core.Observation, 0, len(rows))
	for _, r := range rows {
		if r.Complete() {
			kept = append(kept, r)
		}
	}
	res := Result{K: k, Considered: len(kept)}
	if len(kept) < opts.MinRows || len(kept) < k {
		res.Skipped = true
		return res, nil
	}

	x := make([][]float64, len(kept))
	for i, o := range kept {
		x[i] = featureRow(o)
	}
	Standardize(x)

	labels, inertia := KMeans(x, k, opts)
	labels = renumber(labels, k)

	res.Inertia = inertia
	res.Sizes = make([]int, k)
	res.Assignments = make([]Assignment, len(kept))
	for i, o := range kept {
		res.Assignments[i] = Assignment{Observation: o, Label: labels[i]}
		res.Sizes[labels[i]]++
	}
	return res, nil
}

// KMeans partitions x into k groups, keeping the lowest-inertia run out of
// opts.NInit k-means++ initialisations drawn from one seeded generator.
func KMeans(x [][]float64, k int, opts Options) ([]int, float64) {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	tol := opts.Tol * meanVariance(x)

	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < opts.NInit; run++ {
		centers := seedPlusPlus(x, k, rng)
		labels, inertia := lloyd(x, centers, opts.MaxIter, tol)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best, bestInertia
}

func seedPlusPlus(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(x[rng.IntN(len(x))]))

	d2 := make([]float64, len(x))
	for len(centers) < k {
		var sum float64
		for i, p := range x {
			d2[i] = math.Inf(1)
			for _, c := range centers {
				d2[i] = math.Min(d2[i], sqDist(p, c))
			}
			sum += d2[i]
		}
		if sum == 0 {
			centers = append(centers, clone(x[rng.IntN(len(x))]))
			continue
		}
		target := rng.Float64() * sum
		pick := len(x) - 1
		var acc float64
		for i, d := range d2 {
			acc += d
			if acc >= target && d > 0 {
				pick = i
				break
			}
		}
		centers = append(centers, clone(x[pick]))
	}
	return centers
}

func lloyd(x [][]float64, centers [][]float64, maxIter int, tol float64) ([]int, float64) {
	k, dims := len(centers), len(x[0])
	labels := make([]int, len(x))
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	counts := make([]int, k)

	for iter := 0; iter < maxIter; iter++ {
		assign(x, centers, labels)

		for c := range sums {
			for j := range sums[c] {
				sums[c][j] = 0
			}
			counts[c] = 0
		}
		for i, p := range x {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		var shift float64
		for c := range centers {
			if counts[c] == 0 {
				// reseed an empty group at the point farthest from its center
				far := farthest(x, centers, labels)
				copy(sums[c], x[far])
				labels[far] = c
				counts[c] = 1
			} else {
				floats.Scale(1/float64(counts[c]), sums[c])
			}
			shift += sqDist(centers[c], sums[c])
			copy(centers[c], sums[c])
		}
		if shift <= tol {
			break
		}
	}

	assign(x, centers, labels)
	var inertia float64
	for i, p := range x {
		inertia += sqDist(p, centers[labels[i]])
	}
	return labels, inertia
}

func assign(x, centers [][]float64, labels []int) {
	for i, p := range x {
		best, bestD := 0, math.Inf(1)
		for c, ctr := range centers {
			if d := sqDist(p, ctr); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
	}
}

func farthest(x, centers [][]float64, labels []int) int {
	idx, maxD := 0, -1.0
	for i, p := range x {
		if d := sqDist(p, centers[labels[i]]); d > maxD {
			idx, maxD = i, d
		}
	}
	return idx
}

// renumber relabels groups in order of first appearance.
func renumber(labels []int, k int) []int {
	mapping := make([]int, k)
	for i := range mapping {
		mapping[i] = -1
	}
	next := 0
	out := make([]int, len(labels))
	for i, l := range labels {
		if mapping[l] < 0 {
			mapping[l] = next
			next++
		}
		out[i] = mapping[l]
	}
	return out
}

func meanVariance(x [][]float64) float64 {
	if len(x) == 0 {
		return 0
	}
	col := make([]float64, len(x))
	var total float64
	for j := range x[0] {
		for i := range x {
			col[i] = x[i][j]
		}
		_, std := stat.PopMeanStdDev(col, nil)
		total += std * std
	}
	return total / float64(len(x[0]))
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
