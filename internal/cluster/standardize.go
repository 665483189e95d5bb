// Package cluster groups countries by their governance and development
// indicators using k-means on standardized features.
package cluster

import (
	"gonum.org/v1/gonum/stat"

	"cpitracker/internal/core"
)

// Features lists the columns used for clustering, in matrix order.
var Features = []string{"CPI_Score", "Press_Freedom_Score", "HDI", "GDP_per_Capita"}

// featureRow extracts the clustering vector of a complete observation.
func featureRow(o core.Observation) []float64 {
	return []float64{o.CPI, o.PressFreedom.Value, o.HDI.Value, o.GDPPerCapita.Value}
}

// Scale holds the per-column mean and population standard deviation.
type Scale struct {
	Mean []float64
	Std  []float64
}

// Standardize rescales each column to zero mean and unit population variance
// in place. Columns with zero spread are only centered.
func Standardize(x [][]float64) Scale {
	if len(x) == 0 {
		return Scale{}
	}
	cols := len(x[0])
	sc := Scale{Mean: make([]float64, cols), Std: make([]float64, cols)}
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		sc.Mean[j], sc.Std[j] = mean, std
		for i := range x {
			x[i][j] -= mean
			if std > 0 {
				x[i][j] /= std
			}
		}
	}
	return sc
}
