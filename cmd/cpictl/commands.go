package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
	"cpitracker/internal/source/sqlite"
)

type app struct {
	out  io.Writer
	opts cluster.Options
	load func(ctx context.Context) (*core.Dataset, error)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cpictl",
		Short:        "Query the Global Corruption Tracker dataset",
		SilenceUsage: true,
	}
	root.SetOut(a.out)
	root.AddCommand(a.countriesCmd(), a.profileCmd(), a.rankingCmd(), a.clustersCmd(), a.importCmd())
	return root
}

func (a *app) countriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List countries with their continent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			table := a.table("Country", "Continent", "Years")
			for _, c := range ds.Countries() {
				series := ds.CountrySeries(c)
				table.Append([]string{c, series[len(series)-1].Continent, strconv.Itoa(len(series))})
			}
			table.Render()
			return nil
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <country>",
		Short: "Show the CPI history of a country against its continent mean",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			p, err := core.BuildProfile(ds, args[0])
			var nf *core.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintf(a.out, "No data available for %s.\n", nf.Country)
				return nil
			}
			if err != nil {
				return err
			}
			latest := p.Latest
			fmt.Fprintf(a.out, "%s (%s)\n", p.Country, latest.Continent)
			fmt.Fprintf(a.out, "CPI %d: %.1f  change %s\n", latest.Year, latest.CPI, p.DeltaLabel())
			fmt.Fprintf(a.out, "Press freedom %s  GDP per capita %s  HDI %s\n",
				latest.PressFreedom.Format(), latest.GDPPerCapita.FormatUSD(), latest.HDI.FormatFixed(3))

			region := make(map[int]float64, len(p.RegionSeries))
			for _, v := range p.RegionSeries {
				region[v.Year] = v.Value
			}
			table := a.table("Year", "CPI", latest.Continent+" mean")
			for _, v := range p.CountrySeries {
				mean := core.NA
				if m, ok := region[v.Year]; ok {
					mean = strconv.FormatFloat(m, 'f', 1, 64)
				}
				table.Append([]string{strconv.Itoa(v.Year), strconv.FormatFloat(v.Value, 'f', 1, 64), mean})
			}
			table.Render()
			return nil
		},
	}
}

func (a *app) rankingCmd() *cobra.Command {
	var (
		continents []string
		top        int
	)
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Rank the latest year by CPI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if top < 1 {
				return fmt.Errorf("top must be at least 1")
			}
			ds, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			rows := ds.Latest(selection(ds, continents))
			sum := core.Summarize(rows)
			fmt.Fprintf(a.out, "%d countries in %d, mean CPI %s, mean press freedom %s\n",
				sum.Count, ds.LatestYear(), core.FormatMean(sum.MeanCPI), core.FormatMean(sum.MeanPressFreedom))

			ranking := core.Rank(rows, top)
			a.rankTable("Least corrupt", ranking.Top)
			a.rankTable("Most corrupt", ranking.Bottom)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&continents, "continent", nil, "continents to include (default all)")
	cmd.Flags().IntVar(&top, "top", 10, "rows per ranking")
	return cmd
}

func (a *app) clustersCmd() *cobra.Command {
	var (
		continents []string
		k          int
	)
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Group latest-year countries by CPI, press freedom, HDI and GDP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := cluster.Run(ds.Latest(selection(ds, continents)), k, a.opts)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintf(a.out, "Insufficient data for clustering: %d countries with complete indicators.\n", res.Considered)
				return nil
			}
			fmt.Fprintf(a.out, "k=%d over %d countries, inertia %.3f\n", res.K, res.Considered, res.Inertia)
			table := a.table("Cluster", "Country", "Continent", "CPI", "Press freedom", "HDI", "GDP per capita")
			for label := range res.Sizes {
				for _, as := range res.Assignments {
					if as.Label != label {
						continue
					}
					o := as.Observation
					table.Append([]string{
						strconv.Itoa(label), o.Country, o.Continent,
						strconv.FormatFloat(o.CPI, 'f', 1, 64),
						o.PressFreedom.Format(), o.HDI.FormatFixed(3), o.GDPPerCapita.FormatUSD(),
					})
				}
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&continents, "continent", nil, "continents to include (default all)")
	cmd.Flags().IntVar(&k, "k", 3, "number of clusters (2-5)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-sqlite <db-path>",
		Short: "Copy the configured dataset into a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}
			store, err := sqlite.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Replace(ctx, ds.Rows()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %d observations into %s\n", ds.Len(), args[0])
			return nil
		},
	}
}

func (a *app) rankTable(title string, rows []core.Observation) {
	fmt.Fprintln(a.out, title)
	table := a.table("#", "Country", "Continent", "CPI", "Press freedom")
	for i, o := range rows {
		table.Append([]string{
			strconv.Itoa(i + 1), o.Country, o.Continent,
			strconv.FormatFloat(o.CPI, 'f', 1, 64), o.PressFreedom.Format(),
		})
	}
	table.Render()
}

func (a *app) table(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	return table
}

// selection resolves --continent flags against the dataset; none means all.
func selection(ds *core.Dataset, picked []string) []string {
	if len(picked) == 0 {
		return ds.Continents()
	}
	want := make(map[string]bool, len(picked))
	for _, c := range picked {
		want[c] = true
	}
	var out []string
	for _, c := range ds.Continents() {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}
