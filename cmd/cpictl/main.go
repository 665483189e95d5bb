// Command cpictl prints dataset views of the corruption tracker in the terminal.
package main

import (
	"context"
	"os"

	"cpitracker/internal/cli"
	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
	"cpitracker/internal/source"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger(nil, os.Stderr), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, os.Stderr)

	a := &app{
		out:  os.Stdout,
		opts: cluster.Options{Seed: cfg.ClusterSeed, MinRows: cfg.ClusterMinRows},
		load: func(ctx context.Context) (*core.Dataset, error) {
			res, err := cli.OpenReader(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			if res.Cleanup != nil {
				defer func() { _ = res.Cleanup() }()
			}
			return source.NewProvider(res.Reader, logger, nil).Dataset(ctx)
		},
	}
	if err := a.rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
