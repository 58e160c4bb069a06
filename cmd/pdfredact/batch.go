package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/engine"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/region"
)

func (c *cli) batchCmd() *cobra.Command {
	var (
		f       runFlags
		outDir  string
		metrics string
	)
	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Redact every PDF in DIR",
		Long: `Redact every *.pdf in DIR into --out. A file named <stem>_regions.json
next to a document adds manual regions for that document only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				return errors.New("--out is required")
			}
			return c.batch(cmd, &f, args[0], outDir, metrics)
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().StringVar(&metrics, "metrics", "", "write prometheus metrics to this textfile")
	return cmd
}

func (c *cli) batch(cmd *cobra.Command, f *runFlags, dir, outDir, metricsPath string) error {
	inputs, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no PDF files in %s", dir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	set, err := c.patternSet(f, true)
	if err != nil {
		return err
	}
	var shared []region.Region
	if f.regions != "" {
		shared, err = config.LoadRegions(f.regions)
		c.warn(err)
	}

	var metrics *observability.Metrics
	if metricsPath != "" {
		metrics = observability.NewMetrics()
	}
	eng, err := c.newEngine(set, metrics)
	if err != nil {
		return err
	}

	jobs := make([]engine.Job, 0, len(inputs))
	for _, in := range inputs {
		s := stem(in)
		regions := append([]region.Region(nil), shared...)
		own, err := config.LoadRegions(filepath.Join(dir, s+"_regions.json"))
		if err != nil && !config.IsMissing(err) {
			c.warn(err)
		}
		regions = append(regions, own...)
		jobs = append(jobs, engine.Job{
			Input:   in,
			Output:  filepath.Join(outDir, s+"_redacted.pdf"),
			Regions: regions,
		})
	}

	outcomes := eng.Batch(cmd.Context(), jobs)
	renderSummary(c.stdout, outcomes)

	if metrics != nil {
		if err := metrics.WriteTextfile(metricsPath); err != nil {
			c.logger.Error("write metrics", observability.Error("error", err))
		}
	}
	if engine.Failed(outcomes) > 0 {
		return errReported
	}
	return nil
}
