package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfredact/report"
)

func (c *cli) scanCmd() *cobra.Command {
	var (
		f      runFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "scan INPUT",
		Short: "List what would be redacted without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "json", "markdown", "html":
			default:
				return fmt.Errorf("--format %q (must be json, markdown or html)", format)
			}
			return c.scan(cmd, &f, args[0], format)
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "json", "json, markdown or html")
	return cmd
}

func (c *cli) scan(cmd *cobra.Command, f *runFlags, input, format string) error {
	set, err := c.patternSet(f, false)
	if err != nil {
		return err
	}
	eng, err := c.newEngine(set, nil)
	if err != nil {
		return err
	}
	res, err := eng.Scan(cmd.Context(), input, c.manualRegions(f, input))
	if err != nil {
		return err
	}

	rep := &report.Report{
		Document: input,
		Pages:    len(res.Analysis.Pages),
		Regions:  len(res.Resolved.Regions),
		Vetoed:   res.Resolved.Vetoed,
		Warnings: report.WarningStrings(res.Warnings()),
	}
	for _, p := range res.Analysis.Pages {
		rep.Findings = append(rep.Findings, report.Findings(p.Matches, set.Redact)...)
	}
	if rep.Findings == nil {
		rep.Findings = []report.Finding{}
	}

	switch format {
	case "markdown":
		return rep.Markdown(c.stdout)
	case "html":
		return rep.HTML(c.stdout)
	default:
		return rep.JSON(c.stdout)
	}
}
