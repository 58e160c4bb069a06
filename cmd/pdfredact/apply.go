package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) applyCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "apply INPUT OUTPUT",
		Short: "Redact INPUT into OUTPUT",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errNoOutput
			}
			return c.apply(cmd.Context(), &f, args[0], args[1])
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (c *cli) apply(ctx context.Context, f *runFlags, input, output string) error {
	set, err := c.patternSet(f, false)
	if err != nil {
		return err
	}
	eng, err := c.newEngine(set, nil)
	if err != nil {
		return err
	}
	res, err := eng.RedactFile(ctx, input, output, c.manualRegions(f, input))
	if err != nil {
		return err
	}
	rep := res.Report
	fmt.Fprintf(c.stdout, "%s: %d regions on %d pages, %d glyphs removed -> %s\n",
		input, rep.Regions, len(rep.Pages), rep.Glyphs(), output)
	if n := len(res.Warnings()); n > 0 {
		fmt.Fprintf(c.stdout, "%d warnings, see log\n", n)
	}
	return nil
}
