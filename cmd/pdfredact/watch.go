package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/observability"
)

func (c *cli) watchCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "watch INPUT OUTPUT",
		Short: "Re-apply whenever the pattern, exclusion or region files change",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errNoOutput
			}
			return c.watch(cmd, &f, args[0], args[1])
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (c *cli) watch(cmd *cobra.Command, f *runFlags, input, output string) error {
	files := f.files()
	if f.regions == "" {
		if err := os.MkdirAll(c.app.DataDir, 0o755); err != nil {
			return err
		}
		files = append(files, c.store().AutosavePath(stem(input), config.PurposeRegions))
	}
	w, err := config.NewWatcher(files, config.DefaultDebounce, c.logger)
	if err != nil {
		return err
	}

	once := func() {
		if err := c.apply(context.WithoutCancel(cmd.Context()), f, input, output); err != nil {
			c.logger.Error("apply failed", observability.Error("error", err))
		}
	}
	once()
	c.logger.Info("watching", observability.Any("files", files))
	err = w.Run(cmd.Context(), func(changed []string) {
		c.logger.Info("configuration changed", observability.Any("files", changed))
		once()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
