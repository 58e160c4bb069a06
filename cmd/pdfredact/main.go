package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/observability"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if c.logger != nil {
		_ = observability.Sync(c.logger)
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "pdfredact: %v\n", err)
		}
		return 1
	}
	return 0
}

// errReported fails the process after the command already printed why.
var errReported = errors.New("failed")

// cli carries what every command shares once flags are parsed.
type cli struct {
	stdout, stderr io.Writer
	configPath     string

	app    *config.App
	logger observability.Logger
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pdfredact",
		Short:         "Find and permanently remove sensitive content from PDF files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "configuration file (default ./pdfredact.yaml)")
	pf.String("data-dir", "", "directory for region snapshots and user presets")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "console or json")

	root.AddCommand(
		c.applyCmd(),
		c.batchCmd(),
		c.scanCmd(),
		c.presetsCmd(),
		c.regionsCmd(),
		c.watchCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	app, err := config.LoadApp(c.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := observability.NewZapLogger(observability.LogConfig{
		Level:  app.Log.Level,
		Format: app.Log.Format,
		Output: c.stderr,
	})
	if err != nil {
		return err
	}
	c.app = app
	c.logger = logger
	return nil
}
