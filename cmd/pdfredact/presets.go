package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/preset"
)

func (c *cli) presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Inspect and manage pattern presets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in and user presets",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			for _, name := range reg.Names() {
				p, _ := reg.Get(name)
				source := "user"
				if reg.IsBuiltin(name) {
					source = "builtin"
					if userOverrides(reg, name) {
						source = "user (overrides builtin)"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, source, p.Description)
			}
			return tw.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print the patterns of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			p, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown preset %q", args[0])
			}
			enc := yaml.NewEncoder(c.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	var (
		patterns    string
		description string
	)
	save := &cobra.Command{
		Use:   "save NAME",
		Short: "Store a pattern file as a user preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if patterns == "" {
				return fmt.Errorf("--patterns is required")
			}
			file, err := config.LoadPatterns(patterns)
			if err != nil {
				return err
			}
			reg, err := c.registry()
			if err != nil {
				return err
			}
			p := preset.Preset{Name: args[0], Description: description, Patterns: file, RegexPatterns: file.Regex}
			p.Patterns.Regex = nil
			if err := reg.Add(p); err != nil {
				return err
			}
			return config.SavePresets(c.store().PresetsPath(), reg)
		},
	}
	save.Flags().StringVar(&patterns, "patterns", "", "pattern file to store")
	save.Flags().StringVar(&description, "description", "", "one line description")

	remove := &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a user preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			if !reg.Remove(args[0]) {
				return fmt.Errorf("no user preset %q", args[0])
			}
			return config.SavePresets(c.store().PresetsPath(), reg)
		},
	}

	cmd.AddCommand(list, show, save, remove)
	return cmd
}

func userOverrides(reg *preset.Registry, name string) bool {
	for _, p := range reg.User() {
		if p.Name == name {
			return true
		}
	}
	return false
}
