package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/region"
	"github.com/wudi/pdfredact/session"
)

const regionsUsage = `Edit the saved regions of a document. Edits go to the document's
autosave file in the data directory and are picked up by apply and scan.

Verbs, usable as subcommands or one per line in a --script file:

  list
  add PAGE X0 Y0 X1 Y1 [protect]
  polygon PAGE X,Y X,Y X,Y... [protect]
  remove ID
  toggle ID
  move ID DX DY
  clear
  promote PAGE        turn the pattern matches of PAGE into regions
  undo
  redo
  history
  snapshot            write a timestamped copy of the regions

Coordinates are in points from the top left corner of the page. Pages
count from 0. Undo and redo only reach edits made in the same run.`

func (c *cli) regionsCmd() *cobra.Command {
	var (
		f      runFlags
		script string
	)
	cmd := &cobra.Command{
		Use:   "regions INPUT",
		Short: "List and edit manual regions",
		Long:  regionsUsage,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if script == "" {
				return fmt.Errorf("--script or a verb is required")
			}
			in, err := os.Open(script)
			if err != nil {
				return err
			}
			defer in.Close()
			return c.withSession(cmd.Context(), &f, args[0], func(e *editor) error {
				return e.script(in)
			})
		},
	}
	f.register(cmd.PersistentFlags())
	cmd.Flags().StringVar(&script, "script", "", "file of verbs, one per line")

	verbs := []struct{ name, args string }{
		{"list", ""},
		{"add", " PAGE X0 Y0 X1 Y1 [protect]"},
		{"polygon", " PAGE X,Y X,Y X,Y... [protect]"},
		{"remove", " ID"},
		{"toggle", " ID"},
		{"move", " ID DX DY"},
		{"clear", ""},
		{"promote", " PAGE"},
		{"undo", ""},
		{"redo", ""},
		{"history", ""},
		{"snapshot", ""},
	}
	for _, v := range verbs {
		verb := v.name
		cmd.AddCommand(&cobra.Command{
			Use:   verb + " INPUT" + v.args,
			Short: "Run the " + verb + " verb on the saved regions of INPUT",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withSession(cmd.Context(), &f, args[0], func(e *editor) error {
					return e.exec(append([]string{verb}, args[1:]...))
				})
			},
		})
	}
	return cmd
}

// editor runs verbs against one session.
type editor struct {
	ctx   context.Context
	c     *cli
	f     *runFlags
	input string
	sess  *session.Session
	out   io.Writer
}

func (c *cli) withSession(ctx context.Context, f *runFlags, input string, fn func(*editor) error) error {
	store := c.store()
	s := stem(input)
	initial, _, err := store.LatestRegions(s)
	if err != nil && !config.IsMissing(err) {
		c.warn(err)
	}
	sess, err := session.New(initial, session.Options{
		MaxDepth:         c.app.History.MaxDepth,
		AutosaveInterval: c.app.Autosave.Interval,
		Autosave:         func(regions []region.Region) error { return store.Autosave(s, regions) },
		Logger:           c.logger,
	})
	if err != nil {
		return err
	}
	runErr := fn(&editor{ctx: ctx, c: c, f: f, input: input, sess: sess, out: c.stdout})
	if err := sess.Flush(); err != nil {
		if runErr == nil {
			runErr = err
		}
		c.logger.Error("save regions", observability.Error("error", err))
	}
	return runErr
}

// script runs one verb per line. Blank lines and lines starting with # are
// skipped. The first failing line stops the script.
func (e *editor) script(r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := e.exec(strings.Fields(text)); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

func (e *editor) exec(words []string) error {
	verb, args := words[0], words[1:]
	switch verb {
	case "list":
		e.list()
		return nil
	case "add":
		if len(args) != 5 && len(args) != 6 {
			return fmt.Errorf("add: want PAGE X0 Y0 X1 Y1 [protect]")
		}
		page, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("add: page: %w", err)
		}
		nums, err := floats(args[1:5])
		if err != nil {
			return fmt.Errorf("add: %w", err)
		}
		kind, err := kindArg(args[5:])
		if err != nil {
			return err
		}
		return e.add(page, geom.RectGeometry(geom.R(nums[0], nums[1], nums[2], nums[3])), kind)
	case "polygon":
		if len(args) < 4 {
			return fmt.Errorf("polygon: want PAGE and at least three X,Y points")
		}
		page, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("polygon: page: %w", err)
		}
		rest := args[1:]
		kind := region.Redact
		if last := rest[len(rest)-1]; !strings.Contains(last, ",") {
			if kind, err = kindArg([]string{last}); err != nil {
				return err
			}
			rest = rest[:len(rest)-1]
		}
		var poly geom.Polygon
		for _, p := range rest {
			x, y, ok := strings.Cut(p, ",")
			if !ok {
				return fmt.Errorf("polygon: point %q is not X,Y", p)
			}
			xy, err := floats([]string{x, y})
			if err != nil {
				return fmt.Errorf("polygon: %w", err)
			}
			poly = append(poly, geom.Point{X: xy[0], Y: xy[1]})
		}
		return e.add(page, geom.PolygonGeometry(poly), kind)
	case "remove", "toggle":
		if len(args) != 1 {
			return fmt.Errorf("%s: want ID", verb)
		}
		if verb == "remove" {
			return e.sess.Remove(args[0])
		}
		return e.sess.ToggleKind(args[0])
	case "move":
		if len(args) != 3 {
			return fmt.Errorf("move: want ID DX DY")
		}
		d, err := floats(args[1:])
		if err != nil {
			return fmt.Errorf("move: %w", err)
		}
		return e.sess.Move(args[0], d[0], d[1])
	case "clear":
		return e.sess.Clear()
	case "promote":
		if len(args) != 1 {
			return fmt.Errorf("promote: want PAGE")
		}
		page, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("promote: page: %w", err)
		}
		return e.promote(page)
	case "undo", "redo":
		undo := e.sess.Undo
		if verb == "redo" {
			undo = e.sess.Redo
		}
		label, err := undo()
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "%s: %s\n", verb, label)
		return nil
	case "history":
		labels, cursor := e.sess.History()
		for i, l := range labels {
			mark := " "
			if i < cursor {
				mark = "*"
			}
			fmt.Fprintf(e.out, "%s %s\n", mark, l)
		}
		return nil
	case "snapshot":
		path, err := e.c.store().SaveRegions(stem(e.input), e.sess.Regions())
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, path)
		return nil
	}
	return fmt.Errorf("unknown verb %q", verb)
}

func (e *editor) add(page int, g geom.Geometry, kind region.Kind) error {
	r, err := e.sess.Add(page, g, kind)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, r.ID)
	return nil
}

func (e *editor) list() {
	for _, r := range e.sess.Regions() {
		b := r.Geometry.Bounds()
		shape := "rect"
		if r.Geometry.IsPolygon() {
			shape = fmt.Sprintf("polygon(%d)", len(r.Geometry.Polygon))
		}
		fmt.Fprintf(e.out, "%s\tpage %d\t%s\t%s\t%s\t%.1f %.1f %.1f %.1f\n",
			r.ID, r.Page, r.Kind, r.Origin, shape, b.X0, b.Y0, b.X1, b.Y1)
	}
}

func (e *editor) promote(page int) error {
	set, err := e.c.patternSet(e.f, false)
	if err != nil {
		return err
	}
	eng, err := e.c.newEngine(set, nil)
	if err != nil {
		return err
	}
	res, err := eng.Scan(e.ctx, e.input, nil)
	if err != nil {
		return err
	}
	if page < 0 || page >= len(res.Analysis.Pages) {
		return fmt.Errorf("promote: page %d out of range", page)
	}
	added, err := e.sess.Promote(page, res.Analysis.Pages[page].Matches)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "promoted %d regions\n", len(added))
	return nil
}

func floats(in []string) ([]float64, error) {
	out := make([]float64, len(in))
	for i, s := range in {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func kindArg(rest []string) (region.Kind, error) {
	if len(rest) == 0 {
		return region.Redact, nil
	}
	return region.ParseKind(rest[0])
}
