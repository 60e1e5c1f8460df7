package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Faultbox/scenejoin/internal/gather"
	"github.com/Faultbox/scenejoin/pkg/archive"
)

func newRootCommand() *cobra.Command {
	var noLoadOpt bool
	rootCmd := &cobra.Command{
		Use:           "scenetool",
		Short:         "Scene archive utility",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  scenetool info out.scn
  scenetool list out.scn "*body*"
  scenetool props out.scn /rig/body`,
	}
	rootCmd.PersistentFlags().BoolVar(&noLoadOpt, "no-load-opt", false, "Stream from disk instead of loading into memory")

	open := func(path string) (*archive.Archive, error) { return gather.Open(path, noLoadOpt) }
	rootCmd.AddCommand(newInfoCommand(open), newListCommand(open), newPropsCommand(open))
	return rootCmd
}

type opener func(path string) (*archive.Archive, error)

func newInfoCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.scn>",
		Short: "Show archive information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			printInfo(cmd.OutOrStdout(), a)
			return nil
		},
	}
}

func printInfo(out io.Writer, a *archive.Archive) {
	h := a.Header()
	encoding := "raw"
	if h.Compressed() {
		encoding = "compressed"
	}

	bySchema := make(map[archive.Schema]int)
	samples := 0
	a.Walk(func(o *archive.Object) bool {
		if o.Parent() != nil {
			bySchema[o.Schema()]++
		}
		samples = max(samples, o.NumSamples())
		return true
	})

	fmt.Fprintf(out, "Archive:  %s\n", a.Name())
	fmt.Fprintf(out, "ID:       %s\n", a.ID())
	fmt.Fprintf(out, "Size:     %s (%s)\n", humanize.Bytes(uint64(a.Size())), encoding)
	fmt.Fprintf(out, "Objects:  %d\n", a.NumObjects()-1)
	fmt.Fprintf(out, "Samples:  %d\n", samples)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Time samplings:")
	for i, ts := range a.TimeSamplings() {
		fmt.Fprintf(out, "  [%d] %-8s start %g  cycle %g\n", i, ts.Type, ts.Start(), ts.TimePerCycle)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Objects by schema:")
	schemas := make([]archive.Schema, 0, len(bySchema))
	for s := range bySchema {
		schemas = append(schemas, s)
	}
	sort.Slice(schemas, func(i, j int) bool { return bySchema[schemas[i]] > bySchema[schemas[j]] })
	for _, s := range schemas {
		fmt.Fprintf(out, "  %-10s %d\n", s, bySchema[s])
	}
}

func newListCommand(open opener) *cobra.Command {
	var limit int
	var geometryOnly bool
	cmd := &cobra.Command{
		Use:     "list <file.scn> [pattern]",
		Aliases: []string{"ls"},
		Short:   "List objects (optional glob pattern on the name)",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			pattern := ""
			if len(args) > 1 {
				pattern = strings.ToLower(args[1])
			}
			out := cmd.OutOrStdout()
			count := 0
			a.Walk(func(o *archive.Object) bool {
				if o.Parent() == nil || (limit > 0 && count >= limit) {
					return o.Parent() == nil
				}
				if geometryOnly && !o.Schema().IsGeometry() {
					return true
				}
				if pattern != "" && !matches(pattern, o) {
					return true
				}
				fmt.Fprintf(out, "%-8s %5d  %s\n", o.Schema(), o.NumSamples(), o.FullName())
				count++
				return true
			})
			if pattern != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n(%d objects matched)\n", count)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit output to N objects (0 = all)")
	cmd.Flags().BoolVarP(&geometryOnly, "geometry", "g", false, "Only list geometry objects")
	return cmd
}

func matches(pattern string, o *archive.Object) bool {
	name := strings.ToLower(o.Name())
	if ok, _ := filepath.Match(pattern, name); ok {
		return true
	}
	return strings.Contains(strings.ToLower(o.FullName()), pattern)
}

func newPropsCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "props <file.scn> <object path>",
		Short: "Show the properties of one object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			obj := a.Root()
			for _, name := range strings.FieldsFunc(args[1], func(r rune) bool { return r == '/' }) {
				next, ok := obj.Child(name)
				if !ok {
					return fmt.Errorf("object not found: %s", args[1])
				}
				obj = next
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", obj.FullName(), obj.Schema())
			fmt.Fprintln(cmd.OutOrStdout(), propsTable(obj))
			return nil
		},
	}
}

func propsTable(obj *archive.Object) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Property", "Type", "Extent", "Samples", "Sampling", "Start"})
	for _, p := range obj.Properties() {
		ts := p.TimeSampling()
		tw.AppendRow(table.Row{
			p.Name(),
			p.Type().String(),
			strconv.Itoa(p.Extent()),
			strconv.Itoa(p.NumSamples()),
			fmt.Sprintf("[%d] %s", p.TimeSamplingIndex(), ts.Type),
			strconv.FormatFloat(ts.Start(), 'g', -1, 64),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}
