package cli

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/httputil"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output      string   // output file (single format) or base path
	formats     []string // svg, json, dot, graphviz
	collapsed   []string // node refs to collapse, "id" or "ancestor:id"
	collapseAll bool     // collapse every non-root node first
	viewer      bool     // embed the pan and zoom script
	endpoint    string   // post-back endpoint of the viewer
	detailed    bool     // percent labels and collapse marks in DOT output
	title       string   // SVG title
	refresh     bool     // bypass cached artifacts
}

// formatExt is the file suffix of each format.
var formatExt = map[string]string{
	pipeline.FormatSVG:      ".svg",
	pipeline.FormatJSON:     ".json",
	pipeline.FormatDOT:      ".dot",
	pipeline.FormatGraphviz: ".dot.svg",
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file|url]",
		Short: "Render an org chart to SVG, JSON or DOT",
		Long: `Render lays out the entity tree in file ("-" for stdin, or an http(s) URL) and
writes one file per format. The collapse state is set with --collapsed and
--collapse-all.`,
		Example: `  orgchart render holding.json
  orgchart render holding.json -f svg,json --collapsed a,ancestor:p1
  cat holding.json | orgchart render - -o chart.svg --viewer
  orgchart render https://org.example.com/api/tree/42 -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (several), or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, graphviz (comma-separated)")
	cmd.Flags().StringSliceVar(&opts.collapsed, "collapsed", nil, "nodes to collapse: id or ancestor:id (repeatable)")
	cmd.Flags().BoolVar(&opts.collapseAll, "collapse-all", false, "collapse every node below the root")
	cmd.Flags().BoolVar(&opts.viewer, "viewer", false, "embed the pan and zoom viewer in the SVG")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "URL the viewer posts toggles and clicks to")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label DOT edges with ownership and mark collapsed nodes")
	cmd.Flags().StringVar(&opts.title, "title", "", "SVG title")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and fetched trees")

	return cmd
}

// parseFormats parses a comma-separated format list. Empty means svg.
func parseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// basePath derives the output base from the output flag or the input file.
// A known format suffix on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		switch {
		case input == "-":
			return appName
		case httputil.IsURL(input):
			name := path.Base(strings.TrimRight(strings.SplitN(input, "?", 2)[0], "/"))
			if name == "" || name == "." || strings.Contains(name, ":") {
				return appName
			}
			return strings.TrimSuffix(name, path.Ext(name))
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	for _, ext := range []string{".dot.svg", ".svg", ".json", ".dot"} {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// outputPaths maps each format to its file. A single format written to an
// explicit output uses that path unchanged.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + formatExt[f]
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, input string, cfg *Config, opts renderOpts) error {
	if opts.output == "-" && len(opts.formats) > 1 {
		return fmt.Errorf("stdout takes a single format, got %d", len(opts.formats))
	}
	prog := newProgress(c.Logger)

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	tree, err := runner.Load(ctx, input, os.Stdin, opts.refresh)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded tree", "root", tree.ID, "entities", tree.Count())

	popts := cfg.pipelineOptions()
	popts.Formats = opts.formats
	popts.Collapsed = opts.collapsed
	popts.CollapseAll = opts.collapseAll
	popts.Viewer = opts.viewer || opts.endpoint != ""
	popts.Endpoint = opts.endpoint
	popts.Detailed = opts.detailed
	popts.Title = opts.title
	popts.Refresh = opts.refresh

	res, err := renderWithSpinner(ctx, runner, tree, popts, opts.output == "-")
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(res.Artifacts[opts.formats[0]])
		return err
	}

	paths := outputPaths(opts.output, input, opts.formats)
	formats := make([]string, 0, len(paths))
	for f := range paths {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	for _, f := range formats {
		if err := writeFile(paths[f], res.Artifacts[f]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", StyleHighlight.Render(tree.Label()))
	printStats(res.Stats.Entities, res.Stats.Visible, res.CacheHit)
	for _, f := range formats {
		printFile(paths[f])
	}
	prog.done("Render complete")
	return nil
}

func renderWithSpinner(ctx context.Context, runner *pipeline.Runner, tree *orgtree.Entity, opts pipeline.Options, quiet bool) (*pipeline.Result, error) {
	if quiet {
		return runner.Render(ctx, tree, opts)
	}
	spinner := newSpinnerWithContext(ctx, "Rendering chart...")
	spinner.Start()
	res, err := runner.Render(ctx, tree, opts)
	spinner.Stop()
	return res, err
}

// writeFile writes data, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
