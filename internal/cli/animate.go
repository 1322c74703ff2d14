package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/pipeline"
)

type animateOpts struct {
	output      string
	actions     []string
	fps         int
	collapsed   []string
	collapseAll bool
	refresh     bool
}

// animateCommand creates the animate command.
func (c *CLI) animateCommand() *cobra.Command {
	var opts animateOpts

	cmd := &cobra.Command{
		Use:   "animate [file|url]",
		Short: "Replay toggles and write one SVG per frame",
		Long: `Animate mounts the chart, replays each --action in order and writes every
sampled frame as an SVG into the output directory.

Actions:
  toggle:<id>             toggle a descendant node
  toggle:ancestor:<id>    toggle an ancestor node
  expand-all              expand every node
  collapse-all            collapse every node below the root
  wait:<duration>         hold the current frame`,
		Example: `  orgchart animate holding.json --action toggle:a --action wait:1s --action toggle:a
  orgchart animate holding.json --action collapse-all --fps 12 -o frames`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.actions) == 0 {
				return fmt.Errorf("at least one --action is required")
			}
			if _, err := pipeline.ParseActions(opts.actions); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runAnimate(cmd.Context(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default <input>-frames)")
	cmd.Flags().StringArrayVar(&opts.actions, "action", nil, "script step (repeatable)")
	cmd.Flags().IntVar(&opts.fps, "fps", pipeline.DefaultFPS, "frames per second")
	cmd.Flags().StringSliceVar(&opts.collapsed, "collapsed", nil, "nodes collapsed before the first frame")
	cmd.Flags().BoolVar(&opts.collapseAll, "collapse-all", false, "start with every node below the root collapsed")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached frames")

	return cmd
}

// framesDir is the default frame directory for input.
func framesDir(output, input string) string {
	if output != "" {
		return output
	}
	return basePath("", input) + "-frames"
}

func (c *CLI) runAnimate(ctx context.Context, input string, cfg *Config, opts animateOpts) error {
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

	popts := cfg.pipelineOptions()
	popts.FPS = opts.fps
	popts.Collapsed = opts.collapsed
	popts.CollapseAll = opts.collapseAll
	popts.Refresh = opts.refresh

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Animating %d actions...", len(opts.actions)))
	spinner.Start()
	frames, err := runner.Animate(ctx, tree, popts, opts.actions)
	spinner.Stop()
	if err != nil {
		return err
	}

	dir := framesDir(opts.output, input)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for i, frame := range frames {
		if err := writeFile(filepath.Join(dir, frameName(i)), frame); err != nil {
			return err
		}
	}

	printSuccess("Animated %s", StyleHighlight.Render(tree.Label()))
	printDetail("%d frames at %d fps", len(frames), opts.fps)
	printFile(dir)
	prog.done("Animation complete")
	return nil
}

// frameName is the file name of frame i, counted from one.
func frameName(i int) string {
	return fmt.Sprintf("frame-%04d.svg", i+1)
}
