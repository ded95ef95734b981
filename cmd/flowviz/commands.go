package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rendis/flowviz/internal/diagram"
	"github.com/rendis/flowviz/internal/logging"
	"github.com/rendis/flowviz/internal/viewport"
	"github.com/rendis/flowviz/pkg/mcp"
	"github.com/rendis/flowviz/pkg/schema"
)

func newExtractCmd(a *app) *cobra.Command {
	var in draftFlags
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the integrations, agents and tasks found in a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := in.load(cmd, a)
			if err != nil {
				return err
			}
			c, err := a.newClassifier()
			if err != nil {
				return err
			}
			return writeJSON(cmd, c.Classify(d.Instructions))
		},
	}
	in.register(cmd)
	return cmd
}

// buildLayout loads the draft and lays it out with the configured
// classifier.
func (a *app) buildLayout(cmd *cobra.Command, in *draftFlags) (*schema.FlowLayout, error) {
	d, err := in.load(cmd, a)
	if err != nil {
		return nil, err
	}
	c, err := a.newClassifier()
	if err != nil {
		return nil, err
	}
	layout := diagram.BuildDraft(d, c)

	ctx := logging.WithIDs(cmd.Context(), "", d.Name, cmd.Name())
	a.logger.DebugContext(ctx, "layout built", "nodes", len(layout.Nodes), "width", layout.TotalWidth, "height", layout.TotalHeight)
	return layout, nil
}

func newLayoutCmd(a *app) *cobra.Command {
	var (
		in     draftFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute node positions and connector paths for a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "mermaid" {
				return schema.NewErrorf(schema.ErrCodeValidation, "unsupported format %q (json or mermaid)", format)
			}
			layout, err := a.buildLayout(cmd, &in)
			if err != nil {
				return err
			}
			if format == "mermaid" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), diagram.RenderMermaid(layout))
				return err
			}
			return writeJSON(cmd, layout)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json or mermaid")
	return cmd
}

type containerFlags struct {
	width, height float64
}

func (f *containerFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "container width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "container height (default from config)")
}

func (f *containerFlags) size(cmd *cobra.Command, cfg Config) viewport.Size {
	size := cfg.container()
	if cmd.Flags().Changed("width") {
		size.Width = f.width
	}
	if cmd.Flags().Changed("height") {
		size.Height = f.height
	}
	return size
}

// viewResult is the JSON output of fit and replay.
type viewResult struct {
	Viewport  viewport.Viewport `json:"viewport"`
	Transform string            `json:"transform"`
}

func newFitCmd(a *app) *cobra.Command {
	var (
		in        draftFlags
		container containerFlags
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Compute the viewport transform that fits a draft's layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layout, err := a.buildLayout(cmd, &in)
			if err != nil {
				return err
			}
			size := container.size(cmd, a.cfg)
			if !size.Valid() {
				return schema.NewErrorf(schema.ErrCodeValidation, "invalid container size %gx%g", size.Width, size.Height)
			}
			ctrl := viewport.NewController(a.cfg.viewportConfig(), size)
			w, h := layout.Size()
			ctrl.SetLayout(viewport.Size{Width: w, Height: h})

			vp := ctrl.Viewport()
			return writeJSON(cmd, viewResult{Viewport: vp, Transform: vp.State.Transform()})
		},
	}
	in.register(cmd)
	container.register(cmd)
	return cmd
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		in         draftFlags
		container  containerFlags
		eventsPath string
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a recorded event log to a viewport and print the result",
		Long:  "Replay reads a JSON array of viewport events (wheel, zoom, pointer_*, resize, layout, fit). With a draft, the viewport is first fitted to the draft's layout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd, eventsPath)
			if err != nil {
				return fmt.Errorf("reading events %s: %w", eventsPath, err)
			}
			if err := a.validator.ParseEvents(data); err != nil {
				return fmt.Errorf("parsing events %s: %w", eventsPath, err)
			}
			events, err := viewport.DecodeEvents(data)
			if err != nil {
				return fmt.Errorf("parsing events %s: %w", eventsPath, err)
			}

			ctrl := viewport.NewController(a.cfg.viewportConfig(), container.size(cmd, a.cfg))
			if in.given() {
				layout, err := a.buildLayout(cmd, &in)
				if err != nil {
					return err
				}
				w, h := layout.Size()
				ctrl.SetLayout(viewport.Size{Width: w, Height: h})
			}

			ctx := logging.WithTool(cmd.Context(), "replay")
			ctrl.OnTransition(viewport.ModeIdle, viewport.ModePanning, func(from, to viewport.Mode) error {
				a.logger.DebugContext(ctx, "pan started")
				return nil
			})
			ctrl.OnTransition(viewport.ModePanning, viewport.ModeIdle, func(from, to viewport.Mode) error {
				a.logger.DebugContext(ctx, "pan ended", "pan_x", ctrl.State().Pan.X, "pan_y", ctrl.State().Pan.Y)
				return nil
			})
			if err := ctrl.DispatchAll(events); err != nil {
				return err
			}

			vp := ctrl.Viewport()
			return writeJSON(cmd, viewResult{Viewport: vp, Transform: vp.State.Transform()})
		},
	}
	in.register(cmd)
	container.register(cmd)
	cmd.Flags().StringVarP(&eventsPath, "events", "e", "", `event log JSON file ("-" for stdin)`)
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the flowviz MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.newClassifier()
			if err != nil {
				return err
			}
			srv, err := mcp.NewFlowvizServer(mcp.FlowvizServerDeps{
				Classifier: c,
				RulesPath:  a.cfg.RulesPath,
				Validator:  a.validator,
				Viewport:   a.cfg.viewportConfig(),
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.InfoContext(ctx, "flowviz MCP server starting", "version", version, "classifier", a.cfg.Classifier)
			return srv.Serve(ctx)
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd, a.cfg)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := writeSettings(a.settings, defaultConfig(), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.settings)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing settings file")
	cmd.AddCommand(initCmd)
	return cmd
}
