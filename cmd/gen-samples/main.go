// gen-samples generates sample layouts for README documentation.
// Run: go run ./cmd/gen-samples
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rendis/flowviz/internal/diagram"
	"github.com/rendis/flowviz/internal/viewport"
	"github.com/rendis/flowviz/pkg/schema"
)

var samples = []schema.Draft{
	{
		Trigger: schema.TriggerPreTool,
		Name:    "review-gate",
		Instructions: "Before any push, ask Claude to act as code reviewer.\n" +
			"Post the verdict to Slack and link the Jira ticket.\n" +
			"- run the unit tests\n" +
			"- check for leaked secrets\n" +
			"- summarize the diff",
	},
	{
		Trigger: schema.TriggerPostTool,
		Name:    "deploy-notify",
		Instructions: "After deploys, post to Discord and open a Sentry release.\n" +
			"1. tag the release in GitHub\n" +
			"2. update the changelog",
	},
	{
		Trigger:      schema.TriggerPreTool,
		Name:         "empty",
		Instructions: "",
	},
}

func main() {
	outDir := filepath.Join("docs", "assets")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir error: %v\n", err)
		os.Exit(1)
	}

	container := viewport.Size{Width: 1024, Height: 768}
	for _, d := range samples {
		layout := diagram.BuildDraft(d, nil)
		w, h := layout.Size()
		fit := viewport.FitToView(viewport.InitialState(), viewport.DefaultConfig,
			viewport.Size{Width: w, Height: h}, container, viewport.DefaultConfig.FitPadding)

		sample := map[string]any{
			"draft":     d,
			"layout":    layout,
			"container": container,
			"fit":       fit,
			"transform": fit.Transform(),
		}
		data, err := json.MarshalIndent(sample, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal error: %v\n", err)
			os.Exit(1)
		}

		jsonPath := filepath.Join(outDir, "layout-"+d.Name+".json")
		mdPath := filepath.Join(outDir, "layout-"+d.Name+".md")
		mermaid := diagram.RenderMermaid(layout)
		if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(mdPath, []byte("```mermaid\n"+mermaid+"```\n"), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("=== %s (%gx%g, fit %s) ===\n", d.Name, w, h, fit.Transform())
		fmt.Println(mermaid)
	}
}
