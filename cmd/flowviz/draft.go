package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rendis/flowviz/pkg/schema"
)

// draftFlags is the draft input shared by extract, layout, fit and replay:
// either a JSON draft file or the individual fields.
type draftFlags struct {
	path         string
	trigger      string
	name         string
	instructions string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "draft", "d", "", `draft JSON file ("-" for stdin)`)
	cmd.Flags().StringVar(&f.trigger, "trigger", "", "hook trigger: pre-tool or post-tool")
	cmd.Flags().StringVar(&f.name, "name", "", "hook name")
	cmd.Flags().StringVarP(&f.instructions, "instructions", "i", "", "hook instructions")
}

// given reports whether any draft input was supplied.
func (f *draftFlags) given() bool {
	return f.path != "" || f.trigger != "" || f.name != "" || f.instructions != ""
}

// load returns the validated draft. Field flags override values from the
// draft file.
func (f *draftFlags) load(cmd *cobra.Command, a *app) (schema.Draft, error) {
	var d schema.Draft
	if f.path != "" {
		data, err := readInput(cmd, f.path)
		if err != nil {
			return d, fmt.Errorf("reading draft %s: %w", f.path, err)
		}
		d, err = a.validator.ParseDraft(data)
		if err != nil {
			return d, fmt.Errorf("parsing draft %s: %w", f.path, err)
		}
	}
	if cmd.Flags().Changed("trigger") {
		d.Trigger = schema.TriggerKind(f.trigger)
	}
	if cmd.Flags().Changed("name") {
		d.Name = f.name
	}
	if cmd.Flags().Changed("instructions") {
		d.Instructions = f.instructions
	}
	if err := a.validator.ValidateDraft(d); err != nil {
		return d, err
	}
	return d, nil
}
