package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rendis/flowviz/internal/extract"
	"github.com/rendis/flowviz/internal/logging"
	"github.com/rendis/flowviz/internal/validation"
)

// app is the state shared by every subcommand, filled in by the root
// command's PersistentPreRunE.
type app struct {
	settings   string
	logLevel   string
	classifier string
	rulesPath  string

	cfg       Config
	logger    *slog.Logger
	validator *validation.JSONSchemaValidator
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "flowviz",
		Short:         "Flow diagrams for agent hook drafts",
		Long:          "Extract integrations, agents and tasks from hook instructions, lay them out as a flow diagram, and drive a pan/zoom viewport over it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.settings, "settings", settingsPath(), "path to settings.json")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.classifier, "classifier", "", "classifier: pattern, rules or structured")
	root.PersistentFlags().StringVar(&a.rulesPath, "rules", "", "path to a YAML rule file")

	root.AddCommand(
		newExtractCmd(a),
		newLayoutCmd(a),
		newFitCmd(a),
		newReplayCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.settings)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("classifier") {
		cfg.Classifier = a.classifier
	}
	if flags.Changed("rules") {
		cfg.RulesPath = a.rulesPath
	}
	a.cfg = cfg
	a.logger = logging.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())

	v, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return err
	}
	a.validator = v
	return nil
}

func (a *app) newClassifier() (extract.Classifier, error) {
	return extract.New(a.cfg.Classifier, a.cfg.RulesPath)
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
