package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/config"
	"github.com/kalambet/texcv/internal/document"
)

// readInput returns the raw bytes of path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

func loadDocument(cmd *cobra.Command) (document.Document, error) {
	input, _ := cmd.Flags().GetString("input")
	raw, err := readInput(cmd, input)
	if err != nil {
		return document.Document{}, err
	}
	return document.Import(raw)
}

func writeDocument(cmd *cobra.Command, doc document.Document) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// --- render ---

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a document to PDF through the backend",
	Long: `Render a document to PDF through the backend.

Examples:
  texcv sample | texcv render --type resume
  texcv render --input me.json --type all --output ./out`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, _ := cmd.Flags().GetString("type")
		outDir, _ := cmd.Flags().GetString("output")

		types := []string{docType}
		if docType == "all" {
			types = nil
			for _, t := range backend.DocTypes() {
				types = append(types, string(t))
			}
		}
		for _, t := range types {
			if _, err := backend.ParseDocType(t); err != nil {
				return err
			}
		}

		doc, err := loadDocument(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		printStep("Rendering %v via %s", types, cfg.Backend.BaseURL)
		arts, err := newGateway(cfg).RequestArtifacts(cmd.Context(), doc, types)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		for _, art := range arts {
			path := filepath.Join(outDir, art.Filename())
			if err := os.WriteFile(path, art.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			printSuccess("Wrote %s (%s)", path, pageLabel(art.Pages))
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().String("type", string(backend.Resume), "resume, cv or all")
	renderCmd.Flags().String("input", "", "document JSON file (default: stdin)")
	renderCmd.Flags().String("output", ".", "directory for the rendered PDFs")
}

// --- tex ---

var texCmd = &cobra.Command{
	Use:   "tex",
	Short: "Print the LaTeX source the backend generates for a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, _ := cmd.Flags().GetString("type")
		if _, err := backend.ParseDocType(docType); err != nil {
			return err
		}

		doc, err := loadDocument(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		src, err := newGateway(cfg).RequestSource(cmd.Context(), doc, docType)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), src)
		return err
	},
}

func init() {
	texCmd.Flags().String("type", string(backend.Resume), "resume or cv")
	texCmd.Flags().String("input", "", "document JSON file (default: stdin)")
}

// --- health ---

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the rendering backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		report, err := newGateway(cfg).Health(cmd.Context())
		if err != nil {
			printStatus("Backend", "%s", cfg.Backend.BaseURL)
			return fmt.Errorf("backend unhealthy: %w", err)
		}
		printStatus("Backend", "%s", cfg.Backend.BaseURL)
		printStatus("Status", "%s", report.Status)
		if !report.Healthy() {
			return fmt.Errorf("backend reported %q", report.Status)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(report.Body))
		return nil
	},
}

// --- normalize / clean / sample ---

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Coerce arbitrary JSON into the canonical document shape",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		raw, err := readInput(cmd, input)
		if err != nil {
			return err
		}
		v, err := document.Parse(raw)
		if err != nil {
			return err
		}

		diags, err := document.Diagnose(v)
		if err != nil {
			printWarning("schema check skipped: %v", err)
		}
		for _, d := range diags {
			printWarning("%s", d)
		}
		return writeDocument(cmd, document.Normalize(v))
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize a document and drop empty entries the way a render does",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd)
		if err != nil {
			return err
		}
		return writeDocument(cmd, document.Clean(doc))
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the built-in sample document",
	RunE: func(cmd *cobra.Command, args []string) error {
		blank, _ := cmd.Flags().GetBool("blank")
		if blank {
			return writeDocument(cmd, document.Blank())
		}
		return writeDocument(cmd, document.Sample())
	},
}

func init() {
	normalizeCmd.Flags().String("input", "", "JSON file (default: stdin)")
	cleanCmd.Flags().String("input", "", "JSON file (default: stdin)")
	sampleCmd.Flags().Bool("blank", false, "print the empty form instead")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		printStatus("Stored in", "%s", config.Location())
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Set a configuration value",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.ValidKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:       "unset <key>",
	Short:     "Remove a stored value so the default applies",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.ValidKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Store the bearer token for session routes in the platform secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetToken(args[0]); err != nil {
			return err
		}
		printSuccess("Server token stored")
		return nil
	},
}

var configClearTokenCmd = &cobra.Command{
	Use:   "clear-token",
	Short: "Remove the stored bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearToken(); err != nil {
			return err
		}
		printSuccess("Server token removed")
		if os.Getenv("TEXCV_SERVER_TOKEN") != "" {
			printWarning("TEXCV_SERVER_TOKEN is still set in the environment")
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configSetTokenCmd)
	configCmd.AddCommand(configClearTokenCmd)
}
