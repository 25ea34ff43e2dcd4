package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "texcv",
	Short: "Résumé and CV builder backed by a LaTeX rendering service",
	Long: `texcv edits résumé/CV documents and relays them to a rendering backend
that produces PDF and LaTeX output.

Run "texcv serve" for the HTTP server, "texcv mcp" for the MCP stdio server,
or use the one-shot commands below against a local document file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(texCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
