package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "glsld",
	Short: "GLSL language server",
	Long: `glsld - GLSL language server with context-resolving completion.

Without a subcommand glsld serves the Language Server Protocol over stdio.

Examples:
  glsld                              # serve over stdio
  glsld complete shader.frag 12 18   # list completions at line 12, column 18
  glsld symbols shader.frag          # print the document symbols as JSON`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("root", "", "Workspace root (defaults to the current directory)")
	flags.StringSlice("include", nil, "Additional #include search directories")
	flags.String("stage", "", "Shader stage for files without a stage extension")
	flags.String("cache-dir", "", "Index cache directory")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Bool("log-json", false, "Log as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
