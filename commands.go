package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/glsld/glsld/internal/config"
	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/logger"
	"github.com/glsld/glsld/internal/lsp"
	"github.com/glsld/glsld/internal/lsp/completion"
	"github.com/glsld/glsld/internal/lsp/definition"
	"github.com/glsld/glsld/internal/lsp/diagnostics"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/glsld/glsld/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Language Server Protocol over stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var completeCmd = &cobra.Command{
	Use:   "complete <file> <line> <column>",
	Short: "List completions at a 1-based line and column",
	Args:  cobra.ExactArgs(3),
	RunE:  runComplete,
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Print the document symbols of a shader as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show glsld version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "glsld %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// flagBindings maps config keys to the persistent flags that override them.
var flagBindings = map[string]string{
	"include_dirs":  "include",
	"default_stage": "stage",
	"cache_dir":     "cache-dir",
	"log.level":     "log-level",
	"log.json":      "log-json",
}

// loadConfig resolves the configuration of root with the command's flags
// layered on top.
func loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	v := config.New(root)
	for key, name := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, errors.Wrapf(err, "failed to bind flag --%s", name)
		}
	}
	return config.Load(v, root)
}

func workspaceRoot(cmd *cobra.Command) (string, error) {
	root, _ := cmd.Flags().GetString("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "failed to get working directory")
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve workspace root %s", root)
	}
	return abs, nil
}

// setup loads the configuration of the workspace root and starts logging.
func setup(cmd *cobra.Command) (string, *config.Config, error) {
	root, err := workspaceRoot(cmd)
	if err != nil {
		return "", nil, err
	}
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return "", nil, err
	}
	if err := logger.Initialize(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON}); err != nil {
		return "", nil, errors.Wrap(err, "failed to initialize logger")
	}
	return root, cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	root, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Cleanup()

	// The client's workspace root replaces root once initialize arrives.
	server := lsp.NewServer(func(projectRoot string) (*workspace.Project, error) {
		cfg, err := loadConfig(cmd, projectRoot)
		if err != nil {
			return nil, err
		}
		return workspace.OpenProject(projectRoot, cfg)
	})
	server.RegisterCompletionProvider(completion.NewGLSLCompletionProvider())
	server.RegisterDefinitionProvider(definition.NewGLSLDefinitionProvider(server))
	server.RegisterDiagnosticsProvider(diagnostics.NewGLSLDiagnosticsProvider())
	defer func() {
		if err := server.CloseAll(); err != nil {
			logger.Logger.Warnw("Error closing workspace", logger.FieldError, err)
		}
	}()

	logger.Logger.Infow("Starting language server", logger.FieldPath, root, logger.FieldVersion, version)
	return server.Start(os.Stdin, os.Stdout)
}

// loadDocument reads a shader file and builds its snapshot. Includes are
// resolved when includes is non-nil.
func loadDocument(path string, cfg *config.Config, includes glsl.IncludeSource) (string, *glsl.Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to resolve %s", path)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to read %s", path)
	}
	text := string(content)
	snap := glsl.NewSnapshot(text, glsl.SnapshotOptions{
		URI:      glsl.PathToURI(abs),
		Stage:    glsl.StageFromPath(abs, cfg.Stage()),
		Includes: includes,
	})
	return text, snap, nil
}

func parsePosition(lineArg, columnArg string) (glsl.Position, error) {
	line, err := strconv.Atoi(lineArg)
	if err != nil || line < 1 {
		return glsl.Position{}, errors.WithHint(errors.Newf("invalid line %q", lineArg), "lines start at 1")
	}
	column, err := strconv.Atoi(columnArg)
	if err != nil || column < 1 {
		return glsl.Position{}, errors.WithHint(errors.Newf("invalid column %q", columnArg), "columns start at 1")
	}
	return glsl.Position{Line: line - 1, Column: column - 1}, nil
}

func runComplete(cmd *cobra.Command, args []string) error {
	pos, err := parsePosition(args[1], args[2])
	if err != nil {
		return err
	}
	root, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Cleanup()

	project, err := workspace.OpenProject(root, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = project.Close() }()

	text, snap, err := loadDocument(args[0], cfg, project.Decls)
	if err != nil {
		return err
	}

	params := &protocol.CompletionParams{DocumentContent: text, Snapshot: snap}
	params.Position = protocol.FromPosition(pos)
	items := completion.NewGLSLCompletionProvider().GetCompletions(cmd.Context(), params)

	out := cmd.OutOrStdout()
	for _, item := range items {
		detail := ""
		if item.Detail != nil {
			detail = *item.Detail
		}
		fmt.Fprintf(out, "%s\t%s\n", item.Label, detail)
	}
	return nil
}

func runSymbols(cmd *cobra.Command, args []string) error {
	_, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Cleanup()

	_, snap, err := loadDocument(args[0], cfg, nil)
	if err != nil {
		return err
	}

	doc, err := sjson.SetBytes([]byte(`{}`), "uri", snap.URI)
	if err != nil {
		return errors.Wrap(err, "failed to build symbol document")
	}
	doc, err = sjson.SetBytes(doc, "symbols", lsp.DocumentSymbols(snap))
	if err != nil {
		return errors.Wrap(err, "failed to build symbol document")
	}
	for i, parseErr := range snap.Errors() {
		doc, err = sjson.SetBytes(doc, fmt.Sprintf("errors.%d", i), parseErr.Error())
		if err != nil {
			return errors.Wrap(err, "failed to build symbol document")
		}
	}

	_, err = cmd.OutOrStdout().Write(pretty.Pretty(doc))
	return err
}
