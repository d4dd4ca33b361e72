package lsp_test

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glsld/glsld/internal/config"
	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/lsp"
	"github.com/glsld/glsld/internal/lsp/completion"
	"github.com/glsld/glsld/internal/lsp/definition"
	"github.com/glsld/glsld/internal/lsp/diagnostics"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/glsld/glsld/internal/workspace"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	conn  *jsonrpc2.Conn
	notes chan *jsonrpc2.Request
}

func newServer(open lsp.ProjectOpener) *lsp.Server {
	server := lsp.NewServer(open)
	server.RegisterCompletionProvider(completion.NewGLSLCompletionProvider())
	server.RegisterDefinitionProvider(definition.NewGLSLDefinitionProvider(server))
	server.RegisterDiagnosticsProvider(diagnostics.NewGLSLDiagnosticsProvider())
	return server
}

func startServer(t *testing.T, server *lsp.Server) *client {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Start(serverSide, serverSide)
	}()

	c := &client{notes: make(chan *jsonrpc2.Request, 64)}
	c.conn = jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
			c.notes <- req
			return nil, nil
		}))
	t.Cleanup(func() {
		_ = c.conn.Close()
		_ = serverSide.Close()
		<-done
	})
	return c
}

func (c *client) call(t *testing.T, method string, params, result interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.conn.Call(ctx, method, params, result))
}

func (c *client) notify(t *testing.T, method string, params interface{}) {
	t.Helper()
	require.NoError(t, c.conn.Notify(context.Background(), method, params))
}

func (c *client) waitFor(t *testing.T, method string) *jsonrpc2.Request {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case req := <-c.notes:
			if req.Method == method {
				return req
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", method)
			return nil
		}
	}
}

type publishedDiagnostics struct {
	URI         string `json:"uri"`
	Diagnostics []struct {
		Message string `json:"message"`
	} `json:"diagnostics"`
}

func (c *client) waitForDiagnostics(t *testing.T) publishedDiagnostics {
	t.Helper()
	req := c.waitFor(t, "textDocument/publishDiagnostics")
	var params publishedDiagnostics
	require.NoError(t, json.Unmarshal(*req.Params, &params))
	return params
}

func openParams(uri, text string, version int) map[string]interface{} {
	return map[string]interface{}{
		"textDocument": map[string]interface{}{
			"uri":        uri,
			"languageId": "glsl",
			"version":    version,
			"text":       text,
		},
	}
}

func positionParams(uri string, line, character int) map[string]interface{} {
	return map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
		"position":     map[string]interface{}{"line": line, "character": character},
	}
}

type completionResult struct {
	IsIncomplete bool `json:"isIncomplete"`
	Items        []struct {
		Label string `json:"label"`
		Kind  int    `json:"kind"`
	} `json:"items"`
}

func (r completionResult) labels() []string {
	out := make([]string, len(r.Items))
	for i, item := range r.Items {
		out[i] = item.Label
	}
	return out
}

func TestServerInitializeCapabilities(t *testing.T) {
	c := startServer(t, newServer(nil))

	var result struct {
		Capabilities struct {
			TextDocumentSync struct {
				OpenClose bool `json:"openClose"`
				Change    int  `json:"change"`
			} `json:"textDocumentSync"`
			CompletionProvider struct {
				TriggerCharacters []string `json:"triggerCharacters"`
			} `json:"completionProvider"`
			DefinitionProvider     bool `json:"definitionProvider"`
			DocumentSymbolProvider bool `json:"documentSymbolProvider"`
			ExecuteCommandProvider struct {
				Commands []string `json:"commands"`
			} `json:"executeCommandProvider"`
		} `json:"capabilities"`
	}
	c.call(t, "initialize", map[string]interface{}{"rootUri": "file:///tmp/none"}, &result)

	assert.True(t, result.Capabilities.TextDocumentSync.OpenClose)
	assert.Equal(t, 1, result.Capabilities.TextDocumentSync.Change)
	assert.Equal(t, []string{"."}, result.Capabilities.CompletionProvider.TriggerCharacters)
	assert.True(t, result.Capabilities.DefinitionProvider)
	assert.True(t, result.Capabilities.DocumentSymbolProvider)
	assert.ElementsMatch(t, []string{protocol.CommandValidatorLog, protocol.CommandDocumentSymbols},
		result.Capabilities.ExecuteCommandProvider.Commands)
}

func TestServerDocumentFlow(t *testing.T) {
	c := startServer(t, newServer(nil))
	c.call(t, "initialize", map[string]interface{}{}, nil)

	const uri = "file:///shader.vert"
	c.notify(t, "textDocument/didOpen", openParams(uri, "uniform vec3 ;\n", 1))
	diags := c.waitForDiagnostics(t)
	assert.Equal(t, uri, diags.URI)
	assert.NotEmpty(t, diags.Diagnostics)

	text := "struct Light { vec3 color; };\nuniform Light light;\nvoid main() {\n\tgl_Position = vec4(light.color, 1.0);\n}\n"
	c.notify(t, "textDocument/didChange", map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": uri, "version": 2},
		"contentChanges": []map[string]interface{}{{"text": text}},
	})
	assert.Empty(t, c.waitForDiagnostics(t).Diagnostics)

	// After "light." on line 3.
	var members completionResult
	c.call(t, "textDocument/completion", positionParams(uri, 3, 26), &members)
	assert.Equal(t, []string{"color"}, members.labels())
	assert.Equal(t, int(protocol.CompletionItemKindField), members.Items[0].Kind)

	// After "gl_Position" on line 3, bare prefix "gl_Po".
	var builtins completionResult
	c.call(t, "textDocument/completion", positionParams(uri, 3, 6), &builtins)
	assert.Contains(t, builtins.labels(), "gl_Position")

	var locations []struct {
		URI   string         `json:"uri"`
		Range protocol.Range `json:"range"`
	}
	c.call(t, "textDocument/definition", positionParams(uri, 3, 21), &locations)
	require.Len(t, locations, 1)
	assert.Equal(t, uri, locations[0].URI)
	assert.EqualValues(t, 1, locations[0].Range.Start.Line)

	var symbols []struct {
		Name string `json:"name"`
	}
	c.call(t, "textDocument/documentSymbol", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
	}, &symbols)
	require.Len(t, symbols, 3)
	assert.Equal(t, "Light", symbols[0].Name)

	c.notify(t, "textDocument/didClose", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
	})
	closed := c.waitForDiagnostics(t)
	assert.Equal(t, uri, closed.URI)
	assert.Empty(t, closed.Diagnostics)

	var empty completionResult
	c.call(t, "textDocument/completion", positionParams(uri, 3, 26), &empty)
	assert.Empty(t, empty.Items)
}

func TestServerValidatorLog(t *testing.T) {
	c := startServer(t, newServer(nil))
	c.call(t, "initialize", map[string]interface{}{}, nil)

	const uri = "file:///w/a.frag"
	c.notify(t, "textDocument/didOpen", openParams(uri, "void main() {}\n", 1))
	require.Empty(t, c.waitForDiagnostics(t).Diagnostics)

	var result struct {
		Published int `json:"published"`
	}
	c.call(t, "workspace/executeCommand", map[string]interface{}{
		"command": protocol.CommandValidatorLog,
		"arguments": []interface{}{map[string]interface{}{
			"uri": uri,
			"log": "ERROR: file:///w/a.frag:1: 'x' : undeclared identifier\n",
		}},
	}, &result)
	assert.Equal(t, 1, result.Published)

	diags := c.waitForDiagnostics(t)
	assert.Equal(t, uri, diags.URI)
	require.Len(t, diags.Diagnostics, 1)
	assert.Equal(t, "'x' : undeclared identifier", diags.Diagnostics[0].Message)
}

func TestServerUnknownMethod(t *testing.T) {
	c := startServer(t, newServer(nil))

	err := c.conn.Call(context.Background(), "glsld/unknown", map[string]interface{}{}, nil)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)

	c.notify(t, "$/cancelRequest", map[string]interface{}{"id": 1})
	c.call(t, "initialize", map[string]interface{}{}, nil)
}

func TestServerWorkspaceIndex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "common.glsl"), []byte("float shared;\nvec3 tint(vec3 c) { return c; }\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "skipped.glsl"), []byte("float hidden;\n"), 0o644))

	cacheDir := filepath.Join(t.TempDir(), "cache")
	open := func(root string) (*workspace.Project, error) {
		return workspace.OpenProject(root, &config.Config{
			Extensions:   []string{".glsl", ".frag"},
			CacheDir:     cacheDir,
			Index:        true,
			DefaultStage: "fragment",
		})
	}
	c := startServer(t, newServer(open))
	c.call(t, "initialize", map[string]interface{}{"rootUri": glsl.PathToURI(root)}, nil)
	c.notify(t, "initialized", map[string]interface{}{})
	c.waitFor(t, protocol.MethodIndexingStarted)

	var done protocol.IndexingCompletedParams
	require.NoError(t, json.Unmarshal(*c.waitFor(t, protocol.MethodIndexingCompleted).Params, &done))
	assert.Equal(t, 1, done.Files)

	var found []struct {
		Name     string `json:"name"`
		Location struct {
			URI string `json:"uri"`
		} `json:"location"`
	}
	c.call(t, "workspace/symbol", map[string]interface{}{"query": "SHAR"}, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "shared", found[0].Name)
	assert.Equal(t, glsl.PathToURI(filepath.Join(root, "common.glsl")), found[0].Location.URI)

	mainURI := glsl.PathToURI(filepath.Join(root, "main.frag"))
	text := "#include \"common.glsl\"\nvoid main() {\n\tvec3 c = tint(vec3(shared));\n}\n"
	c.notify(t, "textDocument/didOpen", openParams(mainURI, text, 1))
	assert.Empty(t, c.waitForDiagnostics(t).Diagnostics)

	// After "sha" inside "vec3(shared)".
	var items completionResult
	c.call(t, "textDocument/completion", positionParams(mainURI, 2, 23), &items)
	assert.Contains(t, items.labels(), "shared")

	var locations []struct {
		URI string `json:"uri"`
	}
	c.call(t, "textDocument/definition", positionParams(mainURI, 2, 11), &locations)
	require.Len(t, locations, 1)
	assert.Equal(t, glsl.PathToURI(filepath.Join(root, "common.glsl")), locations[0].URI)

	var reindex map[string]interface{}
	c.call(t, protocol.MethodForceReindex, map[string]interface{}{}, &reindex)
	assert.Equal(t, "Force reindexing started", reindex["message"])
	c.waitFor(t, protocol.MethodIndexingCompleted)

	c.call(t, "shutdown", nil, nil)
}
