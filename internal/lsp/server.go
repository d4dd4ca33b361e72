package lsp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/logger"
	"github.com/glsld/glsld/internal/lsp/protocol"
	"github.com/glsld/glsld/internal/workspace"
	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"
)

// ProjectOpener opens the index state of a workspace root.
type ProjectOpener func(root string) (*workspace.Project, error)

// Server represents the LSP server
type Server struct {
	rootPath             string
	conn                 atomic.Pointer[jsonrpc2.Conn]
	completionProviders  []CompletionProvider
	definitionProviders  []GotoDefinitionProvider
	diagnosticsProviders []DiagnosticsProvider
	documentManager      *DocumentManager
	openProject          ProjectOpener
	log                  *zap.SugaredLogger

	projectMu sync.RWMutex
	project   *workspace.Project

	// Background indexing outlives the request that started it.
	indexCtx    context.Context
	cancelIndex context.CancelFunc
	indexing    sync.WaitGroup
}

// NewServer creates a new LSP server. openProject runs during initialize
// with the client's workspace root; nil runs the server without a
// workspace index.
func NewServer(openProject ProjectOpener) *Server {
	indexCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		indexCtx:             indexCtx,
		cancelIndex:          cancel,
		completionProviders:  make([]CompletionProvider, 0),
		definitionProviders:  make([]GotoDefinitionProvider, 0),
		diagnosticsProviders: make([]DiagnosticsProvider, 0),
		documentManager:      NewDocumentManager(),
		openProject:          openProject,
		log:                  logger.ComponentLogger("lsp"),
	}
}

// RegisterCompletionProvider registers a completion provider with the server
func (s *Server) RegisterCompletionProvider(provider CompletionProvider) {
	s.completionProviders = append(s.completionProviders, provider)
}

// RegisterDefinitionProvider registers a definition provider with the server
func (s *Server) RegisterDefinitionProvider(provider GotoDefinitionProvider) {
	s.definitionProviders = append(s.definitionProviders, provider)
}

// RegisterDiagnosticsProvider registers a diagnostics provider with the server
func (s *Server) RegisterDiagnosticsProvider(provider DiagnosticsProvider) {
	s.diagnosticsProviders = append(s.diagnosticsProviders, provider)
}

// Project returns the opened workspace, or nil before initialize.
func (s *Server) Project() *workspace.Project {
	s.projectMu.RLock()
	defer s.projectMu.RUnlock()
	return s.project
}

// FindSymbol looks name up in the workspace declaration index.
func (s *Server) FindSymbol(name string) ([]workspace.SymbolLocation, error) {
	project := s.Project()
	if project == nil {
		return nil, nil
	}
	return project.Decls.FindSymbol(name)
}

func (s *Server) DocumentManager() *DocumentManager {
	return s.documentManager
}

// indexAll builds or updates the workspace index
// If forceReindex is true, it will clear the existing index before rebuilding
func (s *Server) indexAll(ctx context.Context, forceReindex bool) error {
	project := s.Project()
	if project == nil {
		return nil
	}
	startTime := time.Now()

	s.notify(ctx, protocol.MethodIndexingStarted, map[string]interface{}{
		"message": "Indexing started",
	})

	if forceReindex {
		if err := project.Scanner.ClearHashes(); err != nil {
			return err
		}
	}

	if err := project.Scanner.IndexAll(ctx); err != nil {
		return err
	}

	files, err := project.Decls.Files()
	if err != nil {
		return err
	}
	s.notify(ctx, protocol.MethodIndexingCompleted, protocol.IndexingCompletedParams{
		Message:       "Indexing completed",
		Files:         len(files),
		TimeInSeconds: time.Since(startTime).Seconds(),
	})
	return nil
}

func (s *Server) startIndexing(forceReindex bool) {
	s.indexing.Add(1)
	go func() {
		defer s.indexing.Done()
		if err := s.indexAll(s.indexCtx, forceReindex); err != nil {
			s.log.Errorw("Indexing failed", logger.FieldError, err)
		}
	}()
}

// CloseAll closes the workspace index and drops open documents.
func (s *Server) CloseAll() error {
	s.cancelIndex()
	s.indexing.Wait()
	s.documentManager.Close()

	s.projectMu.Lock()
	defer s.projectMu.Unlock()
	if s.project == nil {
		return nil
	}
	err := s.project.Close()
	s.project = nil
	return err
}

func (s *Server) Start(in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewBufferedStream(rwc{in, out}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(s.handle))
	s.conn.Store(conn)

	// Wait for the connection to close
	<-conn.DisconnectNotify()
	return nil
}

// rwc combines a reader and writer into a single ReadWriteCloser
type rwc struct {
	io.Reader
	io.Writer
}

// Close closes whichever side supports it.
func (c rwc) Close() error {
	var err error
	if closer, ok := c.Reader.(io.Closer); ok {
		err = closer.Close()
	}
	if closer, ok := c.Writer.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Server) notify(ctx context.Context, method string, params interface{}) {
	conn := s.conn.Load()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, method, params); err != nil {
		s.log.Warnw("Notification failed", logger.FieldMethod, method, logger.FieldError, err)
	}
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
	}
	return nil
}

// handle processes incoming JSON-RPC requests and notifications
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	// The first request can arrive before Start stores the connection.
	s.conn.CompareAndSwap(nil, conn)

	// Handle exit notification after shutdown
	if req.Method == "exit" {
		s.log.Info("Received exit notification, exiting")
		if err := conn.Close(); err != nil {
			s.log.Warnw("Error closing connection", logger.FieldError, err)
		}
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		var params protocol.InitializeParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.initialize(ctx, &params), nil

	case "initialized":
		s.initialized()
		return nil, nil

	case "textDocument/didOpen":
		var params protocol.DidOpenTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		doc := s.documentManager.OpenDocument(string(params.TextDocument.URI), params.TextDocument.Text, int(params.TextDocument.Version))
		s.publishDiagnostics(ctx, doc)
		return nil, nil

	case "textDocument/didChange":
		var params protocol.DidChangeTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		if len(params.ContentChanges) > 0 {
			last := params.ContentChanges[len(params.ContentChanges)-1]
			doc := s.documentManager.UpdateDocument(params.TextDocument.URI, last.Text, params.TextDocument.Version)
			s.publishDiagnostics(ctx, doc)
		}
		return nil, nil

	case "textDocument/didSave":
		var params protocol.DidSaveTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.didSave(ctx, string(params.TextDocument.URI), params.Text)
		return nil, nil

	case "textDocument/didClose":
		var params protocol.DidCloseTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		uri := string(params.TextDocument.URI)
		s.documentManager.CloseDocument(uri)
		s.publish(ctx, uri, 0, nil)
		return nil, nil

	case "textDocument/completion":
		var params protocol.CompletionParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.completion(ctx, &params), nil

	case "textDocument/definition":
		var params protocol.DefinitionParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.definition(ctx, &params), nil

	case "textDocument/documentSymbol":
		var params protocol.DocumentSymbolParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.documentSymbols(params.TextDocument.URI), nil

	case "workspace/symbol":
		var params protocol.WorkspaceSymbolParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.workspaceSymbols(params.Query)

	case "workspace/executeCommand":
		var params protocol.ExecuteCommandParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.executeCommand(ctx, &params)

	case protocol.MethodForceReindex:
		s.startIndexing(true)
		return map[string]interface{}{
			"message": "Force reindexing started",
		}, nil

	case "shutdown":
		if err := s.CloseAll(); err != nil {
			s.log.Errorw("Error closing workspace", logger.FieldError, err)
		}
		s.log.Info("Received shutdown request, waiting for exit notification")
		return nil, nil

	case "workspace/didChangeWatchedFiles":
		var params protocol.DidChangeWatchedFilesParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.didChangeWatchedFiles(ctx, &params)
		return nil, nil

	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "Method not implemented: " + req.Method}
	}
}

// initialize handles the LSP initialize request
func (s *Server) initialize(ctx context.Context, params *protocol.InitializeParams) interface{} {
	s.extractRootPath(params)
	s.log.Infow("Initializing", logger.FieldPath, s.rootPath)

	if s.openProject != nil {
		project, err := s.openProject(s.rootPath)
		if err != nil {
			s.log.Errorw("Failed to open workspace, continuing without index", logger.FieldPath, s.rootPath, logger.FieldError, err)
		} else {
			s.attachProject(project)
		}
	}

	triggerChars := s.collectTriggerCharacters()

	return map[string]interface{}{
		"capabilities": map[string]interface{}{
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    1, // Full sync
				"save":      map[string]interface{}{"includeText": true},
			},
			"completionProvider": map[string]interface{}{
				"triggerCharacters": triggerChars,
			},
			"definitionProvider":      true,
			"documentSymbolProvider":  true,
			"workspaceSymbolProvider": true,
			"executeCommandProvider": map[string]interface{}{
				"commands": []string{protocol.CommandValidatorLog, protocol.CommandDocumentSymbols},
			},
		},
		"serverInfo": map[string]interface{}{
			"name": "glsld",
		},
	}
}

func (s *Server) attachProject(project *workspace.Project) {
	project.Decls.SetOverlay(s.documentManager)
	project.Scanner.SetOnUpdate(func(paths []string) {
		s.log.Debugw("Index updated", logger.FieldCount, len(paths))
		s.refreshDocuments(context.Background())
	})
	s.documentManager.Configure(project.Decls, project.Config.Stage())

	s.projectMu.Lock()
	s.project = project
	s.projectMu.Unlock()
}

// initialized starts background indexing and the file watcher.
func (s *Server) initialized() {
	project := s.Project()
	if project == nil {
		return
	}
	if project.Config.Index {
		s.startIndexing(false)
	}
	if project.Config.Watch {
		if err := project.Scanner.StartWatcher(); err != nil {
			s.log.Warnw("Failed to start file watcher", logger.FieldError, err)
		}
	}
}

func (s *Server) didSave(ctx context.Context, uri string, text *string) {
	doc, ok := s.documentManager.GetDocument(uri)
	if !ok {
		return
	}
	if text != nil && *text != doc.Text {
		doc = s.documentManager.UpdateDocument(uri, *text, doc.Version)
	}
	s.publishDiagnostics(ctx, doc)

	if project := s.Project(); project != nil {
		if err := project.Scanner.IndexFiles(ctx, []string{glsl.URIToPath(uri)}); err != nil {
			s.log.Warnw("Error indexing saved file", logger.FieldURI, uri, logger.FieldError, err)
		}
	}
}

func (s *Server) didChangeWatchedFiles(ctx context.Context, params *protocol.DidChangeWatchedFilesParams) {
	project := s.Project()
	if project == nil {
		return
	}

	var changed, deleted []string
	for _, change := range params.Changes {
		path := glsl.URIToPath(string(change.URI))
		switch change.Type {
		case protocol.FileChangeTypeCreated, protocol.FileChangeTypeChanged:
			changed = append(changed, path)
		case protocol.FileChangeTypeDeleted:
			deleted = append(deleted, path)
		}
	}

	if len(changed) > 0 {
		if err := project.Scanner.IndexFiles(ctx, changed); err != nil {
			s.log.Warnw("Error indexing changed files", logger.FieldError, err)
		}
	}
	if len(deleted) > 0 {
		if err := project.Scanner.RemoveFiles(deleted); err != nil {
			s.log.Warnw("Error removing deleted files", logger.FieldError, err)
		}
	}
}

// refreshDocuments rebuilds every open snapshot and republishes diagnostics.
func (s *Server) refreshDocuments(ctx context.Context) {
	for _, doc := range s.documentManager.Refresh() {
		s.publishDiagnostics(ctx, doc)
	}
}

// extractRootPath extracts the root path from the initialize params
func (s *Server) extractRootPath(params *protocol.InitializeParams) {
	if params.RootPath != "" {
		s.rootPath = params.RootPath
		return
	}

	if params.RootURI != "" {
		s.rootPath = glsl.URIToPath(params.RootURI)
		return
	}

	if len(params.WorkspaceFolders) > 0 {
		s.rootPath = glsl.URIToPath(params.WorkspaceFolders[0].URI)
		return
	}

	// Fall back to current directory
	s.rootPath, _ = os.Getwd()
}

// collectTriggerCharacters collects all trigger characters from registered providers
func (s *Server) collectTriggerCharacters() []string {
	seen := make(map[string]bool)
	triggerChars := make([]string, 0)

	for _, provider := range s.completionProviders {
		for _, char := range provider.GetTriggerCharacters() {
			if !seen[char] {
				seen[char] = true
				triggerChars = append(triggerChars, char)
			}
		}
	}

	return triggerChars
}
