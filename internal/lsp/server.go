// Package lsp implements the Language Server Protocol front end for the
// ansible-playbook syntax checker. It wires document lifecycle events to
// the checker, republishes the checker's findings as diagnostics, and
// serves a static completion list.
package lsp

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/ansible-tools/ansible-ls/internal/checker"
	"github.com/ansible-tools/ansible-ls/internal/runner"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// Server implements the LSP session for the syntax-check adapter
type Server struct {
	// validator coordinates external checker runs
	validator *checker.Validator

	// conn is the JSON-RPC connection
	conn jsonrpc2.Conn

	// client is the LSP client interface
	client protocol.Client

	// logger for debugging
	logger *log.Logger

	// workspaceRoot is the root directory of the workspace
	workspaceRoot string

	// Server capabilities
	capabilities protocol.ServerCapabilities

	// ctx is the server lifetime context, used when publishing from
	// process-exit callbacks that outlive the request that started them
	ctx context.Context

	// cancel is used to signal server shutdown
	cancel context.CancelFunc
}

// NewServer creates a new LSP server instance. An empty checkerCommand
// selects the default ansible-playbook executable.
func NewServer(checkerCommand string) *Server {
	logger := log.New(os.Stderr, "[LSP] ", log.LstdFlags)

	s := &Server{
		logger: logger,
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: true,
			},
		},
	}
	s.validator = checker.NewValidator(
		runner.NewShellRunner(logger),
		checkerCommand,
		s.publishDiagnostics,
		logger,
	)
	return s
}

// SetMaxProblems seeds the diagnostic cap before the session starts.
// The client's didChangeConfiguration notifications replace it later.
func (s *Server) SetMaxProblems(n int) {
	s.validator.SetMaxProblems(n)
}

// Run starts the LSP server over stdin/stdout and blocks until the
// context is cancelled or the client requests exit.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting Ansible Syntax Language Server")

	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx
	s.cancel = cancel

	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		s.logger.Printf("Warning: Failed to create zap logger: %v", err)
		zapLogger = zap.NewNop()
	}
	s.client = protocol.ClientDispatcher(conn, zapLogger)

	conn.Go(ctx, s.handler())

	<-ctx.Done()

	s.logger.Println("Shutting down Ansible Syntax Language Server")
	return conn.Close()
}

// handler returns the JSON-RPC handler function
func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Printf("Received: %s", req.Method())

		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return s.handleInitialized(ctx, reply, req)
		case protocol.MethodShutdown:
			return s.handleShutdown(ctx, reply, req)
		case protocol.MethodExit:
			return s.handleExit(ctx, reply, req)
		case protocol.MethodTextDocumentDidOpen:
			return s.handleTextDocumentDidOpen(ctx, reply, req)
		case protocol.MethodTextDocumentDidChange:
			return s.handleTextDocumentDidChange(ctx, reply, req)
		case protocol.MethodTextDocumentDidClose:
			return s.handleTextDocumentDidClose(ctx, reply, req)
		case protocol.MethodWorkspaceDidChangeConfiguration:
			return s.handleDidChangeConfiguration(ctx, reply, req)
		case protocol.MethodWorkspaceDidChangeWatchedFiles:
			return s.handleDidChangeWatchedFiles(ctx, reply, req)
		case protocol.MethodTextDocumentCompletion:
			return s.handleTextDocumentCompletion(ctx, reply, req)
		case protocol.MethodCompletionItemResolve:
			return s.handleCompletionItemResolve(ctx, reply, req)
		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

// handleInitialize handles the initialize request
func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse initialize params")
	}

	s.logger.Printf("Initialize from client: %v", params.ClientInfo)

	if len(params.WorkspaceFolders) > 0 {
		s.workspaceRoot = uri.URI(params.WorkspaceFolders[0].URI).Filename()
		s.logger.Printf("Workspace root set to: %s", s.workspaceRoot)
	} else if params.RootURI != "" {
		s.workspaceRoot = params.RootURI.Filename()
		s.logger.Printf("Workspace root set to: %s (from rootUri)", s.workspaceRoot)
	} else if params.RootPath != "" {
		s.workspaceRoot = params.RootPath
		s.logger.Printf("Workspace root set to: %s (from rootPath)", s.workspaceRoot)
	}

	result := protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo: &protocol.ServerInfo{
			Name:    "ansible-ls",
			Version: "0.1.0",
		},
	}

	return reply(ctx, result, nil)
}

// handleInitialized handles the initialized notification
func (s *Server) handleInitialized(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Println("Client initialized")
	return reply(ctx, nil, nil)
}

// handleShutdown handles the shutdown request
func (s *Server) handleShutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Println("Shutdown requested")
	return reply(ctx, nil, nil)
}

// handleExit handles the exit notification
func (s *Server) handleExit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Println("Exit requested")
	if err := reply(ctx, nil, nil); err != nil {
		s.logger.Printf("Error replying to exit: %v", err)
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// handleTextDocumentDidOpen handles document open notifications
func (s *Server) handleTextDocumentDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didOpen params")
	}

	docURI := string(params.TextDocument.URI)
	version := int(params.TextDocument.Version)

	s.logger.Printf("Document opened: %s (version %d)", docURI, version)

	s.validator.OpenDocument(docURI, params.TextDocument.Text, version)
	s.validator.Validate(ctx, docURI)

	return reply(ctx, nil, nil)
}

// handleTextDocumentDidChange handles document change notifications
func (s *Server) handleTextDocumentDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didChange params")
	}

	docURI := string(params.TextDocument.URI)
	version := int(params.TextDocument.Version)

	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// We use full document sync, so take the last change
	content := params.ContentChanges[len(params.ContentChanges)-1].Text

	s.logger.Printf("Document changed: %s (version %d)", docURI, version)

	s.validator.UpdateDocument(docURI, content, version)
	s.validator.Validate(ctx, docURI)

	return reply(ctx, nil, nil)
}

// handleTextDocumentDidClose handles document close notifications
func (s *Server) handleTextDocumentDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didClose params")
	}

	docURI := string(params.TextDocument.URI)
	s.logger.Printf("Document closed: %s", docURI)

	s.validator.CloseDocument(docURI)

	return reply(ctx, nil, nil)
}

// handleDidChangeConfiguration replaces the maximum-problems setting and
// revalidates every tracked document under the new value.
func (s *Server) handleDidChangeConfiguration(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.validator.SetMaxProblems(maxProblemsFromSettings(req.Params()))
	s.logger.Printf("Configuration changed: maxNumberOfProblems=%d", s.validator.MaxProblems())

	for _, docURI := range s.validator.TrackedURIs() {
		s.validator.Validate(ctx, docURI)
	}

	return reply(ctx, nil, nil)
}

// maxProblemsFromSettings extracts the maximum-problems setting from a
// didChangeConfiguration payload. A missing, null, or zero value comes
// back as 0; the validator maps that to its default.
func maxProblemsFromSettings(raw json.RawMessage) int {
	var params struct {
		Settings struct {
			AnsibleSyntax struct {
				MaxNumberOfProblems int `json:"maxNumberOfProblems"`
			} `json:"ansibleSyntax"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return 0
	}
	return params.Settings.AnsibleSyntax.MaxNumberOfProblems
}

// handleDidChangeWatchedFiles handles watched-file notifications.
// Deliberately log-only: validation is driven by document changes.
func (s *Server) handleDidChangeWatchedFiles(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeWatchedFilesParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didChangeWatchedFiles params")
	}

	s.logger.Printf("Watched files changed: %d event(s)", len(params.Changes))
	return reply(ctx, nil, nil)
}

// publishDiagnostics publishes a completed run's diagnostics for a
// document. It is invoked from the checker's process-exit callback.
func (s *Server) publishDiagnostics(docURI string, diagnostics []checker.Diagnostic) {
	if s.client == nil {
		return
	}

	lspDiagnostics := make([]protocol.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		lspDiagnostics = append(lspDiagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      d.Range.Start.Line,
					Character: d.Range.Start.Character,
				},
				End: protocol.Position{
					Line:      d.Range.End.Line,
					Character: d.Range.End.Character,
				},
			},
			Severity: convertSeverity(d.Severity),
			Source:   d.Source,
			Message:  d.Message,
		})
	}

	params := protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(docURI),
		Diagnostics: lspDiagnostics,
	}

	if err := s.client.PublishDiagnostics(s.ctx, &params); err != nil {
		s.logger.Printf("Error publishing diagnostics: %v", err)
	}
}

// replyWithError sends an LSP-compliant error response
func (s *Server) replyWithError(ctx context.Context, reply jsonrpc2.Replier, code jsonrpc2.Code, message string) error {
	return reply(ctx, nil, &jsonrpc2.Error{
		Code:    code,
		Message: message,
	})
}

// convertSeverity converts checker diagnostic severity to LSP severity
func convertSeverity(severity checker.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case checker.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case checker.SeverityError:
		return protocol.DiagnosticSeverityError
	default:
		return protocol.DiagnosticSeverityError
	}
}

// stdrwc implements io.ReadWriteCloser for stdin/stdout
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
