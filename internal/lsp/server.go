package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/vivscript/vivc/internal/compiler"
	"github.com/vivscript/vivc/internal/diag"
)

// Server represents the LSP server.
type Server struct {
	// Documents tracks open files by URI
	Documents map[string]*Document
	mu        sync.RWMutex

	in     *bufio.Reader
	out    io.Writer
	outMu  sync.Mutex
	logger *slog.Logger

	// Root path for workspace
	rootPath string
	shutdown bool
}

// Document represents an open document.
type Document struct {
	URI     string
	Content string
	Version int
	// Result is the outcome of the last compilation of Content.
	Result *compiler.Result
}

// NewServer creates a server that reads requests from in and writes
// responses and notifications to out.
func NewServer(in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	return &Server{
		Documents: make(map[string]*Document),
		in:        bufio.NewReader(in),
		out:       out,
		logger:    logger,
	}
}

// errExit ends Run after the client sent "exit".
var errExit = errors.New("exit")

// Run serves messages until the input ends, the client exits, or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		// Parse JSON-RPC message
		var msg jsonrpcMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			s.logger.Warn("malformed JSON-RPC message", "error", err)
			continue
		}

		response, err := s.handleMessage(ctx, &msg)
		if errors.Is(err, errExit) {
			return nil
		}

		if response != nil {
			if err := s.send(response); err != nil {
				return err
			}
		}
	}
}

// readMessage reads one Content-Length framed message body.
func (s *Server) readMessage() ([]byte, error) {
	contentLength := -1
	for {
		line, err := s.in.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid Content-Length %q: %w", value, err)
		}
		contentLength = n
	}

	if contentLength < 0 {
		return nil, fmt.Errorf("message without Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.in, body); err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}
	return body, nil
}

// jsonrpcMessage represents a JSON-RPC 2.0 message.
type jsonrpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

// MarshalJSON keeps a null result on successful responses; notifications
// and error responses omit it.
func (m *jsonrpcMessage) MarshalJSON() ([]byte, error) {
	type wire jsonrpcMessage
	if m.Method != "" || m.Error != nil {
		return json.Marshal((*wire)(m))
	}
	return json.Marshal(struct {
		*wire
		Result any `json:"result"`
	}{(*wire)(m), m.Result})
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

func reply(msg *jsonrpcMessage, result any) *jsonrpcMessage {
	return &jsonrpcMessage{JSONRPC: "2.0", ID: msg.ID, Result: result}
}

func replyError(msg *jsonrpcMessage, code int, format string, args ...any) *jsonrpcMessage {
	return &jsonrpcMessage{
		JSONRPC: "2.0",
		ID:      msg.ID,
		Error:   &jsonrpcError{Code: code, Message: fmt.Sprintf(format, args...)},
	}
}

// handleMessage processes a JSON-RPC message and returns a response.
func (s *Server) handleMessage(ctx context.Context, msg *jsonrpcMessage) (*jsonrpcMessage, error) {
	s.logger.Debug("lsp message", "method", msg.Method)

	if s.shutdown && msg.Method != "exit" && msg.ID != nil {
		return replyError(msg, codeInvalidRequest, "server is shut down"), nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg), nil
	case "initialized":
		return nil, nil
	case "textDocument/didOpen":
		s.handleDidOpen(ctx, msg)
		return nil, nil
	case "textDocument/didChange":
		s.handleDidChange(ctx, msg)
		return nil, nil
	case "textDocument/didClose":
		s.handleDidClose(msg)
		return nil, nil
	case "textDocument/completion":
		return s.handleCompletion(msg), nil
	case "textDocument/hover":
		return s.handleHover(msg), nil
	case "textDocument/definition":
		return s.handleDefinition(msg), nil
	case "shutdown":
		s.shutdown = true
		return reply(msg, nil), nil
	case "exit":
		return nil, errExit
	default:
		if msg.ID != nil {
			return replyError(msg, codeMethodNotFound, "method not found: %s", msg.Method), nil
		}
		return nil, nil
	}
}

// send writes one framed message.
func (s *Server) send(msg *jsonrpcMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()

	if _, err := fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// InitializeParams represents the initialize request parameters.
type InitializeParams struct {
	ProcessID    int            `json:"processId,omitempty"`
	RootPath     string         `json:"rootPath,omitempty"`
	RootURI      string         `json:"rootUri,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

// InitializeResult represents the initialize response.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   ServerInfo         `json:"serverInfo"`
}

type ServerCapabilities struct {
	TextDocumentSync   int            `json:"textDocumentSync"`
	CompletionProvider map[string]any `json:"completionProvider,omitempty"`
	HoverProvider      bool           `json:"hoverProvider"`
	DefinitionProvider bool           `json:"definitionProvider"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Version is reported to clients in serverInfo.
const Version = "0.1.0"

func (s *Server) handleInitialize(msg *jsonrpcMessage) *jsonrpcMessage {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return replyError(msg, codeInvalidParams, "invalid params: %v", err)
	}

	if params.RootURI != "" {
		s.rootPath = uriToPath(params.RootURI)
	} else if params.RootPath != "" {
		s.rootPath = params.RootPath
	}
	s.logger.Info("lsp initialized", "root", s.rootPath, "client_pid", params.ProcessID)

	return reply(msg, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:   1, // full document sync
			CompletionProvider: map[string]any{},
			HoverProvider:      true,
			DefinitionProvider: true,
		},
		ServerInfo: ServerInfo{
			Name:    "vivc-lsp",
			Version: Version,
		},
	})
}

// DidOpenTextDocumentParams represents didOpen notification parameters.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

func (s *Server) handleDidOpen(ctx context.Context, msg *jsonrpcMessage) {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("malformed didOpen params", "error", err)
		return
	}

	doc := &Document{
		URI:     params.TextDocument.URI,
		Content: params.TextDocument.Text,
		Version: params.TextDocument.Version,
	}
	s.updateDocument(ctx, doc)

	s.mu.Lock()
	s.Documents[doc.URI] = doc
	s.mu.Unlock()

	s.publishDiagnostics(doc)
}

// DidChangeTextDocumentParams represents didChange notification parameters.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

func (s *Server) handleDidChange(ctx context.Context, msg *jsonrpcMessage) {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("malformed didChange params", "error", err)
		return
	}
	if len(params.ContentChanges) == 0 {
		return
	}

	s.mu.RLock()
	old, ok := s.Documents[params.TextDocument.URI]
	s.mu.RUnlock()
	if !ok {
		return
	}

	// Full sync: the last change holds the whole text.
	doc := &Document{
		URI:     old.URI,
		Content: params.ContentChanges[len(params.ContentChanges)-1].Text,
		Version: params.TextDocument.Version,
	}
	s.updateDocument(ctx, doc)

	s.mu.Lock()
	s.Documents[doc.URI] = doc
	s.mu.Unlock()

	s.publishDiagnostics(doc)
}

func (s *Server) handleDidClose(msg *jsonrpcMessage) {
	var params struct {
		TextDocument TextDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("malformed didClose params", "error", err)
		return
	}

	s.mu.Lock()
	delete(s.Documents, params.TextDocument.URI)
	s.mu.Unlock()

	// Clear the diagnostics of the closed document.
	s.publish(params.TextDocument.URI, []Diagnostic{})
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// updateDocument runs the pipeline over the document text.
func (s *Server) updateDocument(ctx context.Context, doc *Document) {
	src := compiler.Source{Filename: uriToPath(doc.URI), Text: doc.Content}
	res, err := compiler.Compile(ctx, src, compiler.WithLogger(s.logger))
	if err != nil {
		s.logger.Warn("compile document", "uri", doc.URI, "error", err)
	}
	doc.Result = res
}

// publishDiagnostics sends the diagnostics of doc to the client.
func (s *Server) publishDiagnostics(doc *Document) {
	lspDiagnostics := make([]Diagnostic, 0)
	if doc.Result != nil {
		for _, d := range doc.Result.Diagnostics {
			lspDiagnostics = append(lspDiagnostics, toLSPDiagnostic(doc.Content, d))
		}
	}
	s.publish(doc.URI, lspDiagnostics)
}

func (s *Server) publish(uri string, diagnostics []Diagnostic) {
	params, err := json.Marshal(PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("marshal diagnostics", "error", err)
		return
	}

	err = s.send(&jsonrpcMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params:  params,
	})
	if err != nil {
		s.logger.Error("publish diagnostics", "uri", uri, "error", err)
	}
}

type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Diagnostic represents an LSP diagnostic.
type Diagnostic struct {
	Range              Range                          `json:"range"`
	Severity           int                            `json:"severity"`
	Message            string                         `json:"message"`
	Code               string                         `json:"code,omitempty"`
	Source             string                         `json:"source,omitempty"`
	RelatedInformation []DiagnosticRelatedInformation `json:"relatedInformation,omitempty"`
}

type DiagnosticRelatedInformation struct {
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func toLSPDiagnostic(content string, d diag.Diagnostic) Diagnostic {
	out := Diagnostic{
		Range:    spanRange(content, d.Span),
		Severity: diagnosticSeverity(d.Severity),
		Message:  d.Message,
		Code:     string(d.Code),
		Source:   "vivc",
	}
	if d.Help != "" {
		out.Message += "\nhelp: " + d.Help
	}
	for _, ls := range d.LabeledSpans {
		if ls.Style != "secondary" || ls.Label == "" {
			continue
		}
		out.RelatedInformation = append(out.RelatedInformation, DiagnosticRelatedInformation{
			Location: Location{URI: pathToURI(ls.Span.Filename), Range: spanRange(content, ls.Span)},
			Message:  ls.Label,
		})
	}
	return out
}

func diagnosticSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SeverityError:
		return 1 // Error
	case diag.SeverityWarning:
		return 2 // Warning
	case diag.SeverityNote:
		return 3 // Information
	default:
		return 1
	}
}

// spanRange converts a byte span to an LSP range.
func spanRange(content string, span diag.Span) Range {
	return Range{
		Start: offsetToPosition(content, span.Start),
		End:   offsetToPosition(content, max(span.Start, span.End)),
	}
}

// uriToPath converts a file:// URI to a file path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		// Handle Windows paths
		if len(path) > 2 && path[0] == '/' && path[2] == ':' {
			path = path[1:]
		}
		return path
	}
	return uri
}

func pathToURI(path string) string {
	if path == "" || strings.Contains(path, "://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}
