package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/internal/util"
	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/sym"
	"github.com/teranos/typeahead/typeahead"
	"github.com/teranos/typeahead/version"
)

// LanguageServerName is reported to LSP clients
const LanguageServerName = "Compose Typeahead"

// triggerCharacters re-request completion as soon as a marker is typed
var triggerCharacters = []string{
	sym.Mention, sym.Stream, sym.Emoji, sym.Slash, "`", "<", sym.TopicSep, "~", "*",
}

// GLSPHandler serves compose box completion for one LSP connection.
// Documents are compose boxes identified by compose:// URIs.
type GLSPHandler struct {
	server    *Server
	sessionID string
	ctx       context.Context
	logger    *zap.SugaredLogger
	documents map[string]string // URI → compose text
	maxDocs   int
	mu        sync.RWMutex
}

// NewGLSPHandler creates a handler for one connection
func NewGLSPHandler(server *Server, sessionID string) *GLSPHandler {
	return &GLSPHandler{
		server:    server,
		sessionID: sessionID,
		ctx:       logger.WithSessionID(server.ctx, sessionID),
		logger:    server.logger.Named("lsp").With(logger.FieldSessionID, shortID(sessionID)),
		documents: make(map[string]string),
		maxDocs:   server.config().GetMaxDocumentsPerClient(),
	}
}

// Initialize handles LSP initialize request
func (h *GLSPHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.logger.Infow("LSP client initializing", "client", params.ClientInfo)

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities := protocol.ServerCapabilities{
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: triggerCharacters,
		},
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: util.Ptr(true),
			Change:    &syncKind,
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    LanguageServerName,
			Version: util.Ptr(version.Get().Version),
		},
	}, nil
}

// Initialized is called after client receives InitializeResult
func (h *GLSPHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.logger.Debugw("LSP client initialized")
	return nil
}

// Shutdown handles LSP shutdown request
func (h *GLSPHandler) Shutdown(ctx *glsp.Context) error {
	h.logger.Infow("LSP client shutting down")
	return nil
}

// SetTrace accepts $/setTrace; tracing goes to the server log
func (h *GLSPHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// TextDocumentDidOpen handles document open notifications
func (h *GLSPHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)

	// Re-opening a known document does not count against the limit
	if _, exists := h.documents[uri]; !exists && len(h.documents) >= h.maxDocs {
		h.logger.Warnw("Document cache limit reached, rejecting new document",
			logger.FieldURI, uri,
			logger.FieldCount, len(h.documents),
			logger.FieldLimit, h.maxDocs,
		)
		return errors.Newf("document cache limit reached (%d documents open)", h.maxDocs)
	}

	h.documents[uri] = params.TextDocument.Text
	h.logger.Debugw("Document opened",
		logger.FieldURI, uri,
		logger.FieldTotalCount, len(h.documents),
	)
	return nil
}

// TextDocumentDidChange handles document change notifications
func (h *GLSPHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)
	text, ok := h.documents[uri]
	if !ok {
		return errors.NewNotFoundError("document %s is not open", uri)
	}

	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			text = applyChange(text, c)
		}
	}
	h.documents[uri] = text
	return nil
}

// applyChange splices an incremental change into text
func applyChange(text string, c protocol.TextDocumentContentChangeEvent) string {
	if c.Range == nil {
		return c.Text
	}
	runes := []rune(text)
	start := util.RuneOffset(text, int(c.Range.Start.Line), int(c.Range.Start.Character))
	end := util.RuneOffset(text, int(c.Range.End.Line), int(c.Range.End.Character))
	if end < start {
		start, end = end, start
	}
	return string(runes[:start]) + c.Text + string(runes[end:])
}

// TextDocumentDidClose handles document close notifications
func (h *GLSPHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)
	delete(h.documents, uri)
	h.logger.Debugw("Document closed", logger.FieldURI, uri)
	return nil
}

// TextDocumentCompletion completes the token left of the cursor. The list
// is marked incomplete so clients ask again as the user keeps typing.
func (h *GLSPHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	empty := protocol.CompletionList{IsIncomplete: true, Items: []protocol.CompletionItem{}}

	// A panicking completion must not take the connection down
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("Panic in completion handler",
				"panic", r,
				logger.FieldURI, params.TextDocument.URI,
			)
			result = empty
			err = nil
		}
	}()

	uri := string(params.TextDocument.URI)
	h.mu.RLock()
	text, ok := h.documents[uri]
	h.mu.RUnlock()
	if !ok || text == "" {
		return empty, nil
	}

	target, err := ParseComposeURI(uri)
	if err != nil {
		h.logger.Debugw("Not a compose document", logger.FieldURI, uri, logger.FieldError, err)
		return empty, nil
	}
	snap := h.server.dir.Snapshot()
	cctx, err := h.server.composeContextFor(snap, target)
	if err != nil {
		h.logger.Warnw("Cannot resolve compose context", logger.FieldURI, uri, logger.FieldError, err)
		return empty, nil
	}

	cursor := util.RuneOffset(text, int(params.Position.Line), int(params.Position.Character))
	res := h.server.dispatcher.GetCandidates(h.ctx, text, cursor, cctx)
	if res.Token.IsZero() {
		return empty, nil
	}

	items := make([]protocol.CompletionItem, 0, len(res.Candidates))
	for i, c := range res.Candidates {
		sel := typeahead.ContentTypeaheadSelected(c, text, cursor, res.Token)
		items = append(items, completionItem(text, cursor, res.Token, c, sel, i))
	}

	h.logger.Debugw("LSP completion",
		logger.FieldKind, res.Token.Kind,
		logger.FieldQuery, res.Token.Query,
		logger.FieldCount, len(items),
	)
	return protocol.CompletionList{IsIncomplete: true, Items: items}, nil
}

// completionItem converts a candidate into an item whose edit reproduces
// the selection renderer's output
func completionItem(text string, cursor int, tok typeahead.Token, c typeahead.Candidate, sel typeahead.Selection, rank int) protocol.CompletionItem {
	edit := editFor([]rune(text), cursor, tok.Start, sel)
	startLine, startChar := util.Position(text, edit.Start)
	endLine, endChar := util.Position(text, edit.End)
	format := protocol.InsertTextFormatSnippet

	return protocol.CompletionItem{
		Label:  c.Label(),
		Kind:   mapCompletionKind(c.Kind()),
		Detail: stringPtrOrNil(c.Detail()),
		// Ranking is done here; keep the client from reordering or filtering
		SortText:         util.Ptr(fmt.Sprintf("%04d", rank)),
		FilterText:       util.Ptr(string([]rune(text)[edit.Start:edit.End])),
		InsertTextFormat: &format,
		TextEdit: protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(startLine), Character: protocol.UInteger(startChar)},
				End:   protocol.Position{Line: protocol.UInteger(endLine), Character: protocol.UInteger(endChar)},
			},
			NewText: edit.snippet(),
		},
	}
}

// textEdit replaces old[Start:End] with NewText. Cursor and the highlight
// are rune offsets into NewText.
type textEdit struct {
	Start, End     int
	NewText        []rune
	Cursor         int
	HighlightStart int
	HighlightEnd   int
}

// editFor shrinks a whole-text selection to the changed range. The range
// starts no later than the token and ends no earlier than the cursor.
func editFor(old []rune, cursor, tokStart int, sel typeahead.Selection) textEdit {
	nw := []rune(sel.Text)

	maxPrefix := min(tokStart, sel.Cursor)
	if sel.HasHighlight() {
		maxPrefix = min(maxPrefix, sel.HighlightStart)
	}
	p := 0
	for p < maxPrefix && p < len(old) && p < len(nw) && old[p] == nw[p] {
		p++
	}

	maxSuffix := min(len(old)-cursor, len(nw)-max(sel.Cursor, sel.HighlightEnd, p))
	s := 0
	for s < maxSuffix && old[len(old)-1-s] == nw[len(nw)-1-s] {
		s++
	}

	e := textEdit{
		Start:   p,
		End:     len(old) - s,
		NewText: nw[p : len(nw)-s],
		Cursor:  sel.Cursor - p,
	}
	if sel.HasHighlight() {
		e.HighlightStart = sel.HighlightStart - p
		e.HighlightEnd = sel.HighlightEnd - p
	}
	return e
}

// snippet renders NewText with the highlight as the first tab stop and the
// cursor as the final one
func (e textEdit) snippet() string {
	var b strings.Builder
	write := func(rs []rune) {
		for _, r := range rs {
			if r == '$' || r == '}' || r == '\\' {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		}
	}

	if e.HighlightEnd > e.HighlightStart && e.HighlightEnd <= e.Cursor {
		write(e.NewText[:e.HighlightStart])
		b.WriteString("${1:")
		write(e.NewText[e.HighlightStart:e.HighlightEnd])
		b.WriteString("}")
		write(e.NewText[e.HighlightEnd:e.Cursor])
	} else {
		write(e.NewText[:e.Cursor])
	}
	b.WriteString("$0")
	write(e.NewText[e.Cursor:])
	return b.String()
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// mapCompletionKind maps candidate kinds to LSP CompletionItemKind
func mapCompletionKind(kind typeahead.CandidateKind) *protocol.CompletionItemKind {
	var k protocol.CompletionItemKind
	switch kind {
	case typeahead.CandidateUser:
		k = protocol.CompletionItemKindReference
	case typeahead.CandidateBroadcast:
		k = protocol.CompletionItemKindConstant
	case typeahead.CandidateGroup:
		k = protocol.CompletionItemKindStruct
	case typeahead.CandidateStream:
		k = protocol.CompletionItemKindModule
	case typeahead.CandidateTopic:
		k = protocol.CompletionItemKindField
	case typeahead.CandidateTopicJump:
		k = protocol.CompletionItemKindOperator
	case typeahead.CandidateSlash:
		k = protocol.CompletionItemKindFunction
	case typeahead.CandidateSyntax:
		k = protocol.CompletionItemKindKeyword
	case typeahead.CandidateEmoji:
		k = protocol.CompletionItemKindValue
	case typeahead.CandidateTimeJump:
		k = protocol.CompletionItemKindEvent
	default:
		k = protocol.CompletionItemKindText
	}
	return &k
}

// upgrader uses the same origin check as every other endpoint
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{CheckOrigin: s.checkOrigin}
}

func (s *Server) trackSession(conn *websocket.Conn, id string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[conn] = id
}

func (s *Server) untrackSession(conn *websocket.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, conn)
}

// closeSessions closes every open LSP connection, unblocking their serve loops
func (s *Server) closeSessions() {
	s.sessionsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.sessions))
	for conn := range s.sessions {
		conns = append(conns, conn)
	}
	s.sessionsMu.Unlock()

	if len(conns) > 0 {
		s.logger.Infow("Closing LSP sessions", logger.FieldCount, len(conns))
	}
	for _, conn := range conns {
		conn.Close()
	}
}

// HandleGLSPWebSocket upgrades HTTP to WebSocket and serves LSP protocol
func (s *Server) HandleGLSPWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("Failed to upgrade WebSocket", "remote", r.RemoteAddr, logger.FieldError, err)
		return
	}

	sessionID := uuid.NewString()
	s.wg.Add(1)
	defer s.wg.Done()
	s.trackSession(conn, sessionID)
	defer s.untrackSession(conn)

	h := NewGLSPHandler(s, sessionID)
	protocolHandler := protocol.Handler{
		Initialize:             h.Initialize,
		Initialized:            h.Initialized,
		Shutdown:               h.Shutdown,
		SetTrace:               h.SetTrace,
		TextDocumentDidOpen:    h.TextDocumentDidOpen,
		TextDocumentDidChange:  h.TextDocumentDidChange,
		TextDocumentDidClose:   h.TextDocumentDidClose,
		TextDocumentCompletion: h.TextDocumentCompletion,
	}

	log := logger.AddTransportSymbol(h.logger)
	log.Infow("Serving LSP over WebSocket", "remote", r.RemoteAddr)

	// Blocks until the connection closes
	glspserver.NewServer(&protocolHandler, LanguageServerName, false).ServeWebSocket(conn)

	log.Infow("LSP WebSocket connection closed", "remote", r.RemoteAddr)
}
