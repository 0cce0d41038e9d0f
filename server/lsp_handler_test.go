package server

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/typeahead"
)

func TestParseComposeURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    ComposeURI
		wantErr bool
	}{
		{
			name: "stream",
			uri:  "compose://stream/1/castle?as=1",
			want: ComposeURI{MessageType: typeahead.StreamMessage, StreamID: 1, Topic: "castle", As: "1"},
		},
		{
			name: "escaped topic and email",
			uri:  "compose://stream/4/compose%20box?as=iago%40zulip.com",
			want: ComposeURI{MessageType: typeahead.StreamMessage, StreamID: 4, Topic: "compose box", As: "iago@zulip.com"},
		},
		{
			name: "topic with slash",
			uri:  "compose://channel/1/a/b",
			want: ComposeURI{MessageType: typeahead.StreamMessage, StreamID: 1, Topic: "a/b"},
		},
		{
			name: "no topic",
			uri:  "compose://stream/2",
			want: ComposeURI{MessageType: typeahead.StreamMessage, StreamID: 2},
		},
		{
			name: "direct message",
			uri:  "compose://dm/2,3?as=1&code_block_button=true",
			want: ComposeURI{MessageType: typeahead.DirectMessage, Recipients: []int64{2, 3}, As: "1", CodeBlockButton: true},
		},
		{name: "bad stream id", uri: "compose://stream/x/t", wantErr: true},
		{name: "bad recipient", uri: "compose://dm/2,abc", wantErr: true},
		{name: "other scheme", uri: "file:///tmp/notes.md", wantErr: true},
		{name: "unknown target", uri: "compose://group/1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseComposeURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComposeURI_String(t *testing.T) {
	uris := []ComposeURI{
		{MessageType: typeahead.StreamMessage, StreamID: 4, Topic: "compose box", As: "1"},
		{MessageType: typeahead.StreamMessage, StreamID: 1, Topic: "why? because", As: "iago@zulip.com"},
		{MessageType: typeahead.DirectMessage, Recipients: []int64{2, 5}, As: "1"},
	}
	for _, c := range uris {
		parsed, err := ParseComposeURI(c.String())
		require.NoError(t, err, c.String())
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "compose://stream/4/compose%20box?as=1", uris[0].String())
}

func TestEditFor(t *testing.T) {
	tests := []struct {
		name        string
		old         string
		cursor      int
		tokStart    int
		sel         typeahead.Selection
		wantStart   int
		wantEnd     int
		wantSnippet string
	}{
		{
			name:        "mention at end",
			old:         "hi @oth",
			cursor:      7,
			tokStart:    3,
			sel:         typeahead.Selection{Text: "hi @**Othello** ", Cursor: 16},
			wantStart:   3,
			wantEnd:     7,
			wantSnippet: "@**Othello** $0",
		},
		{
			name:        "text after cursor is kept",
			old:         "hi @oth there",
			cursor:      7,
			tokStart:    3,
			sel:         typeahead.Selection{Text: "hi @**Othello** there", Cursor: 15},
			wantStart:   3,
			wantEnd:     7,
			wantSnippet: "@**Othello**$0",
		},
		{
			name:        "placeholder becomes a tab stop",
			old:         "/po",
			cursor:      3,
			sel:         typeahead.Selection{Text: "/poll Question", Cursor: 14, HighlightStart: 6, HighlightEnd: 14},
			wantStart:   0,
			wantEnd:     3,
			wantSnippet: "/poll ${1:Question}$0",
		},
		{
			name:        "closing fence after cursor",
			old:         "```py",
			cursor:      5,
			sel:         typeahead.Selection{Text: "```python\n\n```", Cursor: 9},
			wantStart:   0,
			wantEnd:     5,
			wantSnippet: "```python$0\n\n```",
		},
		{
			name:        "snippet syntax is escaped",
			old:         ":m",
			cursor:      2,
			sel:         typeahead.Selection{Text: "$5 {x} \\o/ ", Cursor: 11},
			wantStart:   0,
			wantEnd:     2,
			wantSnippet: "\\$5 {x\\} \\\\o/ $0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := editFor([]rune(tt.old), tt.cursor, tt.tokStart, tt.sel)
			assert.Equal(t, tt.wantStart, e.Start)
			assert.Equal(t, tt.wantEnd, e.End)
			assert.Equal(t, tt.wantSnippet, e.snippet())

			// splicing the edit back reproduces the selection
			old := []rune(tt.old)
			spliced := string(old[:e.Start]) + string(e.NewText) + string(old[e.End:])
			assert.Equal(t, tt.sel.Text, spliced)
		})
	}
}

func TestApplyChange(t *testing.T) {
	text := "hello\nworld"

	whole := applyChange(text, protocol.TextDocumentContentChangeEvent{Text: "new"})
	assert.Equal(t, "new", whole)

	ranged := applyChange(text, protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: 1, Character: 0},
			End:   protocol.Position{Line: 1, Character: 5},
		},
		Text: "there @oth",
	})
	assert.Equal(t, "hello\nthere @oth", ranged)
}

func TestMapCompletionKind(t *testing.T) {
	assert.Equal(t, protocol.CompletionItemKindReference, *mapCompletionKind(typeahead.CandidateUser))
	assert.Equal(t, protocol.CompletionItemKindModule, *mapCompletionKind(typeahead.CandidateStream))
	assert.Equal(t, protocol.CompletionItemKindFunction, *mapCompletionKind(typeahead.CandidateSlash))
	assert.Equal(t, protocol.CompletionItemKindText, *mapCompletionKind("unknown"))
}

func openDoc(h *GLSPHandler, uri, text string) error {
	return h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: protocol.DocumentUri(uri), Text: text},
	})
}

func completionAt(t *testing.T, h *GLSPHandler, uri string, line, char int) protocol.CompletionList {
	t.Helper()
	result, err := h.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
			Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)},
		},
	})
	require.NoError(t, err)
	list, ok := result.(protocol.CompletionList)
	require.True(t, ok)
	return list
}

func TestGLSPHandler_DocumentLimit(t *testing.T) {
	srv, _ := newTestServer(t, &am.Config{Server: am.ServerConfig{MaxDocumentsPerClient: 1}})
	h := NewGLSPHandler(srv, "session-limit")

	require.NoError(t, openDoc(h, "compose://stream/1/a", "one"))
	assert.Error(t, openDoc(h, "compose://stream/1/b", "two"))
	// re-opening a known document is fine
	require.NoError(t, openDoc(h, "compose://stream/1/a", "one again"))

	require.NoError(t, h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "compose://stream/1/a"},
	}))
	assert.NoError(t, openDoc(h, "compose://stream/1/b", "two"))
}

func TestGLSPHandler_Completion(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := NewGLSPHandler(srv, "session-completion")

	t.Run("mention on second line", func(t *testing.T) {
		uri := "compose://stream/1/castle?as=1"
		require.NoError(t, openDoc(h, uri, "Hello\nping @oth"))

		list := completionAt(t, h, uri, 1, 9)
		assert.True(t, list.IsIncomplete)
		require.NotEmpty(t, list.Items)

		item := list.Items[0]
		assert.Equal(t, "Othello, the Moor of Venice", item.Label)
		assert.Equal(t, "0000", *item.SortText)
		assert.Equal(t, protocol.InsertTextFormatSnippet, *item.InsertTextFormat)

		edit, ok := item.TextEdit.(protocol.TextEdit)
		require.True(t, ok)
		assert.Equal(t, "@**Othello, the Moor of Venice** $0", edit.NewText)
		assert.Equal(t, protocol.Position{Line: 1, Character: 5}, edit.Range.Start)
		assert.Equal(t, protocol.Position{Line: 1, Character: 9}, edit.Range.End)
	})

	t.Run("edits are applied", func(t *testing.T) {
		uri := "compose://dm/2?as=iago%40zulip.com"
		require.NoError(t, openDoc(h, uri, "hi"))
		require.NoError(t, h.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "hi :octopus_p"}},
		}))

		list := completionAt(t, h, uri, 0, 13)
		require.NotEmpty(t, list.Items)
		assert.Equal(t, "octopus_party", list.Items[0].Label)
	})

	t.Run("no token", func(t *testing.T) {
		uri := "compose://stream/1/castle?as=1"
		require.NoError(t, openDoc(h, uri, "nothing to complete"))
		assert.Empty(t, completionAt(t, h, uri, 0, 19).Items)
	})

	t.Run("not a compose document", func(t *testing.T) {
		uri := "file:///tmp/notes.md"
		require.NoError(t, openDoc(h, uri, "@oth"))
		assert.Empty(t, completionAt(t, h, uri, 0, 4).Items)
	})

	t.Run("unknown user", func(t *testing.T) {
		uri := "compose://stream/1/castle?as=nobody%40zulip.com"
		require.NoError(t, openDoc(h, uri, "@oth"))
		assert.Empty(t, completionAt(t, h, uri, 0, 4).Items)
	})
}

// readResponse reads messages until the response with id arrives
func readResponse(t *testing.T, conn *websocket.Conn, id float64) map[string]interface{} {
	t.Helper()
	for {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msgID, ok := msg["id"].(float64); ok && msgID == id {
			return msg
		}
	}
}

// TestGLSPWebSocket drives a full session: initialize, open a compose box,
// complete a mention, shut down
func TestGLSPWebSocket(t *testing.T) {
	_, ts := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/lsp"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]interface{}{
			"processId":    nil,
			"clientInfo":   map[string]interface{}{"name": "TestClient", "version": "1.0"},
			"capabilities": map[string]interface{}{},
		},
	}))
	initResponse := readResponse(t, conn, 1)
	result := initResponse["result"].(map[string]interface{})
	capabilities := result["capabilities"].(map[string]interface{})
	completion := capabilities["completionProvider"].(map[string]interface{})
	assert.Contains(t, completion["triggerCharacters"], "@")
	assert.Contains(t, completion["triggerCharacters"], "#")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "initialized",
		"params":  map[string]interface{}{},
	}))

	uri := "compose://stream/1/castle?as=1"
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "textDocument/didOpen",
		"params": map[string]interface{}{
			"textDocument": map[string]interface{}{
				"uri":        uri,
				"languageId": "markdown",
				"version":    1,
				"text":       "ask @oth",
			},
		},
	}))

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "textDocument/completion",
		"params": map[string]interface{}{
			"textDocument": map[string]interface{}{"uri": uri},
			"position":     map[string]interface{}{"line": 0, "character": 8},
		},
	}))
	completionResponse := readResponse(t, conn, 2)
	list := completionResponse["result"].(map[string]interface{})
	items := list["items"].([]interface{})
	require.NotEmpty(t, items)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Othello, the Moor of Venice", first["label"])
	textEdit := first["textEdit"].(map[string]interface{})
	assert.Equal(t, "@**Othello, the Moor of Venice** $0", textEdit["newText"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      3,
		"method":  "shutdown",
		"params":  nil,
	}))
	shutdownResponse := readResponse(t, conn, 3)
	assert.Nil(t, shutdownResponse["error"])
}
