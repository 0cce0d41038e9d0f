package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
	tatest "github.com/teranos/typeahead/internal/testing"
)

// newTestServer serves the seeded demo organization
func newTestServer(t *testing.T, cfg *am.Config) (*Server, *httptest.Server) {
	t.Helper()

	conn := tatest.CreateSeededTestDB(t)
	dir, err := directory.New(conn, directory.Options{})
	require.NoError(t, err)
	require.NoError(t, dir.Refresh(context.Background()))
	t.Cleanup(dir.Wait)

	srv := New(dir, cfg, Options{Logger: zaptest.NewLogger(t).Sugar()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}, headers ...string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func iagoInDenmark() map[string]interface{} {
	return map[string]interface{}{"stream_id": 1, "topic": "castle", "current_user_id": 1}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status    string         `json:"status"`
		Sessions  int            `json:"lsp_sessions"`
		Directory map[string]int `json:"directory"`
	}
	decode(t, resp, &health)
	assert.Equal(t, "running", health.Status)
	assert.Equal(t, 0, health.Sessions)
	assert.Equal(t, 13, health.Directory["users"])
	assert.Equal(t, 7, health.Directory["topics"])
	assert.Equal(t, 6, health.Directory["streams"])
}

func TestHandleCandidates(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts, "/api/typeahead/candidates", map[string]interface{}{
		"text":    "hi @oth",
		"context": iagoInDenmark(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out CandidatesResponse
	decode(t, resp, &out)
	require.NotNil(t, out.Token)
	assert.Equal(t, "mention", string(out.Token.Kind))
	assert.Equal(t, "oth", out.Token.Query)
	require.NotEmpty(t, out.Candidates)

	first := out.Candidates[0]
	assert.Equal(t, "Othello, the Moor of Venice", first.Label)
	assert.Equal(t, int64(2), first.ID)
	require.NotNil(t, first.Selection)
	assert.Equal(t, "hi @**Othello, the Moor of Venice** ", first.Selection.Text)
	assert.Equal(t, 36, first.Selection.Cursor)
}

func TestHandleCandidates_NoToken(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts, "/api/typeahead/candidates", map[string]interface{}{
		"text":    "just words",
		"context": iagoInDenmark(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out CandidatesResponse
	decode(t, resp, &out)
	assert.Nil(t, out.Token)
	assert.Empty(t, out.Candidates)
}

func TestHandleCandidates_Narrow(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts, "/api/typeahead/candidates", map[string]interface{}{
		"text":    "see #**Den",
		"narrow":  "channel:Denmark topic:castle",
		"context": map[string]interface{}{"current_user_id": 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out CandidatesResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Candidates)
	assert.Equal(t, "Denmark", out.Candidates[0].Label)
	assert.Equal(t, int64(1), out.Candidates[0].ID)
}

func TestHandleCandidates_ContextErrors(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *am.Config
		context    map[string]interface{}
		wantStatus int
	}{
		{
			name:       "no current user",
			context:    map[string]interface{}{"stream_id": 1},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown user",
			context:    map[string]interface{}{"stream_id": 1, "current_user_id": 999},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad message type",
			context:    map[string]interface{}{"current_user_id": 1, "message_type": "carrier-pigeon"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "current user from config",
			cfg:        &am.Config{Typeahead: am.TypeaheadConfig{CurrentUser: "iago@zulip.com"}},
			context:    map[string]interface{}{"stream_id": 1},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, tt.cfg)
			resp := postJSON(t, ts, "/api/typeahead/candidates", map[string]interface{}{
				"text":    "@oth",
				"context": tt.context,
			})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				decode(t, resp, &body)
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestHandleSelect(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts, "/api/typeahead/select", map[string]interface{}{
		"text":    "@gaë",
		"index":   0,
		"context": iagoInDenmark(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sel struct {
		Text   string `json:"text"`
		Cursor int    `json:"cursor"`
	}
	decode(t, resp, &sel)
	assert.Equal(t, "@**Gaël Twin|9** ", sel.Text)
	assert.Equal(t, 17, sel.Cursor)

	resp = postJSON(t, ts, "/api/typeahead/select", map[string]interface{}{
		"text":    "@gaë",
		"index":   99,
		"context": iagoInDenmark(),
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleTokenize(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		name       string
		text       string
		cursor     *int
		wantKind   string
		wantWindow string
	}{
		{name: "mention", text: "hello @**oth", wantKind: "mention", wantWindow: "@**oth"},
		{name: "emoji", text: "nice :octo", wantKind: "emoji", wantWindow: ":octo"},
		{name: "cursor before trigger", text: "hello @oth", cursor: intPtr(5)},
		{name: "plain text", text: "1/3 of the way"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]interface{}{"text": tt.text}
			if tt.cursor != nil {
				body["cursor"] = *tt.cursor
			}
			resp := postJSON(t, ts, "/api/typeahead/tokenize", body)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out TokenizeResponse
			decode(t, resp, &out)
			assert.Equal(t, tt.wantWindow, out.Window)
			if tt.wantKind == "" {
				assert.Nil(t, out.Token)
				return
			}
			require.NotNil(t, out.Token)
			assert.Equal(t, tt.wantKind, string(out.Token.Kind))
		})
	}
}

func TestHandleRecipients(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts, "/api/typeahead/recipients", map[string]interface{}{
		"field":   "othello@zulip.com, cor",
		"context": map[string]interface{}{"current_user_id": 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RecipientsResponse
	decode(t, resp, &out)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "Cordelia, Lear's daughter", out.Candidates[0].Label)
	assert.Equal(t, "othello@zulip.com, cordelia@zulip.com, ", out.Candidates[0].Recipients)
	assert.Nil(t, out.Candidates[0].Selection)
}

func TestHandleSearchSuggestions(t *testing.T) {
	_, ts := newTestServer(t, nil)

	q := url.Values{"q": {"channel:Den"}, "as": {"iago@zulip.com"}}
	resp, err := http.Get(ts.URL + "/api/search/suggestions?" + q.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out SearchSuggestionsResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Suggestions)
	assert.Equal(t, "channel:Denmark", out.Suggestions[0].Search)

	resp2, err := http.Get(ts.URL + "/api/search/suggestions?q=x&limit=lots&as=1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHandleSearchContext(t *testing.T) {
	_, ts := newTestServer(t, nil)

	q := url.Values{"q": {"channel:Denmark topic:castle"}, "as": {"1"}}
	resp, err := http.Get(ts.URL + "/api/search/context?" + q.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out SearchContextResponse
	decode(t, resp, &out)
	assert.Len(t, out.Terms, 2)
	assert.Equal(t, int64(1), out.Context.StreamID)
	assert.Equal(t, "castle", out.Context.Topic)
	assert.Equal(t, int64(1), out.Context.CurrentUserID)
}

func TestHandleDirectoryRefresh(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts, "/api/directory/refresh", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out DirectoryResponse
	decode(t, resp, &out)
	assert.False(t, out.LoadedAt.IsZero())
	assert.Equal(t, 13, out.Counts["users"])
}

func TestComposeUnavailableBeforeFirstRefresh(t *testing.T) {
	conn := tatest.CreateSeededTestDB(t)
	dir, err := directory.New(conn, directory.Options{})
	require.NoError(t, err)
	t.Cleanup(dir.Wait)

	srv := New(dir, nil, Options{Logger: zaptest.NewLogger(t).Sugar()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	requests := []struct {
		path string
		body map[string]interface{}
	}{
		{"/api/typeahead/candidates", map[string]interface{}{"text": "hi @oth", "context": iagoInDenmark()}},
		{"/api/typeahead/select", map[string]interface{}{"text": "hi @oth", "index": 0, "context": iagoInDenmark()}},
		{"/api/typeahead/recipients", map[string]interface{}{"field": "cor", "context": map[string]interface{}{"current_user_id": 1}}},
	}
	for _, req := range requests {
		t.Run(req.path, func(t *testing.T) {
			resp := postJSON(t, ts, req.path, req.body)
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		})
	}

	resp := postJSON(t, ts, "/api/directory/refresh", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts, "/api/typeahead/candidates", requests[0].body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/typeahead/candidates")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestClientVersionGate(t *testing.T) {
	cfg := &am.Config{Server: am.ServerConfig{MinClientVersion: "2.0.0"}}
	_, ts := newTestServer(t, cfg)

	body := map[string]interface{}{"text": "@oth", "context": iagoInDenmark()}

	tests := []struct {
		version    string
		wantStatus int
	}{
		{"1.9.3", http.StatusUpgradeRequired},
		{"2.1.0", http.StatusOK},
		{"", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run("version "+tt.version, func(t *testing.T) {
			resp := postJSON(t, ts, "/api/typeahead/candidates", body, ClientVersionHeader, tt.version)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestCORSAndRequestID(t *testing.T) {
	cfg := &am.Config{Server: am.ServerConfig{AllowedOrigins: []string{"https://chat.example"}}}
	_, ts := newTestServer(t, cfg)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allowed", "https://chat.example", "https://chat.example"},
		{"allowed with port", "https://chat.example:8443", "https://chat.example:8443"},
		{"other origin", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/typeahead/candidates", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tt.origin)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
		})
	}

	t.Run("request id is echoed", func(t *testing.T) {
		resp := postJSON(t, ts, "/api/typeahead/tokenize", map[string]string{"text": "@"}, RequestIDHeader, "req-1234")
		assert.Equal(t, "req-1234", resp.Header.Get(RequestIDHeader))
	})
}

func TestDrainingRefusesRequests(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	srv.setState(ServerStateDraining)

	resp := postJSON(t, ts, "/api/typeahead/candidates", map[string]interface{}{"text": "@", "context": iagoInDenmark()})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestApplyConfig(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	bad := &am.Config{Typeahead: am.TypeaheadConfig{MaxMentions: -1}}
	require.Error(t, srv.ApplyConfig(bad))

	require.NoError(t, srv.ApplyConfig(&am.Config{Typeahead: am.TypeaheadConfig{MaxMentions: 2}}))

	resp := postJSON(t, ts, "/api/typeahead/candidates", map[string]interface{}{"text": "@**", "context": iagoInDenmark()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out CandidatesResponse
	decode(t, resp, &out)
	assert.Len(t, out.Candidates, 2)
}

func TestStop(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	require.NoError(t, srv.Stop())
	assert.Equal(t, ServerStateStopped, srv.getState())
	// second stop is a no-op
	require.NoError(t, srv.Stop())
}

func intPtr(i int) *int {
	return &i
}
