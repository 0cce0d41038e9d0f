package server

import (
	"net/http"
	"strconv"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/search"
	"github.com/teranos/typeahead/typeahead"
	"github.com/teranos/typeahead/version"
)

// HandleHealth reports liveness, build and directory state
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	snap := s.dir.Snapshot()

	s.sessionsMu.Lock()
	sessions := len(s.sessions)
	s.sessionsMu.Unlock()

	health := map[string]interface{}{
		"status":       stateString(s.getState()),
		"version":      versionInfo.Version,
		"commit":       versionInfo.CommitHash,
		"build_time":   versionInfo.BuildTime,
		"lsp_sessions": sessions,
		"loaded_at":    snap.LoadedAt(),
		"directory":    snap.Counts(),
	}

	writeJSON(w, http.StatusOK, health)
}

// composeContext resolves the context of a compose request against snap
func (s *Server) composeContext(snap *directory.Snapshot, req ComposeRequest) (typeahead.Context, error) {
	cctx := req.Context
	if req.Narrow != "" {
		user, err := s.resolveUser(snap, idOrEmpty(cctx.CurrentUserID))
		if err != nil {
			return cctx, err
		}
		derived := search.Parse(req.Narrow).ComposeContext(snap, user.ID)
		derived.CodeBlockButton = cctx.CodeBlockButton
		cctx = derived
	}
	return s.resolveContext(snap, cctx)
}

// HandleCandidates returns ranked suggestions for the compose box
func (s *Server) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req ComposeRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	snap, err := s.loadedSnapshot()
	if err != nil {
		writeWrappedError(w, s.logger, err, "directory unavailable", http.StatusServiceUnavailable)
		return
	}
	cctx, err := s.composeContext(snap, req)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to resolve compose context", http.StatusBadRequest)
		return
	}

	cursor := req.cursor()
	res := s.dispatcher.GetCandidates(r.Context(), req.Text, cursor, cctx)

	out := CandidatesResponse{
		Token:      tokenPtr(res.Token),
		Candidates: make([]CandidateJSON, 0, len(res.Candidates)),
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, toCandidateJSON(c, req.Text, cursor, res.Token))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSelect applies the candidate at index and returns the new compose box
func (s *Server) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req SelectRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	snap, err := s.loadedSnapshot()
	if err != nil {
		writeWrappedError(w, s.logger, err, "directory unavailable", http.StatusServiceUnavailable)
		return
	}
	cctx, err := s.composeContext(snap, req.ComposeRequest)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to resolve compose context", http.StatusBadRequest)
		return
	}

	sel, ok := s.dispatcher.Select(r.Context(), req.Text, req.cursor(), req.Index, cctx)
	if !ok {
		writeWrappedError(w, s.logger, errors.NewNotFoundError("no candidate at index %d", req.Index),
			"select failed", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// HandleTokenize returns the token left of the cursor without ranking anything
func (s *Server) HandleTokenize(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req TokenizeRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	cursor := req.cursor()
	lookback := s.config().GetTypeaheadConfig().Lookback
	tok, _ := typeahead.TokenizeWithOptions(req.Text, cursor, typeahead.TokenizeOptions{
		Lookback:        lookback,
		CodeBlockButton: req.CodeBlockButton || req.Context.CodeBlockButton,
	})

	window := ""
	if runes := []rune(req.Text); cursor >= 0 && cursor <= len(runes) {
		window = typeahead.TokenizeComposeStr(string(runes[:cursor]))
	}
	writeJSON(w, http.StatusOK, TokenizeResponse{Token: tokenPtr(tok), Window: window})
}

// HandleRecipients completes the direct message recipient field
func (s *Server) HandleRecipients(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req RecipientsRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	snap, err := s.loadedSnapshot()
	if err != nil {
		writeWrappedError(w, s.logger, err, "directory unavailable", http.StatusServiceUnavailable)
		return
	}
	cctx := req.Context
	cctx.MessageType = typeahead.DirectMessage
	cctx, err = s.resolveContext(snap, cctx)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to resolve compose context", http.StatusBadRequest)
		return
	}

	cs := s.dispatcher.GetRecipientCandidates(r.Context(), req.Field, cctx)
	out := RecipientsResponse{Candidates: make([]CandidateJSON, 0, len(cs))}
	for _, c := range cs {
		cj := toCandidateJSON(c, "", 0, typeahead.Token{})
		cj.Recipients = typeahead.RecipientTypeaheadSelected(req.Field, c.Detail())
		out.Candidates = append(out.Candidates, cj)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSearchSuggestions completes the search bar: ?q=<query>&as=<user>&limit=<n>
func (s *Server) HandleSearchSuggestions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	limit, err := queryInt(r, "limit", search.DefaultLimit)
	if err != nil {
		writeWrappedError(w, s.logger, err, "invalid limit", http.StatusBadRequest)
		return
	}

	snap := s.dir.Snapshot()
	viewer, err := s.resolveUser(snap, r.URL.Query().Get("as"))
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to resolve viewer", http.StatusBadRequest)
		return
	}

	query := r.URL.Query().Get("q")
	suggestions := search.Suggest(query, snap, viewer.ID, limit)

	logger.LoggerFromContext(r.Context(), s.logger).Debugw("Search suggestions",
		logger.FieldQuery, query,
		logger.FieldCount, len(suggestions))

	writeJSON(w, http.StatusOK, SearchSuggestionsResponse{Suggestions: suggestions})
}

// HandleSearchContext returns the compose context implied by a narrow: ?q=<narrow>&as=<user>
func (s *Server) HandleSearchContext(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	snap := s.dir.Snapshot()
	viewer, err := s.resolveUser(snap, r.URL.Query().Get("as"))
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to resolve viewer", http.StatusBadRequest)
		return
	}

	filter := search.Parse(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, SearchContextResponse{
		Terms:   filter.Terms,
		Context: filter.ComposeContext(snap, viewer.ID),
	})
}

// HandleDirectoryRefresh reloads the directory from the database. A failed
// refresh keeps serving the previous snapshot.
func (s *Server) HandleDirectoryRefresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.dir.Refresh(r.Context()); err != nil {
		writeWrappedError(w, logger.AddRefreshSymbol(s.logger), err, "directory refresh failed", http.StatusInternalServerError)
		return
	}
	snap := s.dir.Snapshot()
	writeJSON(w, http.StatusOK, DirectoryResponse{LoadedAt: snap.LoadedAt(), Counts: snap.Counts()})
}

func idOrEmpty(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
