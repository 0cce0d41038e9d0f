// Package mcp exposes the compose box typeahead as Model Context Protocol
// tools, so assistants can complete mentions, channels and emoji the way a
// compose box would.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/search"
	"github.com/teranos/typeahead/typeahead"
	"github.com/teranos/typeahead/version"
)

// Server wraps a dispatcher and exposes it via Model Context Protocol
type Server struct {
	dir         typeahead.Directory
	dispatcher  *typeahead.Dispatcher
	defaultUser string
	logger      *zap.SugaredLogger
	server      *server.MCPServer
}

// NewServer creates an MCP server. defaultUser (id or email) composes when
// a tool call does not name a user.
func NewServer(dir typeahead.Directory, dispatcher *typeahead.Dispatcher, defaultUser string, log *zap.SugaredLogger) *Server {
	s := &Server{
		dir:         dir,
		dispatcher:  dispatcher,
		defaultUser: defaultUser,
		logger:      logger.OrComponent(log, "mcp"),
	}
	s.server = server.NewMCPServer(
		"typeahead",
		version.Get().Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// composeOptions are the arguments shared by every compose box tool
func composeOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Compose box content"),
		),
		mcp.WithNumber("cursor",
			mcp.Description("Cursor position in characters (default: end of text)"),
		),
		mcp.WithNumber("stream_id",
			mcp.Description("Channel the message goes to"),
		),
		mcp.WithString("topic",
			mcp.Description("Topic the message goes to"),
		),
		mcp.WithString("recipients",
			mcp.Description("Comma-separated user ids or emails for a direct message"),
		),
		mcp.WithString("as",
			mcp.Description("User id or email of the person composing"),
		),
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	suggestTool := mcp.NewTool("typeahead_suggest", append([]mcp.ToolOption{
		mcp.WithDescription("List ranked completions for the token left of the cursor: people, groups, channels, topics, emoji, slash commands, code languages or times"),
	}, composeOptions()...)...)
	s.server.AddTool(suggestTool, s.handleSuggest)

	tokenizeTool := mcp.NewTool("typeahead_tokenize",
		mcp.WithDescription("Show which completion, if any, the text left of the cursor opens"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Compose box content"),
		),
		mcp.WithNumber("cursor",
			mcp.Description("Cursor position in characters (default: end of text)"),
		),
	)
	s.server.AddTool(tokenizeTool, s.handleTokenize)

	selectTool := mcp.NewTool("typeahead_select", append([]mcp.ToolOption{
		mcp.WithDescription("Apply one of the typeahead_suggest completions and return the new compose box content"),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("Zero-based index into the typeahead_suggest result"),
		),
	}, composeOptions()...)...)
	s.server.AddTool(selectTool, s.handleSelect)

	searchTool := mcp.NewTool("search_suggest",
		mcp.WithDescription("Complete a search narrow such as 'channel:Den' or 'dm:oth'"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search bar content"),
		),
		mcp.WithString("as",
			mcp.Description("User id or email of the person searching"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum suggestions (default: %d)", search.DefaultLimit)),
		),
	)
	s.server.AddTool(searchTool, s.handleSearch)
}

// suggestion is one completion as returned to the model
type suggestion struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Result string `json:"result"`
}

func (s *Server) handleSuggest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cursor := cursorArg(request, text)
	cctx, err := s.composeContext(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.dispatcher.GetCandidates(ctx, text, cursor, cctx)
	if res.Token.IsZero() {
		return mcp.NewToolResultText("Nothing to complete at the cursor"), nil
	}

	out := make([]suggestion, len(res.Candidates))
	for i, c := range res.Candidates {
		sel := typeahead.ContentTypeaheadSelected(c, text, cursor, res.Token)
		out[i] = suggestion{
			Index:  i,
			Kind:   string(c.Kind()),
			Label:  c.Label(),
			Detail: c.Detail(),
			Result: sel.Text,
		}
	}
	return jsonResult(map[string]interface{}{
		"token":       res.Token,
		"suggestions": out,
	})
}

func (s *Server) handleTokenize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tok, ok := typeahead.Tokenize(text, cursorArg(request, text))
	if !ok {
		return mcp.NewToolResultText("Nothing to complete at the cursor"), nil
	}
	return jsonResult(tok)
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cctx, err := s.composeContext(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sel, ok := s.dispatcher.Select(ctx, text, cursorArg(request, text), index, cctx)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No suggestion at index %d", index)), nil
	}
	return jsonResult(sel)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := s.dir.Snapshot()
	viewer, err := s.user(snap, request.GetString("as", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(search.Suggest(query, snap, viewer.ID, request.GetInt("limit", search.DefaultLimit)))
}

// composeContext builds the compose context from tool arguments
func (s *Server) composeContext(request mcp.CallToolRequest) (typeahead.Context, error) {
	snap := s.dir.Snapshot()
	me, err := s.user(snap, request.GetString("as", ""))
	if err != nil {
		return typeahead.Context{}, err
	}
	cctx := typeahead.Context{
		MessageType:   typeahead.StreamMessage,
		CurrentUserID: me.ID,
		StreamID:      int64(request.GetInt("stream_id", 0)),
		Topic:         request.GetString("topic", ""),
	}

	if raw := request.GetString("recipients", ""); raw != "" {
		cctx.MessageType = typeahead.DirectMessage
		for _, ref := range strings.Split(raw, ",") {
			u, ok := snap.LookupUser(ref)
			if !ok {
				return typeahead.Context{}, errors.NewNotFoundError("recipient %s", strings.TrimSpace(ref))
			}
			if u.ID != me.ID {
				cctx.Recipients = append(cctx.Recipients, u.ID)
			}
		}
	}
	return cctx, nil
}

func (s *Server) user(snap *directory.Snapshot, ref string) (directory.User, error) {
	if ref == "" {
		ref = s.defaultUser
	}
	if ref == "" {
		return directory.User{}, errors.NewInvalidRequestError("no user given: pass 'as' or set typeahead.current_user")
	}
	u, ok := snap.LookupUser(ref)
	if !ok {
		return directory.User{}, errors.NewNotFoundError("user %s", ref)
	}
	return u, nil
}

// cursorArg reads the optional cursor; the default is the end of text
func cursorArg(request mcp.CallToolRequest, text string) int {
	return request.GetInt("cursor", len([]rune(text)))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode tool result")
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Serve runs the MCP server over stdio until stdin closes
func (s *Server) Serve() error {
	s.logger.Infow("Serving MCP over stdio")
	return server.ServeStdio(s.server)
}
