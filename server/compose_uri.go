package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/typeahead"
)

// ComposeScheme is the URI scheme of compose box documents
const ComposeScheme = "compose"

// ComposeURI identifies an editor document as a compose box:
//
//	compose://stream/<stream id>/<topic>?as=<user>
//	compose://dm/<user id>,<user id>?as=<user>
//
// as is a user id or email; when absent typeahead.current_user is used.
// A code_block_button=true parameter marks fences inserted by the button.
type ComposeURI struct {
	MessageType     typeahead.MessageType
	StreamID        int64
	Topic           string
	Recipients      []int64
	As              string
	CodeBlockButton bool
}

// ParseComposeURI parses a compose document URI
func ParseComposeURI(raw string) (ComposeURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ComposeURI{}, errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}
	if u.Scheme != ComposeScheme {
		return ComposeURI{}, errors.NewInvalidRequestError("unsupported document scheme %q", u.Scheme)
	}

	out := ComposeURI{
		As:              u.Query().Get("as"),
		CodeBlockButton: u.Query().Get("code_block_button") == "true",
	}
	path := strings.TrimPrefix(u.Path, "/")

	switch u.Host {
	case "stream", "channel":
		out.MessageType = typeahead.StreamMessage
		idPart, topic, _ := strings.Cut(path, "/")
		if out.StreamID, err = parseID(idPart); err != nil {
			return ComposeURI{}, err
		}
		out.Topic = topic
	case "dm":
		out.MessageType = typeahead.DirectMessage
		for _, part := range strings.Split(path, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return ComposeURI{}, err
			}
			out.Recipients = append(out.Recipients, id)
		}
	default:
		return ComposeURI{}, errors.NewInvalidRequestError("unknown compose target %q", u.Host)
	}
	return out, nil
}

// String renders the URI
func (c ComposeURI) String() string {
	u := url.URL{Scheme: ComposeScheme}
	if c.MessageType == typeahead.DirectMessage {
		u.Host = "dm"
		ids := make([]string, len(c.Recipients))
		for i, id := range c.Recipients {
			ids[i] = strconv.FormatInt(id, 10)
		}
		u.Path = "/" + strings.Join(ids, ",")
	} else {
		u.Host = "stream"
		u.Path = "/" + strconv.FormatInt(c.StreamID, 10) + "/" + c.Topic
	}
	q := url.Values{}
	if c.As != "" {
		q.Set("as", c.As)
	}
	if c.CodeBlockButton {
		q.Set("code_block_button", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// composeContextFor resolves the compose context of a document
func (s *Server) composeContextFor(snap *directory.Snapshot, c ComposeURI) (typeahead.Context, error) {
	user, err := s.resolveUser(snap, c.As)
	if err != nil {
		return typeahead.Context{}, err
	}
	cctx := typeahead.Context{
		MessageType:     c.MessageType,
		StreamID:        c.StreamID,
		Topic:           c.Topic,
		CurrentUserID:   user.ID,
		CodeBlockButton: c.CodeBlockButton,
	}
	for _, id := range c.Recipients {
		if id != user.ID {
			cctx.Recipients = append(cctx.Recipients, id)
		}
	}
	return s.resolveContext(snap, cctx)
}
