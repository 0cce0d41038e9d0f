package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/typeahead"
)

// Directory is the collaborator store the server reads from and refreshes.
// *directory.Directory implements it.
type Directory interface {
	typeahead.Directory
	Refresh(ctx context.Context) error
	Loaded() bool
}

// Options configures a Server.
type Options struct {
	Logger *zap.SugaredLogger
	// Now is the dispatcher clock; defaults to time.Now
	Now func() time.Time
	// ConfigPath enables hot reload of typeahead limits and realm policy
	ConfigPath string
}

// Server exposes the typeahead pipeline as a JSON API and as a language
// server over WebSocket.
type Server struct {
	dir        Directory
	dispatcher *typeahead.Dispatcher
	logger     *zap.SugaredLogger
	configPath string

	mu  sync.RWMutex
	cfg *am.Config

	sessionsMu sync.Mutex
	sessions   map[*websocket.Conn]string // open LSP connections → session id

	httpServer    *http.Server
	configWatcher *am.ConfigWatcher

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	state  atomic.Int32
}

// New creates a server over dir. cfg may be nil, in which case defaults apply.
func New(dir Directory, cfg *am.Config, opts Options) *Server {
	if cfg == nil {
		cfg = &am.Config{}
	}
	log := logger.OrComponent(opts.Logger, "server")
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		dir:        dir,
		logger:     log,
		configPath: opts.ConfigPath,
		cfg:        cfg,
		sessions:   make(map[*websocket.Conn]string),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.dispatcher = typeahead.NewDispatcher(dir, typeahead.Options{
		Config: cfg.Typeahead,
		Realm:  cfg.Realm,
		Logger: log.Named("dispatcher"),
		Now:    opts.Now,
	})
	s.state.Store(int32(ServerStateRunning))
	return s
}

// Dispatcher returns the pipeline the server serves
func (s *Server) Dispatcher() *typeahead.Dispatcher {
	return s.dispatcher
}

func (s *Server) config() *am.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ApplyConfig validates cfg and swaps it in. Limits and the wildcard
// policy take effect for the next request.
func (s *Server) ApplyConfig(cfg *am.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "rejecting reloaded config")
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.dispatcher.UpdateConfig(cfg)

	tc := cfg.GetTypeaheadConfig()
	s.logger.Infow("Config applied",
		"max_mentions", tc.MaxMentions,
		"lookback", tc.Lookback,
		"wildcard_policy", cfg.GetRealmConfig().WildcardMentionPolicy)
	return nil
}

// loadedSnapshot returns the current snapshot once the directory has been
// loaded from the database at least once.
func (s *Server) loadedSnapshot() (*directory.Snapshot, error) {
	if !s.dir.Loaded() {
		return nil, errors.Wrap(errors.ErrServiceUnavailable, "directory has not been loaded yet")
	}
	return s.dir.Snapshot(), nil
}

// resolveContext fills in what the client left out of a compose context:
// the current user from typeahead.current_user and the message type from
// the recipients.
func (s *Server) resolveContext(snap *directory.Snapshot, cctx typeahead.Context) (typeahead.Context, error) {
	if cctx.CurrentUserID == 0 {
		email := s.config().Typeahead.CurrentUser
		if email == "" {
			return cctx, errors.NewInvalidRequestError("current_user_id is required")
		}
		u, ok := snap.UserByEmail(email)
		if !ok {
			return cctx, errors.NewNotFoundError("current user %s", email)
		}
		cctx.CurrentUserID = u.ID
	} else if _, ok := snap.UserByID(cctx.CurrentUserID); !ok {
		return cctx, errors.NewNotFoundError("user %d", cctx.CurrentUserID)
	}

	switch cctx.MessageType {
	case "":
		if len(cctx.Recipients) > 0 {
			cctx.MessageType = typeahead.DirectMessage
		} else {
			cctx.MessageType = typeahead.StreamMessage
		}
	case typeahead.StreamMessage, typeahead.DirectMessage:
	default:
		return cctx, errors.NewInvalidRequestError("unknown message_type %q", cctx.MessageType)
	}
	return cctx, nil
}

// resolveUser looks a user up by id or email; "" means typeahead.current_user
func (s *Server) resolveUser(snap *directory.Snapshot, ref string) (directory.User, error) {
	if ref == "" {
		ref = s.config().Typeahead.CurrentUser
		if ref == "" {
			return directory.User{}, errors.NewInvalidRequestError("no user given and typeahead.current_user is not set")
		}
	}
	if u, ok := snap.LookupUser(ref); ok {
		return u, nil
	}
	return directory.User{}, errors.NewNotFoundError("user %s", ref)
}
