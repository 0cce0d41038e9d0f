package directory

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/typeahead/db"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
)

// topicFetchTimeout bounds a single background topic history load
const topicFetchTimeout = 10 * time.Second

// Options configures a Directory.
type Options struct {
	// RegistryPath is an optional TOML file of slash commands and languages
	RegistryPath string
	// RefreshPerMinute limits background refreshes; 0 means unlimited
	RefreshPerMinute int
	Logger           *zap.SugaredLogger
}

// Directory owns the current Snapshot and replaces it on refresh.
// The typeahead pipeline only ever sees snapshots.
type Directory struct {
	loader    *Loader
	commands  []SlashCommand
	languages []Language
	limiter   *rate.Limiter
	logger    *zap.SugaredLogger

	mu     sync.RWMutex
	snap   *Snapshot
	loaded atomic.Bool

	inflightMu sync.Mutex
	inflight   map[int64]bool
	wg         sync.WaitGroup
}

// New creates a directory backed by conn. The initial snapshot holds only
// the built-in registries and emoji; call Refresh to load the database.
func New(conn *sql.DB, opts Options) (*Directory, error) {
	commands, languages, err := LoadRegistry(opts.RegistryPath)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	burst := 1
	if opts.RefreshPerMinute > 0 {
		limit = rate.Limit(float64(opts.RefreshPerMinute) / 60.0)
		burst = opts.RefreshPerMinute
	}

	d := &Directory{
		commands:  commands,
		languages: languages,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger.OrComponent(opts.Logger, "directory"),
		inflight:  make(map[int64]bool),
	}
	if conn != nil {
		d.loader = NewLoader(conn)
	} else {
		d.loaded.Store(true)
	}
	d.snap = NewSnapshot(d.compose(Data{}))
	return d, nil
}

// NewStatic creates a directory over fixed data with no database behind it.
// Refresh and RequestTopicHistory are no-ops.
func NewStatic(data Data) *Directory {
	if data.SlashCommands == nil {
		data.SlashCommands = DefaultSlashCommands()
	}
	if data.Languages == nil {
		data.Languages = DefaultLanguages()
	}
	d := &Directory{
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   logger.ComponentLogger("directory"),
		inflight: make(map[int64]bool),
		snap:     NewSnapshot(data),
	}
	d.loaded.Store(true)
	return d
}

// compose adds the registries and the unicode catalogue to loaded data.
func (d *Directory) compose(data Data) Data {
	data.Emoji = append(append([]Emoji(nil), data.Emoji...), UnicodeCatalog()...)
	data.SlashCommands = d.commands
	data.Languages = d.languages
	return data
}

// Snapshot returns the current snapshot. It never returns nil.
func (d *Directory) Snapshot() *Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// Loaded reports whether the snapshot reflects the database, i.e. at least
// one Refresh has succeeded. Directories without a database are always loaded.
func (d *Directory) Loaded() bool {
	return d.loaded.Load()
}

// Refresh reloads everything from the database and swaps in a new
// snapshot. On failure the previous snapshot stays active.
func (d *Directory) Refresh(ctx context.Context) error {
	if d.loader == nil {
		return nil
	}
	start := time.Now()
	log := logger.AddDBSymbol(d.logger)

	data, err := d.loader.Load(ctx)
	if err != nil {
		log.Warnw("Directory refresh failed, keeping previous snapshot", logger.FieldError, err)
		return errors.Wrap(err, "directory refresh")
	}

	snap := NewSnapshot(d.compose(data))
	d.mu.Lock()
	d.snap = snap
	d.mu.Unlock()
	d.loaded.Store(true)

	counts := snap.Counts()
	log.Infow("Directory refreshed",
		"users", counts["users"],
		"streams", counts["streams"],
		"groups", counts["groups"],
		"topics", counts["topics"],
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return nil
}

// RequestTopicHistory asks for the topic list of streamID to be reloaded in
// the background. It returns immediately; a later Snapshot carries the
// result. Requests for a stream already being fetched, or beyond the rate
// limit, are dropped.
func (d *Directory) RequestTopicHistory(streamID int64) {
	if d.loader == nil || streamID <= 0 {
		return
	}
	log := logger.AddRefreshSymbol(d.logger).With(logger.FieldStreamID, streamID)

	d.inflightMu.Lock()
	if d.inflight[streamID] {
		d.inflightMu.Unlock()
		return
	}
	if !d.limiter.Allow() {
		d.inflightMu.Unlock()
		log.Debugw("Topic history request dropped by rate limiter")
		return
	}
	d.inflight[streamID] = true
	d.inflightMu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.inflightMu.Lock()
			delete(d.inflight, streamID)
			d.inflightMu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), topicFetchTimeout)
		defer cancel()

		topics, err := d.loader.LoadTopics(ctx, streamID)
		if err != nil {
			if db.IsDatabaseClosed(err) {
				log.Debugw("Topic history refresh skipped, database closed")
				return
			}
			log.Warnw("Topic history refresh failed", logger.FieldError, err)
			return
		}

		d.mu.Lock()
		d.snap = d.snap.withTopics(streamID, topics)
		d.mu.Unlock()
		log.Debugw("Topic history refreshed", logger.FieldCount, len(topics))
	}()
}

// Wait blocks until background refreshes started so far have finished.
func (d *Directory) Wait() {
	d.wg.Wait()
}
