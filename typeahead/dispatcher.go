package typeahead

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/logger"
)

// Directory is the read side of the collaborator stores.
// *directory.Directory implements it.
type Directory interface {
	Snapshot() *directory.Snapshot
	// RequestTopicHistory must return immediately
	RequestTopicHistory(streamID int64)
}

// Broadcast keywords
const (
	BroadcastAll      = "all"
	BroadcastEveryone = "everyone"
	BroadcastStream   = "stream"
	BroadcastChannel  = "channel"
	BroadcastTopic    = "topic"
)

// Options configures a Dispatcher.
type Options struct {
	Config am.TypeaheadConfig
	Realm  am.RealmConfig
	Logger *zap.SugaredLogger
	// Now is the clock used for time suggestions; defaults to time.Now
	Now func() time.Time
}

// Dispatcher turns compose box content into ranked suggestions. Every call
// reads one directory snapshot and keeps no state between calls.
type Dispatcher struct {
	dir    Directory
	logger *zap.SugaredLogger
	now    func() time.Time

	mu     sync.RWMutex
	cfg    am.TypeaheadConfig
	policy Policy
}

// Result is the outcome of GetCandidates. A zero Token means no completion.
type Result struct {
	Token      Token
	Candidates []Candidate
}

// NewDispatcher creates a dispatcher over dir.
func NewDispatcher(dir Directory, opts Options) *Dispatcher {
	d := &Dispatcher{
		dir:    dir,
		logger: logger.OrComponent(opts.Logger, "typeahead"),
		now:    opts.Now,
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.UpdateConfig(&am.Config{Typeahead: opts.Config, Realm: opts.Realm})
	return d
}

// UpdateConfig swaps limits and policy, e.g. after the config file changed.
func (d *Dispatcher) UpdateConfig(cfg *am.Config) {
	tc := cfg.GetTypeaheadConfig()
	policy := PolicyFromConfig(cfg.GetRealmConfig())

	d.mu.Lock()
	d.cfg = tc
	d.policy = policy
	d.mu.Unlock()
}

func (d *Dispatcher) settings() (am.TypeaheadConfig, Policy) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg, d.policy
}

// GetCandidates returns the ranked, truncated suggestions for the token
// left of cursor, a rune offset into text. Malformed input yields an empty
// result, never an error.
func (d *Dispatcher) GetCandidates(ctx context.Context, text string, cursor int, cctx Context) Result {
	start := time.Now()
	cfg, policy := d.settings()

	tok, ok := TokenizeWithOptions(text, cursor, TokenizeOptions{
		Lookback:        cfg.Lookback,
		CodeBlockButton: cctx.CodeBlockButton,
	})
	if !ok {
		return Result{}
	}

	snap := d.dir.Snapshot()
	env := rankEnv{snap: snap, ctx: cctx, cfg: cfg}
	cs := d.candidates(env, policy, tok)
	if limit := limitFor(cfg, tok.Kind); len(cs) > limit {
		cs = cs[:limit]
	}

	log := logger.LoggerFromContext(ctx, logger.AddTriggerSymbol(d.logger, string(tok.Kind)))
	log.Debugw("Candidates computed",
		logger.FieldQuery, tok.Query,
		logger.FieldCursor, cursor,
		logger.FieldUserID, cctx.CurrentUserID,
		logger.FieldCount, len(cs),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return Result{Token: tok, Candidates: cs}
}

// Select recomputes the suggestions and applies the one at index.
func (d *Dispatcher) Select(ctx context.Context, text string, cursor, index int, cctx Context) (Selection, bool) {
	res := d.GetCandidates(ctx, text, cursor, cctx)
	if index < 0 || index >= len(res.Candidates) {
		return Selection{Text: text, Cursor: cursor}, false
	}
	return ContentTypeaheadSelected(res.Candidates[index], text, cursor, res.Token), true
}

func (d *Dispatcher) candidates(env rankEnv, policy Policy, tok Token) []Candidate {
	snap, cctx := env.snap, env.ctx

	switch tok.Kind {
	case KindMention, KindSilentMention:
		match := mentionMatcher(snap, cctx, tok.Silent)
		var matched, unmatched []Candidate
		for _, c := range mentionUniverse(snap, policy, cctx, tok.Silent) {
			if match(tok.Query, c) {
				matched = append(matched, c)
			} else {
				unmatched = append(unmatched, c)
			}
		}
		matched = keepFirstStreamWildcard(matched)
		if tok.Enumerate {
			matched = append(matched, collapseBroadcasts(matched, unmatched)...)
		}
		return env.sortMentions(tok.Query, matched)

	case KindStream:
		return env.sortStreams(tok.Query, filter(tok.Query, streamUniverse(snap, cctx), matchCandidate))

	case KindTopicList:
		stream, ok := snap.StreamByName(tok.Stream)
		if !ok {
			return nil
		}
		d.dir.RequestTopicHistory(stream.ID)
		return sortTopics(tok.Query, filter(tok.Query, topicUniverse(snap, stream, tok.Query), matchCandidate))

	case KindTopicJump:
		return []Candidate{TopicJumpCandidate{}}

	case KindEmoji:
		return env.sortEmoji(tok.Query, filter(tok.Query, emojiUniverse(snap), matchCandidate))

	case KindSlash:
		var universe []Candidate
		for _, cmd := range snap.SlashCommands() {
			universe = append(universe, SlashCandidate{Command: cmd})
		}
		return sortSlash(tok.Query, filter(tok.Query, universe, matchCandidate))

	case KindSyntax:
		var universe []Candidate
		if cctx.CodeBlockButton && tok.Query == "" {
			universe = append(universe, LanguageCandidate{})
		}
		for _, lang := range snap.Languages() {
			universe = append(universe, LanguageCandidate{Language: lang})
		}
		return sortLanguages(tok.Query, filter(tok.Query, universe, matchCandidate))

	case KindTimeJump:
		return []Candidate{TimeJumpCandidate{Time: d.now().UTC().Truncate(time.Minute)}}
	}
	return nil
}

func limitFor(cfg am.TypeaheadConfig, kind Kind) int {
	switch kind {
	case KindMention, KindSilentMention:
		return cfg.MaxMentions
	case KindStream:
		return cfg.MaxStreams
	case KindTopicList:
		return cfg.MaxTopics
	case KindEmoji:
		return cfg.MaxEmoji
	case KindSlash:
		return cfg.MaxSlash
	case KindSyntax:
		return cfg.MaxLanguages
	}
	return 1
}

func filter(query string, cs []Candidate, match Matcher) []Candidate {
	var out []Candidate
	for _, c := range cs {
		if match(query, c) {
			out = append(out, c)
		}
	}
	return out
}

// mentionUniverse lists everyone and everything the current user may
// mention: active, accessible, unmuted people other than themselves,
// permitted broadcasts, and user groups.
func mentionUniverse(snap *directory.Snapshot, policy Policy, cctx Context, silent bool) []Candidate {
	var out []Candidate
	for _, u := range snap.Users() {
		if !u.IsActive || u.ID == cctx.CurrentUserID {
			continue
		}
		if snap.IsMuted(cctx.CurrentUserID, u.ID) || !snap.CanAccessUser(cctx.CurrentUserID, u.ID) {
			continue
		}
		out = append(out, UserCandidate{
			User:          u,
			Silent:        silent,
			DuplicateName: snap.HasDuplicateFullName(u.FullName),
		})
	}

	if !silent {
		out = append(out, broadcasts(snap, policy, cctx)...)
	}

	for _, g := range snap.Groups() {
		if g.IsSystemGroup || g.Deactivated {
			continue
		}
		if !silent && !CanMentionGroup(snap, cctx, g) {
			continue
		}
		out = append(out, GroupCandidate{Group: g, Silent: silent})
	}
	return out
}

// broadcasts returns the wildcard mentions allowed in cctx.
func broadcasts(snap *directory.Snapshot, policy Policy, cctx Context) []Candidate {
	if cctx.IsDirect() {
		return []Candidate{
			BroadcastCandidate{Name: BroadcastAll, Description: "Notify recipients"},
			BroadcastCandidate{Name: BroadcastEveryone, Description: "Notify recipients"},
		}
	}

	var out []Candidate
	if policy.StreamWildcardAllowed(snap, cctx) {
		for _, name := range []string{BroadcastAll, BroadcastEveryone, BroadcastStream, BroadcastChannel} {
			out = append(out, BroadcastCandidate{Name: name, Description: "Notify channel"})
		}
	}
	if policy.TopicWildcardAllowed(snap, cctx) {
		out = append(out, BroadcastCandidate{Name: BroadcastTopic, Description: "Notify topic"})
	}
	return out
}

func isStreamWildcard(name string) bool {
	return name != BroadcastTopic
}

// keepFirstStreamWildcard drops stream wildcard synonyms after the first.
func keepFirstStreamWildcard(cs []Candidate) []Candidate {
	out := cs[:0:0]
	seen := false
	for _, c := range cs {
		if b, ok := c.(BroadcastCandidate); ok && isStreamWildcard(b.Name) {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, c)
	}
	return out
}

// collapseBroadcasts reduces unmatched broadcasts to a single "everyone",
// or none when a stream wildcard already matched.
func collapseBroadcasts(matched, unmatched []Candidate) []Candidate {
	for _, c := range matched {
		if b, ok := c.(BroadcastCandidate); ok && isStreamWildcard(b.Name) {
			return withoutBroadcasts(unmatched)
		}
	}

	out := unmatched[:0:0]
	for _, c := range unmatched {
		if b, ok := c.(BroadcastCandidate); ok && b.Name != BroadcastEveryone {
			continue
		}
		out = append(out, c)
	}
	return out
}

func withoutBroadcasts(cs []Candidate) []Candidate {
	out := cs[:0:0]
	for _, c := range cs {
		if _, ok := c.(BroadcastCandidate); !ok {
			out = append(out, c)
		}
	}
	return out
}

// streamUniverse lists channels the current user can link to.
func streamUniverse(snap *directory.Snapshot, cctx Context) []Candidate {
	viewer, _ := snap.UserByID(cctx.CurrentUserID)

	var out []Candidate
	for _, s := range snap.Streams() {
		if s.IsArchived {
			continue
		}
		subscribed := snap.IsSubscribed(s.ID, cctx.CurrentUserID)
		if !subscribed && (s.InviteOnly || viewer.IsGuest()) {
			continue
		}
		out = append(out, StreamCandidate{Stream: s, Subscribed: subscribed})
	}
	return out
}

// topicUniverse lists known topics of stream, most recent first, plus the
// typed text when it names no existing topic.
func topicUniverse(snap *directory.Snapshot, stream directory.Stream, typed string) []Candidate {
	var out []Candidate
	exists := false
	for _, t := range snap.TopicsForStream(stream.ID) {
		if strings.EqualFold(t.Name, typed) {
			exists = true
		}
		out = append(out, TopicCandidate{StreamID: stream.ID, StreamName: stream.Name, Topic: t.Name})
	}
	if typed != "" && !exists {
		out = append(out, TopicCandidate{StreamID: stream.ID, StreamName: stream.Name, Topic: typed, IsNew: true})
	}
	return out
}

func emojiUniverse(snap *directory.Snapshot) []Candidate {
	var out []Candidate
	for _, e := range snap.Emoji() {
		if e.Deactivated {
			continue
		}
		out = append(out, EmojiCandidate{Emoji: e})
	}
	return out
}

// mentionMatcher matches people, broadcasts and groups. Groups also need
// permission unless the mention is silent; silent mentions never match
// broadcasts.
func mentionMatcher(snap *directory.Snapshot, cctx Context, silent bool) Matcher {
	return func(query string, c Candidate) bool {
		switch c := c.(type) {
		case GroupCandidate:
			if c.Group.Deactivated || (!silent && !CanMentionGroup(snap, cctx, c.Group)) {
				return false
			}
		case BroadcastCandidate:
			if silent {
				return false
			}
		case UserCandidate:
		default:
			return false
		}
		return matchCandidate(query, c)
	}
}

// MatcherFor returns the matcher used for kind, bound to cctx and the
// current snapshot. Candidates of a variant the kind never produces do
// not match.
func (d *Dispatcher) MatcherFor(kind Kind, cctx Context) Matcher {
	if kind.IsMention() {
		return mentionMatcher(d.dir.Snapshot(), cctx, kind == KindSilentMention)
	}
	want := candidateKindFor(kind)
	return func(query string, c Candidate) bool {
		return c.Kind() == want && matchCandidate(query, c)
	}
}

// RankerFor returns the ranker used for kind, bound to cctx and the
// current snapshot.
func (d *Dispatcher) RankerFor(kind Kind, cctx Context) Ranker {
	cfg, _ := d.settings()
	env := rankEnv{snap: d.dir.Snapshot(), ctx: cctx, cfg: cfg}

	switch kind {
	case KindMention, KindSilentMention:
		return env.sortMentions
	case KindStream:
		return env.sortStreams
	case KindTopicList:
		return sortTopics
	case KindEmoji:
		return env.sortEmoji
	case KindSlash:
		return sortSlash
	case KindSyntax:
		return sortLanguages
	}
	return func(_ string, cs []Candidate) []Candidate { return cs }
}

func candidateKindFor(kind Kind) CandidateKind {
	switch kind {
	case KindStream:
		return CandidateStream
	case KindTopicList:
		return CandidateTopic
	case KindTopicJump:
		return CandidateTopicJump
	case KindEmoji:
		return CandidateEmoji
	case KindSlash:
		return CandidateSlash
	case KindSyntax:
		return CandidateSyntax
	case KindTimeJump:
		return CandidateTimeJump
	}
	return CandidateUser
}
