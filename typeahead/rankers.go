package typeahead

import (
	"math"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
)

// Ranker orders candidates for a query. Candidates that do not match are
// not dropped; they sort after every match.
type Ranker func(query string, cs []Candidate) []Candidate

// demoteThreshold is the subscription count at which the automatic setting
// starts demoting inactive channels
const demoteThreshold = 30

// user ranks: name tiers, then email-only matches, then non-matches
const (
	rankEmail = int(tierNone)
	rankNone  = int(tierNone) + 1
)

// mention categories, in display order within a rank
const (
	categoryHuman = iota
	categoryBroadcast
	categoryGroup
	categoryBot
)

// rankEnv is what ranking may consult besides the candidates themselves.
type rankEnv struct {
	snap *directory.Snapshot
	ctx  Context
	cfg  am.TypeaheadConfig
}

type mentionEntry struct {
	c          Candidate
	rank       int
	category   int
	subscribed bool
	recency    int64
	index      int
}

// personRank places a user: name tiers first, then email prefix matches.
func personRank(query string, u directory.User) int {
	q := strings.ReplaceAll(query, nbsp, " ")
	t := classify(q, strings.ReplaceAll(u.FullName, nbsp, " "), " ")
	if t != tierNone {
		return int(t)
	}
	if emailMatches(q, u) {
		return rankEmail
	}
	return rankNone
}

func nameRank(query, name string) int {
	if t := classify(query, name, " "); t != tierNone {
		return int(t)
	}
	return rankNone
}

// sortMentions orders people, broadcasts and groups. Within a rank humans
// come first, then broadcasts, groups and bots; people subscribed to the
// current channel, then recent direct message partners, then the most
// recently added (reverse input order) lead.
func (e rankEnv) sortMentions(query string, cs []Candidate) []Candidate {
	recency := e.snap.DMPartnerRecency(e.ctx.CurrentUserID)

	entries := make([]mentionEntry, 0, len(cs))
	for i, c := range cs {
		en := mentionEntry{c: c, index: i}
		switch c := c.(type) {
		case UserCandidate:
			en.rank = personRank(query, c.User)
			en.category = categoryHuman
			if c.User.IsBot {
				en.category = categoryBot
			}
			en.subscribed = e.ctx.StreamID != 0 && e.snap.IsSubscribed(e.ctx.StreamID, c.User.ID)
			en.recency = recency[c.User.ID]
		case BroadcastCandidate:
			en.rank = nameRank(query, c.Name)
			en.category = categoryBroadcast
		case GroupCandidate:
			en.rank = nameRank(query, c.Group.Name)
			en.category = categoryGroup
		default:
			en.rank = rankNone
			en.category = categoryBot + 1
		}
		entries = append(entries, en)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.category != b.category {
			return a.category < b.category
		}
		if a.subscribed != b.subscribed {
			return a.subscribed
		}
		if a.recency != b.recency {
			return a.recency > b.recency
		}
		if a.category == categoryHuman || a.category == categoryBot {
			return a.index > b.index
		}
		return a.index < b.index
	})

	out := make([]Candidate, len(entries))
	for i, en := range entries {
		out[i] = en.c
	}
	return out
}

// demoteInactive reports whether inactive channels sort after active ones.
func (e rankEnv) demoteInactive() bool {
	switch e.cfg.DemoteInactiveStreams {
	case am.DemoteAlways:
		return true
	case am.DemoteNever:
		return false
	default:
		return len(e.snap.SubscribedStreamIDs(e.ctx.CurrentUserID)) >= demoteThreshold
	}
}

// sortStreams puts an exact name first, then name tiers. Within a tier,
// subscribed active channels lead, then pinned ones, then the closest
// description, then the name.
func (e rankEnv) sortStreams(query string, cs []Candidate) []Candidate {
	demote := e.demoteInactive()

	type entry struct {
		c      StreamCandidate
		tier   tier
		active bool
		pinned bool
		desc   int
		name   string
	}
	entries := make([]entry, 0, len(cs))
	for _, c := range cs {
		sc, ok := c.(StreamCandidate)
		if !ok {
			continue
		}
		desc := fuzzy.RankMatchFold(query, sc.Stream.Description)
		if desc < 0 {
			desc = math.MaxInt
		}
		entries = append(entries, entry{
			c:      sc,
			tier:   classify(query, sc.Stream.Name, " "),
			active: sc.Subscribed && (!demote || sc.Stream.IsRecentlyActive),
			pinned: e.snap.IsPinned(sc.Stream.ID, e.ctx.CurrentUserID),
			desc:   desc,
			name:   strings.ToLower(sc.Stream.Name),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.active != b.active {
			return a.active
		}
		if a.pinned != b.pinned {
			return a.pinned
		}
		if a.desc != b.desc {
			return a.desc < b.desc
		}
		return a.name < b.name
	})

	out := make([]Candidate, len(entries))
	for i, en := range entries {
		out[i] = en.c
	}
	return out
}

// sortEmoji puts popular emoji that match well first, then matches on the
// canonical name before alias-only matches, tier by tier, with custom
// emoji ahead of unicode ones. Emoji sharing a code appear once.
func (e rankEnv) sortEmoji(query string, cs []Candidate) []Candidate {
	q := strings.ReplaceAll(query, " ", "_")
	popularity := make(map[string]int, len(e.cfg.PopularEmoji))
	for i, code := range e.cfg.PopularEmoji {
		popularity[code] = i
	}
	const notPopular = 1 << 30

	type entry struct {
		c       EmojiCandidate
		popular int
		group   int // 0 canonical, 1 alias only, 2 no match
		tier    tier
		realm   bool
	}
	entries := make([]entry, 0, len(cs))
	for _, c := range cs {
		ec, ok := c.(EmojiCandidate)
		if !ok {
			continue
		}
		en := entry{c: ec, popular: notPopular, group: 2, tier: tierNone, realm: ec.Emoji.IsRealm()}

		if t := classify(q, ec.Emoji.Name, "_"); t != tierNone {
			en.group, en.tier = 0, t
			ec.MatchedName = ec.Emoji.Name
		} else if query != "" && query == directory.EmojiChar(ec.Emoji.Code) {
			en.group, en.tier = 0, tierExact
			ec.MatchedName = ec.Emoji.Name
		} else {
			for _, alias := range ec.Emoji.Aliases {
				if t := classify(q, alias, "_"); t < en.tier {
					en.group, en.tier = 1, t
					ec.MatchedName = alias
				}
			}
		}
		en.c = ec

		if p, ok := popularity[ec.Emoji.Code]; ok && en.tier <= tierPrefix {
			en.popular = p
		}
		entries = append(entries, en)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.popular != b.popular {
			return a.popular < b.popular
		}
		if a.group != b.group {
			return a.group < b.group
		}
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		return a.realm && !b.realm
	})

	seen := make(map[string]bool, len(entries))
	out := make([]Candidate, 0, len(entries))
	for _, en := range entries {
		key := string(en.c.Emoji.ReactionType) + "/" + en.c.Emoji.Code
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, en.c)
	}
	return out
}

// sortLanguages puts the plain code block option first, then languages
// whose name starts with the query by popularity with an exact name pulled
// to the top, then the remaining (alias) matches by popularity.
func sortLanguages(query string, cs []Candidate) []Candidate {
	var blank, byName, rest []Candidate
	var exact Candidate
	for _, c := range cs {
		lc, ok := c.(LanguageCandidate)
		if !ok {
			continue
		}
		switch {
		case lc.Language.Name == "":
			blank = append(blank, c)
		case strings.EqualFold(lc.Language.Name, query) && exact == nil:
			exact = c
		case hasFoldPrefix(lc.Language.Name, query):
			byName = append(byName, c)
		default:
			rest = append(rest, c)
		}
	}

	byPopularity := func(list []Candidate) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].(LanguageCandidate).Language.Priority > list[j].(LanguageCandidate).Language.Priority
		})
	}
	byPopularity(byName)
	byPopularity(rest)

	out := append([]Candidate(nil), blank...)
	if exact != nil {
		out = append(out, exact)
	}
	out = append(out, byName...)
	return append(out, rest...)
}

// sortSlash puts name tiers first and alias-only matches after them.
func sortSlash(query string, cs []Candidate) []Candidate {
	byName, rest := triage(query, cs, func(c Candidate) string {
		if sc, ok := c.(SlashCandidate); ok {
			return sc.Command.Name
		}
		return ""
	}, " ")

	aliasTier := func(c Candidate) tier {
		best := tierNone
		if sc, ok := c.(SlashCandidate); ok {
			for _, alias := range sc.Command.Aliases {
				if t := classify(query, alias, " "); t < best {
					best = t
				}
			}
		}
		return best
	}
	sort.SliceStable(rest, func(i, j int) bool { return aliasTier(rest[i]) < aliasTier(rest[j]) })
	return append(byName, rest...)
}

// sortTopics keeps recency order within each tier.
func sortTopics(query string, cs []Candidate) []Candidate {
	matches, rest := triage(query, cs, Candidate.Label, " ")
	return append(matches, rest...)
}
