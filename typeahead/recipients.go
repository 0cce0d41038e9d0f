package typeahead

import (
	"context"
	"sort"
	"strings"

	"github.com/teranos/typeahead/logger"
)

// GetRecipientCandidates completes the last entry of a comma-separated
// direct message recipient field such as "iago@zulip.com, oth". Entries
// before the last comma, and cctx.Recipients, count as already chosen.
func (d *Dispatcher) GetRecipientCandidates(ctx context.Context, field string, cctx Context) []Candidate {
	cfg, _ := d.settings()
	snap := d.dir.Snapshot()

	parts := strings.Split(strings.ReplaceAll(field, nbsp, " "), ",")
	query := strings.TrimSpace(parts[len(parts)-1])

	chosen := make(map[int64]bool)
	var existing []int64
	add := func(id int64) {
		if id != cctx.CurrentUserID && !chosen[id] {
			chosen[id] = true
			existing = append(existing, id)
		}
	}
	for _, id := range cctx.Recipients {
		add(id)
	}
	for _, p := range parts[:len(parts)-1] {
		if u, ok := snap.UserByEmail(strings.TrimSpace(p)); ok {
			add(u.ID)
		}
	}

	var matched []Candidate
	for _, u := range snap.Users() {
		if u.ID == cctx.CurrentUserID || chosen[u.ID] {
			continue
		}
		if snap.IsMuted(cctx.CurrentUserID, u.ID) || !snap.CanAccessUser(cctx.CurrentUserID, u.ID) {
			continue
		}
		if !u.IsActive {
			// deactivated users only by their exact address
			if query == "" || !(strings.EqualFold(query, u.DeliveryEmail) || strings.EqualFold(query, u.Email)) {
				continue
			}
		} else if !QueryMatchesPerson(query, u) {
			continue
		}
		matched = append(matched, UserCandidate{User: u, DuplicateName: snap.HasDuplicateFullName(u.FullName)})
	}

	env := rankEnv{snap: snap, ctx: cctx, cfg: cfg}
	var ranked []Candidate
	if len(existing) >= 2 {
		ranked = env.sortGroupRecipients(query, matched, existing)
	} else {
		ranked = env.sortMentions(query, matched)
	}
	if len(ranked) > cfg.MaxRecipients {
		ranked = ranked[:cfg.MaxRecipients]
	}

	logger.LoggerFromContext(ctx, d.logger).Debugw("Recipient candidates computed",
		logger.FieldQuery, query,
		logger.FieldCount, len(ranked),
		"existing", len(existing))
	return ranked
}

// sortGroupRecipients ranks candidates for a group direct message that
// already has existing recipients. People who complete a past conversation
// exactly come first, then people from past conversations that include
// everyone chosen so far, each by recency; then recent one-on-one partners;
// then name tiers.
func (e rankEnv) sortGroupRecipients(query string, cs []Candidate, existing []int64) []Candidate {
	me := e.ctx.CurrentUserID

	// past conversations of the current user, as participant sets without them
	var history []struct {
		others map[int64]bool
		max    int64
	}
	oneToOne := make(map[int64]int64)
	for _, conv := range e.snap.DMConversations() {
		others := make(map[int64]bool, len(conv.UserIDs))
		mine := false
		for _, id := range conv.UserIDs {
			if id == me {
				mine = true
				continue
			}
			others[id] = true
		}
		if !mine {
			continue
		}
		if len(others) == 1 {
			for id := range others {
				if conv.MaxMessageID > oneToOne[id] {
					oneToOne[id] = conv.MaxMessageID
				}
			}
		}
		history = append(history, struct {
			others map[int64]bool
			max    int64
		}{others, conv.MaxMessageID})
	}

	type entry struct {
		c        Candidate
		group    int // 0 completes a past conversation, 1 fits in one, 2 neither
		groupMax int64
		direct   int64
		rank     int
		index    int
	}
	entries := make([]entry, 0, len(cs))
	for i, c := range cs {
		uc, ok := c.(UserCandidate)
		if !ok {
			continue
		}
		en := entry{c: c, group: 2, direct: oneToOne[uc.User.ID], rank: personRank(query, uc.User), index: i}

		for _, h := range history {
			if !h.others[uc.User.ID] || !containsAll(h.others, existing) {
				continue
			}
			g := 1
			if len(h.others) == len(existing)+1 {
				g = 0
			}
			if g < en.group || (g == en.group && h.max > en.groupMax) {
				en.group, en.groupMax = g, h.max
			}
		}
		entries = append(entries, en)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.group != b.group {
			return a.group < b.group
		}
		if a.groupMax != b.groupMax {
			return a.groupMax > b.groupMax
		}
		if a.direct != b.direct {
			return a.direct > b.direct
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.index > b.index
	})

	out := make([]Candidate, len(entries))
	for i, en := range entries {
		out[i] = en.c
	}
	return out
}

func containsAll(set map[int64]bool, ids []int64) bool {
	for _, id := range ids {
		if !set[id] {
			return false
		}
	}
	return true
}
