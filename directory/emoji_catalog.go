package directory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kyokomi/emoji/v2"
)

const variationSelector = 0xFE0F

var (
	catalogOnce sync.Once
	catalog     []Emoji
)

// UnicodeCatalog returns the standard unicode emoji plus the zulip extra
// emoji, one entry per code point sequence. The canonical name is the
// shortest alias, ties broken alphabetically.
func UnicodeCatalog() []Emoji {
	catalogOnce.Do(func() {
		catalog = buildCatalog(emoji.RevCodeMap())
	})
	return catalog
}

func buildCatalog(rev map[string][]string) []Emoji {
	names := make(map[string]map[string]bool)
	for char, aliases := range rev {
		code := EmojiCode(char)
		if code == "" {
			continue
		}
		if names[code] == nil {
			names[code] = make(map[string]bool)
		}
		for _, a := range aliases {
			name := strings.Trim(a, ":")
			if name != "" {
				names[code][name] = true
			}
		}
	}

	out := make([]Emoji, 0, len(names)+1)
	for code, set := range names {
		if len(set) == 0 {
			continue
		}
		all := make([]string, 0, len(set))
		for n := range set {
			all = append(all, n)
		}
		sort.Slice(all, func(i, j int) bool {
			if len(all[i]) != len(all[j]) {
				return len(all[i]) < len(all[j])
			}
			return all[i] < all[j]
		})
		out = append(out, Emoji{
			Name:         all[0],
			Aliases:      all[1:],
			Code:         code,
			ReactionType: UnicodeEmoji,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	out = append(out, Emoji{Name: "zulip", Code: "zulip", ReactionType: ZulipExtra})
	return out
}

// EmojiCode renders a unicode emoji as lowercase hex code points joined by
// "-", dropping variation selectors: "👍" -> "1f44d".
func EmojiCode(s string) string {
	var parts []string
	for _, r := range s {
		if r == variationSelector {
			continue
		}
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}

// EmojiChar is the inverse of EmojiCode. Codes that are not hex sequences
// return "".
func EmojiChar(code string) string {
	var b strings.Builder
	for _, part := range strings.Split(code, "-") {
		var r rune
		if _, err := fmt.Sscanf(part, "%x", &r); err != nil || r == 0 {
			return ""
		}
		b.WriteRune(r)
	}
	return b.String()
}
