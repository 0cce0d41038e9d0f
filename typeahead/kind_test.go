package typeahead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindTrigger(t *testing.T) {
	tests := map[Kind]string{
		KindMention:       "@",
		KindSilentMention: "@_",
		KindStream:        "#",
		KindTopicList:     ">",
		KindEmoji:         ":",
		KindSlash:         "/",
		KindSyntax:        "```",
		KindTimeJump:      "<time:",
	}
	for kind, want := range tests {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, want, kind.Trigger())
		})
	}
	assert.True(t, KindSilentMention.IsMention())
	assert.False(t, KindStream.IsMention())
	assert.Len(t, Kinds, 9)
}
