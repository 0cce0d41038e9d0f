package typeahead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query, name string
		want        tier
	}{
		{"hamlet", "Hamlet", tierExact},
		{"Ham", "Hamlet", tierPrefixCaseSensitive},
		{"ham", "Hamlet", tierPrefix},
		{"gael", "Gaël Twin", tierPrefix},
		{"twin", "Gaël Twin", tierWordBoundary},
		{"let", "Hamlet", tierNone},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.query, tt.name, " "))
		})
	}
}

func TestTriage(t *testing.T) {
	names := []string{"Delhi", "de", "Denmark", "The Den", "design", "Verona"}
	id := func(s string) string { return s }

	matches, rest := triage("de", names, id, " ")
	assert.Equal(t, []string{"de", "design", "Delhi", "Denmark", "The Den"}, matches)
	assert.Equal(t, []string{"Verona"}, rest)

	matches, rest = triage("De", names, id, " ")
	assert.Equal(t, []string{"de", "Delhi", "Denmark", "design", "The Den"}, matches)
	assert.Equal(t, []string{"Verona"}, rest)
}
