package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo(t *testing.T) {
	info := Info{CommitHash: "0123456789", BuildTime: "today", Version: "dev"}
	assert.Equal(t, "0123456", info.Short())
	assert.Equal(t, "typeahead dev (commit 0123456789, built today)", info.String())
	_, ok := info.Semver()
	assert.False(t, ok)

	info.Version = "1.2.3"
	v, ok := info.Semver()
	require.True(t, ok)
	assert.Equal(t, uint64(2), v.Minor())
	assert.Equal(t, "typeahead 1.2.3 (commit 0123456789, built today)", info.String())
}

func TestCheckClient(t *testing.T) {
	tests := []struct {
		name    string
		client  string
		minimum string
		wantErr string
	}{
		{name: "no gate", client: "0.1.0"},
		{name: "unknown client", minimum: "1.0.0"},
		{name: "new enough", client: "1.4.0", minimum: "1.4.0"},
		{name: "prefixed", client: "v2.0.0", minimum: "1.4.0"},
		{name: "too old", client: "1.3.9", minimum: "1.4.0", wantErr: "older than 1.4.0"},
		{name: "garbage", client: "latest", minimum: "1.4.0", wantErr: "invalid client version"},
		{name: "bad minimum", client: "1.0.0", minimum: "x", wantErr: "invalid minimum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckClient(tt.client, tt.minimum)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
