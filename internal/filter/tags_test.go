package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagFilter_TruthTable(t *testing.T) {
	tests := []struct {
		name        string
		whitelist   []string
		blacklist   []string
		tags        []string
		wantInclude bool
		wantReason  string
	}{
		{
			name:        "no lists",
			tags:        []string{"anything"},
			wantInclude: true,
			wantReason:  "No whitelist configured, included by default",
		},
		{
			name:        "blacklist only, no match",
			blacklist:   []string{"hold"},
			tags:        []string{"vip"},
			wantInclude: true,
			wantReason:  "No whitelist configured, included by default",
		},
		{
			name:        "blacklist only, match",
			blacklist:   []string{"hold"},
			tags:        []string{"vip", "hold"},
			wantInclude: false,
			wantReason:  "Matched blacklist tag: hold",
		},
		{
			name:        "whitelist only, match",
			whitelist:   []string{"vip"},
			tags:        []string{"regular", "vip"},
			wantInclude: true,
			wantReason:  "Matched whitelist tag: vip",
		},
		{
			name:        "whitelist only, no match",
			whitelist:   []string{"vip"},
			tags:        []string{"regular"},
			wantInclude: false,
			wantReason:  "No whitelist tag matched",
		},
		{
			name:        "both lists, whitelist match only",
			whitelist:   []string{"vip"},
			blacklist:   []string{"hold"},
			tags:        []string{"vip"},
			wantInclude: true,
			wantReason:  "Matched whitelist tag: vip",
		},
		{
			name:        "both lists, both match",
			whitelist:   []string{"vip"},
			blacklist:   []string{"hold"},
			tags:        []string{"vip", "hold"},
			wantInclude: false,
			wantReason:  "Matched blacklist tag: hold",
		},
		{
			name:        "both lists, neither match",
			whitelist:   []string{"vip"},
			blacklist:   []string{"hold"},
			tags:        []string{"regular"},
			wantInclude: false,
			wantReason:  "No whitelist tag matched",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewTagFilter(tt.whitelist, tt.blacklist, MatchExact)
			require.NoError(t, err)

			include, reason := f.ShouldInclude(tt.tags)
			assert.Equal(t, tt.wantInclude, include)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestTagFilter_CaseInsensitive(t *testing.T) {
	f, err := NewTagFilter([]string{"VIP"}, []string{"Hold"}, MatchExact)
	require.NoError(t, err)

	include, reason := f.ShouldInclude([]string{"vip"})
	assert.True(t, include)
	assert.Equal(t, "Matched whitelist tag: vip", reason)

	include, reason = f.ShouldInclude([]string{"HOLD"})
	assert.False(t, include)
	assert.Equal(t, "Matched blacklist tag: hold", reason)
}

func TestTagFilter_BlacklistReasonNamesFirstOrderTag(t *testing.T) {
	f, err := NewTagFilter(nil, []string{"fraud", "test"}, MatchExact)
	require.NoError(t, err)

	_, reason := f.ShouldInclude([]string{"test", "fraud"})
	assert.Equal(t, "Matched blacklist tag: test", reason)
}

func TestTagFilter_Contains(t *testing.T) {
	f, err := NewTagFilter([]string{"express"}, []string{"hold"}, MatchContains)
	require.NoError(t, err)

	tests := []struct {
		name        string
		tags        []string
		wantInclude bool
		wantReason  string
	}{
		{name: "tag contains entry", tags: []string{"express-shipping"}, wantInclude: true, wantReason: "Matched whitelist tag: express-shipping"},
		{name: "entry contains tag", tags: []string{"press"}, wantInclude: true, wantReason: "Matched whitelist tag: press"},
		{name: "blacklist substring", tags: []string{"express", "on-hold"}, wantInclude: false, wantReason: "Matched blacklist tag: on-hold"},
		{name: "no match", tags: []string{"standard"}, wantInclude: false, wantReason: "No whitelist tag matched"},
		{name: "empty tag ignored", tags: []string{"", "express"}, wantInclude: true, wantReason: "Matched whitelist tag: express"},
		{name: "only empty tag", tags: []string{""}, wantInclude: false, wantReason: "No whitelist tag matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			include, reason := f.ShouldInclude(tt.tags)
			assert.Equal(t, tt.wantInclude, include)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestTagFilter_Regex(t *testing.T) {
	f, err := NewTagFilter([]string{"^vip-\\d+$"}, []string{"test"}, MatchRegex)
	require.NoError(t, err)

	include, reason := f.ShouldInclude([]string{"VIP-10"})
	assert.True(t, include)
	assert.Equal(t, "Matched whitelist tag: vip-10", reason)

	include, _ = f.ShouldInclude([]string{"vip-gold"})
	assert.False(t, include)

	// unanchored search
	include, reason = f.ShouldInclude([]string{"vip-1", "my-test-order"})
	assert.False(t, include)
	assert.Equal(t, "Matched blacklist tag: my-test-order", reason)
}

func TestNewTagFilter_InvalidRegex(t *testing.T) {
	_, err := NewTagFilter([]string{"(unclosed"}, nil, MatchRegex)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "whitelist")
}

func TestNewTagFilter_UnknownMode(t *testing.T) {
	_, err := NewTagFilter(nil, nil, MatchMode("fuzzy"))
	assert.Error(t, err)
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		in      string
		want    MatchMode
		wantErr bool
	}{
		{in: "exact", want: MatchExact},
		{in: " Contains ", want: MatchContains},
		{in: "REGEX", want: MatchRegex},
		{in: "", want: MatchExact},
		{in: "glob", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMatchMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
