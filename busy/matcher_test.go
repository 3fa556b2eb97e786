/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package busy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBusyFor(t *testing.T) {
	tests := []struct {
		name     string
		payload  Payload
		begin    bool
		criteria MatchCriteria
		want     bool
	}{
		{
			name:    "begin, no criteria",
			payload: Payload{URL: "/path"},
			begin:   true,
			want:    true,
		},
		{
			name:     "begin ignores url filter",
			payload:  Payload{URL: "/other"},
			begin:    true,
			criteria: MatchCriteria{WhenURL: "/path"},
			want:     true,
		},
		{
			name:     "begin ignores name filter",
			payload:  Payload{URL: "/path", Name: "other", Remaining: 3},
			begin:    true,
			criteria: MatchCriteria{WhenName: "n"},
			want:     true,
		},
		{
			name:    "no criteria, nothing remaining",
			payload: Payload{Remaining: 0},
			want:    true,
		},
		{
			name:    "no criteria, requests remaining",
			payload: Payload{Remaining: 2},
			want:    false,
		},
		{
			name:     "url filter matches",
			payload:  Payload{URL: "/path", Remaining: 5},
			criteria: MatchCriteria{WhenURL: "/path"},
			want:     true,
		},
		{
			name:     "url filter overrides remaining-zero default",
			payload:  Payload{URL: "", Name: "n", Remaining: 0},
			criteria: MatchCriteria{WhenURL: "/path"},
			want:     false,
		},
		{
			name:     "url filter overrides name filter",
			payload:  Payload{URL: "/other", Name: "n"},
			criteria: MatchCriteria{WhenURL: "/path", WhenName: "n"},
			want:     false,
		},
		{
			name:     "url filter is compared exactly",
			payload:  Payload{URL: "/path/"},
			criteria: MatchCriteria{WhenURL: "/path"},
			want:     false,
		},
		{
			name:     "name filter matches",
			payload:  Payload{URL: "/any", Name: "n", Remaining: 1},
			criteria: MatchCriteria{WhenName: "n"},
			want:     true,
		},
		{
			name:     "name filter overrides remaining-zero default",
			payload:  Payload{URL: "/any", Name: "other", Remaining: 0},
			criteria: MatchCriteria{WhenName: "n"},
			want:     false,
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsBusyFor(tt.payload, tt.begin, tt.criteria))
		})
	}
}

func TestIsBusyFor_BeginAlwaysWins(t *testing.T) {
	payloads := []Payload{{}, {URL: "/a"}, {Name: "n"}, {Remaining: 7}, {URL: "/a", Name: "n", Remaining: 1}}
	criteria := []MatchCriteria{{}, {WhenURL: "/b"}, {WhenName: "m"}, {WhenURL: "/b", WhenName: "m"}}
	for _, p := range payloads {
		for _, c := range criteria {
			require.True(t, IsBusyFor(p, true, c), "payload: %+v, criteria: %+v", p, c)
		}
	}
}

func TestPayloadOf(t *testing.T) {
	p, ok := PayloadOf(BeginEvent{URL: "/path", Name: "n"})
	require.True(t, ok)
	require.Equal(t, Payload{URL: "/path", Name: "n"}, p)

	p, ok = PayloadOf(EndOneEvent{URL: "/path", Name: "n", Remaining: 2})
	require.True(t, ok)
	require.Equal(t, Payload{URL: "/path", Name: "n", Remaining: 2}, p)

	_, ok = PayloadOf(EndAllEvent{})
	require.False(t, ok)

	_, ok = PayloadOf(&EndOneEvent{URL: "/path", Name: "n", Remaining: 2})
	require.False(t, ok, "events are broadcast as values")
}

func TestMatchCriteria_IsZero(t *testing.T) {
	require.True(t, MatchCriteria{}.IsZero())
	require.False(t, MatchCriteria{WhenURL: "/path"}.IsZero())
	require.False(t, MatchCriteria{WhenName: "n"}.IsZero())
}
