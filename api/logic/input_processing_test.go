/* input_processing_test.go
 * Contains unit tests for score parsing and fuzzy team resolution
 */

package logic

import (
	"testing"

	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseScore_Valid checks well formed submissions
func TestParseScore_Valid(t *testing.T) {
	tests := []struct {
		input string
		s1    int
		s2    int
	}{
		{"2:1", 2, 1},
		{"0:0", 0, 0},
		{" 3 : 2 ", 3, 2},
		{"10:0", 10, 0},
	}

	for _, tt := range tests {
		s1, s2, err := ParseScore(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.s1, s1)
		assert.Equal(t, tt.s2, s2)
	}
}

// TestParseScore_Malformed checks that bad input is a validation error
func TestParseScore_Malformed(t *testing.T) {
	for _, input := range []string{"", "2", "2-1", "a:b", "2:1:3", "-1:0", "0:-2"} {
		_, _, err := ParseScore(input)
		assert.ErrorIs(t, err, shared.ErrValidation, input)
	}
}

// TestMatchTeam resolves typed names against an event's two teams
func TestMatchTeam(t *testing.T) {
	event := store.Event{Team1: "Германия", Team2: "Шотландия"}

	tests := []struct {
		input string
		want  shared.Advancement
	}{
		{"Германия", shared.AdvancementTeam1},
		{"германия", shared.AdvancementTeam1},
		{"Шотландия", shared.AdvancementTeam2},
	}

	for _, tt := range tests {
		got, err := MatchTeam(tt.input, event)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

// TestMatchTeam_Fuzzy checks that a close spelling still resolves
func TestMatchTeam_Fuzzy(t *testing.T) {
	event := store.Event{Team1: "Netherlands", Team2: "Austria"}

	got, err := MatchTeam("netherland", event)

	require.NoError(t, err)
	assert.Equal(t, shared.AdvancementTeam1, got)
}

// TestMatchTeam_NoMatch checks that unrelated input is rejected
func TestMatchTeam_NoMatch(t *testing.T) {
	event := store.Event{Team1: "France", Team2: "Belgium"}

	_, err := MatchTeam("xyzzy", event)

	assert.ErrorIs(t, err, shared.ErrValidation)
}

// TestTeamName maps advancement sides back to display names
func TestTeamName(t *testing.T) {
	event := store.Event{Team1: "France", Team2: "Belgium"}

	assert.Equal(t, "France", TeamName(event, shared.AdvancementTeam1))
	assert.Equal(t, "Belgium", TeamName(event, shared.AdvancementTeam2))
	assert.Equal(t, "", TeamName(event, shared.AdvancementUnset))
}
