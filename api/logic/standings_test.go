/* standings_test.go
 * Contains unit tests for the standings aggregator
 */

package logic

import (
	"testing"

	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestLeaderboard_TieGrouping checks that equal scores share a rank tier and
// sit strictly above the next score
func TestLeaderboard_TieGrouping(t *testing.T) {
	participants := []store.Participant{
		{UserID: 1, Username: "nine", Scores: 9},
		{UserID: 2, Username: "ten_a", Scores: 10},
		{UserID: 3, Username: "ten_b", Scores: 10},
		{UserID: 4, Username: "two", Scores: 2},
	}

	tiers := Leaderboard(participants)

	require.Len(t, tiers, 3)
	assert.Equal(t, 1, tiers[0].Rank)
	assert.Equal(t, 10, tiers[0].Scores)
	require.Len(t, tiers[0].Participants, 2)

	assert.Equal(t, 2, tiers[1].Rank)
	assert.Equal(t, 9, tiers[1].Scores)
	require.Len(t, tiers[1].Participants, 1)
	assert.Equal(t, "nine", tiers[1].Participants[0].Username)

	assert.Equal(t, 3, tiers[2].Rank)
	assert.Equal(t, 2, tiers[2].Scores)
}

// TestLeaderboard_Empty checks the empty pool
func TestLeaderboard_Empty(t *testing.T) {
	assert.Empty(t, Leaderboard(nil))
}

// TestLeaderboard_DoesNotMutateInput checks that the input order survives
func TestLeaderboard_DoesNotMutateInput(t *testing.T) {
	participants := []store.Participant{
		{UserID: 1, Scores: 1},
		{UserID: 2, Scores: 5},
	}

	Leaderboard(participants)

	assert.Equal(t, int64(1), participants[0].UserID)
	assert.Equal(t, int64(2), participants[1].UserID)
}

// TestIsNearMiss checks the one-goal-away predicate
func TestIsNearMiss(t *testing.T) {
	tests := []struct {
		name   string
		result store.EventResult
		bet    store.Bet
		want   bool
	}{
		{"second side one off", result(2, 1, ""), bet(2, 0, ""), true},
		{"first side one off", result(2, 1, ""), bet(3, 1, ""), true},
		{"exact is not a near miss", result(2, 1, ""), bet(2, 1, ""), false},
		{"two off", result(2, 1, ""), bet(2, 3, ""), false},
		{"both sides off by one", result(2, 1, ""), bet(1, 0, ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNearMiss(tt.result, tt.bet))
		})
	}
}

// TestDetailedStatistics counts each category over a set of settled events
func TestDetailedStatistics(t *testing.T) {
	exactID := primitive.NewObjectID()
	marginID := primitive.NewObjectID()
	nearID := primitive.NewObjectID()
	skippedID := primitive.NewObjectID()

	exactRes := result(2, 2, shared.AdvancementTeam1)
	marginRes := result(3, 1, "")
	nearRes := result(2, 1, "")
	skippedRes := result(1, 0, "")

	settled := []store.Event{
		{ID: exactID, Format: shared.FormatPlayoffSingle, Result: &exactRes},
		{ID: marginID, Format: shared.FormatSimple, Result: &marginRes},
		{ID: nearID, Format: shared.FormatSimple, Result: &nearRes},
		{ID: skippedID, Format: shared.FormatSimple, Result: &skippedRes},
	}
	participant := store.Participant{
		UserID: 1,
		Bets: []store.Bet{
			{EventID: exactID, Team1Scores: 2, Team2Scores: 2, Advancement: shared.AdvancementTeam1},
			{EventID: marginID, Team1Scores: 2, Team2Scores: 0},
			{EventID: nearID, Team1Scores: 2, Team2Scores: 0},
		},
	}

	stats := DetailedStatistics(participant, settled)

	assert.Equal(t, 1, stats.ExactScore)
	assert.Equal(t, 1, stats.GoalDifference)
	// The near miss 2:0 against 2:1 is also a correct winner
	assert.Equal(t, 1, stats.Winner)
	assert.Equal(t, 1, stats.NearMiss)
	assert.Equal(t, 0, stats.Missed)
	assert.Equal(t, 1, stats.NoBet)
	assert.Equal(t, 1, stats.BonusPoints)
}
