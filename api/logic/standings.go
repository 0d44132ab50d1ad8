/* standings.go
 * Contains the standings aggregator: the tie-grouped leaderboard and the
 * per-participant detailed statistics. Both are derived views, recomputed on
 * demand and never persisted.
 */

package logic

import (
	"sort"

	"totalizator-bot/api/store"
)

// RankTier is one leaderboard step: every participant on the same score
// shares the tier. Order within a tier is display only, not a ranking
// guarantee.
type RankTier struct {
	Rank         int
	Scores       int
	Participants []store.Participant
}

// Leaderboard folds all participants into rank tiers ordered by score
// descending. Ranks are dense tier indexes: two participants on 10 points
// share rank 1 and a participant on 9 points is rank 2.
func Leaderboard(participants []store.Participant) []RankTier {
	sorted := make([]store.Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Scores > sorted[j].Scores
	})

	var tiers []RankTier
	for _, p := range sorted {
		if n := len(tiers); n > 0 && tiers[n-1].Scores == p.Scores {
			tiers[n-1].Participants = append(tiers[n-1].Participants, p)
			continue
		}
		tiers = append(tiers, RankTier{
			Rank:         len(tiers) + 1,
			Scores:       p.Scores,
			Participants: []store.Participant{p},
		})
	}
	return tiers
}

// UserStats is the per-category breakdown of a participant's bets across all
// settled events
type UserStats struct {
	ExactScore     int
	GoalDifference int
	Winner         int
	NearMiss       int
	Missed         int
	NoBet          int
	BonusPoints    int
}

// DetailedStatistics re-grades every settled event for one participant.
// Events without a bet are counted separately rather than graded with the
// default bet, since the view describes what the participant actually
// predicted.
func DetailedStatistics(participant store.Participant, settled []store.Event) UserStats {
	var stats UserStats
	for _, event := range settled {
		if event.Result == nil {
			continue
		}
		bet, ok := participant.FindBet(event.ID)
		if !ok {
			stats.NoBet++
			continue
		}

		switch Evaluate(*event.Result, bet) {
		case TierExactScore:
			stats.ExactScore++
		case TierGoalDifference:
			stats.GoalDifference++
		case TierWinner:
			stats.Winner++
		case TierNone:
			stats.Missed++
		}
		if IsNearMiss(*event.Result, bet) {
			stats.NearMiss++
		}
		stats.BonusPoints += AdvancementBonus(event.Format, *event.Result, bet)
	}
	return stats
}

// IsNearMiss reports whether the bet was one goal away from the exact score:
// one side matches exactly and the other differs by exactly one.
func IsNearMiss(result store.EventResult, bet store.Bet) bool {
	if result.Team1Scores == bet.Team1Scores {
		return abs(result.Team2Scores-bet.Team2Scores) == 1
	}
	if result.Team2Scores == bet.Team2Scores {
		return abs(result.Team1Scores-bet.Team1Scores) == 1
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
