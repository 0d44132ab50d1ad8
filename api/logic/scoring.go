/* scoring.go
 * Contains the scoring engine: tier evaluation of a bet against an official
 * result, the advancement bonus, and batch settlement of one event across all
 * participants. Everything in this file is pure; the api package applies the
 * resulting deltas through the store.
 */

package logic

import (
	"fmt"

	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"
)

// GuessTier is the category of correctness of a bet against a result.
// Tiers are mutually exclusive: Evaluate checks them in priority order and the
// first match wins, so no score pair is counted twice.
type GuessTier int

const (
	TierNone GuessTier = iota
	TierWinner
	TierGoalDifference
	TierExactScore
)

// Points returns the base award for a tier
func (t GuessTier) Points() int {
	switch t {
	case TierExactScore:
		return 4
	case TierGoalDifference:
		return 3
	case TierWinner:
		return 1
	default:
		return 0
	}
}

func (t GuessTier) String() string {
	switch t {
	case TierExactScore:
		return "exact score"
	case TierGoalDifference:
		return "goal difference"
	case TierWinner:
		return "winner"
	default:
		return "missed"
	}
}

// AdvancementBonusPoints is the extra award for correctly predicting which
// team proceeds, independent of the score tier.
const AdvancementBonusPoints = 1

// Evaluate computes the guess tier for one bet against one result
// Preconditions: Receives the official EventResult and the Bet to grade
// Postconditions: Returns exactly one GuessTier
func Evaluate(result store.EventResult, bet store.Bet) GuessTier {
	if result.Team1Scores == bet.Team1Scores && result.Team2Scores == bet.Team2Scores {
		return TierExactScore
	}
	if result.Team1Scores-result.Team2Scores == bet.Team1Scores-bet.Team2Scores {
		// Same margin on a different score; covers two draws at different
		// exact scores as well
		return TierGoalDifference
	}
	if sign(result.Team1Scores-result.Team2Scores) == sign(bet.Team1Scores-bet.Team2Scores) {
		// A draw counts as its own outcome here
		return TierWinner
	}
	return TierNone
}

// AdvancementBonus computes the bonus award for one bet. Only playoff formats
// carry advancement information; the bonus requires both flags to be set and
// equal, regardless of the base tier.
func AdvancementBonus(format shared.EventFormat, result store.EventResult, bet store.Bet) int {
	if !format.IsPlayoff() {
		return 0
	}
	if !result.Advancement.IsSet() || !bet.Advancement.IsSet() {
		return 0
	}
	if result.Advancement == bet.Advancement {
		return AdvancementBonusPoints
	}
	return 0
}

// DefaultBet is the stand-in prediction for a participant with no bet on a
// settled event: 0:0 with team 1 advancing. It exists to make settlement
// total over all participants and scores zero unless the result happens to
// match it.
func DefaultBet() store.Bet {
	return store.Bet{
		Team1Scores: 0,
		Team2Scores: 0,
		Advancement: shared.AdvancementTeam1,
	}
}

// SettlementDelta is the outcome of grading one participant on one event
type SettlementDelta struct {
	UserID      int64
	DisplayName string
	Tier        GuessTier
	Bonus       int
	NoBet       bool
}

// Points returns the total award for the delta
func (d SettlementDelta) Points() int {
	return d.Tier.Points() + d.Bonus
}

// SettlementReport groups the graded participants into named buckets for the
// announcement message, alongside the raw per-participant deltas.
type SettlementReport struct {
	Event  store.Event
	Deltas []SettlementDelta

	ExactScore     []string
	GoalDifference []string
	Winner         []string
	Missed         []string
	BonusEarned    []string
}

// BuildSettlement grades one settled event against a snapshot of all
// participants. Participants without a bet are graded with the default bet.
// The function is pure: it produces the full delta list in one pass and the
// caller applies the deltas afterwards, so no global state mutates while the
// snapshot is being iterated.
// Preconditions: Receives an event that has a result, and the participant snapshot
// Postconditions: Returns the SettlementReport, or an error when the event is unsettled
func BuildSettlement(event store.Event, participants []store.Participant) (SettlementReport, error) {
	if event.Result == nil {
		return SettlementReport{}, fmt.Errorf("%w: event %s has no result to settle",
			shared.ErrInvalidState, event.ID.Hex())
	}

	report := SettlementReport{Event: event}
	for _, p := range participants {
		bet, ok := p.FindBet(event.ID)
		if !ok {
			bet = DefaultBet()
		}

		delta := SettlementDelta{
			UserID:      p.UserID,
			DisplayName: p.DisplayName(),
			Tier:        Evaluate(*event.Result, bet),
			Bonus:       AdvancementBonus(event.Format, *event.Result, bet),
			NoBet:       !ok,
		}
		report.Deltas = append(report.Deltas, delta)

		switch delta.Tier {
		case TierExactScore:
			report.ExactScore = append(report.ExactScore, delta.DisplayName)
		case TierGoalDifference:
			report.GoalDifference = append(report.GoalDifference, delta.DisplayName)
		case TierWinner:
			report.Winner = append(report.Winner, delta.DisplayName)
		case TierNone:
			report.Missed = append(report.Missed, delta.DisplayName)
		}
		if delta.Bonus > 0 {
			report.BonusEarned = append(report.BonusEarned, delta.DisplayName)
		}
	}
	return report, nil
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
