/* betcontext.go
 * Contains the betting context state machine: the per-participant single-slot
 * lifecycle from event selection to bet commit, including the two-step draw
 * disambiguation for playoff formats. The functions here are pure decisions;
 * the api package persists the returned context and bet changes.
 */

package logic

import (
	"fmt"
	"time"

	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"
)

// ErrEventStarted marks a score or selection arriving after kickoff. The
// caller resets the context to idle and tells the participant they are too
// late; unlike a plain validation error, the context is not preserved.
var ErrEventStarted = fmt.Errorf("%w: event has already started", shared.ErrInvalidState)

// ScoreOutcome is the result of committing a well formed score submission
type ScoreOutcome struct {
	Bet store.Bet
	// Next is the follow-up context when the format still needs an explicit
	// advancement choice, nil when the participant returns to idle
	Next *store.PendingContext
}

// BeginSelection decides whether a participant may start entering a score for
// an event. Selecting while another context is pending simply overwrites it.
// Preconditions: Receives the participant, the chosen event and the current instant
// Postconditions: Returns the new pending context, ErrEventStarted for a
// kicked-off event, or a conflict when a bet for the pair already exists
func BeginSelection(participant store.Participant, event store.Event, now time.Time) (store.PendingContext, error) {
	if event.IsStarted(now) {
		return store.PendingContext{}, ErrEventStarted
	}
	if _, ok := participant.FindBet(event.ID); ok {
		return store.PendingContext{}, fmt.Errorf("%w: a bet on %s - %s already exists",
			shared.ErrConflict, event.Team1, event.Team2)
	}
	return store.PendingContext{
		EventID: event.ID,
		Stage:   store.StageAwaitingScore,
	}, nil
}

// CommitScore decides the transition out of the awaiting-score state for a
// free-text "X:Y" submission.
//   - malformed input: validation error, the context is unchanged so the
//     participant may retry
//   - the event kicked off since selection: ErrEventStarted, the caller resets
//     the context and no bet is created
//   - simple format: bet committed, back to idle
//   - single playoff match: advancement inferred from the score unless it is a
//     draw, which branches to the advancement choice
//   - second leg: always branches to the advancement choice
func CommitScore(event store.Event, pending store.PendingContext, input string, now time.Time) (ScoreOutcome, error) {
	if pending.Stage != store.StageAwaitingScore || pending.EventID != event.ID {
		return ScoreOutcome{}, fmt.Errorf("%w: not awaiting a score for this event", shared.ErrInvalidState)
	}

	team1Scores, team2Scores, err := ParseScore(input)
	if err != nil {
		return ScoreOutcome{}, err
	}

	if event.IsStarted(now) {
		return ScoreOutcome{}, ErrEventStarted
	}

	bet, err := store.NewBet(event.ID, team1Scores, team2Scores)
	if err != nil {
		return ScoreOutcome{}, err
	}

	outcome := ScoreOutcome{Bet: bet}
	switch event.Format {
	case shared.FormatSimple:
		// No advancement information on a simple event
	case shared.FormatPlayoffSingle:
		if team1Scores == team2Scores {
			outcome.Next = &store.PendingContext{
				EventID: event.ID,
				Stage:   store.StageAwaitingAdvancement,
			}
		} else if team1Scores > team2Scores {
			outcome.Bet.Advancement = shared.AdvancementTeam1
		} else {
			outcome.Bet.Advancement = shared.AdvancementTeam2
		}
	case shared.FormatPlayoffSecondLeg:
		// The leg score never tells who goes through
		outcome.Next = &store.PendingContext{
			EventID: event.ID,
			Stage:   store.StageAwaitingAdvancement,
		}
	default:
		return ScoreOutcome{}, fmt.Errorf("%w: unknown event format %q", shared.ErrInvalidState, event.Format)
	}
	return outcome, nil
}

// ChooseAdvancement decides the transition out of the awaiting-advancement
// state. The existing bet for the pair is updated in place, never duplicated.
// Preconditions: Receives the event, the pending context, the stored bet and
// the resolved choice
// Postconditions: Returns the updated bet, or an invalid-state error when the
// context does not fit
func ChooseAdvancement(event store.Event, pending store.PendingContext, bet store.Bet, choice shared.Advancement) (store.Bet, error) {
	if pending.Stage != store.StageAwaitingAdvancement || pending.EventID != event.ID {
		return store.Bet{}, fmt.Errorf("%w: not awaiting an advancement choice for this event", shared.ErrInvalidState)
	}
	if !event.Format.IsPlayoff() {
		return store.Bet{}, fmt.Errorf("%w: a simple event has no advancing team", shared.ErrInvalidState)
	}
	if !choice.IsSet() {
		return store.Bet{}, fmt.Errorf("%w: an advancing team must be chosen", shared.ErrValidation)
	}
	bet.Advancement = choice
	return bet, nil
}
