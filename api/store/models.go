/* models.go
 * This file contains the structs and helper functions that relate to DB objects
 */

package store

import (
	"fmt"
	"strings"
	"time"

	"totalizator-bot/api/shared"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Grace windows after kickoff before an unsettled event is considered stale.
// Playoff matches get longer because of extra time and penalties.
const (
	simpleGraceWindow  = 2 * time.Hour
	playoffGraceWindow = 3 * time.Hour
)

// Participant is a member of the pool. Stored in the users collection with
// the chat user id as _id. Scores is only ever mutated through AddToScores
// and never goes below zero.
type Participant struct {
	UserID          int64           `bson:"_id"`
	Username        string          `bson:"username,omitempty"`
	FirstName       string          `bson:"first_name,omitempty"`
	LastName        string          `bson:"last_name,omitempty"`
	Scores          int             `bson:"scores"`
	Bets            []Bet           `bson:"bets"`
	PendingContext  *PendingContext `bson:"pending_event,omitempty"`
	CreatedAt       time.Time       `bson:"created_at"`
	LastInteraction time.Time       `bson:"last_interaction"`
}

// DisplayName returns first/last name when present, otherwise the username
func (p Participant) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	return p.Username
}

// FindBet scans the embedded bets for the given event
// Postconditions: Returns the bet and true, or the zero Bet and false
func (p Participant) FindBet(eventID primitive.ObjectID) (Bet, bool) {
	for _, b := range p.Bets {
		if b.EventID == eventID {
			return b, true
		}
	}
	return Bet{}, false
}

// ContextStage identifies what kind of input the pending context is waiting for
type ContextStage string

const (
	StageAwaitingScore       ContextStage = "awaiting_score"
	StageAwaitingAdvancement ContextStage = "awaiting_advancement"
)

// PendingContext is the single-slot "which event is this participant entering
// a score for" reference. At most one per participant; selecting a new event
// overwrites it.
type PendingContext struct {
	EventID primitive.ObjectID `bson:"event_id"`
	Stage   ContextStage       `bson:"stage"`
}

// Event is a scheduled match with a format and an optional result
type Event struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Team1  string             `bson:"team_1"`
	Team2  string             `bson:"team_2"`
	Time   time.Time          `bson:"time"` // always UTC
	Format shared.EventFormat `bson:"format"`
	Result *EventResult       `bson:"result,omitempty"`
}

// EventResult is the official outcome of an event. Written exactly once.
type EventResult struct {
	Team1Scores int                `bson:"team_1"`
	Team2Scores int                `bson:"team_2"`
	Advancement shared.Advancement `bson:"advancement,omitempty"`
}

// Bet is one participant's prediction for one event, embedded in the
// participant document. Unique per (participant, event); the advancement
// field may legitimately stay unset until the draw disambiguation step.
type Bet struct {
	EventID     primitive.ObjectID `bson:"event_id"`
	Team1Scores int                `bson:"team_1"`
	Team2Scores int                `bson:"team_2"`
	Advancement shared.Advancement `bson:"advancement,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// NewEvent validates and constructs an Event. The kickoff time is converted
// to UTC for storage regardless of the zone it was parsed in.
// Preconditions: Receives both team names, the kickoff instant and a format
// Postconditions: Returns the Event, or a validation error
func NewEvent(team1, team2 string, kickoff time.Time, format shared.EventFormat) (Event, error) {
	team1 = strings.TrimSpace(team1)
	team2 = strings.TrimSpace(team2)
	if team1 == "" || team2 == "" {
		return Event{}, fmt.Errorf("%w: both team names are required", shared.ErrValidation)
	}
	if !format.Valid() {
		return Event{}, fmt.Errorf("%w: unknown event format %q", shared.ErrValidation, format)
	}
	return Event{
		Team1:  team1,
		Team2:  team2,
		Time:   kickoff.UTC(),
		Format: format,
	}, nil
}

// NewBet validates and constructs a Bet for the given event
// Preconditions: Receives the event id and two non-negative predicted scores
// Postconditions: Returns the Bet with CreatedAt set, or a validation error
func NewBet(eventID primitive.ObjectID, team1Scores, team2Scores int) (Bet, error) {
	if team1Scores < 0 || team2Scores < 0 {
		return Bet{}, fmt.Errorf("%w: scores must be non-negative", shared.ErrValidation)
	}
	return Bet{
		EventID:     eventID,
		Team1Scores: team1Scores,
		Team2Scores: team2Scores,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewEventResult validates and constructs an EventResult, enforcing the
// per-format advancement rules: never set for simple events, mandatory for a
// second leg, and mandatory for a single playoff match only when the score is
// level (otherwise it is inferred from the score).
func NewEventResult(format shared.EventFormat, team1Scores, team2Scores int, advancement shared.Advancement) (EventResult, error) {
	if team1Scores < 0 || team2Scores < 0 {
		return EventResult{}, fmt.Errorf("%w: scores must be non-negative", shared.ErrValidation)
	}
	switch format {
	case shared.FormatSimple:
		if advancement.IsSet() {
			return EventResult{}, fmt.Errorf("%w: a simple event has no advancing team", shared.ErrValidation)
		}
	case shared.FormatPlayoffSingle:
		if team1Scores == team2Scores {
			if !advancement.IsSet() {
				return EventResult{}, fmt.Errorf("%w: a drawn playoff match needs the advancing team", shared.ErrValidation)
			}
		} else if !advancement.IsSet() {
			if team1Scores > team2Scores {
				advancement = shared.AdvancementTeam1
			} else {
				advancement = shared.AdvancementTeam2
			}
		}
	case shared.FormatPlayoffSecondLeg:
		if !advancement.IsSet() {
			return EventResult{}, fmt.Errorf("%w: a second leg needs the advancing team", shared.ErrValidation)
		}
	default:
		return EventResult{}, fmt.Errorf("%w: unknown event format %q", shared.ErrValidation, format)
	}
	return EventResult{
		Team1Scores: team1Scores,
		Team2Scores: team2Scores,
		Advancement: advancement,
	}, nil
}

// IsStarted reports whether the event has kicked off
func (e Event) IsStarted(now time.Time) bool {
	return !e.Time.After(now)
}

// IsSettled reports whether an official result has been recorded
func (e Event) IsSettled() bool {
	return e.Result != nil
}

// RequiresSettlement reports whether the event has been over for longer than
// its grace window without a result. Used by the external scheduler to flag
// stale matches; this is the only time based business rule in the core.
func (e Event) RequiresSettlement(now time.Time) bool {
	if !e.IsStarted(now) || e.IsSettled() {
		return false
	}
	grace := simpleGraceWindow
	if e.Format.IsPlayoff() {
		grace = playoffGraceWindow
	}
	return now.Sub(e.Time) > grace
}
