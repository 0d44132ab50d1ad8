/* store_interface.go
 * Contains the Store interface for dependency injection and testing
 */

package store

import (
	"context"
	"time"

	"totalizator-bot/api/shared"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interface defines the methods that Store implements.
// This allows for mocking in tests.
type Interface interface {
	// Participants
	RegisterParticipant(user shared.User) (bool, error)
	GetParticipant(userID int64) (Participant, error)
	GetAllParticipants() ([]Participant, error)
	TouchParticipant(userID int64, at time.Time) error
	AddToScores(userID int64, points int) error
	SetPendingContext(userID int64, pending PendingContext) error
	ClearPendingContext(userID int64) error

	// Events
	AddEvent(event Event) (Event, error)
	GetEvent(eventID primitive.ObjectID) (Event, error)
	GetAllEvents() ([]Event, error)
	ListUpcomingEvents(now time.Time) ([]Event, error)
	ListSettledEvents() ([]Event, error)
	SetEventResult(eventID primitive.ObjectID, result EventResult) error

	// Bets (embedded in the participant document)
	FindBet(userID int64, eventID primitive.ObjectID) (Bet, error)
	UpsertBet(userID int64, bet Bet) error
	DeleteBet(userID int64, eventID primitive.ObjectID) error

	// Getter methods for accessing fields
	GetDatabase() interface{ Name() string }
	GetClient() interface{ Disconnect(context.Context) error }
}

// Ensure Store implements Interface
var _ Interface = (*Store)(nil)

// GetDatabase returns the database instance
func (s *Store) GetDatabase() interface{ Name() string } {
	return s.Database
}

// GetClient returns the MongoDB client
func (s *Store) GetClient() interface{ Disconnect(context.Context) error } {
	return s.Client
}
