/* participants.go
 * Contains the methods for interacting with the users collection, including
 * the embedded bets array and the single-slot pending context.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"totalizator-bot/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterParticipant inserts a participant document on first interaction.
// Preconditions: Receives the chat user identity
// Postconditions: Returns true when a new document was inserted, false when the
// participant already existed, or an error if the lookup or insert fails
func (s *Store) RegisterParticipant(user shared.User) (bool, error) {
	err := s.Collections.Users.FindOne(context.TODO(), bson.M{"_id": user.UserID}).Err()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, fmt.Errorf("lookup for existing participant failed: %w", err)
	}

	now := time.Now().UTC()
	participant := Participant{
		UserID:          user.UserID,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Scores:          0,
		Bets:            []Bet{},
		CreatedAt:       now,
		LastInteraction: now,
	}
	if _, err := s.Collections.Users.InsertOne(context.TODO(), participant); err != nil {
		return false, fmt.Errorf("failed to insert new participant: %w", err)
	}
	return true, nil
}

// GetParticipant does a DB lookup for one participant
// Postconditions: Returns the Participant, shared.ErrNotFound for an unknown
// id, or another error if the lookup fails
func (s *Store) GetParticipant(userID int64) (Participant, error) {
	var result Participant
	err := s.Collections.Users.FindOne(context.TODO(), bson.M{"_id": userID}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Participant{}, fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
		}
		return Participant{}, fmt.Errorf("error fetching participant from db: %w", err)
	}
	return result, nil
}

// GetAllParticipants returns every registered participant. Used as the
// settlement snapshot and for leaderboard generation.
func (s *Store) GetAllParticipants() ([]Participant, error) {
	cursor, err := s.Collections.Users.Find(context.TODO(), bson.D{})
	if err != nil {
		return nil, fmt.Errorf("error fetching participants from db: %w", err)
	}

	var results []Participant
	if err = cursor.All(context.TODO(), &results); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of participants: %w", err)
	}
	return results, nil
}

// TouchParticipant updates the last interaction timestamp
func (s *Store) TouchParticipant(userID int64, at time.Time) error {
	res, err := s.Collections.Users.UpdateOne(
		context.TODO(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"last_interaction": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update last interaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	return nil
}

// AddToScores applies a point delta to the participant's cumulative score.
// The running total is clamped at zero, never the delta itself.
func (s *Store) AddToScores(userID int64, points int) error {
	participant, err := s.GetParticipant(userID)
	if err != nil {
		return err
	}
	newScores := participant.Scores + points
	if newScores < 0 {
		newScores = 0
	}
	_, err = s.Collections.Users.UpdateOne(
		context.TODO(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"scores": newScores}},
	)
	if err != nil {
		return fmt.Errorf("failed to update scores: %w", err)
	}
	return nil
}

// SetPendingContext stores the participant's pending event reference.
// A previous context is overwritten: last write wins, there is no queueing
// of multiple in-flight predictions per participant.
func (s *Store) SetPendingContext(userID int64, pending PendingContext) error {
	res, err := s.Collections.Users.UpdateOne(
		context.TODO(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"pending_event": pending}},
	)
	if err != nil {
		return fmt.Errorf("failed to set pending context: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	return nil
}

// ClearPendingContext removes the pending event reference, if any
func (s *Store) ClearPendingContext(userID int64) error {
	res, err := s.Collections.Users.UpdateOne(
		context.TODO(),
		bson.M{"_id": userID},
		bson.M{"$unset": bson.M{"pending_event": ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear pending context: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	return nil
}

// FindBet looks up the participant's bet for one event
// Postconditions: Returns the Bet, or shared.ErrNotFound when the participant
// has no bet on that event
func (s *Store) FindBet(userID int64, eventID primitive.ObjectID) (Bet, error) {
	participant, err := s.GetParticipant(userID)
	if err != nil {
		return Bet{}, err
	}
	bet, ok := participant.FindBet(eventID)
	if !ok {
		return Bet{}, fmt.Errorf("%w: no bet for event %s", shared.ErrNotFound, eventID.Hex())
	}
	return bet, nil
}

// UpsertBet replaces the participant's bet for the event in place, or appends
// it when none exists yet. A participant never holds two bets on one event.
func (s *Store) UpsertBet(userID int64, bet Bet) error {
	res, err := s.Collections.Users.UpdateOne(
		context.TODO(),
		bson.M{"_id": userID, "bets.event_id": bet.EventID},
		bson.M{"$set": bson.M{"bets.$": bet}},
	)
	if err != nil {
		return fmt.Errorf("failed to update existing bet: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	res, err = s.Collections.Users.UpdateOne(
		context.TODO(),
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"bets": bet}},
	)
	if err != nil {
		return fmt.Errorf("failed to insert new bet: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	return nil
}

// DeleteBet removes the participant's bet for one event
func (s *Store) DeleteBet(userID int64, eventID primitive.ObjectID) error {
	res, err := s.Collections.Users.UpdateOne(
		context.TODO(),
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"bets": bson.M{"event_id": eventID}}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete bet: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	if res.ModifiedCount == 0 {
		return fmt.Errorf("%w: no bet for event %s", shared.ErrNotFound, eventID.Hex())
	}
	return nil
}
