/* events.go
 * Contains the methods for interacting with the events collection
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddEvent inserts a new event. Two events with the same team pair and
// kickoff instant are duplicates and rejected.
// Postconditions: Returns the stored event with its generated id, or
// shared.ErrConflict for a duplicate
func (s *Store) AddEvent(event Event) (Event, error) {
	filter := bson.M{
		"team_1": event.Team1,
		"team_2": event.Team2,
		"time":   event.Time,
	}
	err := s.Collections.Events.FindOne(context.TODO(), filter).Err()
	if err == nil {
		return Event{}, fmt.Errorf("%w: event %s - %s at %s already exists",
			shared.ErrConflict, event.Team1, event.Team2, event.Time.Format(time.RFC3339))
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Event{}, fmt.Errorf("lookup for existing event failed: %w", err)
	}

	res, err := s.Collections.Events.InsertOne(context.TODO(), event)
	if err != nil {
		return Event{}, fmt.Errorf("failed to insert new event: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid
	}
	return event, nil
}

// GetEvent does a DB lookup for one event
func (s *Store) GetEvent(eventID primitive.ObjectID) (Event, error) {
	var result Event
	err := s.Collections.Events.FindOne(context.TODO(), bson.M{"_id": eventID}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Event{}, fmt.Errorf("%w: event %s", shared.ErrNotFound, eventID.Hex())
		}
		return Event{}, fmt.Errorf("error fetching event from db: %w", err)
	}
	return result, nil
}

// GetAllEvents returns every event ordered by kickoff time
func (s *Store) GetAllEvents() ([]Event, error) {
	return s.findEvents(bson.D{})
}

// ListUpcomingEvents returns events that have not kicked off yet, ordered by
// kickoff time
func (s *Store) ListUpcomingEvents(now time.Time) ([]Event, error) {
	return s.findEvents(bson.D{{Key: "time", Value: bson.M{"$gt": now.UTC()}}})
}

// ListSettledEvents returns events that already have an official result
func (s *Store) ListSettledEvents() ([]Event, error) {
	return s.findEvents(bson.D{{Key: "result", Value: bson.M{"$exists": true}}})
}

func (s *Store) findEvents(filter bson.D) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}})
	cursor, err := s.Collections.Events.Find(context.TODO(), filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching events from db: %w", err)
	}

	var results []Event
	if err = cursor.All(context.TODO(), &results); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of events: %w", err)
	}
	return results, nil
}

// SetEventResult attaches the official result to an event. The update is
// filtered on the result being absent, so a second write never overwrites the
// first: re-setting a result is a conflict, and that one-time write is the
// settlement gate.
func (s *Store) SetEventResult(eventID primitive.ObjectID, result EventResult) error {
	res, err := s.Collections.Events.UpdateOne(
		context.TODO(),
		bson.M{"_id": eventID, "result": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"result": result}},
	)
	if err != nil {
		return fmt.Errorf("failed to set event result: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the event does not exist or it already has a result
		if _, getErr := s.GetEvent(eventID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: event %s already has a result", shared.ErrConflict, eventID.Hex())
	}
	return nil
}
