/* test_mocks.go
 * Contains mock structures and interfaces for testing the API package and the
 * bot handlers on top of it.
 */

package api

import (
	"context"
	"fmt"
	"time"

	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockStore implements the store Interface for testing
type MockStore struct {
	// Storage for mock data
	Participants map[int64]store.Participant
	Events       map[primitive.ObjectID]store.Event

	// Error injection for testing error paths
	RegisterParticipantError error
	GetParticipantError      error
	GetAllParticipantsError  error
	AddToScoresError         error
	AddEventError            error
	GetEventError            error
	SetEventResultError      error
	UpsertBetError           error
	DeleteBetError           error

	DatabaseName string
}

// mockDatabase implements the minimal Database interface needed for tests
type mockDatabase struct {
	name string
}

func (m *mockDatabase) Name() string {
	return m.name
}

// mockClient implements the minimal Client interface needed for tests
type mockClient struct{}

func (m *mockClient) Disconnect(context.Context) error { return nil }

// NewMockStore creates a new MockStore with default values
func NewMockStore() *MockStore {
	return &MockStore{
		Participants: make(map[int64]store.Participant),
		Events:       make(map[primitive.ObjectID]store.Event),
		DatabaseName: "test_db",
	}
}

// Ensure MockStore implements the store interface
var _ store.Interface = (*MockStore)(nil)

// RegisterParticipant mock implementation
func (m *MockStore) RegisterParticipant(user shared.User) (bool, error) {
	if m.RegisterParticipantError != nil {
		return false, m.RegisterParticipantError
	}
	if _, ok := m.Participants[user.UserID]; ok {
		return false, nil
	}
	now := time.Now().UTC()
	m.Participants[user.UserID] = store.Participant{
		UserID:          user.UserID,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Bets:            []store.Bet{},
		CreatedAt:       now,
		LastInteraction: now,
	}
	return true, nil
}

// GetParticipant mock implementation
func (m *MockStore) GetParticipant(userID int64) (store.Participant, error) {
	if m.GetParticipantError != nil {
		return store.Participant{}, m.GetParticipantError
	}
	p, ok := m.Participants[userID]
	if !ok {
		return store.Participant{}, fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	return p, nil
}

// GetAllParticipants mock implementation
func (m *MockStore) GetAllParticipants() ([]store.Participant, error) {
	if m.GetAllParticipantsError != nil {
		return nil, m.GetAllParticipantsError
	}
	var out []store.Participant
	for _, p := range m.Participants {
		out = append(out, p)
	}
	return out, nil
}

// TouchParticipant mock implementation
func (m *MockStore) TouchParticipant(userID int64, at time.Time) error {
	p, ok := m.Participants[userID]
	if !ok {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	p.LastInteraction = at.UTC()
	m.Participants[userID] = p
	return nil
}

// AddToScores mock implementation with the same floor clamp as the real store
func (m *MockStore) AddToScores(userID int64, points int) error {
	if m.AddToScoresError != nil {
		return m.AddToScoresError
	}
	p, ok := m.Participants[userID]
	if !ok {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	p.Scores += points
	if p.Scores < 0 {
		p.Scores = 0
	}
	m.Participants[userID] = p
	return nil
}

// SetPendingContext mock implementation
func (m *MockStore) SetPendingContext(userID int64, pending store.PendingContext) error {
	p, ok := m.Participants[userID]
	if !ok {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	p.PendingContext = &pending
	m.Participants[userID] = p
	return nil
}

// ClearPendingContext mock implementation
func (m *MockStore) ClearPendingContext(userID int64) error {
	p, ok := m.Participants[userID]
	if !ok {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	p.PendingContext = nil
	m.Participants[userID] = p
	return nil
}

// AddEvent mock implementation with the duplicate check of the real store
func (m *MockStore) AddEvent(event store.Event) (store.Event, error) {
	if m.AddEventError != nil {
		return store.Event{}, m.AddEventError
	}
	for _, existing := range m.Events {
		if existing.Team1 == event.Team1 && existing.Team2 == event.Team2 && existing.Time.Equal(event.Time) {
			return store.Event{}, fmt.Errorf("%w: event already exists", shared.ErrConflict)
		}
	}
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	m.Events[event.ID] = event
	return event, nil
}

// GetEvent mock implementation
func (m *MockStore) GetEvent(eventID primitive.ObjectID) (store.Event, error) {
	if m.GetEventError != nil {
		return store.Event{}, m.GetEventError
	}
	e, ok := m.Events[eventID]
	if !ok {
		return store.Event{}, fmt.Errorf("%w: event %s", shared.ErrNotFound, eventID.Hex())
	}
	return e, nil
}

// GetAllEvents mock implementation
func (m *MockStore) GetAllEvents() ([]store.Event, error) {
	var out []store.Event
	for _, e := range m.Events {
		out = append(out, e)
	}
	return out, nil
}

// ListUpcomingEvents mock implementation
func (m *MockStore) ListUpcomingEvents(now time.Time) ([]store.Event, error) {
	var out []store.Event
	for _, e := range m.Events {
		if !e.IsStarted(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListSettledEvents mock implementation
func (m *MockStore) ListSettledEvents() ([]store.Event, error) {
	var out []store.Event
	for _, e := range m.Events {
		if e.IsSettled() {
			out = append(out, e)
		}
	}
	return out, nil
}

// SetEventResult mock implementation with the one-time write gate
func (m *MockStore) SetEventResult(eventID primitive.ObjectID, result store.EventResult) error {
	if m.SetEventResultError != nil {
		return m.SetEventResultError
	}
	e, ok := m.Events[eventID]
	if !ok {
		return fmt.Errorf("%w: event %s", shared.ErrNotFound, eventID.Hex())
	}
	if e.Result != nil {
		return fmt.Errorf("%w: event %s already has a result", shared.ErrConflict, eventID.Hex())
	}
	e.Result = &result
	m.Events[eventID] = e
	return nil
}

// FindBet mock implementation
func (m *MockStore) FindBet(userID int64, eventID primitive.ObjectID) (store.Bet, error) {
	p, err := m.GetParticipant(userID)
	if err != nil {
		return store.Bet{}, err
	}
	bet, ok := p.FindBet(eventID)
	if !ok {
		return store.Bet{}, fmt.Errorf("%w: no bet for event %s", shared.ErrNotFound, eventID.Hex())
	}
	return bet, nil
}

// UpsertBet mock implementation, replacing in place like the real store
func (m *MockStore) UpsertBet(userID int64, bet store.Bet) error {
	if m.UpsertBetError != nil {
		return m.UpsertBetError
	}
	p, ok := m.Participants[userID]
	if !ok {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	for i, existing := range p.Bets {
		if existing.EventID == bet.EventID {
			p.Bets[i] = bet
			m.Participants[userID] = p
			return nil
		}
	}
	p.Bets = append(p.Bets, bet)
	m.Participants[userID] = p
	return nil
}

// DeleteBet mock implementation
func (m *MockStore) DeleteBet(userID int64, eventID primitive.ObjectID) error {
	if m.DeleteBetError != nil {
		return m.DeleteBetError
	}
	p, ok := m.Participants[userID]
	if !ok {
		return fmt.Errorf("%w: participant %d", shared.ErrNotFound, userID)
	}
	for i, existing := range p.Bets {
		if existing.EventID == eventID {
			p.Bets = append(p.Bets[:i], p.Bets[i+1:]...)
			m.Participants[userID] = p
			return nil
		}
	}
	return fmt.Errorf("%w: no bet for event %s", shared.ErrNotFound, eventID.Hex())
}

// GetDatabase mock implementation
func (m *MockStore) GetDatabase() interface{ Name() string } {
	return &mockDatabase{name: m.DatabaseName}
}

// GetClient mock implementation
func (m *MockStore) GetClient() interface{ Disconnect(context.Context) error } {
	return &mockClient{}
}
