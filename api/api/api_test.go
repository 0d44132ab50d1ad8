/* api_test.go
 * Contains unit tests for the API facade on top of the mock store
 */

package api

import (
	"testing"
	"time"

	"totalizator-bot/api/logic"
	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestAPI() (*API, *MockStore) {
	mockStore := NewMockStore()
	return &API{Store: mockStore, DisplayZone: time.UTC}, mockStore
}

func testUser() shared.User {
	return shared.User{UserID: 100, Username: "ivan", FirstName: "Иван"}
}

// seedEvent puts an event straight into the mock store, bypassing input parsing
func seedEvent(t *testing.T, m *MockStore, team1, team2 string, kickoff time.Time, format shared.EventFormat) store.Event {
	t.Helper()
	event, err := store.NewEvent(team1, team2, kickoff, format)
	require.NoError(t, err)
	stored, err := m.AddEvent(event)
	require.NoError(t, err)
	return stored
}

// registerUser registers the test user and asserts it was new
func registerUser(t *testing.T, a *API, user shared.User) {
	t.Helper()
	isNew, err := a.RegisterUser(user)
	require.NoError(t, err)
	require.True(t, isNew)
}

func TestRegisterUser(t *testing.T) {
	a, _ := newTestAPI()
	user := testUser()

	isNew, err := a.RegisterUser(user)
	assert.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = a.RegisterUser(user)
	assert.NoError(t, err)
	assert.False(t, isNew)
}

func TestAddEvent(t *testing.T) {
	a, _ := newTestAPI()

	event, err := a.AddEvent("Германия", "Шотландия", "14.06.2026 21:00", "")
	assert.NoError(t, err)
	assert.Equal(t, shared.FormatSimple, event.Format)
	assert.Equal(t, time.Date(2026, 6, 14, 21, 0, 0, 0, time.UTC), event.Time)

	// Kickoff input is interpreted in the display zone, stored UTC
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	a.DisplayZone = moscow
	event, err = a.AddEvent("Испания", "Хорватия", "15.06.2026 19:00", "playoff")
	assert.NoError(t, err)
	assert.Equal(t, shared.FormatPlayoffSingle, event.Format)
	assert.Equal(t, time.Date(2026, 6, 15, 16, 0, 0, 0, time.UTC), event.Time)
}

func TestAddEvent_MalformedInput(t *testing.T) {
	a, _ := newTestAPI()

	_, err := a.AddEvent("A", "B", "tomorrow evening", "")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = a.AddEvent("A", "B", "14.06.2026 21:00", "best-of-five")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAddEvent_Duplicate(t *testing.T) {
	a, _ := newTestAPI()

	_, err := a.AddEvent("A", "B", "14.06.2026 21:00", "")
	require.NoError(t, err)
	_, err = a.AddEvent("A", "B", "14.06.2026 21:00", "")
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestBettingFlow_Simple(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "Германия", "Шотландия", time.Now().Add(24*time.Hour), shared.FormatSimple)

	selected, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, selected.ID)

	stage, pending, err := a.PendingStage(user)
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Equal(t, store.StageAwaitingScore, stage)

	msg, err := a.SubmitScore(user, "2:1")
	require.NoError(t, err)
	assert.Contains(t, msg, "Bet 2:1 on Германия - Шотландия saved")

	// The context is cleared and the bet is stored
	_, pending, err = a.PendingStage(user)
	require.NoError(t, err)
	assert.False(t, pending)
	bet, err := m.FindBet(user.UserID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bet.Team1Scores)
	assert.Equal(t, 1, bet.Team2Scores)
	assert.False(t, bet.Advancement.IsSet())
}

func TestBettingFlow_PlayoffDraw(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "Испания", "Хорватия", time.Now().Add(24*time.Hour), shared.FormatPlayoffSingle)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)

	// A drawn prediction on a playoff match asks who goes through
	msg, err := a.SubmitScore(user, "1:1")
	require.NoError(t, err)
	assert.Contains(t, msg, "Who goes through")

	stage, pending, err := a.PendingStage(user)
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Equal(t, store.StageAwaitingAdvancement, stage)

	msg, err = a.ChooseAdvancingTeam(user, "Испания")
	require.NoError(t, err)
	assert.Contains(t, msg, "Испания to go through")

	_, pending, err = a.PendingStage(user)
	require.NoError(t, err)
	assert.False(t, pending)
	bet, err := m.FindBet(user.UserID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.AdvancementTeam1, bet.Advancement)
}

func TestBettingFlow_PlayoffDecisiveScore(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "Испания", "Хорватия", time.Now().Add(24*time.Hour), shared.FormatPlayoffSingle)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)

	// A decisive score determines the advancing side without a follow-up question
	_, err = a.SubmitScore(user, "3:1")
	require.NoError(t, err)

	_, pending, err := a.PendingStage(user)
	require.NoError(t, err)
	assert.False(t, pending)
	bet, err := m.FindBet(user.UserID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.AdvancementTeam1, bet.Advancement)
}

func TestBettingFlow_SecondLegAlwaysAsks(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "Реал", "Сити", time.Now().Add(24*time.Hour), shared.FormatPlayoffSecondLeg)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)

	// Even a decisive leg score never settles who advances on aggregate
	msg, err := a.SubmitScore(user, "3:1")
	require.NoError(t, err)
	assert.Contains(t, msg, "Who goes through")

	_, err = a.ChooseAdvancingTeam(user, "Сити")
	require.NoError(t, err)
	bet, err := m.FindBet(user.UserID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.AdvancementTeam2, bet.Advancement)
}

func TestSubmitScore_NoContext(t *testing.T) {
	a, _ := newTestAPI()
	user := testUser()
	registerUser(t, a, user)

	_, err := a.SubmitScore(user, "2:1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestSubmitScore_MalformedKeepsContext(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(24*time.Hour), shared.FormatSimple)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)

	_, err = a.SubmitScore(user, "two one")
	assert.ErrorIs(t, err, shared.ErrValidation)

	// The participant stays in the awaiting-score state and can retry
	stage, pending, err := a.PendingStage(user)
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Equal(t, store.StageAwaitingScore, stage)

	_, err = a.SubmitScore(user, "2:1")
	assert.NoError(t, err)
}

func TestSubmitScore_KickoffRaceClearsContext(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(time.Minute), shared.FormatSimple)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)

	// The event kicks off between selection and score entry
	started := m.Events[event.ID]
	started.Time = time.Now().Add(-time.Minute)
	m.Events[event.ID] = started

	_, err = a.SubmitScore(user, "2:1")
	assert.ErrorIs(t, err, logic.ErrEventStarted)

	_, pending, err := a.PendingStage(user)
	require.NoError(t, err)
	assert.False(t, pending)
	_, err = m.FindBet(user.UserID, event.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSelectEvent_Started(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(-time.Hour), shared.FormatSimple)

	_, err := a.SelectEvent(user, event.ID)
	assert.ErrorIs(t, err, logic.ErrEventStarted)
}

func TestSelectEvent_ExistingBet(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(24*time.Hour), shared.FormatSimple)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)
	_, err = a.SubmitScore(user, "2:1")
	require.NoError(t, err)

	_, err = a.SelectEvent(user, event.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestClearContext(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(24*time.Hour), shared.FormatSimple)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)

	assert.NoError(t, a.ClearContext(user))
	_, pending, err := a.PendingStage(user)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestDeleteBet(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(24*time.Hour), shared.FormatSimple)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)
	_, err = a.SubmitScore(user, "2:1")
	require.NoError(t, err)

	assert.NoError(t, a.DeleteBet(user, event.ID))
	_, err = m.FindBet(user.UserID, event.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteBet_AfterKickoff(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(time.Minute), shared.FormatSimple)

	_, err := a.SelectEvent(user, event.ID)
	require.NoError(t, err)
	_, err = a.SubmitScore(user, "2:1")
	require.NoError(t, err)

	started := m.Events[event.ID]
	started.Time = time.Now().Add(-time.Minute)
	m.Events[event.ID] = started

	err = a.DeleteBet(user, event.ID)
	assert.ErrorIs(t, err, logic.ErrEventStarted)
	_, err = m.FindBet(user.UserID, event.ID)
	assert.NoError(t, err)
}

func TestMyBets(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)

	res, err := a.MyBets(user)
	assert.NoError(t, err)
	assert.Contains(t, res, "No bets yet")

	event := seedEvent(t, m, "Германия", "Шотландия", time.Now().Add(24*time.Hour), shared.FormatSimple)
	_, err = a.SelectEvent(user, event.ID)
	require.NoError(t, err)
	_, err = a.SubmitScore(user, "5:1")
	require.NoError(t, err)

	res, err = a.MyBets(user)
	assert.NoError(t, err)
	assert.Contains(t, res, "Германия - Шотландия: 5:1")
}

func TestRecordResult_SimpleEvent(t *testing.T) {
	a, m := newTestAPI()
	event := seedEvent(t, m, "Германия", "Шотландия", time.Now().Add(-3*time.Hour), shared.FormatSimple)

	exact := shared.User{UserID: 1, Username: "exact"}
	diff := shared.User{UserID: 2, Username: "diff"}
	absent := shared.User{UserID: 3, Username: "absent"}
	for _, u := range []shared.User{exact, diff, absent} {
		registerUser(t, a, u)
	}
	require.NoError(t, m.UpsertBet(exact.UserID, store.Bet{EventID: event.ID, Team1Scores: 2, Team2Scores: 1}))
	require.NoError(t, m.UpsertBet(diff.UserID, store.Bet{EventID: event.ID, Team1Scores: 1, Team2Scores: 0}))

	report, err := a.RecordResult(event.ID, "2:1", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"exact"}, report.ExactScore)
	assert.Equal(t, []string{"diff"}, report.GoalDifference)
	// The absent participant is graded on the default 0:0 bet and misses
	assert.Equal(t, []string{"absent"}, report.Missed)

	assert.Equal(t, 4, m.Participants[exact.UserID].Scores)
	assert.Equal(t, 3, m.Participants[diff.UserID].Scores)
	assert.Equal(t, 0, m.Participants[absent.UserID].Scores)

	stored, err := m.GetEvent(event.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSettled())
}

func TestRecordResult_PlayoffDrawWithBonus(t *testing.T) {
	a, m := newTestAPI()
	event := seedEvent(t, m, "Испания", "Хорватия", time.Now().Add(-4*time.Hour), shared.FormatPlayoffSingle)

	user := testUser()
	registerUser(t, a, user)
	require.NoError(t, m.UpsertBet(user.UserID, store.Bet{
		EventID:     event.ID,
		Team1Scores: 2,
		Team2Scores: 2,
		Advancement: shared.AdvancementTeam1,
	}))

	report, err := a.RecordResult(event.ID, "2:2", "Испания")
	require.NoError(t, err)

	// Exact score plus the advancement bonus
	assert.Equal(t, 5, m.Participants[user.UserID].Scores)
	assert.Contains(t, report.ExactScore, user.DisplayName())
	assert.Contains(t, report.BonusEarned, user.DisplayName())
}

func TestRecordResult_DrawNeedsAdvancingTeam(t *testing.T) {
	a, m := newTestAPI()
	event := seedEvent(t, m, "Испания", "Хорватия", time.Now().Add(-4*time.Hour), shared.FormatPlayoffSingle)

	_, err := a.RecordResult(event.ID, "2:2", "")
	assert.ErrorIs(t, err, shared.ErrValidation)

	// Nothing was settled
	stored, err := m.GetEvent(event.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSettled())
}

func TestRecordResult_BeforeKickoff(t *testing.T) {
	a, m := newTestAPI()
	event := seedEvent(t, m, "A", "B", time.Now().Add(time.Hour), shared.FormatSimple)

	_, err := a.RecordResult(event.ID, "2:1", "")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRecordResult_SecondCallConflicts(t *testing.T) {
	a, m := newTestAPI()
	event := seedEvent(t, m, "A", "B", time.Now().Add(-3*time.Hour), shared.FormatSimple)
	user := testUser()
	registerUser(t, a, user)
	require.NoError(t, m.UpsertBet(user.UserID, store.Bet{EventID: event.ID, Team1Scores: 2, Team2Scores: 1}))

	_, err := a.RecordResult(event.ID, "2:1", "")
	require.NoError(t, err)
	require.Equal(t, 4, m.Participants[user.UserID].Scores)

	// The settlement gate: a second result never double-settles
	_, err = a.RecordResult(event.ID, "3:0", "")
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, 4, m.Participants[user.UserID].Scores)
}

func TestRecordResult_UnknownEvent(t *testing.T) {
	a, _ := newTestAPI()

	_, err := a.RecordResult(primitive.NewObjectID(), "2:1", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnsettledEvents(t *testing.T) {
	a, m := newTestAPI()
	settled := seedEvent(t, m, "A", "B", time.Now().Add(-5*time.Hour), shared.FormatSimple)
	open := seedEvent(t, m, "C", "D", time.Now().Add(-3*time.Hour), shared.FormatSimple)
	seedEvent(t, m, "E", "F", time.Now().Add(time.Hour), shared.FormatSimple)

	_, err := a.RecordResult(settled.ID, "1:0", "")
	require.NoError(t, err)

	events, err := a.UnsettledEvents()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, open.ID, events[0].ID)
}

func TestStaleEvents(t *testing.T) {
	a, m := newTestAPI()
	stale := seedEvent(t, m, "A", "B", time.Now().Add(-3*time.Hour), shared.FormatSimple)
	seedEvent(t, m, "C", "D", time.Now().Add(-time.Hour), shared.FormatSimple)
	seedEvent(t, m, "E", "F", time.Now().Add(time.Hour), shared.FormatSimple)

	events, err := a.StaleEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stale.ID, events[0].ID)
}

func TestLeaderboard(t *testing.T) {
	a, m := newTestAPI()

	res, err := a.Leaderboard()
	assert.NoError(t, err)
	assert.Contains(t, res, "No participants yet")

	for _, u := range []shared.User{
		{UserID: 1, Username: "alice"},
		{UserID: 2, Username: "bob"},
		{UserID: 3, Username: "carol"},
	} {
		registerUser(t, a, u)
	}
	require.NoError(t, m.AddToScores(1, 10))
	require.NoError(t, m.AddToScores(2, 10))
	require.NoError(t, m.AddToScores(3, 7))

	res, err = a.Leaderboard()
	assert.NoError(t, err)
	assert.Contains(t, res, "1. alice: 10 points")
	assert.Contains(t, res, "1. bob: 10 points")
	assert.Contains(t, res, "2. carol: 7 points")
}

func TestUserStats(t *testing.T) {
	a, m := newTestAPI()
	user := testUser()
	registerUser(t, a, user)
	event := seedEvent(t, m, "A", "B", time.Now().Add(-3*time.Hour), shared.FormatSimple)
	require.NoError(t, m.UpsertBet(user.UserID, store.Bet{EventID: event.ID, Team1Scores: 2, Team2Scores: 1}))

	_, err := a.RecordResult(event.ID, "2:1", "")
	require.NoError(t, err)

	res, err := a.UserStats(user)
	assert.NoError(t, err)
	assert.Contains(t, res, "Иван: 4 points")
	assert.Contains(t, res, "Exact scores: 1")
}

func TestFormatSettlementReport(t *testing.T) {
	a, m := newTestAPI()
	event := seedEvent(t, m, "Испания", "Хорватия", time.Now().Add(-4*time.Hour), shared.FormatPlayoffSingle)
	user := testUser()
	registerUser(t, a, user)
	require.NoError(t, m.UpsertBet(user.UserID, store.Bet{
		EventID:     event.ID,
		Team1Scores: 2,
		Team2Scores: 2,
		Advancement: shared.AdvancementTeam1,
	}))

	report, err := a.RecordResult(event.ID, "2:2", "Испания")
	require.NoError(t, err)

	msg := a.FormatSettlementReport(report)
	assert.Contains(t, msg, "Испания - Хорватия finished 2:2")
	assert.Contains(t, msg, "Испания through")
	assert.Contains(t, msg, "Exact score (+4): Иван")
	assert.Contains(t, msg, "Advancement bonus (+1): Иван")
}
