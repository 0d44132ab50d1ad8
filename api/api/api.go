/* api.go
 * This file contains the public methods for interacting with this package. For
 * consistent results, functions should only be called from this file, not the
 * sub packages for store and logic. The bot and web layers only talk to the
 * API struct.
 */

package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"totalizator-bot/api/logic"
	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KickoffLayout is the maintainer-facing kickoff time format, interpreted in
// the configured display zone and stored UTC
const KickoffLayout = "02.01.2006 15:04"

// API provides methods for interacting with the totalizator data layer
type API struct {
	Store store.Interface
	// Zone used to parse maintainer input and render kickoff times
	DisplayZone *time.Location
}

// NewAPI creates a new API instance with the provided configuration
func NewAPI(dbName string, mongoURI string, displayZone string) (*API, error) {
	if dbName == "" {
		return nil, fmt.Errorf("dbName is required")
	}
	loc, err := time.LoadLocation(displayZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load display zone %q: %w", displayZone, err)
	}

	s, err := store.NewStore(dbName, mongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	return &API{
		Store:       s,
		DisplayZone: loc,
	}, nil
}

// RegisterUser creates the participant on first interaction and refreshes the
// last interaction timestamp otherwise.
// Postconditions: Returns true when the user is new, so the caller can notify
// the maintainer
func (a *API) RegisterUser(user shared.User) (bool, error) {
	insertedNew, err := a.Store.RegisterParticipant(user)
	if err != nil {
		return false, err
	}
	if !insertedNew {
		if err := a.Store.TouchParticipant(user.UserID, time.Now()); err != nil {
			return false, err
		}
	}
	return insertedNew, nil
}

// AddEvent parses maintainer input and stores a new event.
// It receives the two team names, the kickoff in KickoffLayout interpreted in
// the display zone, and the format name ("" defaults to simple).
// It returns the stored event, or an error on malformed input or a duplicate.
func (a *API) AddEvent(team1, team2, kickoff, format string) (store.Event, error) {
	eventFormat := shared.FormatSimple
	if strings.TrimSpace(format) != "" {
		parsed, err := shared.ParseEventFormat(format)
		if err != nil {
			return store.Event{}, err
		}
		eventFormat = parsed
	}

	kickoffTime, err := time.ParseInLocation(KickoffLayout, strings.TrimSpace(kickoff), a.DisplayZone)
	if err != nil {
		return store.Event{}, fmt.Errorf("%w: kickoff must look like %s", shared.ErrValidation, KickoffLayout)
	}

	event, err := store.NewEvent(team1, team2, kickoffTime, eventFormat)
	if err != nil {
		return store.Event{}, err
	}
	return a.Store.AddEvent(event)
}

// ListEvents returns a display string of all events with kickoff in the
// display zone and the result appended where present
func (a *API) ListEvents() (string, error) {
	events, err := a.Store.GetAllEvents()
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "No events found\n", nil
	}

	var res strings.Builder
	for _, event := range events {
		res.WriteString(a.formatEvent(event))
		res.WriteString("\n")
	}
	return res.String(), nil
}

// UpcomingEvents returns events that have not kicked off yet, ordered by
// kickoff time. The order is what the bot's selection numbers refer to.
func (a *API) UpcomingEvents() ([]store.Event, error) {
	events, err := a.Store.ListUpcomingEvents(time.Now())
	if err != nil {
		return nil, err
	}
	sortEventsByTime(events)
	return events, nil
}

// UnsettledEvents returns events without a result, ordered by kickoff time.
// The order is what the maintainer's $result numbers refer to.
func (a *API) UnsettledEvents() ([]store.Event, error) {
	events, err := a.Store.GetAllEvents()
	if err != nil {
		return nil, err
	}
	var unsettled []store.Event
	for _, event := range events {
		if !event.IsSettled() {
			unsettled = append(unsettled, event)
		}
	}
	sortEventsByTime(unsettled)
	return unsettled, nil
}

// PendingStage reports which kind of input the participant's pending context
// is waiting for. Used by the bot to route free-text messages.
func (a *API) PendingStage(user shared.User) (store.ContextStage, bool, error) {
	participant, err := a.Store.GetParticipant(user.UserID)
	if err != nil {
		return "", false, err
	}
	if participant.PendingContext == nil {
		return "", false, nil
	}
	return participant.PendingContext.Stage, true, nil
}

// StaleEvents returns started, unsettled events past their grace window.
// Exposed for the external reminder scheduler.
func (a *API) StaleEvents() ([]store.Event, error) {
	events, err := a.Store.GetAllEvents()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var stale []store.Event
	for _, event := range events {
		if event.RequiresSettlement(now) {
			stale = append(stale, event)
		}
	}
	return stale, nil
}

// SelectEvent puts the participant into the awaiting-score state for one
// upcoming event. An existing pending context is overwritten.
// Postconditions: Returns the selected event, or an error when the event has
// started or a bet for the pair already exists
func (a *API) SelectEvent(user shared.User, eventID primitive.ObjectID) (store.Event, error) {
	participant, err := a.Store.GetParticipant(user.UserID)
	if err != nil {
		return store.Event{}, err
	}
	event, err := a.Store.GetEvent(eventID)
	if err != nil {
		return store.Event{}, err
	}

	pending, err := logic.BeginSelection(participant, event, time.Now())
	if err != nil {
		return store.Event{}, err
	}
	if err := a.Store.SetPendingContext(user.UserID, pending); err != nil {
		return store.Event{}, err
	}
	return event, nil
}

// SubmitScore handles a free-text "X:Y" message against the pending context.
// Malformed input keeps the context for a retry; a kickoff race clears it and
// reports the participant is too late.
// Postconditions: Returns the user-facing confirmation text, or an error
func (a *API) SubmitScore(user shared.User, input string) (string, error) {
	participant, err := a.Store.GetParticipant(user.UserID)
	if err != nil {
		return "", err
	}
	if participant.PendingContext == nil {
		return "", fmt.Errorf("%w: no event selected, use $bet first", shared.ErrInvalidState)
	}
	pending := *participant.PendingContext

	event, err := a.Store.GetEvent(pending.EventID)
	if err != nil {
		return "", err
	}

	outcome, err := logic.CommitScore(event, pending, input, time.Now())
	if err != nil {
		if errors.Is(err, logic.ErrEventStarted) {
			// Too late: reset to idle, no bet is created
			if clearErr := a.Store.ClearPendingContext(user.UserID); clearErr != nil {
				return "", clearErr
			}
		}
		return "", err
	}

	if err := a.Store.UpsertBet(user.UserID, outcome.Bet); err != nil {
		return "", err
	}

	if outcome.Next != nil {
		if err := a.Store.SetPendingContext(user.UserID, *outcome.Next); err != nil {
			return "", err
		}
		return fmt.Sprintf("Score %d:%d saved. Who goes through, %s or %s?",
			outcome.Bet.Team1Scores, outcome.Bet.Team2Scores, event.Team1, event.Team2), nil
	}

	if err := a.Store.ClearPendingContext(user.UserID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Bet %d:%d on %s - %s saved",
		outcome.Bet.Team1Scores, outcome.Bet.Team2Scores, event.Team1, event.Team2), nil
}

// ChooseAdvancingTeam resolves a typed team name for the pending advancement
// choice and completes the bet.
// Postconditions: Returns the confirmation text, or an error
func (a *API) ChooseAdvancingTeam(user shared.User, input string) (string, error) {
	participant, err := a.Store.GetParticipant(user.UserID)
	if err != nil {
		return "", err
	}
	if participant.PendingContext == nil {
		return "", fmt.Errorf("%w: no advancement choice is pending", shared.ErrInvalidState)
	}
	pending := *participant.PendingContext

	event, err := a.Store.GetEvent(pending.EventID)
	if err != nil {
		return "", err
	}
	bet, err := a.Store.FindBet(user.UserID, pending.EventID)
	if err != nil {
		return "", err
	}

	choice, err := logic.MatchTeam(input, event)
	if err != nil {
		return "", err
	}
	updated, err := logic.ChooseAdvancement(event, pending, bet, choice)
	if err != nil {
		return "", err
	}

	if err := a.Store.UpsertBet(user.UserID, updated); err != nil {
		return "", err
	}
	if err := a.Store.ClearPendingContext(user.UserID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Bet %d:%d on %s - %s saved, %s to go through",
		updated.Team1Scores, updated.Team2Scores, event.Team1, event.Team2,
		logic.TeamName(event, choice)), nil
}

// ClearContext forces the participant back to idle with no side effect on any bet
func (a *API) ClearContext(user shared.User) error {
	if _, err := a.Store.GetParticipant(user.UserID); err != nil {
		return err
	}
	return a.Store.ClearPendingContext(user.UserID)
}

// DeleteBet removes the participant's bet on one event, allowed only while
// the event has not started
func (a *API) DeleteBet(user shared.User, eventID primitive.ObjectID) error {
	event, err := a.Store.GetEvent(eventID)
	if err != nil {
		return err
	}
	if event.IsStarted(time.Now()) {
		return logic.ErrEventStarted
	}
	return a.Store.DeleteBet(user.UserID, eventID)
}

// MyBets returns a display string of the participant's bets in creation order
func (a *API) MyBets(user shared.User) (string, error) {
	participant, err := a.Store.GetParticipant(user.UserID)
	if err != nil {
		return "", err
	}
	if len(participant.Bets) == 0 {
		return "No bets yet. Use $bet to place one\n", nil
	}

	var res strings.Builder
	for _, bet := range participant.Bets {
		event, err := a.Store.GetEvent(bet.EventID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return "", err
		}
		res.WriteString(fmt.Sprintf("%s - %s: %d:%d", event.Team1, event.Team2, bet.Team1Scores, bet.Team2Scores))
		if bet.Advancement.IsSet() {
			res.WriteString(fmt.Sprintf(", %s to go through", logic.TeamName(event, bet.Advancement)))
		}
		res.WriteString("\n")
	}
	return res.String(), nil
}

// RecordResult writes the official result for an event and settles it across
// all participants. The one-time result write is the settlement gate: a second
// call fails with a conflict before any score changes. Deltas are computed
// from one participant snapshot and applied afterwards; a mid-application
// failure is surfaced for the maintainer to reconcile.
// It receives the event id, the "X:Y" final score and the advancing team text
// ("" when the format does not need one).
// It returns the settlement report for the announcement message.
func (a *API) RecordResult(eventID primitive.ObjectID, score string, advancingTeam string) (logic.SettlementReport, error) {
	event, err := a.Store.GetEvent(eventID)
	if err != nil {
		return logic.SettlementReport{}, err
	}
	if !event.IsStarted(time.Now()) {
		return logic.SettlementReport{}, fmt.Errorf("%w: event has not started yet", shared.ErrInvalidState)
	}

	team1Scores, team2Scores, err := logic.ParseScore(score)
	if err != nil {
		return logic.SettlementReport{}, err
	}

	advancement := shared.AdvancementUnset
	if strings.TrimSpace(advancingTeam) != "" {
		advancement, err = logic.MatchTeam(advancingTeam, event)
		if err != nil {
			return logic.SettlementReport{}, err
		}
	}

	result, err := store.NewEventResult(event.Format, team1Scores, team2Scores, advancement)
	if err != nil {
		return logic.SettlementReport{}, err
	}
	if err := a.Store.SetEventResult(eventID, result); err != nil {
		return logic.SettlementReport{}, err
	}
	event.Result = &result

	participants, err := a.Store.GetAllParticipants()
	if err != nil {
		return logic.SettlementReport{}, err
	}
	report, err := logic.BuildSettlement(event, participants)
	if err != nil {
		return logic.SettlementReport{}, err
	}

	for _, delta := range report.Deltas {
		if delta.Points() == 0 {
			continue
		}
		if err := a.Store.AddToScores(delta.UserID, delta.Points()); err != nil {
			return logic.SettlementReport{}, fmt.Errorf("settlement interrupted applying points for %d: %w", delta.UserID, err)
		}
	}
	return report, nil
}

// Leaderboard generates the ranked, tie grouped leaderboard display string
func (a *API) Leaderboard() (string, error) {
	participants, err := a.Store.GetAllParticipants()
	if err != nil {
		return "", err
	}
	tiers := logic.Leaderboard(participants)
	if len(tiers) == 0 {
		return "No participants yet\n", nil
	}

	var res strings.Builder
	res.WriteString("Leaderboard:\n")
	for _, tier := range tiers {
		for _, p := range tier.Participants {
			res.WriteString(fmt.Sprintf("%d. %s: %d points\n", tier.Rank, p.DisplayName(), p.Scores))
		}
	}
	return res.String(), nil
}

// UserStats generates the detailed statistics display string for one participant
func (a *API) UserStats(user shared.User) (string, error) {
	participant, err := a.Store.GetParticipant(user.UserID)
	if err != nil {
		return "", err
	}
	settled, err := a.Store.ListSettledEvents()
	if err != nil {
		return "", err
	}

	stats := logic.DetailedStatistics(participant, settled)
	var res strings.Builder
	res.WriteString(fmt.Sprintf("%s: %d points\n", participant.DisplayName(), participant.Scores))
	res.WriteString(fmt.Sprintf("Exact scores: %d\n", stats.ExactScore))
	res.WriteString(fmt.Sprintf("Goal differences: %d\n", stats.GoalDifference))
	res.WriteString(fmt.Sprintf("Winners: %d\n", stats.Winner))
	res.WriteString(fmt.Sprintf("One goal away from exact: %d\n", stats.NearMiss))
	res.WriteString(fmt.Sprintf("Missed: %d\n", stats.Missed))
	res.WriteString(fmt.Sprintf("Events without a bet: %d\n", stats.NoBet))
	res.WriteString(fmt.Sprintf("Advancement bonus points: %d\n", stats.BonusPoints))
	return res.String(), nil
}

// FormatSettlementReport renders the announcement message for a settled event
func (a *API) FormatSettlementReport(report logic.SettlementReport) string {
	event := report.Event
	var res strings.Builder
	res.WriteString(fmt.Sprintf("%s - %s finished %d:%d",
		event.Team1, event.Team2, event.Result.Team1Scores, event.Result.Team2Scores))
	if event.Result.Advancement.IsSet() {
		res.WriteString(fmt.Sprintf(", %s through", logic.TeamName(event, event.Result.Advancement)))
	}
	res.WriteString("\n")

	writeBucket := func(label string, names []string) {
		if len(names) == 0 {
			return
		}
		res.WriteString(fmt.Sprintf("%s: %s\n", label, strings.Join(names, ", ")))
	}
	writeBucket("Exact score (+4)", report.ExactScore)
	writeBucket("Goal difference (+3)", report.GoalDifference)
	writeBucket("Winner (+1)", report.Winner)
	writeBucket("Missed", report.Missed)
	writeBucket("Advancement bonus (+1)", report.BonusEarned)
	return res.String()
}

func sortEventsByTime(events []store.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
}

// formatEvent renders one event line with the kickoff in the display zone
func (a *API) formatEvent(event store.Event) string {
	line := fmt.Sprintf("%s - %s, %s", event.Team1, event.Team2,
		event.Time.In(a.DisplayZone).Format(KickoffLayout))
	if event.Format.IsPlayoff() {
		line += fmt.Sprintf(" [%s]", event.Format)
	}
	if event.Result != nil {
		line += fmt.Sprintf(" (%d:%d)", event.Result.Team1Scores, event.Result.Team2Scores)
	}
	return line
}
