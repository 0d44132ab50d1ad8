/* handlers.go
 * Contains the HTTP handlers for the export endpoints: a CSV dump of the
 * leaderboard and a JSON list of events waiting for a result, consumed by the
 * external reminder scheduler.
 */

package web

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"totalizator-bot/api/logic"

	"go.uber.org/zap"
)

// staleEvent is the scheduler-facing view of an unsettled event
type staleEvent struct {
	ID      string    `json:"id"`
	Team1   string    `json:"team_1"`
	Team2   string    `json:"team_2"`
	Kickoff time.Time `json:"kickoff"`
	Format  string    `json:"format"`
}

// LeaderboardCSVHandler writes the current standings as rank,name,points.
// Participants in the same rank tier share the rank number.
func (s *Server) LeaderboardCSVHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	participants, err := s.api.Store.GetAllParticipants()
	if err != nil {
		s.logger.Error("failed to load participants", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.csv"`)

	cw := csv.NewWriter(w)
	defer cw.Flush()
	cw.Write([]string{"rank", "name", "points"})
	for _, tier := range logic.Leaderboard(participants) {
		for _, p := range tier.Participants {
			cw.Write([]string{
				strconv.Itoa(tier.Rank),
				p.DisplayName(),
				strconv.Itoa(p.Scores),
			})
		}
	}
}

// StaleEventsHandler returns events past their grace window without a result
func (s *Server) StaleEventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	events, err := s.api.StaleEvents()
	if err != nil {
		s.logger.Error("failed to load stale events", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	out := make([]staleEvent, 0, len(events))
	for _, event := range events {
		out = append(out, staleEvent{
			ID:      event.ID.Hex(),
			Team1:   event.Team1,
			Team2:   event.Team2,
			Kickoff: event.Time,
			Format:  string(event.Format),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Error("failed to encode stale events", zap.Error(err))
	}
}

// HealthHandler reports liveness
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
