/* input_processing.go
 * Contains the logic for processing free-text user input: score parsing and
 * fuzzy resolution of a typed team name to one of an event's two teams.
 */

package logic

import (
	"fmt"
	"strconv"
	"strings"

	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ParseScore parses a "X:Y" score submission
// Preconditions: Receives the raw message text
// Postconditions: Returns the two non-negative scores, or a validation error
// on malformed input
func ParseScore(input string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(input), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: a score looks like 2:1", shared.ErrValidation)
	}

	team1Scores, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not a number", shared.ErrValidation, strings.TrimSpace(parts[0]))
	}
	team2Scores, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not a number", shared.ErrValidation, strings.TrimSpace(parts[1]))
	}
	if team1Scores < 0 || team2Scores < 0 {
		return 0, 0, fmt.Errorf("%w: scores must be non-negative", shared.ErrValidation)
	}
	return team1Scores, team2Scores, nil
}

// MatchTeam resolves typed input to one of the event's two team names.
// Matching is fuzzy and case insensitive; an exact match wins over ranked
// candidates when both teams match.
// Postconditions: Returns the Advancement side for the matched team, or a
// validation error when neither team matches
func MatchTeam(input string, event store.Event) (shared.Advancement, error) {
	lowerInput := strings.ToLower(strings.TrimSpace(input))
	targets := []string{strings.ToLower(event.Team1), strings.ToLower(event.Team2)}

	results := fuzzy.RankFindFold(lowerInput, targets)
	if len(results) == 0 {
		return shared.AdvancementUnset, fmt.Errorf("%w: %q matches neither %s nor %s",
			shared.ErrValidation, input, event.Team1, event.Team2)
	}

	best := results[0].Target
	if len(results) > 1 {
		for _, r := range results {
			if r.Target == lowerInput {
				best = r.Target
			}
		}
		// No exact match: keep the best ranked candidate
		if best != lowerInput && results[1].Distance < results[0].Distance {
			best = results[1].Target
		}
	}

	if best == targets[0] {
		return shared.AdvancementTeam1, nil
	}
	return shared.AdvancementTeam2, nil
}

// TeamName returns the display name for an advancement side of an event
func TeamName(event store.Event, a shared.Advancement) string {
	switch a {
	case shared.AdvancementTeam1:
		return event.Team1
	case shared.AdvancementTeam2:
		return event.Team2
	default:
		return ""
	}
}
