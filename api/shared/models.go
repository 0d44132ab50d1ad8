/* models.go
 * This file contains the structs and enumerations shared between the store, logic and bot packages
 */

package shared

import (
	"fmt"
	"strings"
)

// User holds the identity of a chat user as delivered by the transport layer
type User struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName returns the best human readable name we have for a user
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Username
}

// EventFormat is a closed enumeration of the supported match formats.
// Scoring and the bet context switch exhaustively over it, so a new format
// is a compile-time visible addition.
type EventFormat string

const (
	// FormatSimple is a group stage match or the first leg of a two-leg tie
	FormatSimple EventFormat = "simple"
	// FormatPlayoffSingle is a winner-takes-all playoff match, a draw must be broken
	FormatPlayoffSingle EventFormat = "playoff"
	// FormatPlayoffSecondLeg is the second leg of a two-leg tie, the leg score
	// alone never determines who advances
	FormatPlayoffSecondLeg EventFormat = "playoff-second-leg"
)

// ParseEventFormat converts user supplied text into an EventFormat
// Preconditions: Receives a string (case insensitive)
// Postconditions: Returns the matching EventFormat, or an error for unknown input
func ParseEventFormat(s string) (EventFormat, error) {
	switch EventFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSimple:
		return FormatSimple, nil
	case FormatPlayoffSingle:
		return FormatPlayoffSingle, nil
	case FormatPlayoffSecondLeg:
		return FormatPlayoffSecondLeg, nil
	}
	return "", fmt.Errorf("%w: unknown event format %q", ErrValidation, s)
}

// Valid reports whether f is one of the three known formats
func (f EventFormat) Valid() bool {
	return f == FormatSimple || f == FormatPlayoffSingle || f == FormatPlayoffSecondLeg
}

// IsPlayoff reports whether the format carries advancement information
func (f EventFormat) IsPlayoff() bool {
	return f == FormatPlayoffSingle || f == FormatPlayoffSecondLeg
}

// Advancement is the tri-state "which team proceeds" flag used on both results
// and bets. The zero value means "not decided yet" and is a first-class state,
// not a null check.
type Advancement string

const (
	AdvancementUnset Advancement = ""
	AdvancementTeam1 Advancement = "team_1"
	AdvancementTeam2 Advancement = "team_2"
)

// IsSet reports whether an advancement side has been chosen
func (a Advancement) IsSet() bool {
	return a == AdvancementTeam1 || a == AdvancementTeam2
}
