/* handlers.go
 * Contains the testable command handlers. Every handler accepts the
 * DiscordSession interface so the full command surface can be exercised with
 * the mock session; bot_runtime.go wires them to the live session.
 */

package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"totalizator-bot/api/shared"
	"totalizator-bot/api/store"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"
	"go.uber.org/zap"
)

// newMessageHandler gates a message on roster membership, registers the
// interaction and routes to the matching handler. botUserID is the bot's own
// user id to prevent self-responses.
func (b *Bot) newMessageHandler(session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	if message.Author.ID == botUserID {
		return
	}
	if !b.isClubMember(session, message.Author.ID) {
		return
	}

	user, err := messageUser(message.Author)
	if err != nil {
		b.Logger.Error("failed to parse message author", zap.Error(err))
		return
	}
	b.registerInteraction(session, user)

	switch {
	case startsWith(message.Content, "$help"):
		b.helpHandler(session, message)

	case startsWith(message.Content, "$addevent"):
		b.addEventHandler(session, message)

	case startsWith(message.Content, "$events"):
		b.eventsHandler(session, message)

	case startsWith(message.Content, "$upcoming"):
		b.upcomingHandler(session, message)

	case startsWith(message.Content, "$bet"):
		b.selectEventHandler(session, message, user)

	case startsWith(message.Content, "$mybets"):
		b.myBetsHandler(session, message, user)

	case startsWith(message.Content, "$deletebet"):
		b.deleteBetHandler(session, message, user)

	case startsWith(message.Content, "$clear"):
		b.clearContextHandler(session, message, user)

	case startsWith(message.Content, "$leaderboard"):
		b.leaderboardHandler(session, message)

	case startsWith(message.Content, "$stats"):
		b.statsHandler(session, message, user)

	case startsWith(message.Content, "$result"):
		b.recordResultHandler(session, message)

	case startsWith(message.Content, "$stale"):
		b.staleEventsHandler(session, message)

	default:
		b.freeTextHandler(session, message, user)
	}
}

// helpHandler handles the $help command
func (b *Bot) helpHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("Totalizator Bot\n")
	res.WriteString("`$events`: all matches with kickoff time and result\n")
	res.WriteString("`$upcoming`: matches you can still bet on, with their numbers\n")
	res.WriteString("`$bet <n>`: start a bet on upcoming match n, then send the score as `2:1`\n")
	res.WriteString("For playoff matches you may also be asked which team goes through; answer with the team name\n")
	res.WriteString("`$mybets`: your bets\n")
	res.WriteString("`$deletebet <n>`: delete your bet on upcoming match n (before kickoff only)\n")
	res.WriteString("`$clear`: forget the match you are currently entering a score for\n")
	res.WriteString("`$leaderboard`: ranking; equal scores share a rank\n")
	res.WriteString("`$stats`: your detailed statistics over settled matches\n")
	res.WriteString("Maintainer: `$addevent Team 1;Team 2;02.01.2006 15:04[;format]`, `$result <n> X:Y[;advancing team]`, `$stale`\n")
	b.send(session, message.ChannelID, res.String())
}

// addEventHandler handles the maintainer-only $addevent command. Arguments
// are separated by ';' so team names can contain spaces without quoting.
func (b *Bot) addEventHandler(session DiscordSession, message *discordgo.MessageCreate) {
	if !b.isMaintainer(message.Author.ID) {
		return
	}

	raw := strings.TrimSpace(strings.TrimPrefix(message.Content, "$addevent"))
	semiSplitter, err := splitter.NewSplitter(';', splitter.DoubleQuotes)
	if err != nil {
		b.Logger.Error("failed to build splitter", zap.Error(err))
		return
	}
	parts, err := semiSplitter.Split(raw)
	if err != nil || len(parts) < 3 || len(parts) > 4 {
		b.send(session, message.ChannelID,
			"Usage: $addevent Team 1;Team 2;02.01.2006 15:04[;format]")
		return
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(strings.ReplaceAll(parts[i], "\"", ""))
	}
	format := ""
	if len(parts) == 4 {
		format = parts[3]
	}

	event, err := b.APIPtr.AddEvent(parts[0], parts[1], parts[2], format)
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred adding the event")
		return
	}
	b.send(session, message.ChannelID, fmt.Sprintf("Event added: %s - %s", event.Team1, event.Team2))
}

// eventsHandler handles the $events command
func (b *Bot) eventsHandler(session DiscordSession, message *discordgo.MessageCreate) {
	res, err := b.APIPtr.ListEvents()
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred listing events")
		return
	}
	b.send(session, message.ChannelID, res)
}

// upcomingHandler handles the $upcoming command, numbering the events so the
// numbers can be used with $bet and $deletebet
func (b *Bot) upcomingHandler(session DiscordSession, message *discordgo.MessageCreate) {
	events, err := b.APIPtr.UpcomingEvents()
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred listing upcoming events")
		return
	}
	if len(events) == 0 {
		b.send(session, message.ChannelID, "No upcoming matches")
		return
	}

	var res strings.Builder
	res.WriteString("Upcoming matches:\n")
	for i, event := range events {
		res.WriteString(fmt.Sprintf("%d. %s - %s, %s\n", i+1, event.Team1, event.Team2,
			event.Time.In(b.APIPtr.DisplayZone).Format("02.01.2006 15:04")))
	}
	b.send(session, message.ChannelID, res.String())
}

// selectEventHandler handles the $bet command and moves the participant into
// the awaiting-score state
func (b *Bot) selectEventHandler(session DiscordSession, message *discordgo.MessageCreate, user shared.User) {
	events, err := b.APIPtr.UpcomingEvents()
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred listing upcoming events")
		return
	}
	event, err := eventByIndex(events, strings.TrimPrefix(message.Content, "$bet"))
	if err != nil {
		b.send(session, message.ChannelID, err.Error())
		return
	}

	selected, err := b.APIPtr.SelectEvent(user, event.ID)
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred selecting the event")
		return
	}
	b.send(session, message.ChannelID,
		fmt.Sprintf("Send your score for %s - %s as `X:Y`", selected.Team1, selected.Team2))
}

// freeTextHandler routes a plain message by the participant's pending stage:
// a score while awaiting a score, a team name while awaiting the advancement
// choice, otherwise the message is ignored.
func (b *Bot) freeTextHandler(session DiscordSession, message *discordgo.MessageCreate, user shared.User) {
	stage, pending, err := b.APIPtr.PendingStage(user)
	if err != nil {
		b.Logger.Error("failed to load pending stage", zap.Int64("user", user.UserID), zap.Error(err))
		return
	}
	if !pending {
		return
	}

	var res string
	switch stage {
	case store.StageAwaitingScore:
		res, err = b.APIPtr.SubmitScore(user, message.Content)
	case store.StageAwaitingAdvancement:
		res, err = b.APIPtr.ChooseAdvancingTeam(user, message.Content)
	default:
		return
	}
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred saving the bet")
		return
	}
	b.send(session, message.ChannelID, res)
}

// myBetsHandler handles the $mybets command
func (b *Bot) myBetsHandler(session DiscordSession, message *discordgo.MessageCreate, user shared.User) {
	res, err := b.APIPtr.MyBets(user)
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred fetching your bets")
		return
	}
	b.send(session, message.ChannelID, res)
}

// deleteBetHandler handles the $deletebet command
func (b *Bot) deleteBetHandler(session DiscordSession, message *discordgo.MessageCreate, user shared.User) {
	events, err := b.APIPtr.UpcomingEvents()
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred listing upcoming events")
		return
	}
	event, err := eventByIndex(events, strings.TrimPrefix(message.Content, "$deletebet"))
	if err != nil {
		b.send(session, message.ChannelID, err.Error())
		return
	}

	if err := b.APIPtr.DeleteBet(user, event.ID); err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred deleting the bet")
		return
	}
	b.send(session, message.ChannelID,
		fmt.Sprintf("Your bet on %s - %s has been deleted", event.Team1, event.Team2))
}

// clearContextHandler handles the $clear command
func (b *Bot) clearContextHandler(session DiscordSession, message *discordgo.MessageCreate, user shared.User) {
	if err := b.APIPtr.ClearContext(user); err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred clearing the context")
		return
	}
	b.send(session, message.ChannelID, "Cleared. Use $bet to pick a match")
}

// leaderboardHandler handles the $leaderboard command
func (b *Bot) leaderboardHandler(session DiscordSession, message *discordgo.MessageCreate) {
	res, err := b.APIPtr.Leaderboard()
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred getting the leaderboard")
		return
	}
	b.send(session, message.ChannelID, res)
}

// statsHandler handles the $stats command
func (b *Bot) statsHandler(session DiscordSession, message *discordgo.MessageCreate, user shared.User) {
	res, err := b.APIPtr.UserStats(user)
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred getting your statistics")
		return
	}
	b.send(session, message.ChannelID, res)
}

// recordResultHandler handles the maintainer-only $result command and
// announces the settlement report
func (b *Bot) recordResultHandler(session DiscordSession, message *discordgo.MessageCreate) {
	if !b.isMaintainer(message.Author.ID) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(message.Content, "$result"))
	if len(args) < 2 {
		b.send(session, message.ChannelID, "Usage: $result <n> X:Y[;advancing team]")
		return
	}

	events, err := b.APIPtr.UnsettledEvents()
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred listing unsettled events")
		return
	}
	event, err := eventByIndex(events, args[0])
	if err != nil {
		b.send(session, message.ChannelID, err.Error())
		return
	}

	rest := strings.Join(args[1:], " ")
	score, advancing := rest, ""
	if i := strings.Index(rest, ";"); i >= 0 {
		score, advancing = rest[:i], strings.TrimSpace(rest[i+1:])
	}

	report, err := b.APIPtr.RecordResult(event.ID, score, advancing)
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred recording the result")
		return
	}
	b.send(session, message.ChannelID, b.APIPtr.FormatSettlementReport(report))
}

// staleEventsHandler handles the maintainer-only $stale command used by the
// reminder flow to find matches that finished without a recorded result
func (b *Bot) staleEventsHandler(session DiscordSession, message *discordgo.MessageCreate) {
	if !b.isMaintainer(message.Author.ID) {
		return
	}

	events, err := b.APIPtr.StaleEvents()
	if err != nil {
		b.replyError(session, message.ChannelID, err, "An error occurred listing stale events")
		return
	}
	if len(events) == 0 {
		b.send(session, message.ChannelID, "No events are waiting for a result")
		return
	}

	var res strings.Builder
	res.WriteString("Waiting for a result:\n")
	for _, event := range events {
		res.WriteString(fmt.Sprintf("- %s - %s, %s\n", event.Team1, event.Team2,
			event.Time.In(b.APIPtr.DisplayZone).Format("02.01.2006 15:04")))
	}
	b.send(session, message.ChannelID, res.String())
}

// replyError sends the error text for expected user-facing failures and a
// generic message for everything else
func (b *Bot) replyError(session DiscordSession, channelID string, err error, generic string) {
	if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrInvalidState) ||
		errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrNotFound) {
		b.send(session, channelID, err.Error())
		return
	}
	b.Logger.Error("command failed", zap.Error(err))
	b.send(session, channelID, generic)
}

// eventByIndex resolves a 1-based selection number against an ordered event list
func eventByIndex(events []store.Event, arg string) (store.Event, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return store.Event{}, fmt.Errorf("%w: a match number is required, see $upcoming", shared.ErrValidation)
	}
	if n < 1 || n > len(events) {
		return store.Event{}, fmt.Errorf("%w: no match with number %d", shared.ErrNotFound, n)
	}
	return events[n-1], nil
}

// startsWith reports whether the message invokes the given command
func startsWith(content, command string) bool {
	fields := strings.Fields(content)
	return len(fields) > 0 && strings.EqualFold(fields[0], command)
}
