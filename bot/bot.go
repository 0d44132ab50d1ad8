/* bot.go
 * Contains the Bot struct, construction and the helpers shared by the command
 * handlers: guarded outbound sends, roster membership and maintainer checks,
 * and first-interaction registration.
 */

package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"totalizator-bot/api/api"
	"totalizator-bot/api/shared"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Bot struct {
	BotToken     string
	GuildID      string
	MaintainerID string
	APIPtr       *api.API
	Logger       *zap.Logger

	// limits outbound messages so settlement announcements cannot trip the
	// Discord rate limit
	limiter *rate.Limiter
}

// NewBot validates the configuration and creates a Bot
func NewBot(botToken, guildID, maintainerID string, apiPtr *api.API, logger *zap.Logger) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if guildID == "" {
		return nil, fmt.Errorf("guildID is required but none was provided")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		BotToken:     botToken,
		GuildID:      guildID,
		MaintainerID: maintainerID,
		APIPtr:       apiPtr,
		Logger:       logger,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 5),
	}, nil
}

// send delivers a message through the rate limiter. Delivery is one way: a
// failed send is logged and dropped, never retried.
func (b *Bot) send(session DiscordSession, channelID, content string) {
	if err := b.limiter.Wait(context.Background()); err != nil {
		b.Logger.Error("rate limiter interrupted", zap.Error(err))
		return
	}
	if _, err := session.ChannelMessageSend(channelID, content); err != nil {
		b.Logger.Error("failed to send message", zap.String("channel", channelID), zap.Error(err))
	}
}

// sendDM delivers a direct message to a user, used for maintainer notifications
func (b *Bot) sendDM(session DiscordSession, userID, content string) {
	channel, err := session.UserChannelCreate(userID)
	if err != nil {
		b.Logger.Error("failed to open dm channel", zap.String("user", userID), zap.Error(err))
		return
	}
	b.send(session, channel.ID, content)
}

// isClubMember checks the chat roster: only members of the configured guild
// may interact with the pool
func (b *Bot) isClubMember(session DiscordSession, userID string) bool {
	if _, err := session.GuildMember(b.GuildID, userID); err != nil {
		b.Logger.Debug("roster lookup failed, treating as non-member",
			zap.String("user", userID), zap.Error(err))
		return false
	}
	return true
}

// isMaintainer reports whether the message author may run maintainer commands
func (b *Bot) isMaintainer(userID string) bool {
	return b.MaintainerID != "" && userID == b.MaintainerID
}

// messageUser converts a Discord author into the shared user identity
// Postconditions: Returns the user, or an error for a non-numeric id
func messageUser(author *discordgo.User) (shared.User, error) {
	id, err := strconv.ParseInt(author.ID, 10, 64)
	if err != nil {
		return shared.User{}, fmt.Errorf("unexpected non-numeric user id %q: %w", author.ID, err)
	}
	return shared.User{
		UserID:    id,
		Username:  author.Username,
		FirstName: author.GlobalName,
	}, nil
}

// registerInteraction creates the participant on first contact and notifies
// the maintainer about the new member, mirroring how members joined the
// original pool
func (b *Bot) registerInteraction(session DiscordSession, user shared.User) {
	insertedNew, err := b.APIPtr.RegisterUser(user)
	if err != nil {
		b.Logger.Error("failed to register interaction", zap.Int64("user", user.UserID), zap.Error(err))
		return
	}
	if insertedNew && b.MaintainerID != "" {
		b.sendDM(session, b.MaintainerID,
			fmt.Sprintf("New user: %s (%s)", user.DisplayName(), user.Username))
	}
}
