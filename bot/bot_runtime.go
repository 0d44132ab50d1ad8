//go:build !test

/* bot_runtime.go
 * Contains runtime-only Discord bot methods that use *discordgo.Session
 * directly. Delegates to the testable handlers in handlers.go.
 */

package bot

import (
	"os"
	"os/signal"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Run starts the Discord bot and listens for messages until interrupted
func (b *Bot) Run() error {
	discord, err := discordgo.New("Bot " + b.BotToken)
	if err != nil {
		return err
	}

	discord.AddHandler(b.newMessage)

	if err := discord.Open(); err != nil {
		return err
	}
	defer discord.Close()

	b.Logger.Info("totalizator bot started", zap.String("guild", b.GuildID))
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	return nil
}

// newMessage delegates to the testable newMessageHandler;
// *discordgo.Session implements the DiscordSession interface
func (b *Bot) newMessage(discord *discordgo.Session, message *discordgo.MessageCreate) {
	b.newMessageHandler(discord, message, discord.State.User.ID)
}
