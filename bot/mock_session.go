/* mock_session.go
 * Contains a mock implementation of DiscordSession for testing
 */

package bot

import "github.com/bwmarrin/discordgo"

// MockDiscordSession implements DiscordSession for testing purposes
type MockDiscordSession struct {
	// SentMessages stores all messages sent during tests
	SentMessages []MockMessage
	// Members maps "guildID/userID" to membership; ids not present are
	// treated as non-members
	Members map[string]bool
	// ErrorToReturn allows tests to simulate send errors
	ErrorToReturn error
}

// MockMessage represents a message sent to a channel
type MockMessage struct {
	ChannelID string
	Content   string
}

// NewMockDiscordSession creates a new MockDiscordSession for testing
func NewMockDiscordSession() *MockDiscordSession {
	return &MockDiscordSession{
		SentMessages: make([]MockMessage, 0),
		Members:      make(map[string]bool),
	}
}

// AddMember marks a user as a member of a guild
func (m *MockDiscordSession) AddMember(guildID, userID string) {
	m.Members[guildID+"/"+userID] = true
}

// ChannelMessageSend implements DiscordSession.ChannelMessageSend
func (m *MockDiscordSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}

	m.SentMessages = append(m.SentMessages, MockMessage{
		ChannelID: channelID,
		Content:   content,
	})

	return &discordgo.Message{
		ID:        "mock_message_id",
		ChannelID: channelID,
		Content:   content,
	}, nil
}

// GuildMember implements DiscordSession.GuildMember
func (m *MockDiscordSession) GuildMember(guildID string, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	if !m.Members[guildID+"/"+userID] {
		return nil, discordgo.ErrStateNotFound
	}
	return &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: userID}}, nil
}

// UserChannelCreate implements DiscordSession.UserChannelCreate; the mock
// returns a DM channel id derived from the recipient so tests can assert on it
func (m *MockDiscordSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	return &discordgo.Channel{ID: "dm_" + recipientID}, nil
}

// GetLastMessage returns the last message sent, or an empty MockMessage if none
func (m *MockDiscordSession) GetLastMessage() MockMessage {
	if len(m.SentMessages) == 0 {
		return MockMessage{}
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

// ClearMessages clears all stored messages
func (m *MockDiscordSession) ClearMessages() {
	m.SentMessages = nil
}
