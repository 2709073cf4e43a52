package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestMessageFromDiscord(t *testing.T) {
	msg := MessageFromDiscord(&discordgo.Message{
		ID:        "1",
		ChannelID: "900",
		Content:   "relay <#100> into <#200> please",
		Author:    &discordgo.User{ID: "u1", Bot: false},
	})

	assert.Equal(t, "900", msg.ChannelID)
	assert.Equal(t, "u1", msg.AuthorID)
	assert.False(t, msg.AuthorBot)
	assert.Equal(t, []string{"100", "200"}, msg.ChannelMentions)
}

func TestMessageFromDiscord_NoMentions(t *testing.T) {
	msg := MessageFromDiscord(&discordgo.Message{
		Content: "123456",
		Author:  &discordgo.User{ID: "u1", Bot: true},
	})

	assert.Empty(t, msg.ChannelMentions)
	assert.True(t, msg.AuthorBot)
}

func TestMessageFromDiscord_NilAuthor(t *testing.T) {
	msg := MessageFromDiscord(&discordgo.Message{Content: "webhookish"})

	assert.Empty(t, msg.AuthorID)
	assert.False(t, msg.AuthorBot)
}

func TestChannelMention(t *testing.T) {
	assert.Equal(t, "<#100>", Channel{ID: "100", Name: "general"}.Mention())
}
