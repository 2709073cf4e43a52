package bot

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var channelMentionRE = regexp.MustCompile(`<#(\d+)>`)

// DiscordGateway adapts a discordgo session to the capability interfaces the
// router and flows consume.
type DiscordGateway struct {
	session *discordgo.Session
	log     *logrus.Entry
}

func NewDiscordGateway(session *discordgo.Session, log *logrus.Entry) *DiscordGateway {
	return &DiscordGateway{
		session: session,
		log:     log.WithField("module", "discord"),
	}
}

func (g *DiscordGateway) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// ResolveChannel looks the channel up in the session state cache, falling
// back to the REST API for channels the cache has not seen.
func (g *DiscordGateway) ResolveChannel(id string) (Channel, bool) {
	if ch, err := g.session.State.Channel(id); err == nil {
		return Channel{ID: ch.ID, Name: ch.Name}, true
	}
	ch, err := g.session.Channel(id)
	if err != nil {
		return Channel{}, false
	}
	return Channel{ID: ch.ID, Name: ch.Name}, true
}

func (g *DiscordGateway) HasAdmin(userID, channelID string) bool {
	perms, err := g.session.State.UserChannelPermissions(userID, channelID)
	if err != nil {
		perms, err = g.session.UserChannelPermissions(userID, channelID)
		if err != nil {
			g.log.WithError(err).WithField("user", userID).Warn("resolving user permissions")
			return false
		}
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// MessageFromDiscord converts a discordgo message into the neutral Message.
// Channel mentions are parsed from the raw content because the gateway does
// not deliver mention_channels for ordinary guild messages.
func MessageFromDiscord(m *discordgo.Message) Message {
	var mentions []string
	for _, match := range channelMentionRE.FindAllStringSubmatch(m.Content, -1) {
		mentions = append(mentions, match[1])
	}

	msg := Message{
		ID:              m.ID,
		ChannelID:       m.ChannelID,
		Content:         m.Content,
		ChannelMentions: mentions,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorBot = m.Author.Bot
	}
	return msg
}
