// Package bot contains the relay bot's platform-facing pieces: the message
// router, the interactive command flows, and the Discord binding they run on.
package bot

import "context"

// Message is the platform-neutral view of one inbound chat message.
type Message struct {
	ID              string
	ChannelID       string
	AuthorID        string
	AuthorBot       bool
	Content         string
	ChannelMentions []string // mentioned channel IDs, in order of appearance
}

// Channel is a resolved channel handle.
type Channel struct {
	ID   string
	Name string
}

// Mention renders the channel as a clickable mention.
func (c Channel) Mention() string {
	return "<#" + c.ID + ">"
}

// Messenger sends plain text to a channel.
type Messenger interface {
	SendMessage(ctx context.Context, channelID, content string) error
}

// ChannelResolver resolves a channel ID to a handle, reporting whether the
// channel exists.
type ChannelResolver interface {
	ResolveChannel(id string) (Channel, bool)
}

// PermissionChecker reports whether a user holds administrator rights in the
// given channel.
type PermissionChecker interface {
	HasAdmin(userID, channelID string) bool
}

// Gateway bundles the platform capabilities the router and flows consume.
type Gateway interface {
	Messenger
	ChannelResolver
	PermissionChecker
}
