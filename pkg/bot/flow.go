package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tinyland-inc/relaybot/pkg/relay"
)

// DefaultReplyTimeout is how long a flow waits for each reply.
const DefaultReplyTimeout = 60 * time.Second

const cancelledNotice = "Timed out or error occurred, command cancelled."

// Invocation identifies who started a command and where.
type Invocation struct {
	ChannelID string
	UserID    string
}

// Flows implements the interactive relay commands. Each invocation is a
// short-lived conversation with the invoking user in the invoking channel:
// the flow prompts, waits for the next qualifying reply, and either mutates
// the store or aborts with a notice. No step is retried.
type Flows struct {
	gw      Gateway
	store   relay.Store
	awaiter *Awaiter
	timeout time.Duration
	log     *logrus.Entry
}

func NewFlows(gw Gateway, store relay.Store, awaiter *Awaiter, timeout time.Duration, log *logrus.Entry) *Flows {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	return &Flows{
		gw:      gw,
		store:   store,
		awaiter: awaiter,
		timeout: timeout,
		log:     log.WithField("module", "flows"),
	}
}

// sameConversation matches replies from the invoking user in the invoking
// channel; everything else is ignored by the wait.
func sameConversation(inv Invocation) Predicate {
	return func(m Message) bool {
		return m.AuthorID == inv.UserID && m.ChannelID == inv.ChannelID
	}
}

func (f *Flows) send(ctx context.Context, inv Invocation, text string) {
	if err := f.gw.SendMessage(ctx, inv.ChannelID, text); err != nil {
		f.log.WithError(err).Warn("sending notice")
	}
}

// resolveChannelReply resolves a reply to a channel handle: the first
// channel mention wins, otherwise the trimmed text is taken as a numeric ID.
func (f *Flows) resolveChannelReply(msg Message) (Channel, bool) {
	if len(msg.ChannelMentions) > 0 {
		return f.gw.ResolveChannel(msg.ChannelMentions[0])
	}
	raw := strings.TrimSpace(msg.Content)
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return Channel{}, false
	}
	return f.gw.ResolveChannel(raw)
}

// RunAdd walks the invoking administrator through adding a relay mapping:
// source channel, then destination channel, then commit.
func (f *Flows) RunAdd(ctx context.Context, inv Invocation) {
	log := f.log.WithField("flow_id", uuid.NewString())
	pred := sameConversation(inv)

	f.send(ctx, inv, "Please mention the **source** channel (e.g. #general) or type channel ID:")
	reply, err := f.awaiter.Await(ctx, pred, f.timeout)
	if err != nil {
		f.send(ctx, inv, cancelledNotice)
		log.WithError(err).Info("add flow cancelled")
		return
	}
	source, ok := f.resolveChannelReply(reply)
	if !ok {
		f.send(ctx, inv, "Invalid source channel. Command cancelled.")
		return
	}

	f.send(ctx, inv, "Now please mention the **destination** channel or type channel ID:")
	reply, err = f.awaiter.Await(ctx, pred, f.timeout)
	if err != nil {
		f.send(ctx, inv, cancelledNotice)
		log.WithError(err).Info("add flow cancelled")
		return
	}
	dest, ok := f.resolveChannelReply(reply)
	if !ok {
		f.send(ctx, inv, "Invalid destination channel. Command cancelled.")
		return
	}

	if err := f.store.AddMapping(source.ID, dest.ID); err != nil {
		f.send(ctx, inv, cancelledNotice)
		log.WithError(err).Error("persisting relay mapping")
		return
	}
	f.send(ctx, inv, fmt.Sprintf("Relay added: messages from %s will be sent to %s", source.Mention(), dest.Mention()))
	log.WithFields(logrus.Fields{"source": source.ID, "dest": dest.ID}).Info("relay added")
}

// RunRemove walks the invoking administrator through removing a relay
// mapping. The second reply is either the literal `all` (drop the whole
// source entry) or a destination channel.
func (f *Flows) RunRemove(ctx context.Context, inv Invocation) {
	log := f.log.WithField("flow_id", uuid.NewString())
	pred := sameConversation(inv)

	f.send(ctx, inv, "Please mention the **source** channel you wish to modify (e.g. #general) or type channel ID:")
	reply, err := f.awaiter.Await(ctx, pred, f.timeout)
	if err != nil {
		f.send(ctx, inv, cancelledNotice)
		log.WithError(err).Info("remove flow cancelled")
		return
	}
	source, ok := f.resolveChannelReply(reply)
	if !ok {
		f.send(ctx, inv, "Invalid source channel. Command cancelled.")
		return
	}

	f.send(ctx, inv, "Type `all` to remove the entire source relay, or mention a **destination** channel to remove:")
	reply, err = f.awaiter.Await(ctx, pred, f.timeout)
	if err != nil {
		f.send(ctx, inv, cancelledNotice)
		log.WithError(err).Info("remove flow cancelled")
		return
	}

	if strings.EqualFold(strings.TrimSpace(reply.Content), "all") {
		removed, err := f.store.RemoveSource(source.ID)
		if err != nil {
			f.send(ctx, inv, cancelledNotice)
			log.WithError(err).Error("removing relay source")
			return
		}
		if removed {
			f.send(ctx, inv, fmt.Sprintf("Removed all relays from source channel %s.", source.Mention()))
			log.WithField("source", source.ID).Info("relay source removed")
		} else {
			f.send(ctx, inv, "No relays found for that source channel.")
		}
		return
	}

	var dest Channel
	if len(reply.ChannelMentions) > 0 {
		dest, ok = f.gw.ResolveChannel(reply.ChannelMentions[0])
	} else {
		raw := strings.TrimSpace(reply.Content)
		if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
			f.send(ctx, inv, "Invalid destination channel ID. Command cancelled.")
			return
		}
		dest, ok = f.gw.ResolveChannel(raw)
	}
	if !ok {
		f.send(ctx, inv, "Invalid destination channel. Command cancelled.")
		return
	}

	removed, err := f.store.RemoveMapping(source.ID, dest.ID)
	if err != nil {
		f.send(ctx, inv, cancelledNotice)
		log.WithError(err).Error("removing relay mapping")
		return
	}
	if removed {
		f.send(ctx, inv, fmt.Sprintf("Removed relay from %s to %s.", source.Mention(), dest.Mention()))
		log.WithFields(logrus.Fields{"source": source.ID, "dest": dest.ID}).Info("relay removed")
	} else {
		f.send(ctx, inv, "That relay was not found.")
	}
}

// RunList prints the current relay mappings. Unlike add and remove it takes
// no further input.
func (f *Flows) RunList(ctx context.Context, inv Invocation) {
	mappings, err := f.store.RelayChannels()
	if err != nil {
		f.send(ctx, inv, cancelledNotice)
		f.log.WithError(err).Error("loading relay mappings")
		return
	}
	if len(mappings) == 0 {
		f.send(ctx, inv, "No relay mappings configured.")
		return
	}

	sources := make([]string, 0, len(mappings))
	for src := range mappings {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var b strings.Builder
	b.WriteString("Relay mappings:")
	for _, src := range sources {
		mentions := make([]string, len(mappings[src]))
		for i, dest := range mappings[src] {
			mentions[i] = Channel{ID: dest}.Mention()
		}
		fmt.Fprintf(&b, "\n%s -> %s", Channel{ID: src}.Mention(), strings.Join(mentions, ", "))
	}
	f.send(ctx, inv, b.String())
}
