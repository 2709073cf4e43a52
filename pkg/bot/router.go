package bot

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tinyland-inc/relaybot/pkg/relay"
)

// Command is one prefix-triggered bot command.
type Command struct {
	Name      string
	AdminOnly bool
	Run       func(ctx context.Context, inv Invocation)
}

// Dispatcher matches prefixed messages to registered commands and enforces
// the administrator gate before a command starts.
type Dispatcher struct {
	gw       Gateway
	prefix   string
	commands map[string]Command
	log      *logrus.Entry
}

func NewDispatcher(gw Gateway, prefix string, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		gw:       gw,
		prefix:   prefix,
		commands: map[string]Command{},
		log:      log.WithField("module", "dispatch"),
	}
}

func (d *Dispatcher) Register(cmd Command) {
	d.commands[cmd.Name] = cmd
}

// Dispatch runs the command named by msg, if any. The handler runs in the
// caller's goroutine; the platform delivers each event on its own goroutine,
// so a flow's waits only suspend their own invocation.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	if !strings.HasPrefix(msg.Content, d.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Content, d.prefix))
	if len(fields) == 0 {
		return
	}
	cmd, ok := d.commands[fields[0]]
	if !ok {
		return
	}
	if cmd.AdminOnly && !d.gw.HasAdmin(msg.AuthorID, msg.ChannelID) {
		d.log.WithFields(logrus.Fields{
			"command": cmd.Name,
			"user":    msg.AuthorID,
		}).Info("refusing command for non-administrator")
		return
	}
	cmd.Run(ctx, Invocation{ChannelID: msg.ChannelID, UserID: msg.AuthorID})
}

// Router decides what happens to each inbound message: bot authors are
// dropped, messages from a relay source are forwarded verbatim to every
// destination, and everything else is offered to command dispatch. A source
// channel never dispatches commands.
type Router struct {
	gw         Gateway
	store      relay.Store
	awaiter    *Awaiter
	dispatcher *Dispatcher
	log        *logrus.Entry
}

func NewRouter(gw Gateway, store relay.Store, awaiter *Awaiter, dispatcher *Dispatcher, log *logrus.Entry) *Router {
	return &Router{
		gw:         gw,
		store:      store,
		awaiter:    awaiter,
		dispatcher: dispatcher,
		log:        log.WithField("module", "router"),
	}
}

func (r *Router) HandleMessage(ctx context.Context, msg Message) {
	if msg.AuthorBot {
		return
	}

	// Pending flows observe the message first; routing still proceeds,
	// matching the platform event model where waits do not consume events.
	r.awaiter.Deliver(msg)

	mappings, err := r.store.RelayChannels()
	if err != nil {
		r.log.WithError(err).Warn("loading relay mappings")
		return
	}
	dests, ok := mappings[msg.ChannelID]
	if !ok {
		r.dispatcher.Dispatch(ctx, msg)
		return
	}

	for _, destID := range dests {
		ch, ok := r.gw.ResolveChannel(destID)
		if !ok {
			r.log.WithField("dest", destID).Debug("skipping unresolvable destination")
			continue
		}
		if err := r.gw.SendMessage(ctx, ch.ID, msg.Content); err != nil {
			r.log.WithError(err).WithField("dest", destID).Warn("forwarding message")
		}
	}
}
