package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/tinyland-inc/relaybot/pkg/config"
	"github.com/tinyland-inc/relaybot/pkg/relay"
)

// Bot owns the Discord session and the relay plumbing built on top of it.
type Bot struct {
	session *discordgo.Session
	awaiter *Awaiter
	router  *Router
	log     *logrus.Entry
	running atomic.Bool
}

func New(cfg *config.Config, store relay.Store, log *logrus.Entry) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	gw := NewDiscordGateway(session, log)
	awaiter := NewAwaiter()
	flows := NewFlows(gw, store, awaiter, time.Duration(cfg.Relay.ReplyTimeoutSeconds)*time.Second, log)

	dispatcher := NewDispatcher(gw, cfg.Discord.CommandPrefix, log)
	dispatcher.Register(Command{Name: "add", AdminOnly: true, Run: flows.RunAdd})
	dispatcher.Register(Command{Name: "remove", AdminOnly: true, Run: flows.RunRemove})
	dispatcher.Register(Command{Name: "list", AdminOnly: true, Run: flows.RunList})

	b := &Bot{
		session: session,
		awaiter: awaiter,
		router:  NewRouter(gw, store, awaiter, dispatcher, log),
		log:     log.WithField("module", "bot"),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	b.running.Store(true)
	return nil
}

func (b *Bot) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.awaiter.Close()
	return b.session.Close()
}

func (b *Bot) IsRunning() bool {
	return b.running.Load()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.WithField("user", r.User.String()).Info("bot is ready")
}

// onMessageCreate runs on its own goroutine per event, so a flow waiting on
// a reply suspends only its own invocation.
func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.router.HandleMessage(context.Background(), MessageFromDiscord(m.Message))
}
