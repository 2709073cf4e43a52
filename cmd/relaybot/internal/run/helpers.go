package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/tinyland-inc/relaybot/cmd/relaybot/internal"
	"github.com/tinyland-inc/relaybot/pkg/bot"
	"github.com/tinyland-inc/relaybot/pkg/config"
	"github.com/tinyland-inc/relaybot/pkg/relay"
)

var log = logrus.NewEntry(logrus.New())

func runCmd(configPath string, debug bool) error {
	if configPath == "" {
		configPath = internal.GetConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	log.Logger.SetOutput(os.Stdout)
	if cfg.Log.JSON {
		log.Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		log.Logger.SetLevel(lvl)
	}

	if cfg.Discord.Token == "" {
		return errors.New("no Discord token configured (set RELAYBOT_DISCORD_TOKEN or discord.token)")
	}

	store := relay.NewFileStore(cfg.Relay.ConfigPath, log)
	b, err := bot.New(cfg, store, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"version": internal.GetVersion(),
		"prefix":  cfg.Discord.CommandPrefix,
		"store":   cfg.Relay.ConfigPath,
	}).Info("relaybot started, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	cancel()
	if err := b.Stop(context.Background()); err != nil {
		log.WithError(err).Warn("closing discord session")
	}
	return nil
}
