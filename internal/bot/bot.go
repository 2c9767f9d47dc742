// Package bot is the Discord front end: slash commands for moderators with
// button-confirmed mutations.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/service"
)

const confirmTimeout = 60 * time.Second

// Config carries the Discord credentials.
type Config struct {
	Token    string
	ClientID string
	GuildID  string
}

// Bot owns the Discord session and routes interactions to command handlers.
type Bot struct {
	session  *discordgo.Session
	logger   *zap.Logger
	clientID string
	guildID  string

	kos   *service.KosService
	auth  *service.AuthService
	admin *service.AdminService

	pending  *pendingStore
	handlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	registered []*discordgo.ApplicationCommand
}

// New builds the bot and wires its interaction handler. The session is not
// opened until Run.
func New(cfg Config, kos *service.KosService, auth *service.AuthService, admin *service.AdminService, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Bot{
		session:  session,
		logger:   logger,
		clientID: cfg.ClientID,
		guildID:  cfg.GuildID,
		kos:      kos,
		auth:     auth,
		admin:    admin,
		pending:  newPendingStore(confirmTimeout),
	}
	b.handlers = b.commandHandlers()
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

// Run opens the gateway connection and registers the slash commands. It
// returns once connected; Close tears everything down.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}

	commands, err := b.session.ApplicationCommandBulkOverwrite(b.clientID, b.guildID, commandDefinitions())
	if err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.registered = commands

	b.logger.Info("discord bot connected",
		zap.String("guild_id", b.guildID),
		zap.Int("commands", len(commands)))
	return nil
}

// Close shuts the gateway connection.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := b.handlers[name]
		if !ok {
			b.logger.Warn("unknown slash command", zap.String("command", name))
			return
		}
		handler(s, i)
	case discordgo.InteractionMessageComponent:
		b.onComponent(s, i)
	}
}

func (b *Bot) onComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	action, token, found := strings.Cut(customID, ":")
	if !found {
		b.logger.Warn("malformed component id", zap.String("custom_id", customID))
		return
	}

	switch action {
	case "confirm":
		b.handleConfirm(s, i, token)
	case "cancel":
		b.handleCancel(s, i, token)
	case "killswitch":
		b.handleKillSwitch(s, i, token == "on")
	default:
		b.logger.Warn("unknown component action", zap.String("custom_id", customID))
	}
}
