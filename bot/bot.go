package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discussion-bot/config"
	"discussion-bot/database"
	"discussion-bot/discussion"
	"discussion-bot/grpc"
	"discussion-bot/models"
	"discussion-bot/queue"
	"discussion-bot/scanner"
	"discussion-bot/scoring"
	"discussion-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session  *discordgo.Session
	Commands []*discordgo.ApplicationCommand
	Settings models.Settings
	Store    database.CourseStore
	Queues   *queue.Registry
	Service  *discussion.Service
	Notifier *utils.Notifier
	Logger   *zap.Logger

	health    *grpc.HealthServer
	scheduler *Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBot creates and initializes a new Bot instance from the loaded configuration.
func NewBot(settings models.Settings, logger *zap.Logger) (*Bot, error) {
	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, errors.New("no bot token provided")
	}

	loc, err := config.Location(settings.Bot.Timezone)
	if err != nil {
		return nil, err
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	ctx, cancel := context.WithCancel(context.Background())
	store, err := database.Open(ctx, settings.Database, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("error opening course store: %w", err)
	}

	notifier := utils.NewNotifier(dg, settings.Bot.AdminChannelID, logger)
	queues := queue.NewRegistry(ctx, logger)

	opts := scoring.DefaultOptions()
	if settings.Discussion.PageDelay > 0 {
		opts.PageDelay = settings.Discussion.PageDelay
	}
	if settings.Discussion.RescoreWorkers > 0 {
		opts.Workers = settings.Discussion.RescoreWorkers
	}
	rescorer := scoring.NewRescorer(scanner.NewPlatform(dg, logger), logger, opts)

	service := discussion.NewService(store, rescorer, queues, notifier, logger, discussion.Options{
		Location:              loc,
		RescoreOnPeriodChange: true,
	})

	return &Bot{
		Session:  dg,
		Settings: settings,
		Store:    store,
		Queues:   queues,
		Service:  service,
		Notifier: notifier,
		Logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Context is cancelled when the bot stops.
func (b *Bot) Context() context.Context {
	return b.ctx
}

// ActionTimeout is how long an interaction waits for its queued action.
func (b *Bot) ActionTimeout() time.Duration {
	if b.Settings.Discussion.ActionTimeout > 0 {
		return b.Settings.Discussion.ActionTimeout
	}
	return 10 * time.Second
}

// RegisterCommands registers the provided command definitions.
func (b *Bot) RegisterCommands(commands []*discordgo.ApplicationCommand) {
	b.Commands = append(b.Commands, commands...)
}

// Start registers handlers, opens the session and starts background work.
func (b *Bot) Start(registerHandlers func(*Bot), courses []models.CourseRegistration) error {
	if err := b.Service.RegisterCourses(b.ctx, courses); err != nil {
		return err
	}

	if addr := b.Settings.GRPC.HealthAddress; addr != "" {
		hs, err := grpc.NewHealthServer(addr, b.Logger)
		if err != nil {
			return err
		}
		b.health = hs
		go func() {
			if err := hs.Serve(); err != nil {
				b.Logger.Error("Health server failed", zap.Error(err))
			}
		}()
	}

	registerHandlers(b)
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.Logger.Info("Logged in", zap.String("user", s.State.User.Username))
		if b.health != nil {
			b.health.SetServing(true)
		}
	})
	b.Session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		if b.health != nil {
			b.health.SetServing(false)
		}
	})

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	for _, cmd := range b.Commands {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", cmd); err != nil {
			b.Logger.Error("Cannot create command", zap.String("command", cmd.Name), zap.Error(err))
		}
	}

	scheduler, err := NewScheduler(b.Service, b.Settings, b.Logger)
	if err != nil {
		return err
	}
	b.scheduler = scheduler
	b.scheduler.Start(b.ctx)

	b.Logger.Info("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully closes the bot's session and waits for queued actions.
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.Session != nil {
		b.Session.Close()
	}
	b.cancel()
	b.Queues.Wait()
	if b.health != nil {
		b.health.Stop()
	}
	if err := b.Store.Close(); err != nil {
		b.Logger.Error("Error closing course store", zap.Error(err))
	}
	b.Logger.Info("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(settings models.Settings, courses []models.CourseRegistration, logger *zap.Logger, registerHandlers func(*Bot), commands []*discordgo.ApplicationCommand) error {
	bot, err := NewBot(settings, logger)
	if err != nil {
		return fmt.Errorf("error initializing bot: %w", err)
	}

	bot.RegisterCommands(commands)

	if err := bot.Start(registerHandlers, courses); err != nil {
		bot.Stop()
		return fmt.Errorf("error starting bot: %w", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
	return nil
}
