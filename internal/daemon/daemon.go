// Package daemon wires the snaplink components together and runs the
// two entry points: the Telegram update loop and the snapshot webhook
// server. Both share one session store handle, injected at
// construction rather than reached for as a global.
package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/harun/snaplink/internal/config"
	"github.com/harun/snaplink/internal/link"
	"github.com/harun/snaplink/internal/logger"
	"github.com/harun/snaplink/internal/relay"
	"github.com/harun/snaplink/internal/store"
	"github.com/harun/snaplink/internal/telegram"
	"github.com/harun/snaplink/internal/uploader"
	"github.com/harun/snaplink/pkg/webhook"
)

// Daemon represents the snaplink daemon service
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	// Core modules
	sessions *store.Store
	resolver *uploader.Resolver
	issuer   *link.Issuer
	relay    *relay.Relay

	// Entry points
	telegramBot   *telegram.Bot
	telegramCmd   *telegram.Commands
	photoFlow     *telegram.Photos
	webhookServer *webhook.Server

	lifecycle *LifecycleManager

	wg        sync.WaitGroup
	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// Status is a point-in-time daemon status snapshot
type Status struct {
	Running  bool
	PID      int
	Uptime   time.Duration
	Sessions int64
}

// New creates a new daemon instance and wires all components
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	zlog := log.GetZerolog()

	// Session store, shared by both entry points
	sessions, err := store.Open(cfg.Storage.DBPath, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	resolver := uploader.New(cfg.Host.BaseURL, time.Duration(cfg.Host.UploadTimeout)*time.Second, zlog)
	issuer := link.New(sessions, resolver.Host(), zlog)

	// Telegram bot
	bot, err := telegram.New(&cfg.Telegram, log)
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	commands := telegram.NewCommands(bot)
	media := telegram.NewMedia(bot)
	photos := telegram.NewPhotos(bot, media, resolver, issuer, cfg.Host.UploadDir, zlog)

	bot.SetCommandHandler(commands)
	bot.SetPhotoHandler(photos)

	// Snapshot relay and its HTTP boundary
	snapshotRelay := relay.New(sessions, bot, zlog)

	webhookServer, err := webhook.NewServer(webhook.ServerOptions{
		Host:               cfg.Webhook.Host,
		Port:               cfg.Webhook.Port,
		RateLimitPerMinute: cfg.Webhook.RateLimitPerMinute,
	}, snapshotRelay, zlog.With().Str("component", "webhook").Logger())
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("failed to create webhook server: %w", err)
	}

	d := &Daemon{
		config:        cfg,
		logger:        log,
		sessions:      sessions,
		resolver:      resolver,
		issuer:        issuer,
		relay:         snapshotRelay,
		telegramBot:   bot,
		telegramCmd:   commands,
		photoFlow:     photos,
		webhookServer: webhookServer,
	}
	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

// Start starts both entry points
func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon is already running")
	}

	if err := os.MkdirAll(d.config.Host.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := d.lifecycle.Start(); err != nil {
		return err
	}

	if err := d.telegramBot.Start(); err != nil {
		return fmt.Errorf("failed to start telegram bot: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.webhookServer.Start(); err != nil {
			d.logger.Error().Err(err).Msg("Webhook server stopped unexpectedly")
		}
	}()

	d.startTime = time.Now()
	d.running = true

	d.logger.Info().
		Str("host", d.resolver.Host()).
		Msg("Snaplink daemon started")

	return nil
}

// Stop stops both entry points and closes shared resources
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return fmt.Errorf("daemon is not running")
	}

	d.logger.Info().Msg("Stopping snaplink daemon")

	if err := d.telegramBot.Stop(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to stop telegram bot")
	}

	if err := d.webhookServer.Stop(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to stop webhook server")
	}

	d.wg.Wait()

	if err := d.sessions.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close session store")
	}

	if err := d.lifecycle.Stop(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to stop lifecycle manager")
	}

	d.running = false

	d.logger.Info().Msg("Snaplink daemon stopped")
	return nil
}

// Run starts the daemon and blocks until SIGINT or SIGTERM
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	d.logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	return d.Stop()
}

// IsRunning returns whether the daemon is running
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Uptime returns how long the daemon has been running
func (d *Daemon) Uptime() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return 0
	}
	return time.Since(d.startTime)
}
