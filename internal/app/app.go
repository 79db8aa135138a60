package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/config"
	"github.com/five82/bufeadmin/internal/notify"
	"github.com/five82/bufeadmin/internal/prefs"
	"github.com/five82/bufeadmin/internal/realtime"
	"github.com/five82/bufeadmin/internal/state"
	"github.com/five82/bufeadmin/internal/ui"
)

// Options configure the bufeadmin application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/bufeadmin/prefs.toml
	Screen     string // initial screen: orders, menu, hours or log
	Headless   bool   // log reconciliation to the console instead of the TUI
}

// Controller owns everything one console session needs: the REST client,
// the mirrored store, the realtime channel and the notifier.
type Controller struct {
	ID     string
	Config config.Config
	Client *bufe.Client
	Store  *state.Store
	Conn   *realtime.Manager
	Player *notify.Player
	Logger *slog.Logger
}

// NewController wires a Controller from cfg. Nothing connects until the
// channel's Run is called.
func NewController(cfg config.Config, logger *slog.Logger) (*Controller, error) {
	id := uuid.NewString()
	logger = logger.With("client_id", id)

	client, err := bufe.NewClient(bufe.Options{
		BaseURL:   cfg.BaseURL,
		SessionID: cfg.SessionID,
		CSRFToken: cfg.CSRFToken,
		UserAgent: "bufeadmin/0.1 (" + id + ")",
	})
	if err != nil {
		return nil, fmt.Errorf("init bufe client: %w", err)
	}

	conn, err := realtime.NewManager(realtime.Options{
		URL:    client.WebSocketURL(cfg.WSPath),
		Origin: origin(client.BaseURL()),
		Jar:    client.Jar(),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init realtime channel: %w", err)
	}

	return &Controller{
		ID:     id,
		Config: cfg,
		Client: client,
		Store:  &state.Store{},
		Conn:   conn,
		Player: notify.New(notify.Options{
			SoundFile: cfg.SoundFile,
			Command:   cfg.SoundCommand,
			Logger:    logger,
		}),
		Logger: logger,
	}, nil
}

// Load fetches the full REST snapshot into the store. Failures are recorded
// on the store and returned; the console keeps running without data.
func (c *Controller) Load(ctx context.Context) error {
	loaded, err := state.Fetch(ctx, c.Client)
	if err != nil {
		c.Store.RecordLoadError(err)
		c.Logger.Warn("initial load failed", "error", err)
		return err
	}
	c.Store.Install(loaded)
	c.Logger.Info("initial load complete",
		"orders", len(loaded.Orders),
		"products", len(loaded.Products),
		"opening_hours", len(loaded.Hours.Hours))
	return nil
}

// Run boots the console until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	logger, closeLog, err := newLogger(cfg, opts.Headless)
	if err != nil {
		return err
	}
	defer closeLog()

	ctrl, err := NewController(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Populate the store before the first frame arrives. Load records its
	// failure on the store, where the header shows it.
	ctrl.Load(ctx)

	connDone := make(chan error, 1)
	go func() { connDone <- ctrl.Conn.Run(ctx) }()

	if opts.Headless {
		err = ctrl.runHeadless(ctx)
	} else {
		err = ui.Run(ui.Options{
			Context:   ctx,
			API:       ctrl.Client,
			Store:     ctrl.Store,
			Conn:      ctrl.Conn,
			Player:    ctrl.Player,
			Logger:    logger,
			LogFile:   cfg.LogFile,
			ThemeName: userPrefs.Theme,
			Filter:    userPrefs.OrderFilter,
			PrefsPath: opts.PrefsPath,
			Screen:    opts.Screen,
		})
	}

	cancel()
	if connErr := <-connDone; err == nil {
		err = connErr
	}
	return err
}

// origin is scheme://host of the backend, sent with the realtime handshake.
func origin(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}
