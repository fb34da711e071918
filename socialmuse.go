// Package socialmuse turns one campaign idea into LinkedIn, Twitter, and
// Instagram drafts with a generative text model, renders a matching visual
// per post with an image model, and keeps every campaign in the browser's
// workspace.
//
// Users provide the HTML through the ViewFuncs struct; socialmuse owns the
// handlers, middleware, storage, and model calls.
package socialmuse

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Page is the view model of every full page.
type Page struct {
	SiteName  string
	State     AppState
	CSRFToken string
	HasKey    bool

	// AuthMode is "signin" or "signup" when the auth form should be open.
	AuthMode  string
	AuthError string
}

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Home           func(p Page) templ.Component
	History        func(p Page) templ.Component
	KeyRequired    func(p Page) templ.Component
	PostImage      func(campaignID string, platform Platform, uri string) templ.Component
	PostImageError func(campaignID string, platform Platform, message string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central SocialMuse application. It wires together the store,
// model clients, workspaces, handlers, and middleware.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	KV         KV
	Logger     *zap.Logger
	Views      ViewFuncs
	Workspaces *Workspaces
	Clients    *ClientCache

	models   ModelSource
	drafter  *CampaignGenerator
	images   *ImageGenerator
	limiter  *LoginLimiter
	initOnce sync.Once
	initErr  error
	stop     chan struct{}
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
		stop:   make(chan struct{}),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	return a
}

// Init opens the store, builds the generators, and registers middleware and
// routes. Start calls it; tests and the offline commands call it directly.
func (a *App) Init(ctx context.Context) error {
	a.initOnce.Do(func() {
		a.initErr = a.init(ctx)
	})
	return a.initErr
}

func (a *App) init(ctx context.Context) error {
	if a.KV == nil {
		kv, err := OpenKV(ctx, a.Config)
		if err != nil {
			return fmt.Errorf("socialmuse: open store: %w", err)
		}
		a.KV = kv
	}

	if a.models == nil {
		a.Clients = NewClientCache(a.Config.ModelClientTTL)
		a.models = a.Clients
	}
	a.drafter = NewCampaignGenerator(a.models, a.Config.TextModel)
	a.images = NewImageGenerator(a.models, a.Config.ImageModel, a.Config.ImageMaxWidth)
	a.limiter = NewLoginLimiter(5, time.Minute)
	a.Workspaces = NewWorkspaces(a.newWorkspace)

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// OpenKV opens the KV selected by cfg.StoreDriver.
func OpenKV(ctx context.Context, cfg SiteConfig) (KV, error) {
	switch cfg.StoreDriver {
	case DriverSQLite, "":
		return NewSQLiteKV(cfg.DatabasePath)
	case DriverRedis:
		return NewRedisKV(ctx, cfg.RedisURL, "socialmuse:")
	case DriverMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (a *App) newWorkspace(id string) *Workspace {
	return NewWorkspace(id, WorkspaceDeps{
		Store:       NewStore(a.KV, id),
		Gate:        NewKeyGate(a.KV, id, a.Config.GeminiAPIKey),
		Drafter:     a.drafter,
		Images:      a.images,
		Logger:      a.Logger,
		KeyRejected: a.keyRejected,
	})
}

func (a *App) keyRejected(apiKey string) {
	if a.Clients != nil {
		a.Clients.Invalidate(apiKey)
	}
}

// Start initializes the app, starts the background janitor, and serves HTTP
// until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("socialmuse: SessionSecret is required")
	}
	if err := a.Init(ctx); err != nil {
		return err
	}
	go a.janitor(time.Minute)

	a.Logger.Info("starting server",
		zap.String("addr", a.Config.Addr),
		zap.String("store", a.Config.StoreDriver))
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// janitor periodically drops idle workspaces, genai clients, and expired
// sign-in attempts.
func (a *App) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.limiter.Prune()
			evicted := a.Workspaces.Evict(a.Config.WorkspaceIdle)
			pruned := 0
			if a.Clients != nil {
				pruned = a.Clients.Prune()
			}
			if evicted > 0 || pruned > 0 {
				a.Logger.Debug("janitor",
					zap.Int("workspaces_evicted", evicted),
					zap.Int("clients_pruned", pruned))
			}
		}
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	assetHandler := http.FileServer(http.FS(assets))
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", assetHandler)))

	e.GET("/", a.handleHome)
	e.GET("/history/", a.handleHistory)
	e.POST("/campaigns/", a.handleGenerate)
	e.GET("/campaigns/:id/", a.handleSelect)
	e.POST("/campaigns/:id/delete/", a.handleDelete)
	e.GET("/campaigns/:id/posts/:platform/image/", a.handleImage)
	e.GET("/export/", a.handleExport)

	e.POST("/auth/signup/", a.handleSignUp)
	e.POST("/auth/signin/", a.handleSignIn)
	e.POST("/auth/signout/", a.handleSignOut)
	e.POST("/key/", a.handleSelectKey)
}

// Shutdown stops the janitor, drains the HTTP server, and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	err := a.Echo.Shutdown(ctx)
	if a.KV != nil {
		if cerr := a.KV.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
