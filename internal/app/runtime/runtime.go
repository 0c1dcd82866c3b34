package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"alertBot/internal/app/events"
	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/config"
	sqlitestorage "alertBot/internal/infrastructure/persistence/sqlite"
	twitchinfra "alertBot/internal/infrastructure/platform/twitch"
	"alertBot/internal/infrastructure/rulefile"
	"alertBot/internal/interface/adapters/console"
	twitchadapter "alertBot/internal/interface/adapters/twitch"
	"alertBot/internal/interface/api/httpserver"
	"alertBot/internal/interface/api/webhook"
	ws "alertBot/internal/interface/api/ws"
	"alertBot/internal/interface/outs"
	"alertBot/internal/platform/crash"
	"alertBot/internal/usecase/counters"
	credentialsusecase "alertBot/internal/usecase/credentials"
	"alertBot/internal/usecase/dispatch"
	"alertBot/internal/usecase/handle_message"
	"alertBot/internal/usecase/notifications"
	"alertBot/internal/usecase/nowplaying"
	"alertBot/internal/usecase/policy"
	"alertBot/internal/usecase/raids"
	"alertBot/internal/usecase/rules"
	"alertBot/web"
)

const (
	eventQueueSize  = 256
	writerQueueSize = 64
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	// Console, si no es nil, se lee como chat del operador.
	Console io.Reader
}

type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config

	store       *sqlitestorage.Store
	bus         *events.Bus
	server      *httpserver.Server
	unsubscribe func()

	wg      sync.WaitGroup
	started bool
}

// Start arma todo el grafo y lanza las goroutines. Stop lo desarma.
func Start(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		return nil, fmt.Errorf("runtime: nil config")
	}
	runtimeCtx, cancel := context.WithCancel(ctx)

	loader := rulefile.New(cfg.DataDir)
	if err := loader.EnsureLayout(); err != nil {
		cancel()
		return nil, err
	}

	registry, errs := LoadRegistry(loader, cfg.RuleFilter)
	for _, err := range errs {
		slog.Warn("runtime: skipping rule", "error", err)
	}
	if cfg.RuleFilter != "" {
		slog.Info("runtime: rule filter active", "filter", cfg.RuleFilter)
	}
	slog.Info("runtime: rules loaded", "count", len(registry.Rules()))

	alerts, err := loader.LoadAlerts(notifications.DefaultAlertConfig())
	if err != nil {
		slog.Warn("runtime: notifications file unusable, using defaults", "error", err)
	}

	store, err := sqlitestorage.NewStore(cfg.DBPath())
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	clock := clockwork.NewRealClock()
	pol := policy.New(clock)
	counterStore := counters.NewStore(registry)
	restoreCounters(runtimeCtx, loader, store, counterStore)

	tracker := nowplaying.NewTracker()
	engine := dispatch.NewEngine(dispatch.Config{
		Registry:   registry,
		Policy:     pol,
		Counters:   counterStore,
		Raids:      raids.NewMatcher(registry, pol, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))),
		Classifier: notifications.NewClassifier(alerts.Bits),
		Subs:       alerts.Subs,
		Fallbacks:  []dispatch.Fallback{tracker, rules.NewPingCommand()},
	})

	bus := events.NewBus()
	overlayCh, unsubscribe := bus.Subscribe(events.TopicOverlay)
	hub := ws.NewHub(ws.Config{Images: loader.Images})

	var uc *handle_message.Interactor
	submit := func(ctx context.Context, ev domain.Event) error {
		return uc.Submit(ctx, ev)
	}

	var (
		chat   domain.ChatSender = outs.LogSender{}
		twitch *twitchadapter.Adapter
	)
	if cfg.ChatEnabled() {
		twitch = twitchadapter.NewAdapter(twitchadapter.Config{
			Username:       cfg.TwitchUsername,
			OAuthToken:     formatTwitchOAuthToken(cfg.TwitchToken),
			Channel:        ensureTwitchChannel(cfg.TwitchChannel),
			EmitAlerts:     !cfg.WebhooksEnabled(),
			MessagesPer30s: cfg.ChatRatePer30s,
		}, submit)
		chat = twitch
	} else {
		slog.Warn("runtime: twitch chat disabled, replies go to the log")
	}

	ruleView := rules.NewService(registry)
	writer := outs.NewWriter(writerQueueSize)
	applier := outs.NewApplier(outs.Config{
		Chat:     chat,
		Overlay:  bus,
		Counters: store,
		History:  notifications.NewEventLogger(store),
		Observer: ruleView,
		Writer:   writer,
	})
	uc = handle_message.NewInteractor(engine, applier, handle_message.Options{
		QueueSize:    eventQueueSize,
		CrashLogPath: cfg.CrashLogPath,
	})

	deps := httpserver.Deps{
		Overlay:       hub,
		Rules:         ruleView,
		Notifications: store,
	}
	if cfg.WebhooksEnabled() {
		deps.Webhook = webhook.NewHandler(cfg.WebhookSecret, submit, clock)
	}
	server := httpserver.New(httpserver.Config{
		Addr:      cfg.HTTPAddr,
		AudioDir:  loader.Path(rulefile.AudioDir),
		ImagesDir: loader.Path(rulefile.ImagesDir),
		Page:      web.OverlayPage,
	}, deps)

	run := &Runtime{
		ctx:         runtimeCtx,
		cancel:      cancel,
		cfg:         cfg,
		store:       store,
		bus:         bus,
		server:      server,
		unsubscribe: unsubscribe,
	}

	run.goSafe("writer", func(ctx context.Context) error { writer.Run(ctx); return nil })
	run.goSafe("dispatch", func(ctx context.Context) error { uc.Run(ctx); return nil })
	run.goSafe("overlay hub", func(ctx context.Context) error { hub.Run(ctx, overlayCh); return nil })
	run.goSafe("http", func(context.Context) error { return server.Start() })

	nowPlayingPath := cfg.NowPlayingFile
	if nowPlayingPath == "" {
		nowPlayingPath = loader.Path("foobar.txt")
	}
	poller := nowplaying.NewPoller(nowPlayingPath, cfg.NowPlayingPoll, clock, tracker, applier)
	run.goSafe("nowplaying", func(ctx context.Context) error { poller.Run(ctx); return nil })

	if twitch != nil {
		run.goSafe("twitch", twitch.Start)
	}
	if opts.Console != nil {
		run.goSafe("console", console.NewAdapter(opts.Console, submit).Start)
	}
	if cfg.WebhooksEnabled() {
		run.startEventSub(clock)
	}

	run.started = true
	slog.Info("runtime: started", "http", cfg.HTTPAddr, "channel", cfg.TwitchChannel, "webhooks", cfg.WebhooksEnabled())
	return run, nil
}

func (r *Runtime) startEventSub(clock clockwork.Clock) {
	cfg := r.cfg
	client, err := twitchinfra.NewAppClient(cfg.TwitchClientID, cfg.TwitchClientSecret)
	if err != nil {
		slog.Error("runtime: eventsub disabled", "error", err)
		return
	}

	keeper := credentialsusecase.NewKeeper(client, clock, credentialsusecase.DefaultInterval)
	keeper.RegisterHook(func(ctx context.Context) error {
		broadcasterID := cfg.TwitchBroadcasterID
		if broadcasterID == "" {
			id, err := client.ResolveBroadcasterID(ctx, cfg.TwitchChannel)
			if err != nil {
				return err
			}
			broadcasterID = id
		}
		return client.EnsureSubscriptions(ctx, broadcasterID, cfg.WebhookCallbackURL, cfg.WebhookSecret)
	})
	r.goSafe("credentials", keeper.Run)
}

// goSafe lanza fn en una goroutine vigilada: un panic queda en el crash log.
func (r *Runtime) goSafe(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer crash.Recover(r.cfg.CrashLogPath, name)
		if err := fn(r.ctx); err != nil && r.ctx.Err() == nil {
			slog.Error("runtime: component stopped", "component", name, "error", err)
		}
	}()
}

func (r *Runtime) Stop() error {
	if r == nil || !r.started {
		return nil
	}
	r.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("runtime: http shutdown", "error", err)
	}

	r.wg.Wait()
	r.unsubscribe()
	r.bus.Close()
	r.started = false

	if err := r.store.Close(); err != nil {
		return err
	}
	slog.Info("runtime: stopped")
	return nil
}

func (r *Runtime) Done() <-chan struct{} {
	return r.ctx.Done()
}

func restoreCounters(ctx context.Context, loader *rulefile.Loader, store *sqlitestorage.Store, counterStore *counters.Store) {
	if legacy, ok, err := loader.LoadLegacyCounters(); err != nil {
		slog.Warn("runtime: legacy counters unreadable", "error", err)
	} else if ok {
		imported, err := store.ImportCounters(ctx, legacy)
		if err != nil {
			slog.Warn("runtime: legacy counters import failed", "error", err)
		} else if imported {
			slog.Info("runtime: legacy counters imported", "count", len(legacy))
		}
	}

	snapshot, err := store.LoadCounters(ctx)
	if err != nil {
		slog.Error("runtime: load counters", "error", err)
		return
	}
	restored := counterStore.Restore(snapshot)
	slog.Info("runtime: counters restored", "count", restored)
}

func formatTwitchOAuthToken(token string) string {
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

func ensureTwitchChannel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	return strings.ToLower(value)
}
