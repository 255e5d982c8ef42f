package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	dswatchconfig "github.com/dswatch/dswatch/internal/config"
	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/lang"
	"github.com/dswatch/dswatch/internal/logutils"
	"github.com/dswatch/dswatch/internal/notify"
	"github.com/dswatch/dswatch/internal/poller"
	"github.com/dswatch/dswatch/internal/settings"
	"github.com/dswatch/dswatch/internal/statecache"
	"github.com/dswatch/dswatch/internal/submit"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	dest := flag.String("dest", "", "destination folder for added downloads")
	pauseIDs := flag.String("pause", "", "comma-separated task ids to pause")
	resumeIDs := flag.String("resume", "", "comma-separated task ids to resume")
	deleteIDs := flag.String("delete", "", "comma-separated task ids to delete")
	flag.Parse()

	config, err := dswatchconfig.NewConfig()
	if err != nil {
		logutils.Log.WithError(err).Fatal("Failed to initialize configuration")
	}

	logutils.InitLogger(config.LogLevel)
	logutils.Log.WithFields(map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
	}).Info("Starting dswatch")

	lang.SetupLang(config.Lang)

	if mkdirErr := os.MkdirAll(config.StateDir, 0o755); mkdirErr != nil {
		logutils.Log.WithError(mkdirErr).Fatal("Failed to create state directory")
	}

	cache, err := statecache.Open(config.StateDir)
	if err != nil {
		logutils.Log.WithError(err).Fatal("Failed to initialize the state cache")
	}

	settingsStore := settings.NewStore(config.SettingsPath)
	client := newClientHolder(settingsStore.Get().Connection)

	var sink notify.Notifier = notify.LogNotifier{}
	if config.TelegramEnabled() {
		telegram, tgErr := notify.NewTelegramNotifier(config.TelegramSettings.BotToken, config.TelegramSettings.ChatID)
		if tgErr != nil {
			logutils.Log.WithError(tgErr).Fatal("Telegram notifier initialization failed")
		}
		sink = telegram
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := notify.NewEngine(sink, notify.LogBadge{}, settingsStore.Get, func() {
		poller.PollTasks(ctx, client, cache)
	})
	cache.Subscribe(engine.HandleChange)
	settingsStore.Subscribe(func(s settings.Settings) {
		client.Reconfigure(s.Connection)
		engine.HandleChange(cache.Get())
	})

	feedback := notify.Gated(sink, func() bool {
		return settingsStore.Get().Notifications.EnableFeedbackNotifications
	})
	submitter := submit.NewSubmitter(client, feedback, func(ctx context.Context) {
		poller.PollTasks(ctx, client, cache)
	})

	oneShot := false
	if ids := splitIDs(*pauseIDs); len(ids) > 0 {
		reportControl("pause", poller.PauseTasks(ctx, client, cache, ids))
		oneShot = true
	}
	if ids := splitIDs(*resumeIDs); len(ids) > 0 {
		reportControl("resume", poller.ResumeTasks(ctx, client, cache, ids))
		oneShot = true
	}
	if ids := splitIDs(*deleteIDs); len(ids) > 0 {
		reportControl("delete", poller.DeleteTasks(ctx, client, cache, ids))
		oneShot = true
	}
	if urls := flag.Args(); len(urls) > 0 {
		submitter.Submit(ctx, urls, *dest)
		oneShot = true
	}
	if oneShot {
		client.Logout(ctx)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	poller.PollTasks(ctx, client, cache)
	logutils.Log.Info("dswatch started successfully")

	<-sigChan
	logutils.Log.Info("Received shutdown signal, starting graceful shutdown...")

	cancel()
	engine.Stop()
	client.Logout(context.Background())

	logutils.Log.Info("dswatch shutdown complete")
}

// splitIDs turns a comma-separated flag value into task ids, dropping empty
// segments.
func splitIDs(value string) []string {
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func reportControl(action string, res dsclient.Result[dsclient.Void]) {
	switch {
	case res.Failure != nil:
		logutils.Log.WithError(res.Failure.Err).Errorf("Task %s failed: %s", action, res.Failure.Message())
	case !res.Response.Success:
		logutils.Log.WithField("code", res.Response.Error.Code).Errorf("Task %s rejected: %s", action, dsclient.ErrorMessage(res.Response.Error.Code))
	default:
		logutils.Log.Infof("Task %s completed", action)
	}
}

// clientHolder swaps the underlying API client when connection settings
// change, so long-lived components keep a stable reference.
type clientHolder struct {
	mu       sync.Mutex
	settings settings.Connection
	client   *dsclient.Client
}

func newClientHolder(conn settings.Connection) *clientHolder {
	return &clientHolder{
		settings: conn,
		client:   dsclient.New(connectionSettings(conn)),
	}
}

func connectionSettings(conn settings.Connection) dsclient.ConnectionSettings {
	return dsclient.ConnectionSettings{
		Host:     conn.Host,
		Username: conn.Username,
		Password: conn.Password,
	}
}

func (h *clientHolder) Reconfigure(conn settings.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settings == conn {
		return
	}
	logutils.Log.Info("Connection settings changed, rebuilding API client")
	old := h.client
	h.settings = conn
	h.client = dsclient.New(connectionSettings(conn))
	// Best-effort teardown of the replaced session; the server would expire
	// it eventually anyway.
	go old.Logout(context.Background())
}

func (h *clientHolder) current() *dsclient.Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client
}

func (h *clientHolder) ListTasks(ctx context.Context, opts dsclient.ListOptions) dsclient.Result[dsclient.TaskList] {
	return h.current().ListTasks(ctx, opts)
}

func (h *clientHolder) CreateTasks(ctx context.Context, req dsclient.CreateRequest) dsclient.Result[dsclient.Void] {
	return h.current().CreateTasks(ctx, req)
}

func (h *clientHolder) PauseTasks(ctx context.Context, ids []string) dsclient.Result[dsclient.Void] {
	return h.current().PauseTasks(ctx, ids)
}

func (h *clientHolder) ResumeTasks(ctx context.Context, ids []string) dsclient.Result[dsclient.Void] {
	return h.current().ResumeTasks(ctx, ids)
}

func (h *clientHolder) DeleteTasks(ctx context.Context, ids []string) dsclient.Result[dsclient.Void] {
	return h.current().DeleteTasks(ctx, ids)
}

func (h *clientHolder) Logout(ctx context.Context) {
	h.current().Logout(ctx)
}
