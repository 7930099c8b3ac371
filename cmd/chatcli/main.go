// Command chatcli runs the court assistant widget against a terminal
// instead of a browser window. It is used for manual testing of the
// resilience behavior (retries, offline queue, history restore) without
// the website in front of it.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/chatclient"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/history"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/render"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/widget"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/cache"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/config"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
)

// terminalSurface renders widget output as plain text lines.
type terminalSurface struct {
	out *bufio.Writer
}

func newTerminalSurface() *terminalSurface {
	return &terminalSurface{out: bufio.NewWriter(os.Stdout)}
}

func (t *terminalSurface) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
	t.out.Flush()
}

func (t *terminalSurface) ShowWindow() { t.printf("--- assistente aberto ---\n") }
func (t *terminalSurface) HideWindow() { t.printf("--- assistente fechado ---\n") }

func (t *terminalSurface) AppendMessage(msg history.ChatMessage, segs []render.Segment) {
	t.printMessage(msg, segs, false)
}

func (t *terminalSurface) ReplayMessage(msg history.ChatMessage, segs []render.Segment) {
	t.printMessage(msg, segs, true)
}

func (t *terminalSurface) printMessage(msg history.ChatMessage, segs []render.Segment, replay bool) {
	prefix := "voce"
	if msg.Sender == history.SenderBot {
		prefix = "bot "
	}
	marker := ""
	if replay {
		marker = " (restaurada)"
	}
	if msg.Type == history.TypeError {
		marker += " [erro]"
	}
	t.printf("[%s]%s %s\n", prefix, marker, render.Plain(segs))
}

func (t *terminalSurface) SetTyping(active bool) {
	if active {
		t.printf("... digitando\n")
	}
}

func (t *terminalSurface) Announce(string) {}

func (t *terminalSurface) ShowBanner(text string, persistent bool) {
	t.printf("!! %s\n", text)
}

func (t *terminalSurface) HideBanner() {}

func (t *terminalSurface) ShowQuickReplies(options []string) {
	t.printf("sugestões: %s\n", strings.Join(options, " | "))
}

func (t *terminalSurface) ClearMessages() { t.printf("--- histórico limpo ---\n") }

func main() {
	cfg := config.New()

	serverURL := flag.String("server", cfg.Server.BaseURL, "chat server base URL")
	stateDir := flag.String("state-dir", defaultStateDir(), "directory for the history snapshot")
	redisAddr := flag.String("redis", cfg.Redis.Addr, "redis address for roaming history (empty keeps the local file)")
	flag.Parse()

	log := logger.New(logger.Config{Level: "warn", JSON: false, Output: os.Stderr})
	ctx := context.Background()

	// Kiosk sessions roam between terminals through Redis; everything
	// else keeps history on the local disk.
	var snap history.Snapshot
	if *redisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, *redisAddr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, keeping history on disk", "error", err)
		} else {
			snap = history.NewRedisSnapshot(redisCache.Client(), "", cfg.Chatbot.HistoryTTL)
		}
	}
	if snap == nil {
		snap = history.NewFileSnapshot(*stateDir)
	}

	surface := newTerminalSurface()
	client := chatclient.New(chatclient.Config{
		BaseURL:          *serverURL,
		MaxRetries:       cfg.Chatbot.MaxRetries,
		RetryDelay:       cfg.Chatbot.RetryDelay,
		Timeout:          cfg.Chatbot.RequestTimeout,
		MaxMessageLength: cfg.Chatbot.MaxMessageLength,
	}, log)
	store := history.NewStore(snap, history.Options{
		Cap: cfg.Chatbot.HistoryCap,
		TTL: cfg.Chatbot.HistoryTTL,
	}, log)

	widgetCfg := widget.DefaultConfig()
	widgetCfg.RestoreLimit = cfg.Chatbot.RestoreLimit
	widgetCfg.QueuePace = cfg.Chatbot.QueuePace

	ctrl, err := widget.New(surface, client, store, widgetCfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start widget:", err)
		os.Exit(1)
	}
	ctrl.Init()
	ctrl.Open()
	fmt.Println(`comandos: /offline /online /clear /toggle /quit — qualquer outra linha é enviada`)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "/quit":
			ctrl.Close()
			return
		case "/offline":
			ctrl.SetOnline(ctx, false)
		case "/online":
			ctrl.SetOnline(ctx, true)
		case "/clear":
			ctrl.ClearHistory()
		case "/toggle":
			ctrl.Toggle()
		default:
			ctrl.Send(ctx, line)
		}
	}
}

func defaultStateDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return dir + "/2vara-chatcli"
}
