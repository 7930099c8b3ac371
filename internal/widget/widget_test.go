package widget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/chatclient"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/history"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/render"
)

// fakeSurface records every call the controller makes
type fakeSurface struct {
	mu            sync.Mutex
	windowVisible bool
	appended      []history.ChatMessage
	replayed      []history.ChatMessage
	typingEvents  []bool
	announcements []string
	banners       []string
	bannerVisible bool
	quickReplies  []string
	cleared       bool
}

func (f *fakeSurface) ShowWindow() { f.mu.Lock(); defer f.mu.Unlock(); f.windowVisible = true }
func (f *fakeSurface) HideWindow() { f.mu.Lock(); defer f.mu.Unlock(); f.windowVisible = false }

func (f *fakeSurface) AppendMessage(msg history.ChatMessage, _ []render.Segment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, msg)
}

func (f *fakeSurface) ReplayMessage(msg history.ChatMessage, _ []render.Segment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replayed = append(f.replayed, msg)
}

func (f *fakeSurface) SetTyping(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typingEvents = append(f.typingEvents, active)
}

func (f *fakeSurface) Announce(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announcements = append(f.announcements, text)
}

func (f *fakeSurface) ShowBanner(text string, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banners = append(f.banners, text)
	f.bannerVisible = true
}

func (f *fakeSurface) HideBanner() { f.mu.Lock(); defer f.mu.Unlock(); f.bannerVisible = false }

func (f *fakeSurface) ShowQuickReplies(options []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quickReplies = options
}

func (f *fakeSurface) ClearMessages() { f.mu.Lock(); defer f.mu.Unlock(); f.cleared = true }

func (f *fakeSurface) lastBanner() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.banners) == 0 {
		return ""
	}
	return f.banners[len(f.banners)-1]
}

// memorySnapshot keeps snapshot bytes in memory
type memorySnapshot struct {
	data []byte
}

func (m *memorySnapshot) Save(data []byte) error { m.data = data; return nil }
func (m *memorySnapshot) Load() ([]byte, error)  { return m.data, nil }
func (m *memorySnapshot) Delete() error          { m.data = nil; return nil }

func newTestController(t *testing.T, serverURL string, cfg Config) (*Controller, *fakeSurface, *history.Store) {
	t.Helper()
	surface := &fakeSurface{}
	clientCfg := chatclient.DefaultConfig(serverURL)
	clientCfg.RetryDelay = time.Millisecond
	client := chatclient.New(clientCfg, nil)
	store := history.NewStore(&memorySnapshot{}, history.DefaultOptions(), nil)

	ctrl, err := New(surface, client, store, cfg, nil)
	require.NoError(t, err)
	return ctrl, surface, store
}

func okServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "` + response + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRejectsMissingBindings(t *testing.T) {
	client := chatclient.New(chatclient.DefaultConfig("http://unused"), nil)
	store := history.NewStore(nil, history.DefaultOptions(), nil)

	_, err := New(nil, client, store, DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInit)

	_, err = New(&fakeSurface{}, nil, store, DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInit)

	_, err = New(&fakeSurface{}, client, nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInit)
}

func TestOpenCloseToggle(t *testing.T) {
	ctrl, surface, _ := newTestController(t, "http://unused", DefaultConfig())
	assert.Equal(t, StateClosed, ctrl.State())

	ctrl.Open()
	assert.Equal(t, StateOpen, ctrl.State())
	assert.True(t, surface.windowVisible)
	assert.Contains(t, surface.announcements, "Assistente virtual aberto")

	ctrl.Toggle()
	assert.Equal(t, StateClosed, ctrl.State())
	assert.False(t, surface.windowVisible)

	ctrl.Toggle()
	assert.Equal(t, StateOpen, ctrl.State())
}

func TestEscapeClosesOnlyWhenOpen(t *testing.T) {
	ctrl, surface, _ := newTestController(t, "http://unused", DefaultConfig())

	// closed: Escape is a no-op, no surface traffic
	ctrl.HandleEscape()
	assert.Equal(t, StateClosed, ctrl.State())
	assert.Empty(t, surface.announcements)

	ctrl.Open()
	ctrl.HandleEscape()
	assert.Equal(t, StateClosed, ctrl.State())
}

func TestOutsideClickCloses(t *testing.T) {
	ctrl, _, _ := newTestController(t, "http://unused", DefaultConfig())
	ctrl.Open()
	ctrl.HandleOutsideClick()
	assert.Equal(t, StateClosed, ctrl.State())
}

func TestInitShowsWelcomeWhenEmpty(t *testing.T) {
	ctrl, surface, _ := newTestController(t, "http://unused", DefaultConfig())
	ctrl.Init()

	require.Len(t, surface.appended, 1)
	assert.Equal(t, history.SenderBot, surface.appended[0].Sender)
	assert.Contains(t, surface.appended[0].Text, "2ª Vara Cível de Cariacica")
	assert.NotEmpty(t, surface.quickReplies)
}

func TestInitReplaysRestoredHistory(t *testing.T) {
	snap := &memorySnapshot{}
	seed := history.NewStore(snap, history.DefaultOptions(), nil)
	for _, text := range []string{"pergunta", "resposta"} {
		seed.Append(history.NewMessage(text, history.SenderUser, history.TypeNormal))
	}
	seed.Persist()

	surface := &fakeSurface{}
	client := chatclient.New(chatclient.DefaultConfig("http://unused"), nil)
	store := history.NewStore(snap, history.DefaultOptions(), nil)
	ctrl, err := New(surface, client, store, DefaultConfig(), nil)
	require.NoError(t, err)

	ctrl.Init()

	// restored messages replay inert: no appends, no announcements
	assert.Len(t, surface.replayed, 2)
	assert.Empty(t, surface.appended)
	assert.Empty(t, surface.announcements)
}

func TestInitRestoreLimit(t *testing.T) {
	snap := &memorySnapshot{}
	seed := history.NewStore(snap, history.DefaultOptions(), nil)
	for i := 0; i < 30; i++ {
		seed.Append(history.NewMessage("m", history.SenderUser, history.TypeNormal))
	}
	seed.Persist()

	surface := &fakeSurface{}
	client := chatclient.New(chatclient.DefaultConfig("http://unused"), nil)
	store := history.NewStore(snap, history.DefaultOptions(), nil)
	cfg := DefaultConfig()
	cfg.RestoreLimit = 10
	ctrl, err := New(surface, client, store, cfg, nil)
	require.NoError(t, err)

	ctrl.Init()
	assert.Len(t, surface.replayed, 10)
}

func TestSendSuccess(t *testing.T) {
	srv := okServer(t, "Claro, posso ajudar.")
	ctrl, surface, store := newTestController(t, srv.URL, DefaultConfig())

	ctrl.Send(context.Background(), "qual o horário?")

	require.Len(t, surface.appended, 2)
	assert.Equal(t, history.SenderUser, surface.appended[0].Sender)
	assert.Equal(t, history.SenderBot, surface.appended[1].Sender)
	assert.Equal(t, "Claro, posso ajudar.", surface.appended[1].Text)
	assert.Equal(t, []bool{true, false}, surface.typingEvents)
	assert.Contains(t, surface.announcements, "Assistente respondeu: Claro, posso ajudar.")
	assert.Equal(t, 2, store.Len())
}

func TestSendEmptyShowsBanner(t *testing.T) {
	ctrl, surface, store := newTestController(t, "http://unused", DefaultConfig())
	ctrl.Send(context.Background(), "   ")
	assert.Equal(t, "Digite uma mensagem antes de enviar", surface.lastBanner())
	assert.Zero(t, store.Len())
}

func TestSendErrorRendersLocalizedCopy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   string
	}{
		{"server error", http.StatusInternalServerError, "Erro temporário no servidor. Tente novamente em alguns instantes."},
		{"rate limit", http.StatusTooManyRequests, "Muitas mensagens enviadas. Aguarde um momento antes de tentar novamente."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			ctrl, surface, _ := newTestController(t, srv.URL, DefaultConfig())
			ctrl.Send(context.Background(), "oi")

			require.Len(t, surface.appended, 2)
			bot := surface.appended[1]
			assert.Equal(t, history.TypeError, bot.Type)
			assert.Equal(t, tc.want, bot.Text)
		})
	}
}

func TestSendValidationSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Dados inválidos"}`))
	}))
	defer srv.Close()

	ctrl, surface, _ := newTestController(t, srv.URL, DefaultConfig())
	ctrl.Send(context.Background(), "oi")

	require.Len(t, surface.appended, 2)
	assert.Equal(t, "Dados inválidos", surface.appended[1].Text)
}

func TestSendWhileOfflineQueues(t *testing.T) {
	ctrl, surface, store := newTestController(t, "http://unused", DefaultConfig())

	ctrl.SetOnline(context.Background(), false)
	ctrl.Send(context.Background(), "mensagem offline")

	assert.Equal(t, "Sem conexão. Mensagem adicionada à fila para envio posterior.", surface.lastBanner())
	assert.Zero(t, store.Len(), "queued message must not hit the transcript yet")
}

func TestOfflineBannerLifecycle(t *testing.T) {
	ctrl, surface, _ := newTestController(t, "http://unused", DefaultConfig())

	ctrl.SetOnline(context.Background(), false)
	assert.True(t, surface.bannerVisible)
	assert.Contains(t, surface.lastBanner(), "Sem conexão com a internet")

	ctrl.SetOnline(context.Background(), true)
	assert.False(t, surface.bannerVisible)
}

func TestReconnectFlushesQueue(t *testing.T) {
	srv := okServer(t, "entregue")
	cfg := DefaultConfig()
	cfg.QueuePace = time.Millisecond
	ctrl, surface, store := newTestController(t, srv.URL, cfg)

	ctrl.SetOnline(context.Background(), false)
	ctrl.Send(context.Background(), "primeira")
	ctrl.Send(context.Background(), "segunda")

	ctrl.SetOnline(context.Background(), true)

	// each queued message produced a user and a bot entry
	assert.Equal(t, 4, store.Len())
	require.GreaterOrEqual(t, len(surface.appended), 4)
	assert.Equal(t, "primeira", surface.appended[0].Text)
	assert.Equal(t, "segunda", surface.appended[2].Text)
}

func TestNoOfflineQueueCapability(t *testing.T) {
	srv := okServer(t, "direto")
	cfg := DefaultConfig()
	cfg.Capabilities.OfflineQueue = false
	ctrl, surface, _ := newTestController(t, srv.URL, cfg)

	// without the queue, offline state only raises the banner and sends
	// go straight to the client
	ctrl.SetOnline(context.Background(), false)
	ctrl.Send(context.Background(), "oi")
	require.Len(t, surface.appended, 2)
	assert.Equal(t, "direto", surface.appended[1].Text)
}

func TestClearHistoryResetsToWelcome(t *testing.T) {
	srv := okServer(t, "resposta")
	ctrl, surface, store := newTestController(t, srv.URL, DefaultConfig())
	ctrl.Send(context.Background(), "oi")
	require.Equal(t, 2, store.Len())

	ctrl.ClearHistory()
	assert.True(t, surface.cleared)
	require.Equal(t, 1, store.Len())
	assert.Contains(t, store.Recent(1)[0].Text, "assistente virtual")
}

func TestUserFacingErrorFallback(t *testing.T) {
	assert.Equal(t, fallbackErrorCopy, userFacingError(assert.AnError))

	err := &chatclient.ClientError{Kind: chatclient.KindValidation}
	assert.Equal(t, fallbackErrorCopy, userFacingError(err))
}
