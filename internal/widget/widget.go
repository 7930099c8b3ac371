// Package widget owns the chat assistant's open/closed state machine,
// the send flow, and the accessibility side effects around both. One
// configurable controller covers what used to be two near-identical
// widget builds, switched by capability flags.
package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/chatclient"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/history"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/offline"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/render"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
)

// State is the widget's top-level state
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// ErrInit is returned when required bindings are missing at construction.
// The widget aborts entirely rather than running partially wired.
var ErrInit = errors.New("widget: required bindings missing")

// Capabilities switches optional widget behavior
type Capabilities struct {
	// Retry enables the client retry policy (wired at client
	// construction; kept here so a surface can report it)
	Retry bool
	// OfflineQueue buffers sends while connectivity is down
	OfflineQueue bool
}

// Config configures a Controller
type Config struct {
	Capabilities   Capabilities
	WelcomeMessage string
	QuickReplies   []string
	// RestoreLimit caps how many restored messages replay into the view
	RestoreLimit int
	// QueuePace is the gap between sends when flushing the offline queue
	QueuePace time.Duration
}

// DefaultConfig returns the court website defaults
func DefaultConfig() Config {
	return Config{
		Capabilities:   Capabilities{Retry: true, OfflineQueue: true},
		WelcomeMessage: "Olá! Sou o assistente virtual da 2ª Vara Cível de Cariacica. Como posso ajudá-lo hoje?",
		QuickReplies: []string{
			"Horário de funcionamento",
			"Localização",
			"Consulta processual",
			"Agendamento",
			"Audiências",
		},
		RestoreLimit: 10,
		QueuePace:    1 * time.Second,
	}
}

// Localized copy for each failure class. Validation errors surface the
// server-provided message instead when one is present.
var errorCopy = map[chatclient.ErrorKind]string{
	chatclient.KindRateLimit:   "Muitas mensagens enviadas. Aguarde um momento antes de tentar novamente.",
	chatclient.KindTimeout:     "Tempo limite excedido. Verifique sua conexão e tente novamente.",
	chatclient.KindServerError: "Erro temporário no servidor. Tente novamente em alguns instantes.",
	chatclient.KindNetwork:     "Erro de conexão. Verifique sua internet e tente novamente.",
}

const fallbackErrorCopy = "Desculpe, ocorreu um erro. Tente novamente ou entre em contato conosco pelo telefone (27) 3246-8200."

const offlineBanner = "Sem conexão com a internet. Mensagens serão enviadas quando a conexão for restabelecida."

// Controller drives one chat widget instance. It is constructed
// explicitly and owns its store exclusively; nothing hangs off a global.
type Controller struct {
	mu     sync.Mutex
	state  State
	typing bool

	surface Surface
	client  *chatclient.Client
	store   *history.Store
	queue   *offline.Queue
	cfg     Config
	log     *logger.Logger
}

// New creates a controller. Missing bindings fail construction; there is
// no partial widget.
func New(surface Surface, client *chatclient.Client, store *history.Store, cfg Config, log *logger.Logger) (*Controller, error) {
	if log == nil {
		log = logger.GetGlobal()
	}
	log = log.WithComponent("widget")

	var missing []string
	if surface == nil {
		missing = append(missing, "surface")
	}
	if client == nil {
		missing = append(missing, "client")
	}
	if store == nil {
		missing = append(missing, "store")
	}
	if len(missing) > 0 {
		log.Error("widget initialization aborted", "missing", missing)
		return nil, fmt.Errorf("%w: %v", ErrInit, missing)
	}

	if cfg.RestoreLimit <= 0 {
		cfg.RestoreLimit = DefaultConfig().RestoreLimit
	}

	c := &Controller{
		state:   StateClosed,
		surface: surface,
		client:  client,
		store:   store,
		cfg:     cfg,
		log:     log,
	}

	if cfg.Capabilities.OfflineQueue {
		c.queue = offline.New(func(ctx context.Context, message string) error {
			return c.exchange(ctx, message)
		}, cfg.QueuePace, log)
	}

	return c, nil
}

// Init restores persisted history into the view and shows the welcome
// message when the transcript is empty. Restored messages replay
// without announcements or animation.
func (c *Controller) Init() {
	c.store.Restore()

	for _, msg := range c.store.Recent(c.cfg.RestoreLimit) {
		c.surface.ReplayMessage(msg, render.Render(msg.Text))
	}

	if c.store.Len() == 0 && c.cfg.WelcomeMessage != "" {
		c.appendBot(c.cfg.WelcomeMessage, history.TypeNormal)
		if len(c.cfg.QuickReplies) > 0 {
			c.surface.ShowQuickReplies(c.cfg.QuickReplies)
		}
	}
}

// State returns the current widget state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Typing reports whether a bot reply is pending
func (c *Controller) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// Open transitions Closed to Open
func (c *Controller) Open() {
	c.mu.Lock()
	if c.state == StateOpen {
		c.mu.Unlock()
		return
	}
	c.state = StateOpen
	c.mu.Unlock()

	c.surface.ShowWindow()
	c.surface.Announce("Assistente virtual aberto")
}

// Close transitions Open to Closed
func (c *Controller) Close() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.mu.Unlock()

	c.surface.HideWindow()
	c.surface.Announce("Assistente virtual fechado")
}

// Toggle flips between Open and Closed
func (c *Controller) Toggle() {
	if c.State() == StateOpen {
		c.Close()
	} else {
		c.Open()
	}
}

// HandleEscape closes an open widget; in Closed it is a no-op
func (c *Controller) HandleEscape() {
	if c.State() == StateOpen {
		c.Close()
	}
}

// HandleOutsideClick closes an open widget
func (c *Controller) HandleOutsideClick() {
	if c.State() == StateOpen {
		c.Close()
	}
}

// SetOnline updates connectivity. Going offline raises a persistent
// banner; coming back online clears it and flushes any queued messages.
func (c *Controller) SetOnline(ctx context.Context, online bool) {
	if online {
		c.surface.HideBanner()
		if c.queue != nil {
			c.queue.SetOnline(ctx, true)
		}
		return
	}

	if c.queue != nil {
		c.queue.SetOnline(ctx, false)
	}
	c.surface.ShowBanner(offlineBanner, true)
}

// Send runs the full send flow for user input: validate, truncate,
// queue when offline, otherwise exchange with the server. Errors are
// rendered as error-typed bot messages; nothing escapes to the caller.
func (c *Controller) Send(ctx context.Context, text string) {
	message, truncated := c.client.Truncate(text)
	if message == "" {
		c.surface.ShowBanner("Digite uma mensagem antes de enviar", false)
		return
	}
	if truncated {
		c.surface.ShowBanner(fmt.Sprintf("Mensagem limitada a %d caracteres", utf8.RuneCountInString(message)), false)
	}

	if c.queue != nil && !c.queue.Online() {
		c.queue.Enqueue(message)
		c.surface.ShowBanner("Sem conexão. Mensagem adicionada à fila para envio posterior.", false)
		return
	}

	_ = c.exchange(ctx, message)
}

// exchange performs one request/reply round trip
func (c *Controller) exchange(ctx context.Context, message string) error {
	userMsg := history.NewMessage(message, history.SenderUser, history.TypeNormal)
	c.store.Append(userMsg)
	c.surface.AppendMessage(userMsg, render.Render(message))

	c.setTyping(true)
	reply, err := c.client.Send(ctx, message)
	c.setTyping(false)

	if err != nil {
		c.log.LogError(err, "chat send failed")
		c.appendBot(userFacingError(err), history.TypeError)
		return err
	}

	c.appendBot(reply.Response, history.TypeNormal)
	c.store.Persist()
	return nil
}

// appendBot adds a bot message to the store and view, announcing it to
// assistive technology
func (c *Controller) appendBot(text string, msgType history.MessageType) {
	msg := history.NewMessage(text, history.SenderBot, msgType)
	c.store.Append(msg)
	c.surface.AppendMessage(msg, render.Render(text))
	c.surface.Announce("Assistente respondeu: " + text)
}

func (c *Controller) setTyping(active bool) {
	c.mu.Lock()
	c.typing = active
	c.mu.Unlock()
	c.surface.SetTyping(active)
}

// ClearHistory drops the transcript and starts over with the welcome
// message
func (c *Controller) ClearHistory() {
	c.store.Clear()
	c.surface.ClearMessages()
	if c.cfg.WelcomeMessage != "" {
		c.appendBot(c.cfg.WelcomeMessage, history.TypeNormal)
		if len(c.cfg.QuickReplies) > 0 {
			c.surface.ShowQuickReplies(c.cfg.QuickReplies)
		}
	}
}

// userFacingError maps a classified failure to localized chat copy
func userFacingError(err error) string {
	var cerr *chatclient.ClientError
	if !errors.As(err, &cerr) {
		return fallbackErrorCopy
	}
	if cerr.Kind == chatclient.KindValidation && cerr.Message != "" {
		return cerr.Message
	}
	if copyText, ok := errorCopy[cerr.Kind]; ok {
		return copyText
	}
	return fallbackErrorCopy
}
