// Package chatclient sends widget messages to the chat API, applying the
// per-request timeout, failure classification, and bounded retry policy.
// It has no side effects beyond the network call; rendering and history
// belong to the caller.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
)

// API paths served by the chat backend
const (
	MessagePath = "/chatbot/api/message"
	AsyncPath   = "/async/chatbot"
)

// maxResponseBody bounds how much of a reply body is read
const maxResponseBody = 1 << 20

// Config configures a Client
type Config struct {
	BaseURL string
	// HTTPClient defaults to a plain http.Client; per-request timeouts
	// come from Timeout, not the client
	HTTPClient *http.Client
	// MaxRetries is the total attempt bound for retryable failures
	MaxRetries int
	// RetryDelay is multiplied by the attempt number, so delays
	// strictly increase
	RetryDelay time.Duration
	// Timeout cancels a single request attempt
	Timeout time.Duration
	// MaxMessageLength truncates longer input before send
	MaxMessageLength int
}

// DefaultConfig returns the widget defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		MaxRetries:       3,
		RetryDelay:       1 * time.Second,
		Timeout:          30 * time.Second,
		MaxMessageLength: 2000,
	}
}

// Reply is a successful chat API response
type Reply struct {
	Response       string  `json:"response"`
	Error          string  `json:"error,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
	Cached         bool    `json:"cached,omitempty"`
	Timestamp      string  `json:"timestamp,omitempty"`
	ConversationID string  `json:"conversation_id,omitempty"`
}

type messageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Client is the chat API client
type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// New creates a chat client
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig("").Timeout
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = DefaultConfig("").MaxMessageLength
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  log.WithComponent("chatclient"),
	}
}

// Truncate trims the message and cuts it to the configured length,
// counted in characters so accented text keeps the full allowance and a
// cut never splits a rune. The second return reports whether content was
// dropped, so the caller can surface a warning.
func (c *Client) Truncate(message string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	if runes := []rune(trimmed); len(runes) > c.cfg.MaxMessageLength {
		return string(runes[:c.cfg.MaxMessageLength]), true
	}
	return trimmed, false
}

// Send posts a message to the chat endpoint and returns the reply
func (c *Client) Send(ctx context.Context, message string) (*Reply, error) {
	return c.post(ctx, MessagePath, message, "")
}

// SendConversation posts to the async endpoint, which threads replies by
// conversation ID
func (c *Client) SendConversation(ctx context.Context, message, conversationID string) (*Reply, error) {
	return c.post(ctx, AsyncPath, message, conversationID)
}

func (c *Client) post(ctx context.Context, path, message, conversationID string) (*Reply, error) {
	message, _ = c.Truncate(message)
	if message == "" {
		return nil, &ClientError{Kind: KindValidation, Message: "Mensagem não pode estar vazia", Attempts: 0}
	}

	payload, err := json.Marshal(messageRequest{Message: message, ConversationID: conversationID})
	if err != nil {
		return nil, &ClientError{Kind: KindValidation, Err: err}
	}

	for attempt := 1; ; attempt++ {
		reply, cerr := c.attempt(ctx, path, payload)
		if cerr == nil {
			return reply, nil
		}
		cerr.Attempts = attempt

		if !cerr.Kind.Retryable() || attempt >= c.cfg.MaxRetries {
			return nil, cerr
		}

		delay := c.cfg.RetryDelay * time.Duration(attempt)
		c.log.Warn("chat send failed, retrying",
			"kind", string(cerr.Kind),
			"attempt", attempt,
			"delay", delay.String(),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			cerr.Kind = KindTimeout
			cerr.Err = ctx.Err()
			return nil, cerr
		}
	}
}

// attempt issues a single request and classifies any failure
func (c *Client) attempt(ctx context.Context, path string, payload []byte) (*Reply, *ClientError) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, &ClientError{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return nil, &ClientError{Kind: KindTimeout, Err: err}
		}
		return nil, &ClientError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &ClientError{Kind: KindNetwork, Err: err}
	}

	var reply Reply
	// Error statuses may carry a non-JSON body; the decode result only
	// matters for the server-provided message
	_ = json.Unmarshal(body, &reply)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ClientError{Kind: KindRateLimit, Message: reply.Error}
	case resp.StatusCode == http.StatusBadRequest:
		msg := reply.Error
		if msg == "" {
			msg = "Dados inválidos"
		}
		return nil, &ClientError{Kind: KindValidation, Message: msg}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &ClientError{Kind: KindServerError, Message: reply.Error}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := reply.Error
		if msg == "" {
			msg = "Erro na comunicação"
		}
		return nil, &ClientError{Kind: KindValidation, Message: msg}
	}

	// A 2xx body with an error field is still a failure
	if reply.Error != "" {
		return nil, &ClientError{Kind: KindValidation, Message: reply.Error}
	}

	return &reply, nil
}
