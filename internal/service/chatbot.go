package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/models"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/repository"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/resilience"
)

// Result is what the chatbot produces for a single message.
type Result struct {
	Response       string
	Cached         bool
	ProcessingTime time.Duration
	ConversationID string
	Timestamp      time.Time
}

// Options tunes the service; zero values get sensible defaults.
type Options struct {
	// ContextMessages caps how many prior exchanges are sent to the
	// upstream assistant as conversation context.
	ContextMessages int
}

// ChatbotService answers citizen questions. Resolution order: response
// cache, predefined knowledge base, upstream assistant (behind a circuit
// breaker), and finally the default guidance message. The service never
// returns an error for a well-formed message; degraded dependencies only
// narrow which answers it can give.
type ChatbotService struct {
	cache     ResponseCache
	assistant *AssistantClient
	breaker   *resilience.CircuitBreaker
	repo      repository.ChatRepository
	opts      Options
	log       *logger.Logger
}

func NewChatbotService(cache ResponseCache, assistant *AssistantClient, breaker *resilience.CircuitBreaker, repo repository.ChatRepository, opts Options, log *logger.Logger) *ChatbotService {
	if opts.ContextMessages <= 0 {
		opts.ContextMessages = 10
	}
	return &ChatbotService{
		cache:     cache,
		assistant: assistant,
		breaker:   breaker,
		repo:      repo,
		opts:      opts,
		log:       log.WithComponent("chatbot_service"),
	}
}

// Reply answers a message outside of any conversation.
func (s *ChatbotService) Reply(ctx context.Context, message string) Result {
	return s.reply(ctx, message, "", false)
}

// ReplyConversation answers a message within a conversation, creating a
// new conversation id when none is given. Prior exchanges are replayed
// to the upstream assistant and the new exchange is persisted.
func (s *ChatbotService) ReplyConversation(ctx context.Context, message, conversationID string) Result {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	return s.reply(ctx, message, conversationID, true)
}

func (s *ChatbotService) reply(ctx context.Context, message, conversationID string, persist bool) Result {
	start := time.Now()
	result := Result{ConversationID: conversationID, Timestamp: start}

	log := s.log
	if conversationID != "" {
		log = log.WithConversationID(conversationID)
	}

	key := cacheKey(message)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			result.Response = cached
			result.Cached = true
			result.ProcessingTime = time.Since(start)
			return result
		}
	}

	response := knowledgeBaseAnswer(message)
	if response == "" {
		response = s.askAssistant(ctx, message, conversationID)
	}
	if response == "" {
		response = defaultResponse
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, response)
	}
	if persist && s.repo != nil {
		record := &models.ChatRecord{
			ConversationID: conversationID,
			Message:        message,
			Response:       response,
			Timestamp:      start,
		}
		if err := s.repo.Create(record); err != nil {
			log.Warn("failed to persist exchange", "error", err)
		}
	}

	result.Response = response
	result.ProcessingTime = time.Since(start)
	return result
}

// askAssistant consults the upstream assistant through the circuit
// breaker. Any failure yields an empty string so the caller falls back
// to the default response.
func (s *ChatbotService) askAssistant(ctx context.Context, message, conversationID string) string {
	if s.assistant == nil || !s.assistant.Enabled() {
		return ""
	}

	log := s.log
	if conversationID != "" {
		log = log.WithConversationID(conversationID)
	}

	var history []assistantExchange
	if conversationID != "" && s.repo != nil {
		records, err := s.repo.RecentByConversation(conversationID, s.opts.ContextMessages)
		if err != nil {
			log.Warn("failed to load conversation context", "error", err)
		} else {
			for _, r := range records {
				history = append(history, assistantExchange{Message: r.Message, Response: r.Response})
			}
		}
	}

	var response string
	call := func() error {
		var genErr error
		response, genErr = s.assistant.Generate(ctx, message, history)
		return genErr
	}
	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		log.Warn("assistant unavailable, using default response", "error", err)
		return ""
	}
	return response
}
