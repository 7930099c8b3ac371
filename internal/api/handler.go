package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/service"
	apperrors "github.com/fbmoulin/2avaracivel-cariacica-website/pkg/errors"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/observability"
)

// ChatbotHandler serves the chat endpoints consumed by the site widget.
type ChatbotHandler struct {
	service   *service.ChatbotService
	metrics   *observability.ChatMetrics
	maxLength int
	log       *logger.Logger
}

func NewChatbotHandler(svc *service.ChatbotService, metrics *observability.ChatMetrics, maxLength int, log *logger.Logger) *ChatbotHandler {
	if maxLength <= 0 {
		maxLength = 2000
	}
	return &ChatbotHandler{
		service:   svc,
		metrics:   metrics,
		maxLength: maxLength,
		log:       log.WithComponent("chatbot_handler"),
	}
}

type messageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// SendMessage handles the widget's primary endpoint. The response shape
// is stable: the widget reads "response" on success and "error" on any
// failure status.
func (h *ChatbotHandler) SendMessage(c *gin.Context) {
	req, ok := h.bindMessage(c)
	if !ok {
		return
	}

	result := h.service.Reply(c.Request.Context(), req.Message)
	h.recordCacheHit(c, result)

	c.JSON(http.StatusOK, gin.H{
		"response":        result.Response,
		"processing_time": result.ProcessingTime.Seconds(),
		"cached":          result.Cached,
		"timestamp":       result.Timestamp.UTC().Format(time.RFC3339),
	})
}

// SendConversationMessage is the conversation-aware variant. A missing
// conversation_id starts a new conversation; the id is echoed back so
// the widget can thread its next message.
func (h *ChatbotHandler) SendConversationMessage(c *gin.Context) {
	req, ok := h.bindMessage(c)
	if !ok {
		return
	}

	result := h.service.ReplyConversation(c.Request.Context(), req.Message, req.ConversationID)
	h.recordCacheHit(c, result)

	c.JSON(http.StatusOK, gin.H{
		"response":        result.Response,
		"processing_time": result.ProcessingTime.Seconds(),
		"cached":          result.Cached,
		"timestamp":       result.Timestamp.UTC().Format(time.RFC3339),
		"conversation_id": result.ConversationID,
	})
}

func (h *ChatbotHandler) bindMessage(c *gin.Context) (messageRequest, bool) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_PAYLOAD", "Dados inválidos"))
		c.Abort()
		return req, false
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		c.Error(apperrors.NewBadRequestError("EMPTY_MESSAGE", "Mensagem não pode estar vazia"))
		c.Abort()
		return req, false
	}
	if runes := []rune(req.Message); len(runes) > h.maxLength {
		// the widget truncates before sending; anything longer is cut
		// here as well rather than rejected
		req.Message = string(runes[:h.maxLength])
	}
	return req, true
}

func (h *ChatbotHandler) recordCacheHit(c *gin.Context, result service.Result) {
	if h.metrics != nil && result.Cached {
		h.metrics.CacheHit.Add(c.Request.Context(), 1)
	}
}
