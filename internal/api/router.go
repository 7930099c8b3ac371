package api

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/fbmoulin/2avaracivel-cariacica-website/pkg/errors"
)

// RegisterChatbotRoutes wires the chat endpoints. The extra middleware
// (rate limiting, metrics) applies only to the chat group so health and
// scrape endpoints stay unthrottled. The error formatter lives on the
// group too: handlers report failures through c.Error and it renders
// the flat {"error", "code"} body the widget consumes.
func RegisterChatbotRoutes(r *gin.Engine, handler *ChatbotHandler, middleware ...gin.HandlerFunc) {
	chat := r.Group("/")
	chat.Use(apperrors.ErrorHandler())
	chat.Use(middleware...)
	{
		chat.POST("/chatbot/api/message", handler.SendMessage)
		chat.POST("/async/chatbot", handler.SendConversationMessage)
	}
}
