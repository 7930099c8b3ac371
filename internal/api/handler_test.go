package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/service"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.Config{Level: "error"})
	svc := service.NewChatbotService(nil, nil, nil, nil, service.Options{}, log)
	handler := NewChatbotHandler(svc, nil, 2000, log)

	r := gin.New()
	RegisterChatbotRoutes(r, handler)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessage(t *testing.T) {
	r := newTestRouter(t)
	w := postJSON(t, r, "/chatbot/api/message", `{"message": "qual o telefone?"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["response"], "(27) 3246-8200")
	assert.Contains(t, resp, "processing_time")
	assert.Contains(t, resp, "timestamp")
	assert.Equal(t, false, resp["cached"])
}

func TestSendMessageEmpty(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{`{"message": ""}`, `{"message": "   "}`, `{}`} {
		w := postJSON(t, r, "/chatbot/api/message", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
		assert.Contains(t, w.Body.String(), "Mensagem não pode estar vazia")
		assert.Contains(t, w.Body.String(), "EMPTY_MESSAGE")
	}
}

func TestSendMessageMalformedJSON(t *testing.T) {
	r := newTestRouter(t)
	w := postJSON(t, r, "/chatbot/api/message", `{"message": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Dados inválidos")
}

func TestSendMessageTruncatesLongInput(t *testing.T) {
	r := newTestRouter(t)
	long := strings.Repeat("a", 3000)
	w := postJSON(t, r, "/chatbot/api/message", `{"message": "`+long+`"}`)

	// oversized input is cut, never rejected
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSendConversationMessage(t *testing.T) {
	r := newTestRouter(t)
	w := postJSON(t, r, "/async/chatbot", `{"message": "qual o horário?"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp, "conversation_id")
	assert.NotEmpty(t, resp["conversation_id"])
}

func TestSendConversationMessageThreadsID(t *testing.T) {
	r := newTestRouter(t)
	w := postJSON(t, r, "/async/chatbot", `{"message": "oi", "conversation_id": "conv-42"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "conv-42", resp["conversation_id"])
}
