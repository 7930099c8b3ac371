package errors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	appErr := NewBadRequestError("EMPTY_MESSAGE", "Mensagem não pode estar vazia")
	assert.Same(t, appErr, FromError(appErr))

	wrapped := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
	assert.Equal(t, "SERVER_ERROR", wrapped.Code)
}

func TestIs(t *testing.T) {
	err := NewBadRequestError("EMPTY_MESSAGE", "Mensagem não pode estar vazia")
	assert.True(t, Is(err, NewBadRequestError("EMPTY_MESSAGE", "other text")))
	assert.False(t, Is(err, NewBadRequestError("INVALID_PAYLOAD", "x")))
	assert.False(t, Is(errors.New("plain"), err))
}

func TestErrorHandlerRendersFlatBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/fail", func(c *gin.Context) {
		c.Error(NewBadRequestError("EMPTY_MESSAGE", "Mensagem não pode estar vazia"))
		c.Abort()
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/fail", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "Mensagem não pode estar vazia", "code": "EMPTY_MESSAGE"}`, w.Body.String())
}

func TestRecoveryRespondsWithServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.POST("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Erro interno do servidor")
}
