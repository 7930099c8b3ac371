package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithConversationID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	log.WithConversationID("conv-7").Info("exchange stored")

	assert.Contains(t, buf.String(), `"conversation_id":"conv-7"`)
	assert.Contains(t, buf.String(), "exchange stored")
}

func TestWithRequestIDAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	log.WithRequestID("req-1").WithComponent("chatbot_handler").Info("handled")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"component":"chatbot_handler"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", JSON: true, Output: &buf})

	log.Info("quiet")
	log.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
