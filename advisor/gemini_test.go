package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/Kamiltczarnik/Lira/apperror"
)

func TestGeminiContents(t *testing.T) {
	system, contents := geminiContents([]Message{
		{Role: RoleSystem, Content: "SYS"},
		{Role: RoleSystem, Content: "Customer: Jane"},
		{Role: RoleAssistant, Content: "Hello Jane!"},
		{Role: RoleUser, Content: "Which card?"},
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "SYS\n\nCustomer: Jane", system.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleModel, contents[0].Role)
	assert.Equal(t, "Hello Jane!", contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleUser, contents[1].Role)
}

func TestGeminiContents_NoSystem(t *testing.T) {
	system, contents := geminiContents([]Message{{Role: RoleUser, Content: "hi"}})
	assert.Nil(t, system)
	assert.Len(t, contents, 1)
}

func TestGeminiCompleter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "Try the savings account."}]}}]}`))
	}))
	defer server.Close()

	completer, err := NewGeminiCompleter(context.Background(), "test-key", server.URL)
	require.NoError(t, err)

	reply, err := completer.Complete(context.Background(), "gemini-2.0-flash", []Message{
		{Role: RoleSystem, Content: "SYS"},
		{Role: RoleUser, Content: "Where should I save?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Try the savings account.", reply)
}

func TestGeminiCompleter_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	completer, err := NewGeminiCompleter(context.Background(), "test-key", server.URL)
	require.NoError(t, err)

	_, err = completer.Complete(context.Background(), "gemini-2.0-flash", []Message{{Role: RoleUser, Content: "hi"}})
	assert.True(t, apperror.IsUpstream(err))
}
