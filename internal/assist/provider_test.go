package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"codeberg.org/snonux/flashcards/internal/remote"
)

const chatAnswer = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-4",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "%s"}, "finish_reason": "stop"}]
}`

// fakeOpenAI records chat completion requests and answers with handler
type fakeOpenAI struct {
	server *httptest.Server

	mu      sync.Mutex
	bodies  []map[string]any
	authz   []string
	handler http.HandlerFunc
}

func newFakeOpenAI(t *testing.T, handler http.HandlerFunc) *fakeOpenAI {
	t.Helper()

	f := &fakeOpenAI{handler: handler}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		f.authz = append(f.authz, r.Header.Get("Authorization"))
		f.mu.Unlock()

		f.handler(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOpenAI) lastBody() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[len(f.bodies)-1]
}

func (f *fakeOpenAI) authorizations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.authz...)
}

func (f *fakeOpenAI) provider(t *testing.T) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(&Config{
		Provider:      ProviderOpenAI,
		OpenAIKey:     "sk-test",
		OpenAIBaseURL: f.server.URL + "/v1",
	})
	require.NoError(t, err)
	return p
}

func answerWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, chatAnswer, content)
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	fake := newFakeOpenAI(t, answerWith("こんにちは"))
	p := fake.provider(t)

	answer, err := p.Complete(context.Background(), "say hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "こんにちは", answer)

	body := fake.lastBody()
	assert.Equal(t, DefaultOpenAIModel, body["model"])
	assert.NotContains(t, body, "temperature")

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	message := messages[0].(map[string]any)
	assert.Equal(t, "user", message["role"])
	assert.Equal(t, "say hello", message["content"])

	assert.Equal(t, []string{"Bearer sk-test"}, fake.authorizations())
}

func TestOpenAIProvider_Temperature(t *testing.T) {
	fake := newFakeOpenAI(t, answerWith("ok"))
	p := fake.provider(t)

	_, err := p.Complete(context.Background(), "prompt", Temperature(0.7))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, fake.lastBody()["temperature"], 0.001)

	_, err = p.Complete(context.Background(), "prompt", Temperature(0))
	require.NoError(t, err)
	require.Contains(t, fake.lastBody(), "temperature", "zero must still be sent")
	assert.InDelta(t, 0, fake.lastBody()["temperature"], 0.000001)
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantDecode bool
	}{
		{
			name: "API error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
			},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "plain text error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id": "x", "choices": []}`))
			},
			wantDecode: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeOpenAI(t, tt.handler)
			p := fake.provider(t)

			_, err := p.Complete(context.Background(), "prompt", nil)
			require.Error(t, err)

			if tt.wantDecode {
				assert.True(t, remote.IsDecode(err))
				return
			}
			code, ok := remote.StatusCode(err)
			assert.True(t, ok)
			assert.Equal(t, tt.wantStatus, code)
		})
	}
}

func TestOpenAIProvider_NetworkError(t *testing.T) {
	fake := newFakeOpenAI(t, answerWith("ok"))
	p := fake.provider(t)
	fake.server.Close()

	_, err := p.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.True(t, remote.IsNetwork(err))
}

func TestOpenAIProvider_MapDecodeError(t *testing.T) {
	p := &OpenAIProvider{}
	jsonErr := json.Unmarshal([]byte("{"), &map[string]any{})
	require.Error(t, jsonErr)

	err := p.mapError(fmt.Errorf("decode: %w", jsonErr))
	assert.True(t, remote.IsDecode(err))
}

func TestMapGeminiError(t *testing.T) {
	err := mapGeminiError(ProviderGemini, fmt.Errorf("call: %w", genai.APIError{Code: 429, Message: "quota exceeded"}))
	code, ok := remote.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, 429, code)

	err = mapGeminiError(ProviderGemini, fmt.Errorf("dial tcp: connection refused"))
	assert.True(t, remote.IsNetwork(err))
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "openai",
			config:   &Config{Provider: ProviderOpenAI, OpenAIKey: "sk-test"},
			wantName: ProviderOpenAI,
		},
		{
			name:     "empty provider is openai",
			config:   &Config{OpenAIKey: "sk-test"},
			wantName: ProviderOpenAI,
		},
		{
			name:    "openai without key",
			config:  &Config{Provider: ProviderOpenAI},
			wantErr: true,
		},
		{
			name:    "nil config has no key",
			config:  nil,
			wantErr: true,
		},
		{
			name:    "gemini without key",
			config:  &Config{Provider: ProviderGemini},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			config:  &Config{Provider: "eliza", OpenAIKey: "sk-test"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.NoError(t, p.IsAvailable())
		})
	}
}
