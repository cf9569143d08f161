package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elifsite/internal/logger"
	"elifsite/internal/observability"
	"elifsite/internal/pricing"
)

// fakeModel emulates the chat completions endpoint of an OpenAI-compatible API.
type fakeModel struct {
	calls   atomic.Int32
	lastReq atomic.Pointer[openai.ChatCompletionRequest]
	handle  func(w http.ResponseWriter, req openai.ChatCompletionRequest)
}

func (f *fakeModel) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.calls.Add(1)
		f.lastReq.Store(&req)
		f.handle(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:     "cmpl-1",
		Object: "chat.completion",
		Model:  "gemini-2.5-flash",
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
	}
}

func replyWith(resp openai.ChatCompletionResponse) func(http.ResponseWriter, openai.ChatCompletionRequest) {
	return func(w http.ResponseWriter, _ openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestAdvisor(t *testing.T, srv *httptest.Server, timeout time.Duration) (*Advisor, *observability.Metrics) {
	t.Helper()
	instruction, err := SystemInstruction(pricing.Default())
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	client := NewOpenAIClient("test-key", srv.URL+"/v1/")
	return NewAdvisor(client, AdvisorConfig{
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		Timeout:     timeout,
		Instruction: instruction,
	}, logger.Test(t), metrics), metrics
}

func TestAdvisorSendsInstructionAndQuestion(t *testing.T) {
	fm := &fakeModel{handle: replyWith(completion("Starter Level 1 is $185 per term."))}
	advisor, metrics := newTestAdvisor(t, fm.server(t), 0)

	got := advisor.Reply(context.Background(), "How much is Starter 1?")
	assert.Equal(t, "Starter Level 1 is $185 per term.", got)

	require.EqualValues(t, 1, fm.calls.Load())
	req := fm.lastReq.Load()
	assert.Equal(t, "gemini-2.5-flash", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, `"name": "Starter"`)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, "How much is Starter 1?", req.Messages[1].Content)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AdvisorReplies.WithLabelValues("ok")))
}

func TestAdvisorFallsBackOnServiceError(t *testing.T) {
	fm := &fakeModel{handle: func(w http.ResponseWriter, _ openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"API key not valid","type":"invalid_request_error"}}`))
	}}
	advisor, metrics := newTestAdvisor(t, fm.server(t), 0)

	assert.Equal(t, FallbackError, advisor.Reply(context.Background(), "hello"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AdvisorReplies.WithLabelValues("error")))
}

func TestAdvisorFallsBackOnMalformedResponse(t *testing.T) {
	fm := &fakeModel{handle: func(w http.ResponseWriter, _ openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [`))
	}}
	advisor, _ := newTestAdvisor(t, fm.server(t), 0)

	assert.Equal(t, FallbackError, advisor.Reply(context.Background(), "hello"))
}

func TestAdvisorFallsBackOnUnreachableService(t *testing.T) {
	fm := &fakeModel{handle: replyWith(completion("unused"))}
	srv := fm.server(t)
	advisor, _ := newTestAdvisor(t, srv, 0)
	srv.Close()

	assert.Equal(t, FallbackError, advisor.Reply(context.Background(), "hello"))
}

func TestAdvisorEmptyText(t *testing.T) {
	cases := map[string]openai.ChatCompletionResponse{
		"no choices":    {ID: "cmpl-2", Object: "chat.completion"},
		"empty content": completion(""),
		"blank content": completion("  \n "),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			fm := &fakeModel{handle: replyWith(resp)}
			advisor, metrics := newTestAdvisor(t, fm.server(t), 0)

			assert.Equal(t, FallbackEmpty, advisor.Reply(context.Background(), "hello"))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AdvisorReplies.WithLabelValues("empty")))
		})
	}
}

func TestAdvisorTimeout(t *testing.T) {
	release := make(chan struct{})
	fm := &fakeModel{handle: func(w http.ResponseWriter, _ openai.ChatCompletionRequest) {
		<-release
	}}
	srv := fm.server(t)
	// runs before srv.Close, which waits for the blocked handler
	t.Cleanup(func() { close(release) })
	advisor, _ := newTestAdvisor(t, srv, 50*time.Millisecond)

	start := time.Now()
	assert.Equal(t, FallbackError, advisor.Reply(context.Background(), "hello"))
	assert.Less(t, time.Since(start), 5*time.Second)
}
