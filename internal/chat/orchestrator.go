package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"elifsite/internal/logger"
	"elifsite/internal/observability"
)

// Completer is the part of *openai.Client the advisor calls.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds the client for an OpenAI-compatible endpoint.
// An empty key is accepted; calls then fail and the advisor falls back.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

type AdvisorConfig struct {
	Model       string
	Temperature float32
	// Timeout bounds one generation call; zero means no limit.
	Timeout     time.Duration
	Instruction string
}

// Advisor turns one user question into one answer. It never returns an
// error: failures become fixed fallback texts.
type Advisor struct {
	client  Completer
	cfg     AdvisorConfig
	log     logger.Logger
	metrics *observability.Metrics
}

func NewAdvisor(client Completer, cfg AdvisorConfig, lggr logger.Logger, metrics *observability.Metrics) *Advisor {
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &Advisor{
		client:  client,
		cfg:     cfg,
		log:     lggr.Named("advisor"),
		metrics: metrics,
	}
}

func (a *Advisor) Reply(ctx context.Context, userText string) string {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.cfg.Instruction},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		Temperature: a.cfg.Temperature,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	a.metrics.AdvisorReplySeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.log.Debugw("generation aborted", "err", err)
		} else {
			a.log.Errorw("Error querying model", "model", a.cfg.Model, "err", err)
		}
		a.metrics.AdvisorReplies.WithLabelValues("error").Inc()
		return FallbackError
	}

	text := firstChoice(resp)
	if strings.TrimSpace(text) == "" {
		a.log.Warnw("empty generation", "model", a.cfg.Model, "choices", len(resp.Choices))
		a.metrics.AdvisorReplies.WithLabelValues("empty").Inc()
		return FallbackEmpty
	}

	a.metrics.AdvisorReplies.WithLabelValues("ok").Inc()
	a.log.Debugw("generation done", "chars", len(text), "elapsed", time.Since(start))
	return text
}

func firstChoice(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
