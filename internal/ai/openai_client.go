package ai

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/piumal/stingraybot/internal/config"
	"github.com/piumal/stingraybot/internal/session"
)

// openAIClient implements Client using the OpenAI chat completions API.
type openAIClient struct {
	client      *openai.Client
	log         *slog.Logger
	model       string
	temperature float32
	instruction string
}

func newOpenAIClient(cfg config.AIConfig, log *slog.Logger) (*openAIClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized", "model", cfg.Model)
	return &openAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		log:         logger,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		instruction: cfg.Instruction,
	}, nil
}

func (c *openAIClient) GenerateReply(ctx context.Context, history []session.Entry) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "history_len", len(history))

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.instruction,
	})
	for _, e := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(e.Role),
			Content: e.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    messages,
	})
	if err != nil {
		c.log.ErrorContext(ctx, "OpenAI chat completion failed", "error", err)
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		c.log.WarnContext(ctx, "OpenAI response contained no choices")
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
