package advisor

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/Kamiltczarnik/Lira/apperror"
)

const openAIService = "openai"

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint.
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter uses the public OpenAI endpoint unless baseURL is set.
func NewOpenAICompleter(apiKey, baseURL string) *OpenAICompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(cfg)}
}

// Complete sends one chat completion request and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &apperror.UpstreamError{Service: openAIService, Status: apiErr.HTTPStatusCode, Err: err}
		}
		return "", apperror.Upstream(openAIService, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperror.Upstream(openAIService, errors.New("response has no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
