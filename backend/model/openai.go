package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider talks to the OpenAI chat-completions API or any
// compatible endpoint (OpenRouter via WithURL).
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	options *ProviderOptions
	metrics *providerMetrics
}

func NewOpenAIProvider(apiKey, modelName string, opts ...ProviderOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	providerOptions := DefaultProviderOptions("openai")
	for _, opt := range opts {
		opt(providerOptions)
	}

	clientOptions := []option.RequestOption{option.WithAPIKey(apiKey)}
	if providerOptions.URL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(providerOptions.URL))
	}

	return &OpenAIProvider{
		client:  openai.NewClient(clientOptions...),
		model:   modelName,
		options: providerOptions,
		metrics: newProviderMetrics(providerOptions.Metrics),
	}, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	return completeWithResilience(ctx, "openai", p.options, p.metrics, func(ctx context.Context) (*Response, error) {
		return p.complete(ctx, req)
	})
}

func (p *OpenAIProvider) complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.F(p.model),
		Messages: openai.F(messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.F(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: openai.F(openai.ChatCompletionToolTypeFunction),
				Function: openai.F(openai.FunctionDefinitionParam{
					Name:        openai.F(t.Name),
					Description: openai.F(t.Description),
					Parameters:  openai.F(openai.FunctionParameters(t.Schema)),
				}),
			}
		}
		params.Tools = openai.F(tools)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewProviderError("openai", ErrKindUnknown, errors.New("empty completion response"))
	}

	choice := resp.Choices[0].Message
	out := &Response{
		Text: choice.Content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}

	for _, tc := range choice.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			// A call with unparseable arguments is dropped; the
			// cascade's later tiers handle the message instead.
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				continue
			}
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return out, nil
}

func (p *OpenAIProvider) classifyError(err error) *ProviderError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return NewProviderError("openai", ErrKindUnknown, err)
	}

	kind := ErrKindUnknown
	switch {
	case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
		kind = ErrKindUnauthorized
	case apiErr.StatusCode == 429:
		kind = ErrKindRateLimited
	case apiErr.StatusCode >= 500:
		kind = ErrKindUnavailable
	}

	pe := NewProviderError("openai", kind, err)
	if apiErr.Response != nil {
		if retryAfter := apiErr.Response.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, convErr := strconv.Atoi(retryAfter); convErr == nil {
				pe.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
	}
	return pe
}
