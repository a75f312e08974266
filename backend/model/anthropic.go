package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider talks to the Anthropic messages API.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   string
	options *ProviderOptions
	metrics *providerMetrics
}

func NewAnthropicProvider(apiKey, modelName string, opts ...ProviderOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	providerOptions := DefaultProviderOptions("anthropic")
	for _, opt := range opts {
		opt(providerOptions)
	}

	clientOptions := []option.RequestOption{option.WithAPIKey(apiKey)}
	if providerOptions.URL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(providerOptions.URL))
	}

	return &AnthropicProvider{
		client:  anthropic.NewClient(clientOptions...),
		model:   modelName,
		options: providerOptions,
		metrics: newProviderMetrics(providerOptions.Metrics),
	}, nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	return completeWithResilience(ctx, "anthropic", p.options, p.metrics, func(ctx context.Context) (*Response, error) {
		return p.complete(ctx, req)
	})
}

func (p *AnthropicProvider) complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			// System turns inside the history fold into user turns;
			// the real system prompt rides the System field.
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(p.model),
		MaxTokens: anthropic.F(maxTokens),
		Messages:  anthropic.F(messages),
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(req.System)})
	}
	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionUnionParam, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = anthropic.ToolParam{
				Name:        anthropic.F(t.Name),
				Description: anthropic.F(t.Description),
				InputSchema: anthropic.F(any(t.Schema)),
			}
		}
		params.Tools = anthropic.F(tools)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.classifyError(err)
	}
	if len(resp.Content) == 0 {
		return nil, NewProviderError("anthropic", ErrKindUnknown, errors.New("empty message response"))
	}

	out := &Response{
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text.WriteString(block.Text)
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					continue
				}
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: args,
			})
		}
	}
	out.Text = text.String()

	return out, nil
}

func (p *AnthropicProvider) classifyError(err error) *ProviderError {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return NewProviderError("anthropic", ErrKindUnknown, err)
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

	pe := NewProviderError("anthropic", kind, err)
	if apiErr.Response != nil {
		if retryAfter := apiErr.Response.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, convErr := strconv.Atoi(retryAfter); convErr == nil {
				pe.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
	}
	// The overloaded status gets a default backoff when no header
	// said otherwise.
	if apiErr.StatusCode == 529 && pe.RetryAfter == 0 {
		pe.Kind = ErrKindUnavailable
		pe.RetryAfter = 10 * time.Second
	}
	return pe
}
