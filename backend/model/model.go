// Package model abstracts chat-completion providers behind a single
// interface: hand it a message list and tool schemas, get back either
// structured tool calls or free text. Provider failures are
// classified into a closed set of kinds, each with a fixed user-safe
// message, so raw provider text never reaches a user.
package model

import (
	"context"
	"fmt"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolSchema describes one tool the model may call.
type ToolSchema struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Request is a single chat-completion call.
type Request struct {
	System    string
	Messages  []Message
	Tools     []ToolSchema
	MaxTokens int64
}

// ToolCall is a structured tool invocation returned by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response holds whatever the model produced: free text, tool calls,
// or both.
type Response struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// Provider is a chat-completion backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

type ErrorKind string

const (
	ErrKindRateLimited  ErrorKind = "rate_limited"
	ErrKindUnauthorized ErrorKind = "unauthorized"
	ErrKindUnavailable  ErrorKind = "unavailable"
	ErrKindUnknown      ErrorKind = "unknown"
)

// ProviderError classifies a provider failure. Err keeps the
// underlying cause for logs; UserMessage is what users see.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	RetryAfter time.Duration
	Err        error
}

func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// UserMessage maps each error kind to exactly one fixed reply.
// Provider-specific text is never included.
func (pe *ProviderError) UserMessage() string {
	switch pe.Kind {
	case ErrKindRateLimited:
		return "I'm being rate limited. Please wait a moment and try again."
	case ErrKindUnauthorized:
		return "There's an issue with the assistant configuration. Please contact support."
	case ErrKindUnavailable:
		return "The assistant is unavailable right now. Please try again later."
	default:
		return "Something went wrong. Please try again."
	}
}

// Retryable reports whether another attempt could succeed, and the
// provider-directed delay when one was given.
func (pe *ProviderError) Retryable() (bool, time.Duration) {
	switch pe.Kind {
	case ErrKindRateLimited:
		return true, pe.RetryAfter
	case ErrKindUnavailable:
		return true, 0
	default:
		return false, 0
	}
}

func (pe *ProviderError) Error() string {
	if pe.Err != nil {
		return fmt.Sprintf("%s: %s: %s", pe.Provider, pe.Kind, pe.Err.Error())
	}
	return fmt.Sprintf("%s: %s", pe.Provider, pe.Kind)
}

func (pe *ProviderError) Unwrap() error {
	return pe.Err
}
