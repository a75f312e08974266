package tool

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/taskpilot/taskpilot/backend/store"
)

// Env carries the per-call collaborators into a tool handler: the caller's
// identity, the opaque storage handle, and the reference instant. The
// orchestrator fills it for every invocation; handlers never read a clock
// themselves.
type Env struct {
	UserID uuid.UUID
	Store  store.Store
	Now    time.Time
}

// Handler is a typed tool handler. The input struct doubles as the source of
// the tool's parameter schema.
type Handler[T any] func(ctx context.Context, env Env, input T) (map[string]any, error)

type genericHandler func(ctx context.Context, env Env, args map[string]any) (map[string]any, error)

// Tool is a named operation the dispatch pipeline can execute. Definitions are
// created at startup and never mutated afterwards.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
	invoke      genericHandler
}

// New builds a tool whose parameter schema is reflected from T and whose
// argument map is decoded into T before the handler runs. Decoding is lenient
// about scalar types since model-produced JSON numbers arrive as float64 and
// recovered text-call values arrive as strings.
func New[T any](name, description string, handler Handler[T]) Tool {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var zero T
	inputSchema := reflector.Reflect(zero)
	paramSchema := map[string]any{
		"type":       "object",
		"properties": inputSchema.Properties,
	}
	if len(inputSchema.Required) > 0 {
		paramSchema["required"] = inputSchema.Required
	}

	return Tool{
		Name:        name,
		Description: description,
		Schema:      paramSchema,
		invoke: func(ctx context.Context, env Env, args map[string]any) (map[string]any, error) {
			var input T
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				Result:           &input,
				TagName:          "json",
				WeaklyTypedInput: true,
			})
			if err != nil {
				return nil, err
			}
			if err := decoder.Decode(args); err != nil {
				return nil, &ValidationError{Tool: name, Reason: err.Error()}
			}
			return handler(ctx, env, input)
		},
	}
}
