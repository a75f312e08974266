// Package dispatch turns a chat message into tool executions and a
// reply. It runs a three-tier cascade: structured tool calls from the
// model, tool calls recovered from the model's text, and finally
// pattern-based intent detection that needs no model at all. Every
// reply is sanitized before it leaves, whatever path produced it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskpilot/taskpilot/backend/conversation"
	"github.com/taskpilot/taskpilot/backend/intent"
	"github.com/taskpilot/taskpilot/backend/model"
	"github.com/taskpilot/taskpilot/backend/store"
	"github.com/taskpilot/taskpilot/backend/tool"
)

// Tier identifies which cascade stage produced the turn's actions.
type Tier int

const (
	// TierStructured means the model returned proper tool calls.
	TierStructured Tier = iota
	// TierRecovered means tool calls were parsed out of model text.
	TierRecovered
	// TierIntent means pattern matching on the raw message decided.
	TierIntent
	// TierNone means no tool ran; the reply is text only.
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierRecovered:
		return "recovered"
	case TierIntent:
		return "intent"
	default:
		return "none"
	}
}

// ToolOutcome is one tool execution within a turn. Result and Err are
// mutually exclusive; a failed tool never discards its siblings.
type ToolOutcome struct {
	Tool   string
	Result map[string]any
	Err    error
}

// Reply is the orchestrator's answer for one chat turn.
type Reply struct {
	Text     string
	Tier     Tier
	Outcomes []ToolOutcome
}

const agentInstructions = `You are a friendly task assistant. Help users manage their todo list.

## YOUR TOOLS
You have these tools - USE THEM:
- add_task: Create a new task
- list_tasks: See all tasks
- update_task: Change a task
- complete_task: Mark task done
- delete_task: Remove a task
- get_analytics: See stats
- get_suggestions: Smart suggestions

## CRITICAL RULES

### 1. USE THE RIGHT TOOL
- "Add/create/remind me" -> add_task
- "Show/list/what tasks" -> list_tasks
- "Done/complete/finished" -> complete_task
- "Delete/remove/cancel" -> delete_task
- "Change/update/edit" -> update_task

### 2. RESPOND NATURALLY
After tools run, respond in plain friendly language.

### 3. RECURRING TASKS
"Every Monday/week/day" means set recurrence_pattern:
- "every day" -> recurrence_pattern="daily"
- "every week" or "every Monday" -> recurrence_pattern="weekly"
- "every month" -> recurrence_pattern="monthly"

### 4. DELETING TASKS
To delete by title: first call list_tasks to find the task ID, then delete_task.

## LANGUAGE SUPPORT
Respond in the same language the user uses (English, Roman Urdu, or Urdu script).`

const helpReply = "Hi! I'm your task assistant. I can help you:\n" +
	"- Add tasks: 'Add a task to buy groceries'\n" +
	"- View tasks: 'Show my tasks'\n" +
	"- Complete tasks: 'Mark buy groceries as done'\n" +
	"- Delete tasks: 'Delete the groceries task'\n\n" +
	"What would you like to do?"

const genericFailureReply = "Something went wrong on my end. Please try again."

// Orchestrator wires the provider, tool registry, intent detector,
// and conversation tracker into one turn handler. It holds no
// per-user state itself; turns for different users may run
// concurrently.
type Orchestrator struct {
	provider    model.Provider
	registry    *tool.Registry
	detector    *intent.Detector
	tracker     *conversation.Tracker
	logger      *slog.Logger
	metrics     *dispatchMetrics
	maxTokens   int64
	toolTimeout time.Duration
	clock       func() time.Time
}

type Option func(*Orchestrator)

// WithProvider sets the chat-completion backend. Without one, the
// cascade starts at the intent tier.
func WithProvider(provider model.Provider) Option {
	return func(o *Orchestrator) {
		o.provider = provider
	}
}

func WithTracker(tracker *conversation.Tracker) Option {
	return func(o *Orchestrator) {
		o.tracker = tracker
	}
}

func WithDetector(detector *intent.Detector) Option {
	return func(o *Orchestrator) {
		o.detector = detector
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(registry *prometheus.Registry) Option {
	return func(o *Orchestrator) {
		o.metrics = newDispatchMetrics(registry)
	}
}

func WithMaxTokens(maxTokens int64) Option {
	return func(o *Orchestrator) {
		o.maxTokens = maxTokens
	}
}

// WithToolTimeout bounds each tool execution.
func WithToolTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.toolTimeout = timeout
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

func NewOrchestrator(registry *tool.Registry, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}

	o := &Orchestrator{
		registry:    registry,
		detector:    intent.NewDetector(),
		logger:      slog.Default(),
		maxTokens:   1024,
		toolTimeout: 30 * time.Second,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Respond handles one chat turn. It never returns an error for
// provider or tool failures; those become user-safe reply text. The
// error return is reserved for programming mistakes such as a nil
// store.
func (o *Orchestrator) Respond(ctx context.Context, userID uuid.UUID, message string, history []model.Message, st store.Store) (reply *Reply, err error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("dispatch panic recovered", "panic", r)
			reply = &Reply{Text: genericFailureReply, Tier: TierNone}
			err = nil
		}
	}()

	env := tool.Env{UserID: userID, Store: st, Now: o.clock()}

	var (
		modelText  string
		calls      []model.ToolCall
		activeTier = TierNone
	)

	if o.provider != nil {
		messages := make([]model.Message, 0, len(history)+1)
		messages = append(messages, history...)
		messages = append(messages, model.Message{Role: model.RoleUser, Content: message})

		resp, callErr := o.provider.Complete(ctx, model.Request{
			System:    agentInstructions,
			Messages:  messages,
			Tools:     o.toolSchemas(),
			MaxTokens: o.maxTokens,
		})
		if callErr != nil {
			var pe *model.ProviderError
			if errors.As(callErr, &pe) {
				o.logger.Warn("model call failed", "kind", string(pe.Kind), "error", pe)
				o.metrics.IncrementTurn(TierNone.String())
				return &Reply{Text: pe.UserMessage(), Tier: TierNone}, nil
			}
			o.logger.Error("model call failed", "error", callErr)
			o.metrics.IncrementTurn(TierNone.String())
			return &Reply{Text: genericFailureReply, Tier: TierNone}, nil
		}

		modelText = resp.Text
		if len(resp.ToolCalls) > 0 {
			activeTier = TierStructured
			calls = resp.ToolCalls
		} else if recovered := ParseTextCalls(modelText); len(recovered) > 0 {
			activeTier = TierRecovered
			o.logger.Info("recovered text-encoded tool calls", "count", len(recovered))
			calls = recovered
		}
	}

	var (
		outcomes []ToolOutcome
		text     string
	)

	if len(calls) > 0 {
		outcomes = o.executeCalls(ctx, env, calls)
		text = naturalReply(outcomes)
	} else if det, ok := o.detector.Detect(message); ok {
		activeTier = TierIntent
		o.logger.Info("intent detected", "tool", det.Tool)
		outcomes, text = o.dispatchIntent(ctx, env, det, message)
	} else {
		activeTier = TierNone
		text = modelText
		if text == "" || strings.Contains(text, "<") {
			text = helpReply
		}
	}

	o.recordMentions(userID.String(), outcomes)

	text = Sanitize(text)
	if text == "" {
		text = "I've processed your request. How can I help you further?"
	}

	o.metrics.IncrementTurn(activeTier.String())
	return &Reply{Text: text, Tier: activeTier, Outcomes: outcomes}, nil
}

func (o *Orchestrator) toolSchemas() []model.ToolSchema {
	tools := o.registry.ListAll()
	schemas := make([]model.ToolSchema, len(tools))
	for i, t := range tools {
		schemas[i] = model.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Schema:      t.Schema,
		}
	}
	return schemas
}

func (o *Orchestrator) executeCalls(ctx context.Context, env tool.Env, calls []model.ToolCall) []ToolOutcome {
	outcomes := make([]ToolOutcome, 0, len(calls))
	for _, call := range calls {
		result, err := o.invokeTool(ctx, env, call.Name, call.Args)
		oc := ToolOutcome{Tool: call.Name, Result: result, Err: err}
		o.observe(oc)
		outcomes = append(outcomes, oc)
	}
	return outcomes
}

// invokeTool runs one tool on a context detached from the caller, so
// a disconnect mid-turn cannot abort a half-applied mutation. The
// execution itself stays bounded by the tool timeout, and a timeout
// surfaces as an unavailable classified error.
func (o *Orchestrator) invokeTool(ctx context.Context, env tool.Env, name string, args map[string]any) (map[string]any, error) {
	execCtx := context.WithoutCancel(ctx)
	if o.toolTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(execCtx, o.toolTimeout)
		defer cancel()
	}

	type invocation struct {
		result map[string]any
		err    error
	}
	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invocation{err: fmt.Errorf("tool %s panicked: %v", name, r)}
			}
		}()
		result, err := o.registry.Invoke(execCtx, env, name, args)
		done <- invocation{result: result, err: err}
	}()

	// The timeout holds even for handlers that never check their
	// context; the abandoned goroutine exits whenever the handler
	// eventually returns.
	select {
	case inv := <-done:
		if inv.err != nil && errors.Is(inv.err, context.DeadlineExceeded) {
			inv.err = model.NewProviderError(name, model.ErrKindUnavailable, inv.err)
		}
		return inv.result, inv.err
	case <-execCtx.Done():
		return nil, model.NewProviderError(name, model.ErrKindUnavailable, execCtx.Err())
	}
}

func (o *Orchestrator) dispatchIntent(ctx context.Context, env tool.Env, det intent.Detection, message string) ([]ToolOutcome, string) {
	switch det.Tool {
	case "delete_all":
		return o.deleteAll(ctx, env)

	case "complete_task", "delete_task":
		ref, _ := det.Params["task_ref"].(string)
		return o.actOnReference(ctx, env, det.Tool, ref, message)

	default:
		result, err := o.invokeTool(ctx, env, det.Tool, det.Params)
		oc := ToolOutcome{Tool: det.Tool, Result: result, Err: err}
		o.observe(oc)
		outcomes := []ToolOutcome{oc}
		return outcomes, naturalReply(outcomes)
	}
}

// actOnReference resolves a free-text task reference and applies the
// tool to the match. Resolution order: conversation context first
// (pronouns beat fuzzy title matches), then a substring scan over the
// user's open tasks. The list-then-act sequence is not atomic; a task
// deleted in between surfaces as a per-tool not-found error from the
// second step.
func (o *Orchestrator) actOnReference(ctx context.Context, env tool.Env, toolName, taskRef, message string) ([]ToolOutcome, string) {
	taskID, ok := o.resolveReference(ctx, env, taskRef, message)
	if !ok {
		return nil, fmt.Sprintf("I couldn't find a task matching '%s'. Try 'show my tasks' to see your list.", taskRef)
	}

	result, err := o.invokeTool(ctx, env, toolName, map[string]any{"task_id": taskID})
	oc := ToolOutcome{Tool: toolName, Result: result, Err: err}
	o.observe(oc)
	outcomes := []ToolOutcome{oc}
	return outcomes, naturalReply(outcomes)
}

func (o *Orchestrator) resolveReference(ctx context.Context, env tool.Env, taskRef, message string) (string, bool) {
	if o.tracker != nil {
		if ref, ok := o.tracker.ResolveReference(env.UserID.String(), message); ok {
			return ref.TaskID, true
		}
	}

	listResult, err := o.invokeTool(ctx, env, "list_tasks", map[string]any{"status": "pending"})
	if err != nil {
		return "", false
	}
	tasks, _ := listResult["tasks"].([]map[string]any)
	refLower := strings.ToLower(taskRef)
	for _, t := range tasks {
		title, _ := t["title"].(string)
		if strings.Contains(strings.ToLower(title), refLower) {
			id, _ := t["id"].(string)
			return id, id != ""
		}
	}
	return "", false
}

func (o *Orchestrator) deleteAll(ctx context.Context, env tool.Env) ([]ToolOutcome, string) {
	listResult, err := o.invokeTool(ctx, env, "list_tasks", nil)
	if err != nil {
		oc := ToolOutcome{Tool: "delete_all", Err: err}
		o.observe(oc)
		outcomes := []ToolOutcome{oc}
		return outcomes, naturalReply(outcomes)
	}

	tasks, _ := listResult["tasks"].([]map[string]any)
	deleted := 0
	for _, t := range tasks {
		id, _ := t["id"].(string)
		if id == "" {
			continue
		}
		if _, delErr := o.invokeTool(ctx, env, "delete_task", map[string]any{"task_id": id}); delErr == nil {
			deleted++
		}
	}

	oc := ToolOutcome{Tool: "delete_all", Result: map[string]any{"deleted_count": deleted}}
	o.observe(oc)
	return []ToolOutcome{oc}, fmt.Sprintf("Deleted %d task(s) from your list.", deleted)
}

func (o *Orchestrator) observe(oc ToolOutcome) {
	if oc.Err != nil {
		o.metrics.IncrementTool(oc.Tool, "error")
		o.logger.Warn("tool execution failed", "tool", oc.Tool, "error", oc.Err)
		return
	}
	o.metrics.IncrementTool(oc.Tool, "ok")
}

// recordMentions feeds executed tasks into the conversation tracker
// so later pronouns can resolve to them.
func (o *Orchestrator) recordMentions(userID string, outcomes []ToolOutcome) {
	if o.tracker == nil {
		return
	}

	for _, oc := range outcomes {
		if oc.Err != nil || oc.Result == nil {
			continue
		}

		switch oc.Tool {
		case "add_task":
			o.recordOne(userID, oc.Result, conversation.MentionCreated)
		case "complete_task":
			o.recordOne(userID, oc.Result, conversation.MentionCompleted)
			if next, ok := oc.Result["next_task"].(map[string]any); ok {
				o.recordOne(userID, next, conversation.MentionCreated)
			}
		case "update_task":
			o.recordOne(userID, oc.Result, conversation.MentionUpdated)
		case "delete_task":
			o.recordOne(userID, oc.Result, conversation.MentionDeleted)
		case "list_tasks":
			tasks, _ := oc.Result["tasks"].([]map[string]any)
			for i, t := range tasks {
				if i >= 10 {
					break
				}
				id, _ := t["id"].(string)
				title, _ := t["title"].(string)
				if id != "" {
					o.tracker.RecordMention(userID, id, title, conversation.MentionListed)
				}
			}
		}
	}
}

func (o *Orchestrator) recordOne(userID string, result map[string]any, kind conversation.Kind) {
	id, _ := result["task_id"].(string)
	if id == "" {
		id, _ = result["id"].(string)
	}
	title, _ := result["title"].(string)
	if id != "" {
		o.tracker.RecordMention(userID, id, title, kind)
	}
}
