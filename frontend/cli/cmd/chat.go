package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/backend/conversation"
	"github.com/taskpilot/taskpilot/backend/dispatch"
	"github.com/taskpilot/taskpilot/backend/model"
	"github.com/taskpilot/taskpilot/backend/secret"
	"github.com/taskpilot/taskpilot/backend/store"
	"github.com/taskpilot/taskpilot/backend/tool"
)

const (
	openAIKeyName    = "OPENAI_API_KEY"
	anthropicKeyName = "ANTHROPIC_API_KEY"

	// History sent to the model is capped to keep token usage bounded.
	maxHistoryMessages = 20
)

type chatOptions struct {
	provider string
	model    string
	baseURL  string
	database string
	user     string
}

func NewChatCmd() *cobra.Command {
	options := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat [flags]",
		Short: "Start an interactive chat with your task assistant",
		Long: `Start an interactive chat with your task assistant.

Examples:
  # Chat using rule-based dispatch only, tasks kept in memory
  taskpilot chat --provider none

  # Chat with OpenAI, tasks stored on disk
  taskpilot chat --provider openai --database ~/.taskpilot.db

  # Chat via an OpenAI-compatible gateway
  taskpilot chat --provider openai --base-url https://openrouter.ai/api/v1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, options)
		},
	}

	cmd.Flags().StringVar(&options.provider, "provider", "openai", "model provider: openai, anthropic, or none")
	cmd.Flags().StringVar(&options.model, "model", "", "model name (provider default when empty)")
	cmd.Flags().StringVar(&options.baseURL, "base-url", "", "override the provider API base URL")
	cmd.Flags().StringVar(&options.database, "database", "", "path to the task database (in-memory when empty)")
	cmd.Flags().StringVar(&options.user, "user", "default", "user name or id owning the task list")
	return cmd
}

func runChat(cmd *cobra.Command, options *chatOptions) error {
	userID := resolveUserID(options.user)

	taskStore, err := openStore(options.database)
	if err != nil {
		return err
	}
	defer taskStore.Close()

	registry, err := tool.NewTaskRegistry()
	if err != nil {
		return err
	}

	tracker, err := conversation.NewTracker(conversation.Options{})
	if err != nil {
		return err
	}

	provider, err := buildProvider(options)
	if err != nil {
		return err
	}

	orchestrator, err := dispatch.NewOrchestrator(registry,
		dispatch.WithProvider(provider),
		dispatch.WithTracker(tracker),
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Chat with your task assistant. Type 'exit' to quit.")

	var history []model.Message
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		reply, err := orchestrator.Respond(cmd.Context(), userID, message, history, taskStore)
		if err != nil {
			slog.Error("turn failed", "error", err)
			fmt.Fprintln(out, "Something went wrong on my end. Please try again.")
			continue
		}

		fmt.Fprintln(out, reply.Text)

		history = append(history,
			model.Message{Role: model.RoleUser, Content: message},
			model.Message{Role: model.RoleAssistant, Content: reply.Text},
		)
		if len(history) > maxHistoryMessages {
			history = history[len(history)-maxHistoryMessages:]
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// resolveUserID accepts a raw UUID or derives a stable one from a user name,
// so the same --user value always maps to the same task list.
func resolveUserID(user string) uuid.UUID {
	if id, err := uuid.Parse(user); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(user))
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenSQLite(path)
}

func buildProvider(options *chatOptions) (model.Provider, error) {
	secrets := secret.NewChain(secret.NewEnvProvider(), secret.NewKeyringProvider())

	switch options.provider {
	case "none":
		return nil, nil

	case "openai":
		apiKey, err := secrets.Get(openAIKeyName)
		if err != nil {
			return nil, fmt.Errorf("no OpenAI API key found: set %s or run with --provider none", openAIKeyName)
		}
		modelName := options.model
		if modelName == "" {
			modelName = "gpt-4o-mini"
		}
		var opts []model.ProviderOption
		if options.baseURL != "" {
			opts = append(opts, model.WithURL(options.baseURL))
		}
		return model.NewOpenAIProvider(apiKey, modelName, opts...)

	case "anthropic":
		apiKey, err := secrets.Get(anthropicKeyName)
		if err != nil {
			return nil, fmt.Errorf("no Anthropic API key found: set %s or run with --provider none", anthropicKeyName)
		}
		modelName := options.model
		if modelName == "" {
			modelName = "claude-3-5-sonnet-latest"
		}
		var opts []model.ProviderOption
		if options.baseURL != "" {
			opts = append(opts, model.WithURL(options.baseURL))
		}
		return model.NewAnthropicProvider(apiKey, modelName, opts...)
	}

	return nil, fmt.Errorf("unknown provider %q", options.provider)
}
