package dispatch

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/taskpilot/taskpilot/backend/model"
)

var (
	textFunctionOpenRe  = regexp.MustCompile(`<function=(\w+)>`)
	textParameterOpenRe = regexp.MustCompile(`<parameter=(\w+)>`)
)

// ParseTextCalls recovers tool calls a model wrote out as text
// markup instead of using structured function calling. Closing
// markers are optional: a call cut off mid-emission (the usual
// max-tokens failure) still yields its name and every parameter
// written so far, with an unclosed value running to the end of its
// line. Parameter values that look like JSON arrays or objects are
// decoded; anything else stays a string. Returns nil when the text
// carries no markup.
func ParseTextCalls(content string) []model.ToolCall {
	if content == "" {
		return nil
	}
	if !strings.Contains(content, "<tool_call>") && !strings.Contains(content, "<function=") {
		return nil
	}

	openers := textFunctionOpenRe.FindAllStringSubmatchIndex(content, -1)
	var calls []model.ToolCall
	for i, loc := range openers {
		name := content[loc[2]:loc[3]]

		body := content[loc[1]:]
		if i+1 < len(openers) {
			body = content[loc[1]:openers[i+1][0]]
		}
		if end := strings.Index(body, "</function>"); end >= 0 {
			body = body[:end]
		}

		calls = append(calls, model.ToolCall{Name: name, Args: parseTextParams(body)})
	}
	return calls
}

func parseTextParams(body string) map[string]any {
	args := map[string]any{}
	openers := textParameterOpenRe.FindAllStringSubmatchIndex(body, -1)
	for i, loc := range openers {
		key := body[loc[2]:loc[3]]

		rest := body[loc[1]:]
		if i+1 < len(openers) {
			rest = body[loc[1]:openers[i+1][0]]
		}

		value := rest
		if end := strings.Index(rest, "</parameter>"); end >= 0 {
			value = rest[:end]
		} else if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			value = rest[:nl]
		}

		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{") {
			var decoded any
			if err := json.Unmarshal([]byte(value), &decoded); err == nil {
				args[key] = decoded
				continue
			}
		}
		args[key] = value
	}
	return args
}
