package dispatch

import (
	"regexp"
	"strings"
)

// Models that fail at structured tool calling tend to emit the call
// markup as plain text. None of it may ever reach a user, so every
// reply passes through Sanitize on every path.
var (
	toolCallBlockRe  = regexp.MustCompile(`(?s)<tool_call>.*?</tool_call>`)
	functionBlockRe  = regexp.MustCompile(`(?s)<function=\w+>.*?</function>`)
	parameterBlockRe = regexp.MustCompile(`(?s)<parameter=\w+>.*?</parameter>`)
	strayToolCallRe  = regexp.MustCompile(`</?tool_call>`)
	strayFunctionRe  = regexp.MustCompile(`</?function[^>]*>`)
	strayParameterRe = regexp.MustCompile(`</?parameter[^>]*>`)
	blankRunRe       = regexp.MustCompile(`\n\s*\n`)
)

// Sanitize strips pseudo-call markup from reply text: paired
// tool_call, function, and parameter blocks first, then any unpaired
// stray tags, then runs of blank lines left behind.
func Sanitize(content string) string {
	if content == "" {
		return ""
	}

	content = toolCallBlockRe.ReplaceAllString(content, "")
	content = functionBlockRe.ReplaceAllString(content, "")
	content = parameterBlockRe.ReplaceAllString(content, "")

	content = strayToolCallRe.ReplaceAllString(content, "")
	content = strayFunctionRe.ReplaceAllString(content, "")
	content = strayParameterRe.ReplaceAllString(content, "")

	content = blankRunRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
