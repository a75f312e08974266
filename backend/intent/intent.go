// Package intent infers a tool invocation from a raw chat message by
// pattern matching. It is the last fallback tier when the model makes
// no usable tool call, so it must work without any model at all.
// Rules cover English and Roman Urdu.
package intent

import (
	"regexp"
	"strings"
	"unicode"
)

// Detection names a tool to invoke with the parameters extracted from
// the message.
type Detection struct {
	Tool   string
	Params map[string]any
}

// Rule pairs a pattern with the parameter slot its first capture
// group fills. An empty slot means the rule extracts nothing.
type Rule struct {
	Pattern *regexp.Regexp
	Slot    string
}

func rule(slot, pattern string) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + pattern), Slot: slot}
}

// Detector matches messages against per-category rule tables in a
// fixed order: create, list, complete, delete, analytics. Tables are
// plain data so locales can be extended without touching match logic.
type Detector struct {
	addRules       []Rule
	listRules      []Rule
	completeRules  []Rule
	deleteRules    []Rule
	analyticsRules []Rule

	dailyRe    *regexp.Regexp
	weeklyRe   *regexp.Regexp
	monthlyRe  *regexp.Regexp
	urgentRe   *regexp.Regexp
	relaxedRe  *regexp.Regexp
	allTasksRe *regexp.Regexp
	listTrimRe *regexp.Regexp
}

func NewDetector() *Detector {
	return &Detector{
		addRules: []Rule{
			rule("title", `^add\s+(?:a\s+)?(?:task\s+)?(?:to\s+)?(.+)`),
			rule("title", `^create\s+(?:a\s+)?(?:task\s+)?(?:to\s+)?(.+)`),
			rule("title", `^remind\s+me\s+(?:to\s+)?(.+)`),
			rule("title", `^i\s+(?:need|have|want)\s+to\s+(.+)`),
			rule("title", `^(?:gotta|got\s+to)\s+(.+)`),
			rule("title", `^don'?t\s+forget\s+(?:to\s+)?(.+)`),
			rule("title", `^task\s*:?\s*(.+)`),
			rule("title", `^task\s+add\s+karo?\s*:?\s*(.+)`),
			rule("title", `^(.+)\s+add\s+karo?`),
			rule("title", `^ek\s+(?:naya\s+)?task\s+(?:banana?\s+hai\s+)?(.+)`),
		},
		listRules: []Rule{
			rule("", `^show\s+(?:me\s+)?(?:my\s+)?(?:all\s+)?tasks?`),
			rule("", `^list\s+(?:my\s+)?(?:all\s+)?tasks?`),
			rule("", `^what\s+(?:are\s+)?(?:my\s+)?tasks?`),
			rule("", `^(?:my\s+)?tasks?\s*\??$`),
			rule("", `^what\s+do\s+i\s+have`),
			rule("", `^what'?s\s+pending`),
			rule("", `^pending\s+tasks?`),
			rule("", `^(?:mere\s+)?tasks?\s+dikhao?`),
			rule("", `^kya\s+pending\s+hai`),
		},
		completeRules: []Rule{
			rule("task_ref", `^(?:mark\s+)?(?:task\s+)?(.+?)\s+(?:as\s+)?(?:done|completed?|finished)`),
			rule("task_ref", `^complete\s+(?:task\s+)?(.+)`),
			rule("task_ref", `^(?:i\s+)?(?:did|finished|done\s+with)\s+(.+)`),
			rule("task_ref", `^task\s+(.+?)\s+ho\s+gaya`),
			rule("task_ref", `^(.+?)\s+complete\s+karo?`),
		},
		deleteRules: []Rule{
			rule("task_ref", `^delete\s+(?:the\s+)?(?:task\s+)?(.+)`),
			rule("task_ref", `^remove\s+(?:the\s+)?(?:task\s+)?(.+)`),
			rule("task_ref", `^cancel\s+(?:the\s+)?(?:task\s+)?(.+)`),
			rule("task_ref", `^(?:get\s+rid\s+of|scratch)\s+(.+)`),
			rule("task_ref", `^task\s+(.+?)\s+(?:delete|hata)\s*(?:karo?|do)?`),
			rule("task_ref", `^(.+?)\s+(?:delete|hata)\s+karo?`),
		},
		analyticsRules: []Rule{
			rule("", `^(?:show\s+)?(?:my\s+)?(?:stats|statistics|analytics|progress)`),
			rule("", `^how\s+am\s+i\s+doing`),
			rule("", `^(?:kitne|how\s+many)\s+tasks?\s+(?:pending|done|completed)`),
			rule("", `^mera\s+progress`),
		},

		dailyRe:    regexp.MustCompile(`(?i)every\s+(day|daily)`),
		weeklyRe:   regexp.MustCompile(`(?i)every\s+(week|monday|tuesday|wednesday|thursday|friday|saturday|sunday)`),
		monthlyRe:  regexp.MustCompile(`(?i)every\s+month`),
		urgentRe:   regexp.MustCompile(`(?i)urgent|asap|critical|important|zaroori|zaruri`),
		relaxedRe:  regexp.MustCompile(`(?i)low\s+priority|whenever|no\s+rush`),
		allTasksRe: regexp.MustCompile(`(?i)^all\s+(?:my\s+)?tasks?$`),
		listTrimRe: regexp.MustCompile(`(?i)\s+to\s+my\s+list\.?$`),
	}
}

// Detect matches the message against the rule tables and reports the
// tool and parameters of the first rule that fires. The second return
// is false when no category matches.
func (d *Detector) Detect(message string) (Detection, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))

	for _, r := range d.addRules {
		m := r.Pattern.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		title := d.cleanTitle(m[1])
		params := map[string]any{"title": title}

		switch {
		case d.dailyRe.MatchString(msg) || strings.Contains(msg, "har roz"):
			params["recurrence_pattern"] = "daily"
		case d.weeklyRe.MatchString(msg) || strings.Contains(msg, "har hafta"):
			params["recurrence_pattern"] = "weekly"
		case d.monthlyRe.MatchString(msg) || strings.Contains(msg, "har mahina"):
			params["recurrence_pattern"] = "monthly"
		}

		if d.urgentRe.MatchString(msg) {
			params["priority"] = "high"
		} else if d.relaxedRe.MatchString(msg) {
			params["priority"] = "low"
		}

		return Detection{Tool: "add_task", Params: params}, true
	}

	for _, r := range d.listRules {
		if !r.Pattern.MatchString(msg) {
			continue
		}
		params := map[string]any{}
		if strings.Contains(msg, "pending") || strings.Contains(msg, "incomplete") {
			params["status"] = "pending"
		} else if strings.Contains(msg, "completed") || strings.Contains(msg, "done") || strings.Contains(msg, "finished") {
			params["status"] = "completed"
		}
		return Detection{Tool: "list_tasks", Params: params}, true
	}

	for _, r := range d.completeRules {
		m := r.Pattern.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		return Detection{Tool: "complete_task", Params: map[string]any{"task_ref": strings.TrimSpace(m[1])}}, true
	}

	for _, r := range d.deleteRules {
		m := r.Pattern.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		ref := strings.TrimSpace(m[1])
		if d.allTasksRe.MatchString(ref) {
			return Detection{Tool: "delete_all", Params: map[string]any{}}, true
		}
		return Detection{Tool: "delete_task", Params: map[string]any{"task_ref": ref}}, true
	}

	for _, r := range d.analyticsRules {
		if r.Pattern.MatchString(msg) {
			return Detection{Tool: "get_analytics", Params: map[string]any{}}, true
		}
	}

	return Detection{}, false
}

// cleanTitle strips list-suffix filler and trailing punctuation, then
// title-cases short titles.
func (d *Detector) cleanTitle(raw string) string {
	title := d.listTrimRe.ReplaceAllString(strings.TrimSpace(raw), "")
	title = strings.Trim(title, ".,!?")
	if len(title) < 50 {
		title = titleCase(title)
	}
	return title
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
