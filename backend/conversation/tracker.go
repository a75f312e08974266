// Package conversation tracks which tasks each user has recently
// talked about, so follow-up messages like "delete it" or "mark that
// one done" can be resolved to a concrete task.
package conversation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter"
)

// Kind records how a task entered the conversation.
type Kind string

const (
	MentionCreated   Kind = "created"
	MentionListed    Kind = "listed"
	MentionUpdated   Kind = "updated"
	MentionCompleted Kind = "completed"
	MentionDeleted   Kind = "deleted"
)

// Reference is one remembered task mention.
type Reference struct {
	TaskID      string
	Title       string
	MentionedAt time.Time
	Kind        Kind
}

// userContext holds one user's recent mentions. Its mutex only
// serializes that user; different users never contend.
type userContext struct {
	mu   sync.Mutex
	refs []Reference
}

// Indicators that point at the most recently mentioned task. Single
// words are matched as whole tokens so "visit" does not trigger "it";
// phrases are matched as substrings.
var recentTaskIndicators = []string{
	"it", "that", "this",
	"the task", "that task", "this task",
	"the one", "that one", "this one",
	"the one i mentioned", "that one i mentioned",
	"my last task", "the last task", "the last one",
	"the previous task", "the previous one",
	// Roman Urdu
	"wo", "woh", "ye", "yeh",
	"wo task", "ye task",
	"wala", "wali",
	"pichla", "pichla task",
	// Urdu script
	"وہ", "یہ",
}

var (
	quotedRe = regexp.MustCompile(`"([^"]+)"`)
	taskIDRe = regexp.MustCompile(`task\s*#?\s*([a-zA-Z0-9-]+)`)
)

// Options configures a Tracker.
type Options struct {
	// MaxUsers bounds how many user contexts are kept; the least
	// recently used are evicted past it.
	MaxUsers int
	// TTL expires a user's context once it has not been written for
	// this long. Expiry is lazy, checked by the cache on access.
	TTL time.Duration
	// MaxReferences bounds the per-user mention list.
	MaxReferences int
	// Clock stamps mentions; defaults to time.Now.
	Clock func() time.Time
}

// Tracker remembers task mentions per user. Contexts live in a
// bounded TTL cache so idle users age out without a sweeper.
type Tracker struct {
	contexts *otter.Cache[string, *userContext]
	maxRefs  int
	clock    func() time.Time
}

func NewTracker(opts Options) (*Tracker, error) {
	if opts.MaxUsers <= 0 {
		opts.MaxUsers = 1000
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxReferences <= 0 {
		opts.MaxReferences = 10
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	cache, err := otter.MustBuilder[string, *userContext](opts.MaxUsers).
		WithTTL(opts.TTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building context cache: %w", err)
	}

	return &Tracker{
		contexts: &cache,
		maxRefs:  opts.MaxReferences,
		clock:    opts.Clock,
	}, nil
}

func (t *Tracker) getOrCreate(userID string) *userContext {
	if ctx, ok := t.contexts.Get(userID); ok {
		return ctx
	}
	ctx := &userContext{}
	t.contexts.Set(userID, ctx)
	// Another goroutine may have raced the Set; use whichever won.
	if existing, ok := t.contexts.Get(userID); ok {
		return existing
	}
	return ctx
}

// RecordMention appends a task mention to the user's context,
// dropping the oldest entry once the per-user bound is exceeded.
func (t *Tracker) RecordMention(userID, taskID, title string, kind Kind) {
	ctx := t.getOrCreate(userID)

	ctx.mu.Lock()
	ctx.refs = append(ctx.refs, Reference{
		TaskID:      taskID,
		Title:       title,
		MentionedAt: t.clock(),
		Kind:        kind,
	})
	if len(ctx.refs) > t.maxRefs {
		ctx.refs = append([]Reference(nil), ctx.refs[len(ctx.refs)-t.maxRefs:]...)
	}
	ctx.mu.Unlock()

	// Re-inserting refreshes the TTL on writes.
	t.contexts.Set(userID, ctx)
}

// ResolveReference finds the task a message refers to: a pronoun or
// demonstrative resolves to the most recent mention, a quoted phrase
// to a partial title match (newest first), and an id-like token after
// "task" to a substring match on recorded ids.
func (t *Tracker) ResolveReference(userID, text string) (Reference, bool) {
	ctx, ok := t.contexts.Get(userID)
	if !ok {
		return Reference{}, false
	}

	textLower := strings.ToLower(text)
	tokens := tokenSet(textLower)

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if len(ctx.refs) == 0 {
		return Reference{}, false
	}

	for _, indicator := range recentTaskIndicators {
		if strings.Contains(indicator, " ") {
			if strings.Contains(textLower, indicator) {
				return ctx.refs[len(ctx.refs)-1], true
			}
		} else if _, ok := tokens[indicator]; ok {
			return ctx.refs[len(ctx.refs)-1], true
		}
	}

	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		quoted := strings.ToLower(m[1])
		for i := len(ctx.refs) - 1; i >= 0; i-- {
			if strings.Contains(strings.ToLower(ctx.refs[i].Title), quoted) {
				return ctx.refs[i], true
			}
		}
	}

	if m := taskIDRe.FindStringSubmatch(textLower); m != nil {
		for _, ref := range ctx.refs {
			if strings.Contains(strings.ToLower(ref.TaskID), m[1]) {
				return ref, true
			}
		}
	}

	return Reference{}, false
}

// MostRecent returns the newest mention for a user, if any.
func (t *Tracker) MostRecent(userID string) (Reference, bool) {
	ctx, ok := t.contexts.Get(userID)
	if !ok {
		return Reference{}, false
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if len(ctx.refs) == 0 {
		return Reference{}, false
	}
	return ctx.refs[len(ctx.refs)-1], true
}

// Clear forgets everything recorded for a user.
func (t *Tracker) Clear(userID string) {
	t.contexts.Delete(userID)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		set[tok] = struct{}{}
	}
	return set
}
