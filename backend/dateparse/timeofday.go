package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Clock is a parsed wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

type timeOfDayEntry struct {
	pattern string
	clock   Clock
}

var timeOfDay = []timeOfDayEntry{
	{"midnight", Clock{0, 0}},
	{"afternoon", Clock{14, 0}},
	{"morning", Clock{9, 0}},
	{"evening", Clock{18, 0}},
	{"night", Clock{21, 0}},
	{"noon", Clock{12, 0}},
	// Roman Urdu
	{"dopehar", Clock{14, 0}},
	{"subah", Clock{9, 0}},
	{"shaam", Clock{18, 0}},
	{"raat", Clock{21, 0}},
}

var (
	ampmWithMinutes = regexp.MustCompile(`(\d{1,2}):?(\d{2})?\s*(am|pm|a\.m\.|p\.m\.)`)
	twentyFourHour  = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

// ParseTimeOfDay extracts a clock time from named periods (morning,
// shaam, noon) or explicit expressions ("3pm", "3:30 pm", "14:00").
// 12-hour forms are normalized: 12 am is hour 0, 12 pm stays 12.
func ParseTimeOfDay(text string) (Clock, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, e := range timeOfDay {
		if strings.Contains(lower, e.pattern) {
			return e.clock, true
		}
	}

	if m := ampmWithMinutes.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		isPM := strings.HasPrefix(m[3], "p")
		if isPM && hour != 12 {
			hour += 12
		} else if !isPM && hour == 12 {
			hour = 0
		}
		if hour < 24 && minute < 60 {
			return Clock{hour, minute}, true
		}
	}

	if m := twentyFourHour.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			return Clock{hour, minute}, true
		}
	}

	return Clock{}, false
}

// ParseDateAndTime parses a date from text and overlays any clock
// time found in the same text. Finding both nudges confidence up by
// 0.05, capped at 1.
func ParseDateAndTime(text string, ref time.Time) Result {
	dayRef := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	result := Parse(text, dayRef)
	if result.Date == nil {
		return result
	}

	clock, ok := ParseTimeOfDay(text)
	if !ok {
		return result
	}

	d := *result.Date
	combined := time.Date(d.Year(), d.Month(), d.Day(), clock.Hour, clock.Minute, 0, 0, d.Location())
	confidence := result.Confidence + 0.05
	if confidence > 1 {
		confidence = 1
	}
	return Result{Date: &combined, Text: result.Text, Confidence: confidence}
}

// FormatForDisplay renders a date the way a person would say it:
// today, tomorrow, a weekday name within the week, or a full date.
func FormatForDisplay(date, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	diff := int(day.Sub(today).Hours() / 24)

	switch {
	case diff == 0:
		return "today"
	case diff == 1:
		return "tomorrow"
	case diff == -1:
		return "yesterday"
	case diff > 0 && diff <= 7:
		return date.Format("Monday")
	default:
		return date.Format("January 02, 2006")
	}
}
