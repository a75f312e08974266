// Package dateparse extracts dates and times from natural language in
// English, Roman Urdu, and Urdu script. Parsing is deterministic: the
// reference instant is always supplied by the caller and no function
// here reads the system clock.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result carries a parsed date with a confidence score in [0, 1].
// Date is nil when no date expression was found.
type Result struct {
	Date       *time.Time
	Text       string
	Confidence float64
}

// Pattern tables are ordered slices: longer expressions come first so
// "day after tomorrow" wins over "tomorrow", and lookup order stays
// stable across calls.

type relativeEntry struct {
	pattern string
	days    int
}

var relativeDates = []relativeEntry{
	{"day after tomorrow", 2},
	{"yesterday", -1},
	{"tomorrow", 1},
	{"today", 0},
	{"tmrw", 1},
	{"tmr", 1},
	{"tom", 1},
	{"tod", 0},
	// Roman Urdu; "kal" means both tomorrow and yesterday, tomorrow
	// is assumed since tasks point forward.
	{"agla din", 1},
	{"parson", 2},
	{"parso", 2},
	{"aaj", 0},
	{"kal", 1},
	{"aj", 0},
	// Urdu script
	{"پرسوں", 2},
	{"آج", 0},
	{"کل", 1},
}

var weekExpressions = []relativeEntry{
	{"in two weeks", 14},
	{"in 2 weeks", 14},
	{"next week", 7},
	{"this week", 0},
	{"in a week", 7},
	// Roman Urdu
	{"aglay hafte", 7},
	{"aglay hafta", 7},
	{"agli week", 7},
	{"is hafte", 0},
	{"is hafta", 0},
	// Urdu script
	{"اگلے ہفتے", 7},
	{"اس ہفتے", 0},
}

type dayEntry struct {
	name    string
	weekday int // Monday = 0
}

var dayNames = []dayEntry{
	{"monday", 0}, {"mon", 0},
	{"tuesday", 1}, {"tues", 1}, {"tue", 1},
	{"wednesday", 2}, {"wed", 2},
	{"thursday", 3}, {"thurs", 3}, {"thur", 3}, {"thu", 3},
	{"friday", 4}, {"fri", 4},
	{"saturday", 5}, {"sat", 5},
	{"sunday", 6}, {"sun", 6},
	// Roman Urdu
	{"peer", 0}, {"pir", 0}, {"somwar", 0},
	{"mangal", 1},
	{"budh", 2},
	{"jumeraat", 3}, {"jumerat", 3},
	{"jumma", 4}, {"juma", 4},
	{"saneechar", 5}, {"sanichar", 5}, {"hafta", 5},
	{"itwaar", 6}, {"itwar", 6},
}

var (
	nextDayPatterns = []*regexp.Regexp{
		regexp.MustCompile(`next\s+(\w+)`),
		regexp.MustCompile(`agla\s+(\w+)`),
		regexp.MustCompile(`agli\s+(\w+)`),
		regexp.MustCompile(`agle\s+(\w+)`),
	}
	thisDayPatterns = []*regexp.Regexp{
		regexp.MustCompile(`this\s+(\w+)`),
		regexp.MustCompile(`is\s+(\w+)`),
		regexp.MustCompile(`ye\s+(\w+)`),
	}
	inDaysPatterns = []*regexp.Regexp{
		regexp.MustCompile(`in\s+(\d+)\s*days?`),
		regexp.MustCompile(`(\d+)\s*days?\s+(?:from now|later)`),
		regexp.MustCompile(`(\d+)\s*din\s*(?:baad|mein)?`),
		regexp.MustCompile(`(\d+)\s*دن`),
	}
	isoDatePattern     = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	numericDatePattern = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})(?:[/\-](\d{2,4}))?`)

	bareDayPatterns = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, len(dayNames))
		for i, d := range dayNames {
			res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(d.name) + `\b`)
		}
		return res
	}()
)

// mondayWeekday maps Go's Sunday-based weekday to a Monday-based one.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// nextWeekday returns the next strict occurrence of target (Monday=0)
// after from. A target matching from's own weekday lands a week out.
func nextWeekday(target int, from time.Time) time.Time {
	ahead := target - mondayWeekday(from)
	if ahead <= 0 {
		ahead += 7
	}
	return from.AddDate(0, 0, ahead)
}

func dayWeekday(name string) (int, bool) {
	for _, d := range dayNames {
		if d.name == name {
			return d.weekday, true
		}
	}
	return 0, false
}

func found(d time.Time, text string, confidence float64) Result {
	return Result{Date: &d, Text: text, Confidence: confidence}
}

// Parse extracts a date expression from text relative to ref. It
// tries, in order: end-of-week/month and next-quarter phrases,
// relative day words, week expressions, "next <day>", "this <day>",
// "in N days", bare weekday names, ISO dates, and numeric dates.
// Confidence reflects which tier matched; no match yields a nil date
// with confidence 0.
func Parse(text string, ref time.Time) Result {
	lower := strings.ToLower(strings.TrimSpace(text))

	if strings.Contains(lower, "end of week") {
		// Week ends on Sunday.
		until := 6 - mondayWeekday(ref)
		if until < 0 {
			until = 0
		}
		d := ref.AddDate(0, 0, until)
		d = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, d.Location())
		return found(d, text, 0.9)
	}

	if strings.Contains(lower, "end of month") {
		// Day zero of the following month is this month's last day.
		d := time.Date(ref.Year(), ref.Month()+1, 0, 23, 59, 0, 0, ref.Location())
		return found(d, text, 0.9)
	}

	if strings.Contains(lower, "next quarter") {
		quarter := (int(ref.Month()) - 1) / 3
		month := time.Month(((quarter+1)%4)*3 + 1)
		year := ref.Year()
		if month <= ref.Month() {
			year++
		}
		d := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
		return found(d, text, 0.85)
	}

	for _, e := range relativeDates {
		if strings.Contains(lower, e.pattern) {
			return found(ref.AddDate(0, 0, e.days), text, 0.95)
		}
	}

	for _, e := range weekExpressions {
		if strings.Contains(lower, e.pattern) {
			return found(ref.AddDate(0, 0, e.days), text, 0.9)
		}
	}

	for _, re := range nextDayPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if wd, ok := dayWeekday(m[1]); ok {
			return found(nextWeekday(wd, ref), text, 0.9)
		}
	}

	for _, re := range thisDayPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if wd, ok := dayWeekday(m[1]); ok {
			// A weekday already past within this week clamps to today
			// rather than jumping backwards.
			diff := wd - mondayWeekday(ref)
			if diff < 0 {
				diff = 0
			}
			return found(ref.AddDate(0, 0, diff), text, 0.85)
		}
	}

	for _, re := range inDaysPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		days, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return found(ref.AddDate(0, 0, days), text, 0.9)
	}

	for i, re := range bareDayPatterns {
		if re.MatchString(lower) {
			return found(nextWeekday(dayNames[i].weekday, ref), text, 0.7)
		}
	}

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := calendarDate(year, month, day, ref.Location()); ok {
			return found(d, text, 1.0)
		}
	}

	if m := numericDatePattern.FindStringSubmatch(text); m != nil {
		num1, _ := strconv.Atoi(m[1])
		num2, _ := strconv.Atoi(m[2])
		year := ref.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		// Ambiguous without a locale: the first number is taken as the
		// month whenever it could be one, otherwise day/month order is
		// assumed. 03/04 therefore parses as March 4, not April 3.
		month, day := num1, num2
		if num1 > 12 {
			month, day = num2, num1
		}
		if d, ok := calendarDate(year, month, day, ref.Location()); ok {
			return found(d, text, 0.8)
		}
	}

	return Result{Date: nil, Text: text, Confidence: 0}
}

// calendarDate builds a date and rejects values that rolled over, so
// 2024-02-31 is invalid rather than becoming March 2.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
