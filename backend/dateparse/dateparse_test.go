package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-03-01 was a Friday.
var friday = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 30, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		ref        time.Time
		want       time.Time
		confidence float64
	}{
		{
			name:       "tomorrow",
			text:       "remind me tomorrow",
			ref:        friday,
			want:       date(2024, 3, 2),
			confidence: 0.95,
		},
		{
			name:       "today",
			text:       "finish report today",
			ref:        friday,
			want:       date(2024, 3, 1),
			confidence: 0.95,
		},
		{
			name:       "day after tomorrow beats tomorrow",
			text:       "day after tomorrow",
			ref:        friday,
			want:       date(2024, 3, 3),
			confidence: 0.95,
		},
		{
			name:       "roman urdu kal means tomorrow",
			text:       "kal tak karna hai",
			ref:        friday,
			want:       date(2024, 3, 2),
			confidence: 0.95,
		},
		{
			name:       "urdu script parson",
			text:       "پرسوں",
			ref:        friday,
			want:       date(2024, 3, 3),
			confidence: 0.95,
		},
		{
			name:       "next week",
			text:       "submit next week",
			ref:        friday,
			want:       date(2024, 3, 8),
			confidence: 0.9,
		},
		{
			name:       "in two weeks",
			text:       "in two weeks",
			ref:        friday,
			want:       date(2024, 3, 15),
			confidence: 0.9,
		},
		{
			name: "next monday from wednesday lands in following week",
			text: "next monday",
			// 2024-03-06 was a Wednesday.
			ref:        date(2024, 3, 6),
			want:       date(2024, 3, 11),
			confidence: 0.9,
		},
		{
			name: "next wednesday from wednesday is a full week out",
			text: "next wednesday",
			ref:        date(2024, 3, 6),
			want:       date(2024, 3, 13),
			confidence: 0.9,
		},
		{
			name: "this monday already past clamps to today",
			text: "this monday",
			ref:        date(2024, 3, 6),
			want:       date(2024, 3, 6),
			confidence: 0.85,
		},
		{
			name:       "this sunday later in week",
			text:       "this sunday",
			ref:        friday,
			want:       date(2024, 3, 3),
			confidence: 0.85,
		},
		{
			name:       "in n days",
			text:       "in 5 days",
			ref:        friday,
			want:       date(2024, 3, 6),
			confidence: 0.9,
		},
		{
			name:       "roman urdu din baad",
			text:       "3 din baad",
			ref:        friday,
			want:       date(2024, 3, 4),
			confidence: 0.9,
		},
		{
			name:       "bare weekday name",
			text:       "dentist monday",
			ref:        friday,
			want:       date(2024, 3, 4),
			confidence: 0.7,
		},
		{
			name:       "iso date",
			text:       "due 2024-12-25",
			ref:        friday,
			want:       time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
			confidence: 1.0,
		},
		{
			name:       "numeric date first number taken as month",
			text:       "03/04",
			ref:        friday,
			want:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			confidence: 0.8,
		},
		{
			name:       "numeric date with two digit year",
			text:       "25/12/24",
			ref:        friday,
			want:       time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
			confidence: 0.8,
		},
		{
			name:       "end of week is sunday evening",
			text:       "end of week",
			ref:        friday,
			want:       time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC),
			confidence: 0.9,
		},
		{
			name:       "end of month",
			text:       "end of month",
			ref:        friday,
			want:       time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC),
			confidence: 0.9,
		},
		{
			name:       "next quarter",
			text:       "next quarter",
			ref:        friday,
			want:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			confidence: 0.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.text, tt.ref)
			require.NotNil(t, got.Date, "expected a date for %q", tt.text)
			assert.Equal(t, tt.want, *got.Date)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestParseNoMatch(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "buy milk", "qwerty asdf", "the meeting went well"} {
		got := Parse(text, friday)
		assert.Nil(t, got.Date, "text %q", text)
		assert.Zero(t, got.Confidence)
	}
}

func TestParseRejectsImpossibleDates(t *testing.T) {
	t.Parallel()

	got := Parse("2024-02-31", friday)
	assert.Nil(t, got.Date)

	got = Parse("45/45", friday)
	assert.Nil(t, got.Date)
}

func TestParseIsDeterministic(t *testing.T) {
	t.Parallel()

	first := Parse("next tuesday", friday)
	for i := 0; i < 50; i++ {
		again := Parse("next tuesday", friday)
		assert.Equal(t, first, again)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want Clock
		ok   bool
	}{
		{"tomorrow morning", Clock{9, 0}, true},
		{"in the evening", Clock{18, 0}, true},
		{"at noon", Clock{12, 0}, true},
		{"midnight deadline", Clock{0, 0}, true},
		{"shaam ko milna", Clock{18, 0}, true},
		{"at 3pm", Clock{15, 0}, true},
		{"at 3:30 pm", Clock{15, 30}, true},
		{"12am flight", Clock{0, 0}, true},
		{"12pm lunch", Clock{12, 0}, true},
		{"at 14:45", Clock{14, 45}, true},
		{"no time here", Clock{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseTimeOfDay(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseDateAndTime(t *testing.T) {
	t.Parallel()

	got := ParseDateAndTime("tomorrow at 3pm", friday)
	require.NotNil(t, got.Date)
	assert.Equal(t, time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC), *got.Date)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)

	// Date only: the day keeps its midnight-normalized value.
	got = ParseDateAndTime("tomorrow", friday)
	require.NotNil(t, got.Date)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), *got.Date)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)

	got = ParseDateAndTime("gibberish", friday)
	assert.Nil(t, got.Date)
}

func TestFormatForDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"today", friday, "today"},
		{"tomorrow", date(2024, 3, 2), "tomorrow"},
		{"yesterday", date(2024, 2, 29), "yesterday"},
		{"weekday within week", date(2024, 3, 5), "Tuesday"},
		{"far future", date(2024, 6, 15), "June 15, 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, FormatForDisplay(tt.date, friday))
		})
	}
}
