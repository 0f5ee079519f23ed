package extract

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestTasksRequestPhrasing(t *testing.T) {
	tasks := Tasks("Please send the report by tomorrow.", taskNow)

	require.Len(t, tasks, 1)
	assert.Equal(t, "send the report by tomorrow", tasks[0].Description)
	require.NotNil(t, tasks[0].Deadline)
	assert.Equal(t, taskNow.Add(24*time.Hour), *tasks[0].Deadline)
}

func TestTasksExplicitMarkers(t *testing.T) {
	body := "TODO: update the onboarding doc\nWe must finalize the budget before the review."

	tasks := Tasks(body, taskNow)

	require.Len(t, tasks, 2)
	assert.Equal(t, "finalize the budget before the review", tasks[0].Description)
	assert.Equal(t, "update the onboarding doc", tasks[1].Description)
	assert.Nil(t, tasks[0].Deadline)
}

func TestTasksDeduplicatesDescriptions(t *testing.T) {
	body := "Please review the design doc. You need to review the design doc."

	tasks := Tasks(body, taskNow)

	require.Len(t, tasks, 1)
	assert.Equal(t, "review the design doc", tasks[0].Description)
}

func TestTasksCappedAtFive(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "Please handle item number %d.\n", i)
	}

	tasks := Tasks(b.String(), taskNow)

	assert.Len(t, tasks, maxTasks)
}

func TestTasksTruncatesLongDescriptions(t *testing.T) {
	body := "Please " + strings.Repeat("x", 300)

	tasks := Tasks(body, taskNow)

	require.Len(t, tasks, 1)
	assert.Len(t, tasks[0].Description, maxTaskDescLength)
}

func TestTasksNoneFound(t *testing.T) {
	tasks := Tasks("Nothing actionable here, just an FYI.", taskNow)

	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestExtractDateRelativeTerms(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
	}{
		{"finish this today", taskNow},
		{"due tomorrow morning", taskNow.Add(24 * time.Hour)},
		{"let's revisit next week", taskNow.Add(7 * 24 * time.Hour)},
		{"planned for next month", taskNow.Add(30 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ExtractDate(tt.text, taskNow)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestExtractDateAbsolute(t *testing.T) {
	got := ExtractDate("the contract expires on 12/25/2026", taskNow)

	require.NotNil(t, got)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 25, got.Day())
}

func TestExtractDateNothingFound(t *testing.T) {
	assert.Nil(t, ExtractDate("no temporal reference at all", taskNow))
}
