package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var meetingNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestMeetingVirtualWithTimeAndDate(t *testing.T) {
	got := Meeting("Can we schedule a Zoom call tomorrow at 3:00 pm or 4:30 pm?", meetingNow)

	require.NotNil(t, got)
	assert.Equal(t, "virtual", got.Type)
	assert.Equal(t, []string{"3:00 pm", "4:30 pm"}, got.Times)
	require.NotNil(t, got.Date)
	assert.Equal(t, meetingNow.Add(24*time.Hour), *got.Date)
}

func TestMeetingInPerson(t *testing.T) {
	got := Meeting("Let's have the meeting at 10:00 in the conference room.", meetingNow)

	require.NotNil(t, got)
	assert.Equal(t, "in-person", got.Type)
	assert.Equal(t, []string{"10:00"}, got.Times)
	assert.Nil(t, got.Date)
}

func TestMeetingTimesCapped(t *testing.T) {
	got := Meeting("meeting options: 9:00 am, 10:00 am, 11:00 am, 1:00 pm", meetingNow)

	require.NotNil(t, got)
	assert.Len(t, got.Times, maxMeetingTimes)
}

func TestMeetingKeywordAloneIsNotEnough(t *testing.T) {
	assert.Nil(t, Meeting("We should have a discussion about this sometime.", meetingNow))
}

func TestMeetingNoKeyword(t *testing.T) {
	assert.Nil(t, Meeting("The invoice for March is attached at 3:00 pm.", meetingNow))
}
