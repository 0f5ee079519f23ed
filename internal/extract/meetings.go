package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

// maxMeetingTimes caps how many time-of-day candidates a proposal carries
const maxMeetingTimes = 3

var meetingKeywords = []string{
	"meeting", "call", "appointment", "schedule", "sync",
	"catch up", "discussion", "zoom", "teams", "meet",
}

var virtualPlatformKeywords = []string{
	"zoom", "teams", "google meet", "meet.google", "skype", "webex", "hangout",
}

var timeOfDayPattern = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:am|pm)?\b|\b\d{1,2}\s*(?:am|pm)\b`)

// Meeting detects a meeting proposal. The scan only runs when a meeting
// keyword is present; it then collects up to 3 time-of-day candidates and a
// date. A keyword alone is not enough: with neither times nor a date the
// result is nil. Any videoconference platform mention makes it virtual.
func Meeting(text string, now time.Time) *core.MeetingRequest {
	lower := strings.ToLower(text)

	triggered := false
	for _, kw := range meetingKeywords {
		if strings.Contains(lower, kw) {
			triggered = true
			break
		}
	}
	if !triggered {
		return nil
	}

	times := timeOfDayPattern.FindAllString(text, maxMeetingTimes)
	if times == nil {
		times = []string{}
	}
	date := ExtractDate(text, now)

	if len(times) == 0 && date == nil {
		return nil
	}

	meetingType := "in-person"
	for _, kw := range virtualPlatformKeywords {
		if strings.Contains(lower, kw) {
			meetingType = "virtual"
			break
		}
	}

	return &core.MeetingRequest{
		Times: times,
		Date:  date,
		Type:  meetingType,
	}
}
