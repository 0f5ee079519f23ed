package extract

import (
	"github.com/mikey/llm-mail-analyzer/internal/core"
)

// maxSmartReplies caps the suggestions returned per message
const maxSmartReplies = 3

// Priority tiers for reply selection
const (
	lowPriorityCeiling  = 4 // below this: low-priority acknowledgments
	urgentPriorityFloor = 7 // at or above this: urgent acknowledgments
)

var (
	meetingReply = "Happy to meet - let me check my calendar and confirm the time."
	taskReply    = "I'll take care of this and confirm once it's done."
	formalReply  = "Thank you for your message. I will review it and respond in due course."

	urgentReplies = []string{
		"Thanks for flagging this - I'm looking into it right away.",
		"On it, will update you shortly.",
		"Understood, treating this as a priority.",
	}
	lowPriorityReplies = []string{
		"Thanks for your email. I'll get back to you when I can.",
		"Noted, thank you.",
		"Received, thanks for the update.",
	}
	standardReplies = []string{
		"Thanks for your email. I'll review and respond soon.",
		"Got it, thank you. Let me take a look.",
		"Thanks for reaching out. I'll follow up shortly.",
	}
)

// SmartReplies picks up to 3 suggested replies from a fixed candidate bank.
// Candidates are considered in bank order: a meeting acknowledgment first,
// then a task acknowledgment, then the priority-tier bank, then a formal
// closer when the tone warrants it.
func SmartReplies(priority int, meeting *core.MeetingRequest, tasks []core.Task, tone string) []string {
	replies := []string{}

	if meeting != nil {
		replies = append(replies, meetingReply)
	}
	if len(tasks) > 0 {
		replies = append(replies, taskReply)
	}

	var bank []string
	switch {
	case priority >= urgentPriorityFloor:
		bank = urgentReplies
	case priority < lowPriorityCeiling:
		bank = lowPriorityReplies
	default:
		bank = standardReplies
	}
	replies = append(replies, bank...)

	if tone == "formal" {
		replies = append(replies, formalReply)
	}

	if len(replies) > maxSmartReplies {
		replies = replies[:maxSmartReplies]
	}
	return replies
}
