package extract

// Response-time prediction thresholds, in minutes
const (
	defaultResponseMinutes = 120
	urgentResponseMinutes  = 30
	raisedResponseMinutes  = 60
	relaxedResponseMinutes = 480
	taskBacklogPenalty     = 60
	taskBacklogThreshold   = 3
)

// PredictResponseTime predicts how quickly a reply should go out, in minutes.
// Priority sets the base target, a pending meeting proposal pulls it down to
// an hour at most, and a long task list pushes it back out.
func PredictResponseTime(priority int, hasMeeting bool, taskCount int) int {
	minutes := defaultResponseMinutes
	switch {
	case priority >= 8:
		minutes = urgentResponseMinutes
	case priority >= 6:
		minutes = raisedResponseMinutes
	case priority <= 3:
		minutes = relaxedResponseMinutes
	}

	if hasMeeting && minutes > raisedResponseMinutes {
		minutes = raisedResponseMinutes
	}
	if taskCount > taskBacklogThreshold {
		minutes += taskBacklogPenalty
	}
	return minutes
}
