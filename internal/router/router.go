// Package router selects which model profile to invoke for a given task
// category and input size. Selection is a pure function over an immutable
// profile table built from configuration at startup.
package router

// Task categorizes the kind of analysis being requested
type Task string

const (
	TaskCategorization Task = "categorization"
	TaskTranslation    Task = "translation"
	TaskSecurity       Task = "security"
	TaskGeneral        Task = "general"
)

// fastInputThreshold is the input size below which categorization tasks can
// use the fast profile without losing accuracy
const fastInputThreshold = 500

// Profiles maps the four routing profiles to concrete model identifiers
type Profiles struct {
	Fast         string
	Balanced     string
	Accurate     string
	Multilingual string
}

// Select returns the model identifier for a task. Rule order matters:
// small categorization jobs go to the fast profile, translation always to
// the multilingual one, security classification to the accurate one when
// configured, and everything else to the balanced default.
func Select(p Profiles, task Task, inputSize int) string {
	switch {
	case task == TaskCategorization && inputSize < fastInputThreshold && p.Fast != "":
		return p.Fast
	case task == TaskTranslation && p.Multilingual != "":
		return p.Multilingual
	case task == TaskSecurity:
		if p.Accurate != "" {
			return p.Accurate
		}
		return p.Balanced
	default:
		return p.Balanced
	}
}
