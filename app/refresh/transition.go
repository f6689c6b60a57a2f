package refresh

import (
	"fmt"

	"github.com/pagecast/pagecast/app/httpclient"
)

// State of a refresh attempt. Each attempt transitions
// pending -> running -> {ok, fail, skip}.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateOK      State = "ok"
	StateFail    State = "fail"
	StateSkip    State = "skip"
)

// Action tells the refresher what to do with the published feed file.
type Action string

const (
	// ActionPublish atomically replaces the published feed file.
	ActionPublish Action = "publish"
	// ActionPreserve leaves the last-known-good feed file untouched.
	ActionPreserve Action = "preserve"
)

// Outcome is the decision of one refresh attempt.
type Outcome struct {
	State    State
	Action   Action
	Note     string
	AutoSkip bool
}

// Evaluate is the pure transition function for the refresh state
// machine, so the skip-vs-fail-vs-ok branching is testable without
// network I/O. filteredCount is the item count after keyword filters.
func Evaluate(fetch httpclient.FetchResult, filteredCount int, allowEmptyJob, allowEmptyHost bool) Outcome {
	if !fetch.OK {
		return Outcome{
			State:  StateFail,
			Action: ActionPreserve,
			Note:   fetch.Err,
		}
	}

	if fetch.Status < 200 || fetch.Status >= 400 {
		return Outcome{
			State:  StateFail,
			Action: ActionPreserve,
			Note:   fmt.Sprintf("HTTP status %d", fetch.Status),
		}
	}

	if filteredCount == 0 {
		if allowEmptyJob || allowEmptyHost {
			return Outcome{
				State:    StateSkip,
				Action:   ActionPreserve,
				Note:     "no items after filtering",
				AutoSkip: !allowEmptyJob && allowEmptyHost,
			}
		}
		return Outcome{
			State:  StateFail,
			Action: ActionPreserve,
			Note:   "no items after filtering",
		}
	}

	return Outcome{State: StateOK, Action: ActionPublish}
}
