package batch

import (
	"fmt"
	"time"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// Outcome is the per-job result reported by a batch run.
// Outcomes are reported in submission order; Index is the job's position.
type Outcome struct {
	JobID        string
	Index        int
	Input        string
	Output       string
	DatesOutput  string
	Status       shared.LifecycleStatus
	Events       int
	BurnedPixels int
	// ErrorKind is ReadError, WriteError or Canceled for failed jobs
	ErrorKind string
	Err       error
	Duration  time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.Status == shared.LifecycleStatusSucceeded
}

// Summary renders a one-line description for CLI output and logs
func (o Outcome) Summary() string {
	if o.Succeeded() {
		return fmt.Sprintf("%s: %d events (%d burned pixels) -> %s", o.Input, o.Events, o.BurnedPixels, o.Output)
	}
	kind := o.ErrorKind
	if kind == "" {
		kind = "Error"
	}
	return fmt.Sprintf("%s: %s %s: %v", o.Input, o.Status, kind, o.Err)
}

// Tally counts outcomes by status
type Tally struct {
	Succeeded int
	Failed    int
	Canceled  int
	Events    int
}

func TallyOutcomes(outcomes []Outcome) Tally {
	var t Tally
	for _, o := range outcomes {
		switch o.Status {
		case shared.LifecycleStatusSucceeded:
			t.Succeeded++
			t.Events += o.Events
		case shared.LifecycleStatusCanceled:
			t.Canceled++
		default:
			t.Failed++
		}
	}
	return t
}
