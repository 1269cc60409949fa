package cli

import (
	"fmt"
	"io"
	"time"

	daemongrpc "github.com/andrescamacho/floodfill-go/internal/adapters/grpc"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// jobLine is the one-line report of a job
type jobLine struct {
	index    int
	status   string
	input    string
	output   string
	events   int
	burned   int
	kind     string
	err      string
	duration time.Duration
}

func (l jobLine) String() string {
	if l.status == string(shared.LifecycleStatusSucceeded) {
		return fmt.Sprintf("%4d  %-9s  %s: %d events, %d burned pixels -> %s (%s)",
			l.index+1, l.status, l.input, l.events, l.burned, l.output, l.duration.Round(time.Millisecond))
	}
	kind := l.kind
	if kind == "" {
		kind = "Error"
	}
	return fmt.Sprintf("%4d  %-9s  %s: %s: %s", l.index+1, l.status, l.input, kind, l.err)
}

func lineFromOutcome(o batch.Outcome) jobLine {
	l := jobLine{
		index:    o.Index,
		status:   string(o.Status),
		input:    o.Input,
		output:   o.Output,
		events:   o.Events,
		burned:   o.BurnedPixels,
		kind:     o.ErrorKind,
		duration: o.Duration,
	}
	if o.Err != nil {
		l.err = o.Err.Error()
	}
	return l
}

func lineFromMessage(o daemongrpc.OutcomeMessage) jobLine {
	return jobLine{
		index:    o.Index,
		status:   o.Status,
		input:    o.Input,
		output:   o.Output,
		events:   o.Events,
		burned:   o.BurnedPixels,
		kind:     o.ErrorKind,
		err:      o.Error,
		duration: o.Duration(),
	}
}

func printTally(w io.Writer, runID, status string, workers int, t batch.Tally) {
	fmt.Fprintf(w, "\nRun %s %s: %d succeeded, %d failed, %d canceled, %d events (workers: %d)\n",
		runID, status, t.Succeeded, t.Failed, t.Canceled, t.Events, workers)
}

// printRunMessage prints a daemon run with its outcomes
func printRunMessage(w io.Writer, run daemongrpc.RunMessage) {
	for _, o := range run.Outcomes {
		fmt.Fprintln(w, lineFromMessage(o))
	}
	printTally(w, run.RunID, run.Status, run.Workers, batch.Tally{
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
		Canceled:  run.Canceled,
		Events:    run.Events,
	})
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
}

func printEvents(w io.Writer, events []raster.EventSummary) {
	for _, e := range events {
		dates := "undated"
		if e.HasDates {
			dates = fmt.Sprintf("days %d-%d (%d days)", e.FirstDate, e.LastDate, e.DurationDays())
		}
		fmt.Fprintf(w, "        event %-6d %7d px  %s  rows %d-%d cols %d-%d\n",
			e.Label, e.Pixels, dates, e.MinRow, e.MaxRow, e.MinCol, e.MaxCol)
	}
}
