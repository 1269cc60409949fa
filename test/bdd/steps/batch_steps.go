package steps

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/floodfill-go/internal/adapters/gridstore"
	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/application/logging"
	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/test/helpers"
)

const unreadableGrid = "unreadable"

type batchContext struct {
	// grids maps identifier to its "/"-separated rows, or "unreadable"
	grids     map[string]string
	adjacency raster.Adjacency
	canceled  bool
	recorded  bool

	mediator mediator.Mediator
	store    *gridstore.MemoryStore
	reads    atomic.Int64
	specs    []batch.JobSpec
	response *labeling.RunBatchResponse
	err      error
}

func (bc *batchContext) reset() {
	bc.grids = make(map[string]string)
	bc.adjacency = raster.Adjacency8
	bc.canceled = false
	bc.recorded = false
	bc.mediator = nil
	bc.store = nil
	bc.reads.Store(0)
	bc.specs = nil
	bc.response = nil
	bc.err = nil
}

// newStore loads every known grid into a fresh store that counts reads
func (bc *batchContext) newStore(reads *atomic.Int64) (*gridstore.MemoryStore, error) {
	store := gridstore.NewMemoryStore()
	for id, def := range bc.grids {
		if def == unreadableGrid {
			store.FailRead(id, errors.New("corrupt raster header"))
			continue
		}
		grid, err := helpers.ParseGrid(strings.Split(def, "/")...)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", id, err)
		}
		store.PutGrid(id, grid)
	}
	store.SetReadHook(func(ctx context.Context, identifier string) error {
		reads.Add(1)
		return nil
	})
	return store, nil
}

// specsFor gives each listed grid its own output, so repeated inputs never collide
func specsFor(list string) []batch.JobSpec {
	var specs []batch.JobSpec
	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		specs = append(specs, batch.JobSpec{
			Input:  id,
			Output: fmt.Sprintf("%s.labels.%d", id, len(specs)+1),
		})
	}
	return specs
}

// newMediator wires the labeling handlers, backed by the shared test database
// when run history is recorded
func (bc *batchContext) newMediator(store *gridstore.MemoryStore) (mediator.Mediator, error) {
	m := mediator.NewMediator()
	if !bc.recorded {
		orch := labeling.NewOrchestrator(store, store, nil, nil)
		return m, labeling.RegisterHandlers(m, orch, nil, nil, nil)
	}

	repos := helpers.NewTestRepositories(nil)
	orch := labeling.NewOrchestrator(store, store, repos.RunRepo, nil)
	runLoggers := func(runID string) logging.JobLogger {
		return persistence.NewRunLogger(repos.JobLogRepo, runID)
	}
	return m, labeling.RegisterHandlers(m, orch, runLoggers, repos.RunRepo, repos.JobLogRepo)
}

func (bc *batchContext) execute(store *gridstore.MemoryStore, specs []batch.JobSpec, workers int) (*labeling.RunBatchResponse, error) {
	m, err := bc.newMediator(store)
	if err != nil {
		return nil, err
	}
	bc.mediator = m

	opts := labeling.DefaultOptions()
	opts.MaxWorkers = workers
	opts.Params.Adjacency = bc.adjacency

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if bc.canceled {
		cancel()
	}

	resp, err := m.Send(ctx, &labeling.RunBatchCommand{Jobs: specs, Options: opts})
	out, _ := resp.(*labeling.RunBatchResponse)
	return out, err
}

func (bc *batchContext) outcome(n int) (batch.Outcome, error) {
	if bc.response == nil {
		return batch.Outcome{}, fmt.Errorf("no run response (error: %v)", bc.err)
	}
	if n < 1 || n > len(bc.response.Outcomes) {
		return batch.Outcome{}, fmt.Errorf("job %d out of range (%d jobs)", n, len(bc.response.Outcomes))
	}
	return bc.response.Outcomes[n-1], nil
}

// Given steps

func (bc *batchContext) theGridStoreHolds(table *godog.Table) error {
	for i, row := range tableCells(table) {
		if i == 0 {
			continue
		}
		if len(row) != 2 {
			return fmt.Errorf("row %d: expected identifier and grid", i)
		}
		bc.grids[row[0]] = row[1]
	}
	return nil
}

func (bc *batchContext) setAdjacency(adjacency int) error {
	bc.adjacency = raster.Adjacency(adjacency)
	return nil
}

func (bc *batchContext) runHistoryIsRecorded() error {
	if helpers.SharedTestDB == nil {
		return fmt.Errorf("shared test database not initialized")
	}
	bc.recorded = true
	return helpers.TruncateAllTables()
}

func (bc *batchContext) theBatchContextIsCanceled() error {
	bc.canceled = true
	return nil
}

// When steps

func (bc *batchContext) iRunTheBatchWithWorkers(list string, workers int) error {
	store, err := bc.newStore(&bc.reads)
	if err != nil {
		return err
	}
	bc.store = store
	bc.specs = specsFor(list)
	bc.response, bc.err = bc.execute(store, bc.specs, workers)
	return nil
}

// Then steps

func (bc *batchContext) theBatchCallDoesNotFail() error {
	if bc.err != nil {
		return fmt.Errorf("expected no error, got %v", bc.err)
	}
	return nil
}

func (bc *batchContext) theRunIs(status string) error {
	if bc.response == nil {
		return fmt.Errorf("no run response (error: %v)", bc.err)
	}
	if string(bc.response.Status) != status {
		return fmt.Errorf("expected run %s, got %s", status, bc.response.Status)
	}
	return nil
}

func (bc *batchContext) jobSucceededWithEvents(n, events int) error {
	o, err := bc.outcome(n)
	if err != nil {
		return err
	}
	if !o.Succeeded() {
		return fmt.Errorf("job %d: expected success, got %s", n, o.Summary())
	}
	if o.Events != events {
		return fmt.Errorf("job %d: expected %d events, got %d", n, events, o.Events)
	}
	return nil
}

func (bc *batchContext) jobFailedWith(n int, kind string) error {
	o, err := bc.outcome(n)
	if err != nil {
		return err
	}
	if o.Status != shared.LifecycleStatusFailed || o.ErrorKind != kind {
		return fmt.Errorf("job %d: expected FAILED %s, got %s", n, kind, o.Summary())
	}
	return nil
}

func (bc *batchContext) theLabelsOfAreWritten(id, not string) error {
	written := false
	for _, spec := range bc.specs {
		if spec.Input != id {
			continue
		}
		if _, ok := bc.store.Labels(spec.Output); ok {
			written = true
		}
	}
	if not == "" && !written {
		return fmt.Errorf("labels of %s were not written", id)
	}
	if not != "" && written {
		return fmt.Errorf("labels of %s were written", id)
	}
	return nil
}

func (bc *batchContext) theOutcomesAndLabelsEqualARunWithWorkers(workers int) error {
	var reads atomic.Int64
	store, err := bc.newStore(&reads)
	if err != nil {
		return err
	}
	baseline, err := bc.execute(store, bc.specs, workers)
	if err != nil {
		return fmt.Errorf("baseline run: %w", err)
	}
	if bc.response == nil {
		return fmt.Errorf("no run response (error: %v)", bc.err)
	}

	if len(baseline.Outcomes) != len(bc.response.Outcomes) {
		return fmt.Errorf("expected %d outcomes, got %d", len(baseline.Outcomes), len(bc.response.Outcomes))
	}
	for i, want := range baseline.Outcomes {
		got := bc.response.Outcomes[i]
		if got.Index != want.Index || got.Status != want.Status || got.Events != want.Events || got.ErrorKind != want.ErrorKind {
			return fmt.Errorf("job %d: expected %s, got %s", i+1, want.Summary(), got.Summary())
		}

		wantLabels, wantOK := store.Labels(want.Output)
		gotLabels, gotOK := bc.store.Labels(got.Output)
		if wantOK != gotOK {
			return fmt.Errorf("job %d: labels written mismatch", i+1)
		}
		if wantOK && !reflect.DeepEqual(wantLabels.Rows2D(), gotLabels.Rows2D()) {
			return fmt.Errorf("job %d: labels differ: %v vs %v", i+1, gotLabels.Rows2D(), wantLabels.Rows2D())
		}
	}
	return nil
}

func (bc *batchContext) theBatchIsRejectedWithAConfigError() error {
	var configErr *shared.ConfigError
	if !errors.As(bc.err, &configErr) {
		return fmt.Errorf("expected ConfigError, got %v", bc.err)
	}
	if bc.response != nil {
		return fmt.Errorf("expected no run response, got %s", bc.response.Status)
	}
	return nil
}

func (bc *batchContext) noInputWasRead() error {
	if n := bc.reads.Load(); n != 0 {
		return fmt.Errorf("expected no reads, got %d", n)
	}
	return nil
}

func (bc *batchContext) everyJobIs(status string) error {
	if bc.response == nil {
		return fmt.Errorf("no run response (error: %v)", bc.err)
	}
	for i, o := range bc.response.Outcomes {
		if string(o.Status) != status {
			return fmt.Errorf("job %d: expected %s, got %s", i+1, status, o.Status)
		}
	}
	return nil
}

func (bc *batchContext) noLabelsAreWritten() error {
	if written := bc.store.Written(); len(written) > 0 {
		return fmt.Errorf("expected no output, got %v", written)
	}
	return nil
}

func (bc *batchContext) recordedRun(includeEvents bool) (*labeling.GetRunResponse, error) {
	if bc.response == nil {
		return nil, fmt.Errorf("no run response (error: %v)", bc.err)
	}
	resp, err := bc.mediator.Send(context.Background(), &labeling.GetRunQuery{
		RunID:         bc.response.RunID,
		IncludeEvents: includeEvents,
	})
	if err != nil {
		return nil, err
	}
	return resp.(*labeling.GetRunResponse), nil
}

func (bc *batchContext) theRecordedRunIsWithJobs(status string, jobs int) error {
	recorded, err := bc.recordedRun(false)
	if err != nil {
		return err
	}
	if string(recorded.Run.Status()) != status {
		return fmt.Errorf("expected recorded run %s, got %s", status, recorded.Run.Status())
	}
	if len(recorded.Jobs) != jobs {
		return fmt.Errorf("expected %d recorded jobs, got %d", jobs, len(recorded.Jobs))
	}
	return nil
}

func (bc *batchContext) recordedJobHasEvents(n, events int) error {
	recorded, err := bc.recordedRun(true)
	if err != nil {
		return err
	}
	if got := len(recorded.Events[n-1]); got != events {
		return fmt.Errorf("job %d: expected %d recorded events, got %d", n, events, got)
	}
	return nil
}

func (bc *batchContext) theRunLogContains(message string) error {
	resp, err := bc.mediator.Send(context.Background(), &labeling.GetJobLogsQuery{
		RunID: bc.response.RunID,
		Limit: 100,
	})
	if err != nil {
		return err
	}
	for _, entry := range resp.(*labeling.GetJobLogsResponse).Logs {
		if strings.Contains(entry.Message, message) {
			return nil
		}
	}
	return fmt.Errorf("no log entry of run %s contains %q", bc.response.RunID, message)
}

func InitializeBatchScenario(sc *godog.ScenarioContext) {
	bc := &batchContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		bc.reset()
		return ctx, nil
	})

	// Given steps
	sc.Step(`^the grid store holds:$`, bc.theGridStoreHolds)
	sc.Step(`^adjacency (\d+)$`, bc.setAdjacency)
	sc.Step(`^the batch context is canceled$`, bc.theBatchContextIsCanceled)
	sc.Step(`^run history is recorded$`, bc.runHistoryIsRecorded)

	// When steps
	sc.Step(`^I run the batch "([^"]*)" with (\d+) workers?$`, bc.iRunTheBatchWithWorkers)

	// Then steps
	sc.Step(`^the batch call does not fail$`, bc.theBatchCallDoesNotFail)
	sc.Step(`^the run is "([^"]*)"$`, bc.theRunIs)
	sc.Step(`^job (\d+) succeeded with (\d+) events$`, bc.jobSucceededWithEvents)
	sc.Step(`^job (\d+) failed with "([^"]*)"$`, bc.jobFailedWith)
	sc.Step(`^the labels of "([^"]*)" are (not )?written$`, bc.theLabelsOfAreWritten)
	sc.Step(`^the outcomes and labels equal a run with (\d+) workers?$`, bc.theOutcomesAndLabelsEqualARunWithWorkers)
	sc.Step(`^the batch is rejected with a ConfigError$`, bc.theBatchIsRejectedWithAConfigError)
	sc.Step(`^no input was read$`, bc.noInputWasRead)
	sc.Step(`^every job is "([^"]*)"$`, bc.everyJobIs)
	sc.Step(`^no labels are written$`, bc.noLabelsAreWritten)
	sc.Step(`^the recorded run is "([^"]*)" with (\d+) jobs$`, bc.theRecordedRunIsWithJobs)
	sc.Step(`^recorded job (\d+) has (\d+) events$`, bc.recordedJobHasEvents)
	sc.Step(`^the run log contains "([^"]*)"$`, bc.theRunLogContains)
}
