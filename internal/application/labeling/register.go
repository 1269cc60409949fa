package labeling

import (
	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
)

// RegisterHandlers wires the labeling command and, when runs and logs are
// non-nil, the history queries into m
func RegisterHandlers(
	m mediator.Mediator,
	orchestrator *Orchestrator,
	runLoggers RunLoggerFactory,
	runs batch.RunRepository,
	logs persistence.JobLogRepository,
) error {
	if err := mediator.RegisterHandler[*RunBatchCommand](m, NewRunBatchHandler(orchestrator, runLoggers)); err != nil {
		return err
	}
	if runs != nil {
		if err := mediator.RegisterHandler[*GetRunQuery](m, NewGetRunHandler(runs)); err != nil {
			return err
		}
		if err := mediator.RegisterHandler[*ListRunsQuery](m, NewListRunsHandler(runs)); err != nil {
			return err
		}
	}
	if logs != nil {
		if err := mediator.RegisterHandler[*GetJobLogsQuery](m, NewGetJobLogsHandler(logs)); err != nil {
			return err
		}
	}
	return nil
}
