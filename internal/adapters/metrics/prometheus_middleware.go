package metrics

import (
	"context"
	"reflect"
	"time"

	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
)

// PrometheusMiddleware measures every request passing through the mediator.
// A nil collector disables it.
func PrometheusMiddleware(collector *CommandMetricsCollector) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		if collector == nil {
			return next(ctx, request)
		}

		name := requestName(request)
		collector.Started(name)
		start := time.Now()

		response, err := next(ctx, request)

		collector.Finished(name, time.Since(start).Seconds(), err)
		return response, err
	}
}

// requestName is the request's type name without pointer or package,
// e.g. "RunBatchCommand"
func requestName(request mediator.Request) string {
	if request == nil {
		return "unknown"
	}
	t := reflect.TypeOf(request)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
