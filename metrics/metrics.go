// Package metrics carries the ambient observability stack for the
// mediator: Prometheus counters for dispatch/retry/terminal-run volume and
// an OpenTelemetry tracer for init/continue spans, adapted from the
// teacher's HTTP-handler telemetry middleware to this package's
// message-bus-driven call sites (there is no HTTP request path here, so
// this wraps engine operations directly rather than net/http handlers).
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var (
	runsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediator_runs_initiated_total",
			Help: "Total number of workflow runs initiated, by workflow name.",
		},
		[]string{"workflow"},
	)
	runsTerminal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediator_runs_terminal_total",
			Help: "Total number of workflow runs that reached a terminal status.",
		},
		[]string{"workflow", "status"},
	)
	stepsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediator_steps_dispatched_total",
			Help: "Total number of execute-topic messages published, by workflow and step.",
		},
		[]string{"workflow", "step"},
	)
	stepRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediator_step_retries_total",
			Help: "Total number of retry dispatches issued by the retry action, by workflow and step.",
		},
		[]string{"workflow", "step"},
	)
)

func init() {
	prometheus.MustRegister(runsInitiated, runsTerminal, stepsDispatched, stepRetries)
}

// RunInitiated increments the run-initiated counter for workflow.
func RunInitiated(workflow string) { runsInitiated.WithLabelValues(workflow).Inc() }

// RunTerminal increments the terminal-run counter for workflow/status
// ("Success" or "Failed").
func RunTerminal(workflow, status string) { runsTerminal.WithLabelValues(workflow, status).Inc() }

// StepDispatched increments the dispatch counter for workflow/step.
func StepDispatched(workflow, step string) { stepsDispatched.WithLabelValues(workflow, step).Inc() }

// StepRetried increments the retry counter for workflow/step.
func StepRetried(workflow, step string) { stepRetries.WithLabelValues(workflow, step).Inc() }

// Handler returns the Prometheus scrape endpoint handler, mounted by the
// process bootstrap alongside the mediator's own bus/state wiring.
func Handler() http.Handler { return promhttp.Handler() }

// InitTracing installs a stdout-exporting tracer provider under the given
// service name. The mediator has no request-driven transport to export a
// Jaeger/OTLP collector against in this version, so stdout is the only
// exporter wired; a future release could add OTLP once the mediator gains
// an outbound HTTP client to carry it.
func InitTracing(serviceName string) (trace.TracerProvider, error) {
	res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer returns the mediator's named tracer for span creation around
// engine Init/Continue calls.
func Tracer() trace.Tracer { return otel.Tracer("github.com/meshflow/mediator") }
