// Package logging provides the mediator's two log streams: a plain
// operator-facing stream (action handlers like log/log_output write here)
// and a leveled internal stream for engine/mediator diagnostics, backed by
// zap the way the rest of the ambient stack expects. The *Ctx variants also
// feed the OpenTelemetry span active on ctx (see metrics.Tracer), so a
// Warn/Error logged while handling one run shows up as an event (or error
// status) on that run's engine.Init/engine.Continue span, instead of the
// trace and the logs telling two disconnected stories.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	userLogger     *log.Logger
	userWriter     io.Writer = os.Stdout
	internalLogger *zap.SugaredLogger
	modeMu         sync.RWMutex
	mode           = "production"
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

func init() {
	userLogger = log.New(userWriter, "", 0)
	initInternal("production")
}

func initInternal(m string) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if os.Getenv("MEDIATOR_DEBUG") != "" || m == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		log.Printf("logging: failed to build zap logger: %v, falling back to standard logger", err)
		internalLogger = nil
		return
	}
	internalLogger = l.Sugar()
}

// User writes an operator-visible log line (the Action Registry's log and
// log_output handlers use this; it is never gated by level).
func User(format string, v ...any) {
	if userLogger != nil {
		userLogger.Printf(format, v...)
	}
}

func Info(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Infof(format, v...)
	}
}

func Warn(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Warnf(format, v...)
	}
}

func Error(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Errorf(format, v...)
	}
}

func Debug(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Debugf(format, v...)
	}
}

// Errorf logs and returns the formatted error, so call sites can both
// report and propagate in one line.
func Errorf(format string, v ...any) error {
	err := fmt.Errorf(format, v...)
	if internalLogger != nil {
		internalLogger.Errorf("%s", err)
	}
	return err
}

// SetUserOutput redirects the operator-visible stream (tests capture here).
func SetUserOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	userWriter = w
	userLogger = log.New(userWriter, "", 0)
}

// SetMode switches between "production" and "debug" verbosity.
func SetMode(m string) {
	modeMu.Lock()
	defer modeMu.Unlock()
	mode = m
	initInternal(m)
}

// WithRequestID attaches the run's workflow_id to ctx for the *Ctx logging
// calls below, and — if ctx already carries a recording span (an
// engine.Init/engine.Continue call) — tags that span with the same
// workflow_id, so the trace and subsequent log lines correlate on one id
// set in one place rather than each observability path tagging it
// separately.
func WithRequestID(ctx context.Context, id string) context.Context {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("workflow_id", id))
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok
}

// InfoCtx, WarnCtx, ErrorCtx, DebugCtx log to the internal stream with the
// request id from ctx attached as a structured field. InfoCtx, WarnCtx and
// ErrorCtx additionally record the event (and, for ErrorCtx, the error and
// a span error status) on ctx's active span, if any; DebugCtx does not
// touch the span.
func InfoCtx(ctx context.Context, msg string, fields ...any) {
	logCtx(ctx, zapcore.InfoLevel, msg, fields)
}

func WarnCtx(ctx context.Context, msg string, fields ...any) {
	logCtx(ctx, zapcore.WarnLevel, msg, fields)
}

func ErrorCtx(ctx context.Context, msg string, fields ...any) {
	logCtx(ctx, zapcore.ErrorLevel, msg, fields)
}

func DebugCtx(ctx context.Context, msg string, fields ...any) {
	logCtx(ctx, zapcore.DebugLevel, msg, fields)
}

func logCtx(ctx context.Context, level zapcore.Level, msg string, fields []any) {
	if id, ok := requestIDFrom(ctx); ok {
		fields = append(fields, "workflow_id", id)
	}
	logInternal(level, msg, fields)
	annotateSpan(ctx, level, msg, fields)
}

func logInternal(level zapcore.Level, msg string, fields []any) {
	if internalLogger == nil {
		return
	}
	switch level {
	case zapcore.DebugLevel:
		internalLogger.Debugw(msg, fields...)
	case zapcore.InfoLevel:
		internalLogger.Infow(msg, fields...)
	case zapcore.WarnLevel:
		internalLogger.Warnw(msg, fields...)
	default:
		internalLogger.Errorw(msg, fields...)
	}
}

// annotateSpan mirrors a logged event onto ctx's active span, if one is
// recording. Debug events are too fine-grained to carry onto a span and
// are skipped. Error events also set the span's status to Error and, when
// one of the fields is an "error" key holding an error value, call
// RecordError so the span surfaces the underlying cause the same way a
// tracing-only caller would report it.
func annotateSpan(ctx context.Context, level zapcore.Level, msg string, fields []any) {
	if level == zapcore.DebugLevel {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(fields)/2)
	var recordedErr error
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if err, ok := fields[i+1].(error); ok {
			if key == "error" {
				recordedErr = err
			}
			attrs = append(attrs, attribute.String(key, err.Error()))
			continue
		}
		attrs = append(attrs, attribute.String(key, fmt.Sprint(fields[i+1])))
	}
	span.AddEvent(msg, trace.WithAttributes(attrs...))

	if level == zapcore.ErrorLevel {
		if recordedErr != nil {
			span.RecordError(recordedErr)
		}
		span.SetStatus(codes.Error, msg)
	}
}
