package saga

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sagaTracerName = "shopforge.saga"

const (
	spanExecuteForward    = "saga.execute.forward"
	spanStepForward       = "saga.step.forward"
	spanExecuteCompensate = "saga.execute.compensation"
	spanStepCompensate    = "saga.step.compensate"
)

func sagaTracer() trace.Tracer {
	return otel.Tracer(sagaTracerName)
}
