package saga

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopforge/shopforge/pkg/logger"
)

// CompensationOutcome is the result of one undo action.
type CompensationOutcome struct {
	Step StepName
	Err  error
}

// CompensationReport collects per-step undo outcomes for one run. It is
// surfaced through logs only; compensation never changes the error the
// caller receives.
type CompensationReport struct {
	RunID    string
	Outcomes []CompensationOutcome
}

// Compensated returns the number of undo actions that succeeded.
func (r *CompensationReport) Compensated() int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of undo actions that failed.
func (r *CompensationReport) Failed() int {
	return len(r.Outcomes) - r.Compensated()
}

// compensate undoes completed steps in strict reverse recording order. Each
// undo action is wrapped individually: a failure is logged and recorded in
// the report, and the remaining (earlier) steps are still attempted. Failed
// and pending steps are never compensated; they left nothing behind.
//
// Compensation runs on a context detached from the caller's cancellation so
// that a step timeout does not also doom the unwind.
func (o *Orchestrator) compensate(ctx context.Context, run *Run, log logger.Logger) *CompensationReport {
	compCtx, span := sagaTracer().Start(context.WithoutCancel(ctx), spanExecuteCompensate,
		trace.WithAttributes(attribute.String("saga.run_id", run.ID)))
	defer span.End()

	report := &CompensationReport{RunID: run.ID}

	for i := len(run.Steps) - 1; i >= 0; i-- {
		step := run.Steps[i]
		if step.Status != StepCompleted {
			continue
		}

		started := time.Now()
		err := o.compensateStep(compCtx, step)
		report.Outcomes = append(report.Outcomes, CompensationOutcome{Step: step.Name, Err: err})
		o.metrics.RecordCompensationDuration(time.Since(started))
		if err != nil {
			o.metrics.RecordCompensation("failed")
			span.RecordError(err)
			log.ErrorContext(ctx, "compensation failed", "step", step.Name, "error", err)
			continue
		}
		o.metrics.RecordCompensation("completed")
		log.InfoContext(ctx, "step compensated", "step", step.Name)
	}

	return report
}

func (o *Orchestrator) compensateStep(ctx context.Context, step *StepRecord) error {
	ctx, span := sagaTracer().Start(ctx, spanStepCompensate,
		trace.WithAttributes(attribute.String("saga.step", string(step.Name))))
	defer span.End()

	cancel := func() {}
	if o.stepTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.stepTimeout)
	}
	defer cancel()

	switch data := step.Data.(type) {
	case CreateProductData:
		return o.records.DeleteProduct(ctx, data.ProductID)

	case UploadImagesData:
		var firstErr error
		for _, asset := range data.Assets {
			if err := o.assets.Delete(ctx, asset.ExternalID); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("delete asset %s: %w", asset.ExternalID, err)
			}
		}
		if err := o.records.DeleteImages(ctx, data.ProductID); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr

	case LinkCategoryData:
		return o.records.UnlinkCategory(ctx, data.ProductID, data.CategoryID)

	case LinkRelatedProductsData:
		// Related-product links are left in place on rollback. The recorded
		// Added/Removed IDs carry what a symmetric unlink would need.
		return nil

	case CreateAttributesData:
		return o.records.DeleteAttributes(ctx, data.ProductID)

	default:
		return fmt.Errorf("no compensation for step %s data %T", step.Name, step.Data)
	}
}
