package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopforge/shopforge/pkg/assets"
	"github.com/shopforge/shopforge/pkg/catalog"
	"github.com/shopforge/shopforge/pkg/logger"
	"github.com/shopforge/shopforge/pkg/storage"
)

// DefaultStepTimeout bounds each collaborator call when no explicit timeout
// is configured.
const DefaultStepTimeout = 30 * time.Second

// Option customizes Orchestrator initialization.
type Option func(o *Orchestrator)

// WithJournal wires an audit journal receiving run snapshots after every
// run and step transition.
func WithJournal(journal Journal) Option {
	return func(o *Orchestrator) {
		if journal != nil {
			o.journal = journal
		}
	}
}

// WithMetrics wires a metrics recorder.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithLogger wires a logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithStepTimeout bounds each step's collaborator call. Zero disables the
// per-step timeout.
func WithStepTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.stepTimeout = timeout
	}
}

// Orchestrator runs the fixed product-creation pipeline: CREATE_PRODUCT,
// UPLOAD_IMAGES, LINK_CATEGORY, LINK_RELATED_PRODUCTS, CREATE_ATTRIBUTES.
// Steps whose input is absent are skipped. On any step failure the completed
// steps are compensated in reverse order and the root cause is returned to
// the caller unchanged.
//
// Each Execute call owns its Run exclusively; concurrent calls share only
// the collaborators.
type Orchestrator struct {
	records     storage.RecordStore
	assets      assets.Store
	journal     Journal
	metrics     MetricsRecorder
	log         logger.Logger
	stepTimeout time.Duration
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(records storage.RecordStore, assetStore assets.Store, options ...Option) (*Orchestrator, error) {
	if records == nil {
		return nil, fmt.Errorf("record store cannot be nil")
	}
	if assetStore == nil {
		return nil, fmt.Errorf("asset store cannot be nil")
	}

	o := &Orchestrator{
		records:     records,
		assets:      assetStore,
		journal:     NopJournal{},
		metrics:     nopMetricsRecorder{},
		log:         logger.Global(),
		stepTimeout: DefaultStepTimeout,
	}
	for _, option := range options {
		if option != nil {
			option(o)
		}
	}
	return o, nil
}

// Execute runs one creation workflow. On success it returns the aggregate of
// everything created; on failure it compensates completed steps and returns
// the original error from the failing step.
func (o *Orchestrator) Execute(
	ctx context.Context,
	req catalog.CreateProductRequest,
	files []catalog.ImageUpload,
) (*catalog.ProductAggregate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	run := NewRun(uuid.NewString())

	ctx, span := sagaTracer().Start(ctx, spanExecuteForward,
		trace.WithAttributes(attribute.String("saga.run_id", run.ID)))
	defer span.End()

	log := o.log.With("run_id", run.ID)
	o.metrics.IncActiveRuns()
	defer o.metrics.DecActiveRuns()
	started := time.Now()

	o.journalSave(ctx, run)
	log.InfoContext(ctx, "saga run started", "product_name", req.Name)

	aggregate, err := o.executeSteps(ctx, run, req, files, log)
	if err != nil {
		span.RecordError(err)
		if ferr := run.Fail(err); ferr != nil {
			log.ErrorContext(ctx, "run state transition failed", "error", ferr)
		}
		o.journalSave(ctx, run)
		o.metrics.RecordRun(run.Status.String())
		o.metrics.RecordRunDuration(run.Status.String(), time.Since(started))

		report := o.compensate(ctx, run, log)
		log.ErrorContext(ctx, "saga run failed",
			"error", err,
			"steps_recorded", len(run.Steps),
			"compensated", report.Compensated(),
			"compensation_failures", report.Failed(),
		)
		return nil, err
	}

	if cerr := run.Complete(); cerr != nil {
		log.ErrorContext(ctx, "run state transition failed", "error", cerr)
	}
	o.journalSave(ctx, run)
	o.metrics.RecordRun(run.Status.String())
	o.metrics.RecordRunDuration(run.Status.String(), time.Since(started))
	log.InfoContext(ctx, "saga run complete",
		"product_id", aggregate.Product.ID,
		"images", len(aggregate.Images),
		"duration", time.Since(started),
	)
	return aggregate, nil
}

func (o *Orchestrator) executeSteps(
	ctx context.Context,
	run *Run,
	req catalog.CreateProductRequest,
	files []catalog.ImageUpload,
	log logger.Logger,
) (*catalog.ProductAggregate, error) {
	aggregate := &catalog.ProductAggregate{
		Images:     make([]catalog.ImageDescriptor, 0, len(files)),
		Attributes: make([]catalog.Attribute, 0, len(req.Attributes)),
	}

	err := o.runStep(ctx, run, StepCreateProduct, log, func(stepCtx context.Context) (StepData, error) {
		product, err := o.records.CreateProduct(stepCtx, req.Product())
		if err != nil {
			return nil, err
		}
		aggregate.Product = product
		return CreateProductData{ProductID: product.ID}, nil
	})
	if err != nil {
		return nil, err
	}
	productID := aggregate.Product.ID

	if len(files) > 0 {
		err = o.runStep(ctx, run, StepUploadImages, log, func(stepCtx context.Context) (StepData, error) {
			uploaded, err := o.uploadImages(stepCtx, productID, files, log)
			if err != nil {
				return nil, err
			}
			aggregate.Images = uploaded
			return UploadImagesData{ProductID: productID, Assets: uploaded}, nil
		})
		if err != nil {
			return nil, err
		}
	}

	if req.CategoryID != "" {
		err = o.runStep(ctx, run, StepLinkCategory, log, func(stepCtx context.Context) (StepData, error) {
			category, err := o.records.LinkCategory(stepCtx, productID, req.CategoryID)
			if err != nil {
				return nil, err
			}
			aggregate.Category = &category
			return LinkCategoryData{ProductID: productID, CategoryID: req.CategoryID}, nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(req.RelatedAdd) > 0 || len(req.RelatedRemove) > 0 {
		err = o.runStep(ctx, run, StepLinkRelatedProducts, log, func(stepCtx context.Context) (StepData, error) {
			if len(req.RelatedAdd) > 0 {
				if err := o.records.LinkRelatedProducts(stepCtx, productID, req.RelatedAdd); err != nil {
					return nil, err
				}
			}
			if len(req.RelatedRemove) > 0 {
				if err := o.records.UnlinkRelatedProducts(stepCtx, productID, req.RelatedRemove); err != nil {
					return nil, err
				}
			}
			return LinkRelatedProductsData{
				ProductID: productID,
				Added:     req.RelatedAdd,
				Removed:   req.RelatedRemove,
			}, nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(req.Attributes) > 0 {
		err = o.runStep(ctx, run, StepCreateAttributes, log, func(stepCtx context.Context) (StepData, error) {
			if err := o.records.CreateAttributes(stepCtx, productID, req.Attributes); err != nil {
				return nil, err
			}
			aggregate.Attributes = append(aggregate.Attributes, req.Attributes...)
			return CreateAttributesData{ProductID: productID}, nil
		})
		if err != nil {
			return nil, err
		}
	}

	return aggregate, nil
}

// runStep appends a pending step record, executes the side effect under the
// per-step timeout, and transitions the record to completed or failed.
func (o *Orchestrator) runStep(
	ctx context.Context,
	run *Run,
	name StepName,
	log logger.Logger,
	fn func(stepCtx context.Context) (StepData, error),
) error {
	stepCtx, span := sagaTracer().Start(ctx, spanStepForward,
		trace.WithAttributes(attribute.String("saga.step", string(name))))
	defer span.End()

	record := run.BeginStep(name)
	o.journalSave(ctx, run)

	cancel := func() {}
	if o.stepTimeout > 0 {
		stepCtx, cancel = context.WithTimeout(stepCtx, o.stepTimeout)
	}
	defer cancel()

	data, err := fn(stepCtx)
	if err == nil && stepCtx.Err() != nil {
		err = stepCtx.Err()
	}
	if err != nil {
		span.RecordError(err)
		if ferr := record.Fail(err); ferr != nil {
			log.ErrorContext(ctx, "step state transition failed", "step", name, "error", ferr)
		}
		o.metrics.RecordStep(string(name), record.Status.String())
		o.journalSave(ctx, run)
		log.ErrorContext(ctx, "saga step failed", "step", name, "error", err)
		return err
	}

	if cerr := record.Complete(data); cerr != nil {
		log.ErrorContext(ctx, "step state transition failed", "step", name, "error", cerr)
	}
	o.metrics.RecordStep(string(name), record.Status.String())
	o.journalSave(ctx, run)
	log.DebugContext(ctx, "saga step completed", "step", name)
	return nil
}

// uploadImages uploads every file and writes the image rows. If any upload
// or the row write fails, the assets uploaded so far are deleted before the
// error is returned; the step then fails with nothing of its own left behind.
func (o *Orchestrator) uploadImages(
	ctx context.Context,
	productID string,
	files []catalog.ImageUpload,
	log logger.Logger,
) ([]catalog.ImageDescriptor, error) {
	uploaded := make([]catalog.ImageDescriptor, 0, len(files))
	for _, file := range files {
		descriptor, err := o.assets.Upload(ctx, file.Data, productID, file.DisplayOrder)
		if err != nil {
			o.cleanupAssets(ctx, uploaded, log)
			return nil, err
		}
		uploaded = append(uploaded, descriptor)
	}

	if err := o.records.CreateImages(ctx, productID, uploaded); err != nil {
		o.cleanupAssets(ctx, uploaded, log)
		return nil, err
	}
	return uploaded, nil
}

// cleanupAssets deletes partially uploaded assets, best effort.
func (o *Orchestrator) cleanupAssets(ctx context.Context, uploaded []catalog.ImageDescriptor, log logger.Logger) {
	cleanupCtx := context.WithoutCancel(ctx)
	for _, descriptor := range uploaded {
		if err := o.assets.Delete(cleanupCtx, descriptor.ExternalID); err != nil {
			log.ErrorContext(ctx, "partial upload cleanup failed",
				"external_id", descriptor.ExternalID, "error", err)
		}
	}
}

// journalSave snapshots the run. Journal failures are logged and never affect
// the workflow outcome.
func (o *Orchestrator) journalSave(ctx context.Context, run *Run) {
	if err := o.journal.Save(context.WithoutCancel(ctx), run); err != nil {
		o.log.ErrorContext(ctx, "journal save failed", "run_id", run.ID, "error", err)
	}
}
