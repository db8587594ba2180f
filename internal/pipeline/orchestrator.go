package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"reforma-budgets/internal/form"
	"reforma-budgets/internal/models"
	"reforma-budgets/internal/render"
	"reforma-budgets/pkg/storage"

	"go.uber.org/zap"
)

type PageRasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([]render.RasterPage, error)
}

type ContentSnapshotter interface {
	Capture(ctx context.Context, layout *render.Layout) (*render.Snapshot, error)
}

type DocumentAssembler interface {
	Assemble(ctx context.Context, budgetNumber string, snap *render.Snapshot, pages []render.RasterPage) (*render.FinalDocument, error)
}

type BudgetRecorder interface {
	Insert(ctx context.Context, budget *models.Budget) (*models.Budget, error)
}

type LogoSource interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

type Config struct {
	AttachmentBucket string
	BudgetBucket     string
	// CompensateOrphans removes the uploaded objects when the record
	// cannot be persisted.
	CompensateOrphans bool
}

// Result is what a successful run hands back to the caller.
type Result struct {
	Budget          *models.Budget
	PDFURL          string
	FileName        string
	PageCount       int
	AttachmentPages int
	State           State
}

type Orchestrator struct {
	store       storage.ObjectStore
	rasterizer  PageRasterizer
	snapshotter ContentSnapshotter
	assembler   DocumentAssembler
	recorder    BudgetRecorder
	logos       LogoSource
	cfg         Config
	now         func() time.Time
	observer    func(State)
	afterRun    func(*run)
	logger      *zap.Logger
}

func NewOrchestrator(
	store storage.ObjectStore,
	rasterizer PageRasterizer,
	snapshotter ContentSnapshotter,
	assembler DocumentAssembler,
	recorder BudgetRecorder,
	logos LogoSource,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		rasterizer:  rasterizer,
		snapshotter: snapshotter,
		assembler:   assembler,
		recorder:    recorder,
		logos:       logos,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
	}
}

// OnTransition registers fn to be called with every state a run enters.
func (o *Orchestrator) OnTransition(fn func(State)) {
	o.observer = fn
}

type uploadedObject struct {
	bucket string
	path   string
}

// run is the per-invocation scratch space. It is dropped when Run returns.
type run struct {
	state    State
	number   string
	stamp    int64
	pages    []render.RasterPage
	document *render.FinalDocument
	uploads  []uploadedObject
}

// Run executes the pipeline for f. On success the form is reset and the
// persisted budget returned. On failure the form is left as it was and the
// error is classified by models.ErrorKind.
func (o *Orchestrator) Run(ctx context.Context, f *form.BudgetForm, company *models.CompanySettings) (*Result, error) {
	fields := f.Fields()
	attachment := f.Attachment()
	if company == nil {
		company = &models.CompanySettings{}
	}

	r := &run{
		state:  StateIdle,
		number: fields.BudgetNumber,
		stamp:  o.now().UnixMilli(),
	}
	defer func() {
		r.pages = nil
		r.document = nil
		if o.afterRun != nil {
			o.afterRun(r)
		}
	}()

	log := o.logger.With(zap.String("budget_number", r.number))

	if err := o.transition(r, Start{HasAttachment: attachment != nil}); err != nil {
		return nil, err
	}

	var attachmentURL string
	if attachment != nil {
		url, err := o.uploadAttachment(ctx, r, attachment)
		if err != nil {
			return nil, o.fail(ctx, r, log, err)
		}
		attachmentURL = url
		if err := o.transition(r, StepSucceeded{}); err != nil {
			return nil, err
		}

		pages, err := o.rasterizer.Rasterize(ctx, attachment.Data)
		if err != nil {
			return nil, o.fail(ctx, r, log, classify(err, func(err error) error {
				return models.DocumentParseError("failed to rasterize attachment", err)
			}))
		}
		r.pages = pages
		if err := o.transition(r, StepSucceeded{}); err != nil {
			return nil, err
		}
	}

	attachmentName := ""
	if attachment != nil {
		attachmentName = attachment.Name
	}
	snap, err := o.capture(ctx, fields, company, attachmentName, log)
	if err != nil {
		return nil, o.fail(ctx, r, log, err)
	}
	if err := o.transition(r, StepSucceeded{}); err != nil {
		return nil, err
	}

	doc, err := o.assembler.Assemble(ctx, r.number, snap, r.pages)
	if err != nil {
		return nil, o.fail(ctx, r, log, classify(err, func(err error) error {
			return fmt.Errorf("failed to assemble budget document: %w", err)
		}))
	}
	r.document = doc
	if err := o.transition(r, StepSucceeded{}); err != nil {
		return nil, err
	}

	finalPath := fmt.Sprintf("budgets/%s-%d.pdf", r.number, r.stamp)
	pdfURL, err := o.store.Upload(ctx, o.cfg.BudgetBucket, finalPath, doc.Data, form.PDFContentType)
	if err != nil {
		return nil, o.fail(ctx, r, log, classify(err, func(err error) error {
			return models.StorageError("failed to upload budget document", err)
		}))
	}
	r.uploads = append(r.uploads, uploadedObject{bucket: o.cfg.BudgetBucket, path: finalPath})
	r.document = nil
	if err := o.transition(r, StepSucceeded{}); err != nil {
		return nil, err
	}

	record := buildRecord(fields, company, pdfURL, attachmentURL, attachmentName)
	saved, err := o.recorder.Insert(ctx, record)
	if err != nil {
		return nil, o.fail(ctx, r, log, classify(err, func(err error) error {
			return models.PersistenceError("failed to save budget", err)
		}))
	}
	if err := o.transition(r, StepSucceeded{}); err != nil {
		return nil, err
	}

	f.Reset()

	log.Info("budget pipeline completed",
		zap.String("pdf_url", pdfURL),
		zap.Int("pages", doc.PageCount),
		zap.Int("attachment_pages", doc.AttachmentPages),
	)

	return &Result{
		Budget:          saved,
		PDFURL:          pdfURL,
		FileName:        doc.FileName,
		PageCount:       doc.PageCount,
		AttachmentPages: doc.AttachmentPages,
		State:           r.state,
	}, nil
}

func (o *Orchestrator) uploadAttachment(ctx context.Context, r *run, att *form.Attachment) (string, error) {
	path := fmt.Sprintf("material_budgets/%s-%d-%s", r.number, r.stamp, att.Name)
	url, err := o.store.Upload(ctx, o.cfg.AttachmentBucket, path, att.Data, form.PDFContentType)
	if err != nil {
		return "", classify(err, func(err error) error {
			return models.StorageError("failed to upload material budget", err)
		})
	}
	r.uploads = append(r.uploads, uploadedObject{bucket: o.cfg.AttachmentBucket, path: path})
	return url, nil
}

// capture lays out the budget, waits for the layout to resolve and snapshots it.
func (o *Orchestrator) capture(ctx context.Context, fields form.Fields, company *models.CompanySettings, attachmentName string, log *zap.Logger) (*render.Snapshot, error) {
	var logo image.Image
	if company.LogoURL != "" && o.logos != nil {
		img, err := o.logos.Fetch(ctx, company.LogoURL)
		if err != nil {
			log.Warn("failed to load company logo, using placeholder",
				zap.String("logo_url", company.LogoURL),
				zap.Error(err),
			)
		} else {
			logo = img
		}
	}

	layout := render.NewLayout(render.LayoutInput{
		Fields:         fields,
		Company:        company,
		AttachmentName: attachmentName,
		Logo:           logo,
	})
	if err := layout.Resolve(); err != nil {
		return nil, models.NewPipelineError(models.KindContentNotReady, "failed to lay out budget", err)
	}

	select {
	case <-layout.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	snap, err := o.snapshotter.Capture(ctx, layout)
	if err != nil {
		return nil, classify(err, func(err error) error {
			return models.NewPipelineError(models.KindContentNotReady, "failed to capture budget layout", err)
		})
	}
	return snap, nil
}

func (o *Orchestrator) transition(r *run, e Event) error {
	next, err := Next(r.state, e)
	if err != nil {
		return err
	}
	r.state = next
	if o.observer != nil {
		o.observer(next)
	}
	return nil
}

// fail moves the run to Failed, drops its buffers and, for persistence
// failures, removes the objects uploaded by this run.
func (o *Orchestrator) fail(ctx context.Context, r *run, log *zap.Logger, cause error) error {
	failedIn := r.state
	if err := o.transition(r, StepFailed{Err: cause}); err != nil {
		log.Error("unexpected pipeline transition", zap.Error(err))
	}
	r.pages = nil
	r.document = nil

	log.Error("budget pipeline failed",
		zap.Stringer("step", failedIn),
		zap.Error(cause),
	)

	if models.IsKind(cause, models.KindPersistence) && o.cfg.CompensateOrphans {
		o.compensate(context.WithoutCancel(ctx), r, log)
	}

	return cause
}

func (o *Orchestrator) compensate(ctx context.Context, r *run, log *zap.Logger) {
	for _, obj := range r.uploads {
		if err := o.store.Remove(ctx, obj.bucket, obj.path); err != nil {
			log.Warn("failed to remove orphaned upload",
				zap.String("bucket", obj.bucket),
				zap.String("path", obj.path),
				zap.Error(err),
			)
			continue
		}
		log.Info("removed orphaned upload",
			zap.String("bucket", obj.bucket),
			zap.String("path", obj.path),
		)
	}
	r.uploads = nil
}

// classify keeps errors that already carry a kind and context errors as they
// are and wraps everything else with wrap.
func classify(err error, wrap func(error) error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if _, ok := models.KindOf(err); ok {
		return err
	}
	return wrap(err)
}

func buildRecord(fields form.Fields, company *models.CompanySettings, pdfURL, attachmentURL, attachmentName string) *models.Budget {
	b := &models.Budget{
		ClientName:           fields.ClientName,
		BudgetNumber:         fields.BudgetNumber,
		Description:          fields.Description,
		AdditionalNotes:      fields.AdditionalNotes,
		Duration:             fields.Duration,
		ValueWithMaterial:    form.ParseMoney(fields.ValueWithMaterial),
		ValueWithoutMaterial: form.ParseMoney(fields.ValueWithoutMaterial),
		ValidityDays:         form.ParseDays(fields.ValidityDays),
		PaymentMethod:        fields.PaymentMethod,
		PDFURL:               pdfURL,
		LogoURL:              company.LogoURL,
		Status:               models.BudgetStatusPending,
	}
	if !fields.Date.IsZero() {
		d := fields.Date
		b.BudgetDate = &d
	}
	if attachmentURL != "" {
		b.MaterialBudgetPDFURL = &attachmentURL
		b.MaterialBudgetPDFName = &attachmentName
	}
	return b
}
