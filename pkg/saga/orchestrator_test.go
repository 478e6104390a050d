package saga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopforge/shopforge/pkg/catalog"
	"github.com/shopforge/shopforge/pkg/storage"
)

// fakeRecords implements storage.RecordStore with a call log and per-method
// failure injection.
type fakeRecords struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]error
	nextID int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{failOn: make(map[string]error)}
}

func (f *fakeRecords) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	return f.failOn[method]
}

func (f *fakeRecords) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRecords) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	if err := f.record("CreateProduct"); err != nil {
		return catalog.Product{}, err
	}
	f.mu.Lock()
	f.nextID++
	p.ID = fmt.Sprintf("prod-%d", f.nextID)
	f.mu.Unlock()
	return p, nil
}

func (f *fakeRecords) GetProduct(context.Context, string) (catalog.Product, error) {
	return catalog.Product{}, f.record("GetProduct")
}

func (f *fakeRecords) ListProducts(context.Context, storage.ProductFilter) ([]catalog.Product, int, error) {
	return nil, 0, f.record("ListProducts")
}

func (f *fakeRecords) DeleteProduct(context.Context, string) error {
	return f.record("DeleteProduct")
}

func (f *fakeRecords) CreateImages(context.Context, string, []catalog.ImageDescriptor) error {
	return f.record("CreateImages")
}

func (f *fakeRecords) ListImages(context.Context, string) ([]catalog.ImageDescriptor, error) {
	return nil, f.record("ListImages")
}

func (f *fakeRecords) DeleteImages(context.Context, string) error {
	return f.record("DeleteImages")
}

func (f *fakeRecords) CreateCategory(_ context.Context, c catalog.CategoryRef) (catalog.CategoryRef, error) {
	return c, f.record("CreateCategory")
}

func (f *fakeRecords) GetCategory(context.Context, string) (catalog.CategoryRef, error) {
	return catalog.CategoryRef{}, f.record("GetCategory")
}

func (f *fakeRecords) ListCategories(context.Context) ([]catalog.CategoryRef, error) {
	return nil, f.record("ListCategories")
}

func (f *fakeRecords) LinkCategory(_ context.Context, _, categoryID string) (catalog.CategoryRef, error) {
	if err := f.record("LinkCategory"); err != nil {
		return catalog.CategoryRef{}, err
	}
	return catalog.CategoryRef{ID: categoryID, Name: "Shirts"}, nil
}

func (f *fakeRecords) UnlinkCategory(context.Context, string, string) error {
	return f.record("UnlinkCategory")
}

func (f *fakeRecords) ProductCategory(context.Context, string) (*catalog.CategoryRef, error) {
	return nil, f.record("ProductCategory")
}

func (f *fakeRecords) LinkRelatedProducts(context.Context, string, []string) error {
	return f.record("LinkRelatedProducts")
}

func (f *fakeRecords) UnlinkRelatedProducts(context.Context, string, []string) error {
	return f.record("UnlinkRelatedProducts")
}

func (f *fakeRecords) ListRelatedProducts(context.Context, string) ([]string, error) {
	return nil, f.record("ListRelatedProducts")
}

func (f *fakeRecords) CreateAttributes(context.Context, string, []catalog.Attribute) error {
	return f.record("CreateAttributes")
}

func (f *fakeRecords) ListAttributes(context.Context, string) ([]catalog.Attribute, error) {
	return nil, f.record("ListAttributes")
}

func (f *fakeRecords) DeleteAttributes(context.Context, string) error {
	return f.record("DeleteAttributes")
}

func (f *fakeRecords) Close() error { return nil }

// fakeAssets implements assets.Store with upload/delete logs and failure on
// the nth upload.
type fakeAssets struct {
	mu           sync.Mutex
	uploads      []string
	deletes      []string
	failAtUpload int // 1-based; 0 disables
}

func (f *fakeAssets) Upload(_ context.Context, _ []byte, productID string, displayOrder int) (catalog.ImageDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAtUpload > 0 && len(f.uploads)+1 == f.failAtUpload {
		return catalog.ImageDescriptor{}, errors.New("upload rejected")
	}
	externalID := fmt.Sprintf("%s/asset-%d", productID, displayOrder)
	f.uploads = append(f.uploads, externalID)
	return catalog.ImageDescriptor{
		URL:          "https://assets.test/" + externalID,
		ExternalID:   externalID,
		DisplayOrder: displayOrder,
	}, nil
}

func (f *fakeAssets) Delete(_ context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, externalID)
	return nil
}

func (f *fakeAssets) deleteLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deletes))
	copy(out, f.deletes)
	return out
}

func fullRequest() catalog.CreateProductRequest {
	return catalog.CreateProductRequest{
		Name:       "Shirt",
		PriceMinor: 1000,
		CategoryID: "cat-1",
		RelatedAdd: []string{"prod-9"},
		Attributes: []catalog.Attribute{{VariantType: "color", Value: "red"}},
	}
}

func twoFiles() []catalog.ImageUpload {
	return []catalog.ImageUpload{
		{Data: []byte("front"), DisplayOrder: 0},
		{Data: []byte("back"), DisplayOrder: 1},
	}
}

func newTestOrchestrator(t *testing.T, records *fakeRecords, assetStore *fakeAssets, options ...Option) (*Orchestrator, *MemoryJournal) {
	t.Helper()
	journal := NewMemoryJournal()
	options = append([]Option{WithJournal(journal)}, options...)
	o, err := NewOrchestrator(records, assetStore, options...)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o, journal
}

func journaledRun(t *testing.T, journal *MemoryJournal) *Run {
	t.Helper()
	runs, total, err := journal.List(context.Background(), RunListFilter{})
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 journaled run, got %d", total)
	}
	return runs[0]
}

func stepNames(run *Run) []StepName {
	names := make([]StepName, 0, len(run.Steps))
	for _, step := range run.Steps {
		names = append(names, step.Name)
	}
	return names
}

func TestExecuteRecordsStepsInFixedOrder(t *testing.T) {
	records := newFakeRecords()
	assetStore := &fakeAssets{}
	o, journal := newTestOrchestrator(t, records, assetStore)

	aggregate, err := o.Execute(context.Background(), fullRequest(), twoFiles())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if aggregate == nil {
		t.Fatal("expected aggregate result")
	}

	run := journaledRun(t, journal)
	want := []StepName{StepCreateProduct, StepUploadImages, StepLinkCategory, StepLinkRelatedProducts, StepCreateAttributes}
	got := stepNames(run)
	if len(got) != len(want) {
		t.Fatalf("expected %d steps, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	for _, step := range run.Steps {
		if step.Status != StepCompleted {
			t.Fatalf("step %s: expected completed, got %s", step.Name, step.Status)
		}
		if step.Data == nil {
			t.Fatalf("step %s: expected compensation data", step.Name)
		}
	}
	if run.Status != RunComplete {
		t.Fatalf("expected run complete, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

func TestExecuteSkipsStepsWithAbsentInput(t *testing.T) {
	records := newFakeRecords()
	assetStore := &fakeAssets{}
	o, journal := newTestOrchestrator(t, records, assetStore)

	req := catalog.CreateProductRequest{Name: "Shirt", PriceMinor: 10}
	aggregate, err := o.Execute(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	run := journaledRun(t, journal)
	if len(run.Steps) != 1 || run.Steps[0].Name != StepCreateProduct {
		t.Fatalf("expected only CREATE_PRODUCT, got %v", stepNames(run))
	}
	if len(aggregate.Images) != 0 {
		t.Fatalf("expected no images, got %d", len(aggregate.Images))
	}
	if len(aggregate.Attributes) != 0 {
		t.Fatalf("expected no attributes, got %d", len(aggregate.Attributes))
	}
	if aggregate.Category != nil {
		t.Fatalf("expected no category, got %+v", aggregate.Category)
	}
	if len(assetStore.uploads) != 0 {
		t.Fatal("asset store should never be called without files")
	}
}

func TestExecuteAbortsOnFirstFailure(t *testing.T) {
	records := newFakeRecords()
	linkErr := errors.New("category gone")
	records.failOn["LinkCategory"] = linkErr
	assetStore := &fakeAssets{}
	o, journal := newTestOrchestrator(t, records, assetStore)

	_, err := o.Execute(context.Background(), fullRequest(), twoFiles())
	if !errors.Is(err, linkErr) {
		t.Fatalf("expected root cause %v, got %v", linkErr, err)
	}

	for _, call := range records.callLog() {
		if call == "LinkRelatedProducts" || call == "CreateAttributes" {
			t.Fatalf("step after failure executed: %s", call)
		}
	}

	run := journaledRun(t, journal)
	if run.Status != RunFailed {
		t.Fatalf("expected run failed, got %s", run.Status)
	}
	if run.Err == "" {
		t.Fatal("expected run error to hold root cause")
	}
	last := run.Steps[len(run.Steps)-1]
	if last.Name != StepLinkCategory || last.Status != StepFailed {
		t.Fatalf("expected failed LINK_CATEGORY last, got %s %s", last.Name, last.Status)
	}
	if last.Data != nil {
		t.Fatal("failed step must not carry compensation data")
	}
}

func TestCompensationRunsInReverseOrder(t *testing.T) {
	records := newFakeRecords()
	attrErr := errors.New("attribute insert rejected")
	records.failOn["CreateAttributes"] = attrErr
	assetStore := &fakeAssets{}
	o, _ := newTestOrchestrator(t, records, assetStore)

	_, err := o.Execute(context.Background(), fullRequest(), twoFiles())
	if !errors.Is(err, attrErr) {
		t.Fatalf("expected root cause %v, got %v", attrErr, err)
	}

	// Undo order: UnlinkCategory, then image rows, then product row. The
	// related-products step has no undo, and the failed step is excluded.
	var undo []string
	for _, call := range records.callLog() {
		switch call {
		case "UnlinkCategory", "DeleteImages", "DeleteProduct", "DeleteAttributes":
			undo = append(undo, call)
		}
	}
	want := []string{"UnlinkCategory", "DeleteImages", "DeleteProduct"}
	if strings.Join(undo, ",") != strings.Join(want, ",") {
		t.Fatalf("expected undo order %v, got %v", want, undo)
	}

	deletes := assetStore.deleteLog()
	if len(deletes) != 2 {
		t.Fatalf("expected both assets deleted, got %v", deletes)
	}
}

func TestCompensationFailureDoesNotBlockEarlierSteps(t *testing.T) {
	records := newFakeRecords()
	records.failOn["CreateAttributes"] = errors.New("attribute insert rejected")
	records.failOn["UnlinkCategory"] = errors.New("unlink rejected")
	assetStore := &fakeAssets{}
	o, _ := newTestOrchestrator(t, records, assetStore)

	_, err := o.Execute(context.Background(), fullRequest(), nil)
	if err == nil {
		t.Fatal("expected execute to fail")
	}

	deleted := false
	for _, call := range records.callLog() {
		if call == "DeleteProduct" {
			deleted = true
		}
	}
	if !deleted {
		t.Fatal("product delete must still be attempted after unlink failure")
	}
}

func TestExecuteReturnsFullAggregate(t *testing.T) {
	records := newFakeRecords()
	assetStore := &fakeAssets{}
	o, _ := newTestOrchestrator(t, records, assetStore)

	aggregate, err := o.Execute(context.Background(), fullRequest(), twoFiles())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if aggregate.Product.ID == "" {
		t.Fatal("expected created product id")
	}
	if len(aggregate.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(aggregate.Images))
	}
	if len(aggregate.Attributes) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(aggregate.Attributes))
	}
	if aggregate.Category == nil || aggregate.Category.ID != "cat-1" || aggregate.Category.Name == "" {
		t.Fatalf("expected resolved category, got %+v", aggregate.Category)
	}
	for i, img := range aggregate.Images {
		if img.DisplayOrder != i {
			t.Fatalf("image %d: expected display order %d, got %d", i, i, img.DisplayOrder)
		}
	}
}

func TestPartialUploadIsCleanedUpBeforeStepFails(t *testing.T) {
	records := newFakeRecords()
	assetStore := &fakeAssets{failAtUpload: 2}
	o, journal := newTestOrchestrator(t, records, assetStore)

	req := catalog.CreateProductRequest{Name: "Shirt", PriceMinor: 10}
	_, err := o.Execute(context.Background(), req, twoFiles())
	if err == nil || err.Error() != "upload rejected" {
		t.Fatalf("expected upload error, got %v", err)
	}

	// The first, already-uploaded asset is deleted; the second never existed.
	deletes := assetStore.deleteLog()
	if len(deletes) != 1 || deletes[0] != assetStore.uploads[0] {
		t.Fatalf("expected cleanup of first asset only, got %v", deletes)
	}

	deleted := false
	for _, call := range records.callLog() {
		if call == "DeleteImages" {
			t.Fatal("image rows were never written; nothing to delete")
		}
		if call == "DeleteProduct" {
			deleted = true
		}
	}
	if !deleted {
		t.Fatal("expected product row compensation")
	}

	run := journaledRun(t, journal)
	last := run.Steps[len(run.Steps)-1]
	if last.Name != StepUploadImages || last.Status != StepFailed {
		t.Fatalf("expected failed UPLOAD_IMAGES, got %s %s", last.Name, last.Status)
	}
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	records := newFakeRecords()
	assetStore := &fakeAssets{}
	journal := NewMemoryJournal()
	o, err := NewOrchestrator(records, assetStore, WithJournal(journal))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	const runs = 16
	var wg sync.WaitGroup
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := fullRequest()
			req.Name = fmt.Sprintf("Shirt %d", i)
			if _, err := o.Execute(context.Background(), req, twoFiles()); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent execute: %v", err)
	}

	all, total, err := journal.List(context.Background(), RunListFilter{})
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	if total != runs {
		t.Fatalf("expected %d runs, got %d", runs, total)
	}
	for _, run := range all {
		if run.Status != RunComplete {
			t.Fatalf("run %s: expected complete, got %s", run.ID, run.Status)
		}
		if len(run.Steps) != 5 {
			t.Fatalf("run %s: expected 5 steps, got %d", run.ID, len(run.Steps))
		}
	}
}

func TestExecuteRejectsInvalidRequest(t *testing.T) {
	records := newFakeRecords()
	o, journal := newTestOrchestrator(t, records, &fakeAssets{})

	_, err := o.Execute(context.Background(), catalog.CreateProductRequest{}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(records.callLog()) != 0 {
		t.Fatal("no collaborator call may run before validation")
	}
	if _, total, _ := journal.List(context.Background(), RunListFilter{}); total != 0 {
		t.Fatal("no run may be journaled for a rejected request")
	}
}

func TestCreateProductFailureStopsPipeline(t *testing.T) {
	records := newFakeRecords()
	createErr := errors.New("insert rejected")
	records.failOn["CreateProduct"] = createErr
	assetStore := &fakeAssets{}
	o, journal := newTestOrchestrator(t, records, assetStore)

	_, err := o.Execute(context.Background(), fullRequest(), twoFiles())
	if !errors.Is(err, createErr) {
		t.Fatalf("expected root cause %v, got %v", createErr, err)
	}
	if len(assetStore.uploads) != 0 {
		t.Fatal("no upload may run after CREATE_PRODUCT fails")
	}

	run := journaledRun(t, journal)
	if len(run.Steps) != 1 || run.Steps[0].Status != StepFailed {
		t.Fatalf("expected single failed step, got %v", stepNames(run))
	}
}
