package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"reforma-budgets/internal/dto"
	"reforma-budgets/internal/form"
	"reforma-budgets/internal/models"
	"reforma-budgets/internal/pipeline"
	"reforma-budgets/internal/repository"
	"reforma-budgets/pkg/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakes

type memBudgets struct {
	mu      sync.Mutex
	budgets map[uuid.UUID]*models.Budget
}

func newMemBudgets() *memBudgets {
	return &memBudgets{budgets: make(map[uuid.UUID]*models.Budget)}
}

func (m *memBudgets) add(b *models.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = b
}

func (m *memBudgets) List(_ context.Context, status models.BudgetStatus, _, _ int) ([]*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Budget
	for _, b := range m.budgets {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBudgets) GetByID(_ context.Context, id uuid.UUID) (*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (m *memBudgets) UpdateStatus(_ context.Context, id uuid.UUID, status models.BudgetStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	return nil
}

func (m *memBudgets) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

type fakeRunner struct {
	started chan struct{}
	release chan struct{}
	err     error
	runs    int
}

func (r *fakeRunner) Run(_ context.Context, f *form.BudgetForm, _ *models.CompanySettings) (*pipeline.Result, error) {
	r.runs++
	if r.started != nil {
		r.started <- struct{}{}
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	number := f.Fields().BudgetNumber
	f.Reset()
	return &pipeline.Result{
		Budget:    &models.Budget{ID: uuid.New(), BudgetNumber: number, Status: models.BudgetStatusPending},
		PDFURL:    "http://storage.local/budget-pdfs/budgets/" + number + ".pdf",
		FileName:  "orcamento-" + number + ".pdf",
		PageCount: 1,
		State:     pipeline.StateDone,
	}, nil
}

type staticCompany struct{}

func (staticCompany) Current(context.Context) (*models.CompanySettings, error) {
	return models.DefaultCompanySettings(uuid.New()), nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	failOn  string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Upload(_ context.Context, bucket, path string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && strings.Contains(path, m.failOn) {
		return "", errors.New("network down")
	}
	m.objects[bucket+"/"+path] = data
	return m.PublicURL(bucket, path), nil
}

func (m *memObjects) PublicURL(bucket, path string) string {
	return "http://storage.local/" + bucket + "/" + path
}

func (m *memObjects) Remove(_ context.Context, bucket, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+path)
	m.removed = append(m.removed, bucket+"/"+path)
	return nil
}

func (m *memObjects) PathFromURL(bucket, url string) (string, bool) {
	prefix := "http://storage.local/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

// budget service

func newBudgetService(runner PipelineRunner, budgets BudgetStore) *BudgetService {
	drafts := form.NewCacheDraftStore(cache.NewMemoryClient(), time.Hour)
	return NewBudgetService(drafts, budgets, runner, staticCompany{}, 1024, zap.NewNop())
}

func TestBudgetService_DraftLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newBudgetService(&fakeRunner{}, newMemBudgets())

	draft, err := svc.CreateDraft(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(draft.BudgetNumber, "ORC-"))
	require.NotNil(t, draft.Date)

	id := uuid.MustParse(draft.ID)
	updated, err := svc.UpdateDraft(ctx, id, dto.UpdateDraftRequest{
		ClientName:        strPtr("Ana \xff Lima"),
		ValueWithMaterial: strPtr("300.00"),
		Date:              strPtr("2024-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana  Lima", updated.ClientName)
	assert.Equal(t, "300.00", updated.ValueWithMaterial)
	assert.Equal(t, "2024-06-01", *updated.Date)
	assert.Equal(t, draft.BudgetNumber, updated.BudgetNumber)

	cleared, err := svc.UpdateDraft(ctx, id, dto.UpdateDraftRequest{Date: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.Date)
	assert.Equal(t, "Ana  Lima", cleared.ClientName)

	_, err = svc.UpdateDraft(ctx, id, dto.UpdateDraftRequest{Date: strPtr("01/06/2024")})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.GetDraft(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestBudgetService_Attachment(t *testing.T) {
	ctx := context.Background()
	svc := newBudgetService(&fakeRunner{}, newMemBudgets())
	draft, err := svc.CreateDraft(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(draft.ID)

	_, err = svc.SetAttachment(ctx, id, "foto.png", "image/png", pngBytes(t))
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindInvalidAttachmentType))

	_, err = svc.GetAttachment(ctx, id)
	assert.ErrorIs(t, err, ErrNoAttachment)

	_, err = svc.SetAttachment(ctx, id, "big.pdf", "application/pdf", make([]byte, 2048))
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)

	withAtt, err := svc.SetAttachment(ctx, id, "Orçamento.pdf", "application/pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NotNil(t, withAtt.Attachment)
	assert.Equal(t, "Orcamento.pdf", withAtt.Attachment.Name)

	att, err := svc.GetAttachment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), att.Data)

	without, err := svc.RemoveAttachment(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, without.Attachment)
}

func TestBudgetService_SubmitResetsDraft(t *testing.T) {
	ctx := context.Background()
	svc := newBudgetService(&fakeRunner{}, newMemBudgets())
	draft, err := svc.CreateDraft(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(draft.ID)

	resp, err := svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "done", resp.State)
	assert.Equal(t, draft.BudgetNumber, resp.Budget.BudgetNumber)
	assert.NotEqual(t, draft.BudgetNumber, resp.NextDraft.BudgetNumber)
	assert.Equal(t, draft.ID, resp.NextDraft.ID)

	stored, err := svc.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, resp.NextDraft.BudgetNumber, stored.BudgetNumber)
}

func TestBudgetService_SubmitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	runner := &fakeRunner{err: models.StorageError("failed to upload budget document", errors.New("timeout"))}
	svc := newBudgetService(runner, newMemBudgets())
	draft, err := svc.CreateDraft(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(draft.ID)
	_, err = svc.UpdateDraft(ctx, id, dto.UpdateDraftRequest{ClientName: strPtr("Bruno")})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, id)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindStorage))

	stored, err := svc.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, draft.BudgetNumber, stored.BudgetNumber)
	assert.Equal(t, "Bruno", stored.ClientName)
}

type flakyDrafts struct {
	form.DraftStore
	saveErr   error
	deleteErr error
}

func (d *flakyDrafts) Save(ctx context.Context, f *form.BudgetForm) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	return d.DraftStore.Save(ctx, f)
}

func (d *flakyDrafts) Delete(ctx context.Context, id uuid.UUID) error {
	if d.deleteErr != nil {
		return d.deleteErr
	}
	return d.DraftStore.Delete(ctx, id)
}

func TestBudgetService_SubmitDiscardsDraftWhenResetNotSaved(t *testing.T) {
	ctx := context.Background()
	drafts := &flakyDrafts{DraftStore: form.NewCacheDraftStore(cache.NewMemoryClient(), time.Hour)}
	svc := NewBudgetService(drafts, newMemBudgets(), &fakeRunner{}, staticCompany{}, 1024, zap.NewNop())

	draft, err := svc.CreateDraft(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(draft.ID)

	drafts.saveErr = errors.New("redis: connection refused")
	resp, err := svc.Submit(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, draft.BudgetNumber, resp.Budget.BudgetNumber)
	assert.Nil(t, resp.NextDraft)
	assert.NotEmpty(t, resp.Warning)

	// the old number can not be submitted again
	_, err = svc.Submit(ctx, id)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestBudgetService_SubmitReportsStaleDraft(t *testing.T) {
	ctx := context.Background()
	drafts := &flakyDrafts{DraftStore: form.NewCacheDraftStore(cache.NewMemoryClient(), time.Hour)}
	svc := NewBudgetService(drafts, newMemBudgets(), &fakeRunner{}, staticCompany{}, 1024, zap.NewNop())

	draft, err := svc.CreateDraft(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(draft.ID)

	drafts.saveErr = errors.New("redis: connection refused")
	drafts.deleteErr = errors.New("redis: connection refused")
	resp, err := svc.Submit(ctx, id)
	require.ErrorIs(t, err, ErrDraftResetFailed)
	require.NotNil(t, resp)
	assert.Equal(t, draft.BudgetNumber, resp.Budget.BudgetNumber)
	assert.Nil(t, resp.NextDraft)
}

func TestBudgetService_SubmitBusy(t *testing.T) {
	ctx := context.Background()
	runner := &fakeRunner{started: make(chan struct{}), release: make(chan struct{})}
	svc := newBudgetService(runner, newMemBudgets())
	draft, err := svc.CreateDraft(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(draft.ID)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, id)
		done <- err
	}()
	<-runner.started

	_, err = svc.Submit(ctx, id)
	assert.ErrorIs(t, err, ErrPipelineBusy)

	close(runner.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, runner.runs)
}

func TestBudgetService_BudgetCRUD(t *testing.T) {
	ctx := context.Background()
	budgets := newMemBudgets()
	svc := newBudgetService(&fakeRunner{}, budgets)

	b := &models.Budget{ID: uuid.New(), BudgetNumber: "ORC-11111111", Status: models.BudgetStatusPending, CreatedAt: time.Now()}
	budgets.add(b)

	list, err := svc.ListBudgets(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list.Budgets, 1)

	_, err = svc.ListBudgets(ctx, "Cancelado", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := svc.UpdateBudgetStatus(ctx, b.ID, "Finalizado")
	require.NoError(t, err)
	assert.Equal(t, "Finalizado", updated.Status)

	_, err = svc.UpdateBudgetStatus(ctx, b.ID, "finalizado")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateBudgetStatus(ctx, uuid.New(), "Pendente")
	assert.ErrorIs(t, err, ErrBudgetNotFound)

	require.NoError(t, svc.DeleteBudget(ctx, b.ID))
	assert.ErrorIs(t, svc.DeleteBudget(ctx, b.ID), ErrBudgetNotFound)

	_, err = svc.GetBudget(ctx, b.ID)
	assert.ErrorIs(t, err, ErrBudgetNotFound)
}

// settings service

type memSettings struct {
	saved *models.CompanySettings
}

func (m *memSettings) Get(context.Context, uuid.UUID) (*models.CompanySettings, error) {
	if m.saved == nil {
		return nil, repository.ErrNotFound
	}
	return m.saved, nil
}

func (m *memSettings) Upsert(_ context.Context, s *models.CompanySettings) (*models.CompanySettings, error) {
	saved := *s
	saved.UpdatedAt = time.Now()
	m.saved = &saved
	return &saved, nil
}

func TestSettingsService_DefaultsThenUpdate(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	repo := &memSettings{}
	svc := NewSettingsService(id, repo, newMemObjects(), "logos", zap.NewNop())

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sua Empresa", current.CompanyName)
	assert.Equal(t, id, current.ID)

	resp, err := svc.Update(ctx, dto.CompanySettingsRequest{CompanyName: "  Reforma Já  ", Phone: "(11) 5555-0000"})
	require.NoError(t, err)
	assert.Equal(t, "Reforma Já", resp.CompanyName)
	assert.Equal(t, id.String(), resp.ID)
	assert.NotEmpty(t, resp.UpdatedAt)
}

func TestSettingsService_UploadLogo(t *testing.T) {
	ctx := context.Background()
	objects := newMemObjects()
	repo := &memSettings{}
	svc := NewSettingsService(uuid.New(), repo, objects, "logos", zap.NewNop())

	_, err := svc.UploadLogo(ctx, "logo.txt", []byte("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	resp, err := svc.UploadLogo(ctx, "Minha Logo.png", pngBytes(t))
	require.NoError(t, err)
	assert.Contains(t, resp.LogoURL, "http://storage.local/logos/company_logo/")
	assert.True(t, strings.HasSuffix(resp.LogoURL, "-Minha-Logo.png"))
	assert.Equal(t, "Sua Empresa", resp.CompanyName)
	assert.Equal(t, resp.LogoURL, repo.saved.LogoURL)
}

func TestLogoFileName(t *testing.T) {
	assert.Equal(t, "logo", logoFileName(""))
	assert.Equal(t, "logo.png", logoFileName(".png"))
	assert.Equal(t, "marca.jpg", logoFileName("marca.jpg"))
}

// portfolio service

type memPortfolio struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.PortfolioItem
	err   error
}

func newMemPortfolio() *memPortfolio {
	return &memPortfolio{items: make(map[uuid.UUID]*models.PortfolioItem)}
}

func (m *memPortfolio) Create(_ context.Context, item *models.PortfolioItem) (*models.PortfolioItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *item
	saved.CreatedAt = time.Now()
	for i := range saved.Images {
		saved.Images[i].ID = uuid.New()
		saved.Images[i].OrderIndex = i
	}
	m.items[saved.ID] = &saved
	return &saved, nil
}

func (m *memPortfolio) List(context.Context) ([]*models.PortfolioItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.PortfolioItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	return out, nil
}

func (m *memPortfolio) GetByID(_ context.Context, id uuid.UUID) (*models.PortfolioItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return it, nil
}

func (m *memPortfolio) GetByShareID(_ context.Context, shareID string) (*models.PortfolioItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.PublicShareID == shareID {
			return it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memPortfolio) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func TestPortfolioService_CreateShareDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemPortfolio()
	objects := newMemObjects()
	svc := NewPortfolioService(repo, objects, "portfolio-images", zap.NewNop())

	images := make([]ImageUpload, 6)
	for i := range images {
		images[i] = ImageUpload{Name: "foto " + string(rune('a'+i)) + ".png", Data: pngBytes(t)}
	}
	images[0].Description = "Sala pronta"

	created, err := svc.Create(ctx, CreatePortfolioInput{
		Title:                  "Reforma da sala",
		ClientReferenceContact: "cliente@example.com",
		Images:                 images,
	})
	require.NoError(t, err)
	require.Len(t, created.Images, 6)
	assert.Equal(t, "Sala pronta", *created.Images[0].Description)
	assert.Nil(t, created.Images[1].Description)
	for i, img := range created.Images {
		assert.Equal(t, i, img.OrderIndex)
		assert.True(t, strings.HasSuffix(img.ImageURL, "-foto-"+string(rune('a'+i))+".png"), img.ImageURL)
	}
	require.NotNil(t, created.ClientReferenceContact)
	assert.NotEmpty(t, created.PublicShareID)

	shared, err := svc.GetShared(ctx, created.PublicShareID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, shared.ID)
	assert.Nil(t, shared.ClientReferenceContact)

	list, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Nil(t, list.Items[0].ClientReferenceContact)

	require.NoError(t, svc.Delete(ctx, uuid.MustParse(created.ID)))
	assert.Len(t, objects.removed, 6)
	assert.Empty(t, objects.objects)

	_, err = svc.GetShared(ctx, created.PublicShareID)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.MustParse(created.ID)), ErrPortfolioNotFound)
}

func TestPortfolioService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewPortfolioService(newMemPortfolio(), newMemObjects(), "portfolio-images", zap.NewNop())

	_, err := svc.Create(ctx, CreatePortfolioInput{Title: "  ", Images: []ImageUpload{{Name: "a.png", Data: pngBytes(t)}}})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, CreatePortfolioInput{Title: "Cozinha"})
	assert.ErrorIs(t, err, ErrNoImages)

	_, err = svc.Create(ctx, CreatePortfolioInput{Title: "Cozinha", Images: []ImageUpload{{Name: "a.pdf", Data: []byte("%PDF")}}})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestPortfolioService_UploadFailureCleansUp(t *testing.T) {
	ctx := context.Background()
	objects := newMemObjects()
	objects.failOn = "-2-"
	repo := newMemPortfolio()
	svc := NewPortfolioService(repo, objects, "portfolio-images", zap.NewNop())

	images := []ImageUpload{
		{Name: "a.png", Data: pngBytes(t)},
		{Name: "b.png", Data: pngBytes(t)},
		{Name: "c.png", Data: pngBytes(t)},
	}
	_, err := svc.Create(ctx, CreatePortfolioInput{Title: "Banheiro", Images: images})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindStorage))
	assert.Empty(t, objects.objects)
	assert.Empty(t, repo.items)
}

func TestPortfolioService_PersistFailureCleansUp(t *testing.T) {
	ctx := context.Background()
	objects := newMemObjects()
	repo := newMemPortfolio()
	repo.err = errors.New("db down")
	svc := NewPortfolioService(repo, objects, "portfolio-images", zap.NewNop())

	_, err := svc.Create(ctx, CreatePortfolioInput{Title: "Banheiro", Images: []ImageUpload{{Name: "a.png", Data: pngBytes(t)}}})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindPersistence))
	assert.Empty(t, objects.objects)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "ok", sanitizeUTF8("ok"))
	assert.Equal(t, "ab", sanitizeUTF8("a\xffb"))
	assert.Equal(t, "Orçamento", sanitizeUTF8("Orçamento"))
}
