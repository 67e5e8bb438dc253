package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"composer/internal/compose"
	"composer/internal/domain"
	"composer/internal/providers/engine"
)

type fakeJobs struct {
	mu       sync.Mutex
	queue    []*domain.Job
	statuses map[string]domain.JobStatus
	errMsgs  map[string]string
}

func newFakeJobs(jobs ...*domain.Job) *fakeJobs {
	return &fakeJobs{queue: jobs, statuses: map[string]domain.JobStatus{}, errMsgs: map[string]string{}}
}

func (f *fakeJobs) ClaimQueued(ctx context.Context) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, domain.ErrNoJob
	}
	job := f.queue[len(f.queue)-1]
	f.queue = f.queue[:len(f.queue)-1]
	f.statuses[job.ID] = domain.JobStatusProcessing
	job.Status = domain.JobStatusProcessing
	return job, nil
}

func (f *fakeJobs) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[jobID] = status
	f.errMsgs[jobID] = errMsg
	return nil
}

type fakeAssets struct {
	mu       sync.Mutex
	byID     map[string]*domain.Asset
	inserted []*domain.Asset
	nextID   int
}

func newFakeAssets(assets ...*domain.Asset) *fakeAssets {
	f := &fakeAssets{byID: map[string]*domain.Asset{}}
	for _, a := range assets {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAssets) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAssets) Insert(ctx context.Context, asset *domain.Asset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	asset.ID = "asset-" + strconv.Itoa(f.nextID)
	f.inserted = append(f.inserted, asset)
	return asset.ID, nil
}

type fakeStyles struct {
	byKey map[string]*domain.Style
}

func (f *fakeStyles) GetByKey(ctx context.Context, key string) (*domain.Style, error) {
	if s, ok := f.byKey[key]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

type fakeRenders struct {
	mu       sync.Mutex
	inserted []*domain.Render
	nextID   int
}

func (f *fakeRenders) Insert(ctx context.Context, render *domain.Render) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	render.ID = "render-" + strconv.Itoa(f.nextID)
	f.inserted = append(f.inserted, render)
	return render.ID, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	base    string
}

func newMemStore(base string) *memStore {
	return &memStore{objects: map[string][]byte{}, base: base}
}

func (m *memStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+path] = data
	return nil
}

func (m *memStore) PublicURL(bucket, path string) string {
	return m.base + "/" + bucket + "/" + path
}

type stubEngine struct {
	results []domain.RenderResult
	err     error
	calls   int
}

func (s *stubEngine) Generate(ctx context.Context, req engine.Request) ([]domain.RenderResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func discardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestRunOnceEmptyQueue(t *testing.T) {
	jobs := newFakeJobs()
	o := New(Deps{
		Jobs:         jobs,
		Store:        newMemStore("http://store"),
		Local:        &stubEngine{},
		RenderBucket: "renders",
		Logger:       discardLogger(),
	})

	res, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.OK {
		t.Fatal("empty queue must yield OK=false")
	}
	if len(jobs.statuses) != 0 {
		t.Fatalf("no job row may be mutated on an empty queue, got %v", jobs.statuses)
	}
}

func TestRunOnceMissingSceneAssetIsTerminal(t *testing.T) {
	job := &domain.Job{ID: "job-1", ProductAssetID: "prod-1", SceneAssetID: "scene-gone", StyleKey: "minimalism"}
	jobs := newFakeJobs(job)
	assets := newFakeAssets(&domain.Asset{ID: "prod-1", Bucket: "uploads", Path: "p.jpg"})
	renders := &fakeRenders{}
	o := New(Deps{
		Jobs:         jobs,
		Assets:       assets,
		Styles:       &fakeStyles{byKey: map[string]*domain.Style{"minimalism": {Key: "minimalism"}}},
		Renders:      renders,
		Store:        newMemStore("http://store"),
		Local:        &stubEngine{},
		RenderBucket: "renders",
		Logger:       discardLogger(),
	})

	res, err := o.RunOnce(context.Background())
	if err == nil {
		t.Fatal("missing scene asset must fail the run")
	}
	if res.OK {
		t.Fatal("result must not be OK")
	}
	if !strings.Contains(res.Message, "scene asset") {
		t.Fatalf("message = %q, want scene asset failure", res.Message)
	}
	if jobs.statuses["job-1"] != domain.JobStatusError {
		t.Fatalf("job status = %q, want error", jobs.statuses["job-1"])
	}
	if len(renders.inserted) != 0 {
		t.Fatalf("no render rows may exist, got %d", len(renders.inserted))
	}
}

func TestRunOnceEngineSelection(t *testing.T) {
	newDeps := func(styleParams domain.StyleParams, ai engine.Engine) (*fakeJobs, *stubEngine, Deps) {
		job := &domain.Job{ID: "job-1", ProductAssetID: "prod-1", SceneAssetID: "scene-1", StyleKey: "s"}
		jobs := newFakeJobs(job)
		local := &stubEngine{results: []domain.RenderResult{
			{Data: []byte("a"), Ext: domain.RenderExtJPG},
			{Data: []byte("b"), Ext: domain.RenderExtJPG},
		}}
		deps := Deps{
			Jobs: jobs,
			Assets: newFakeAssets(
				&domain.Asset{ID: "prod-1", Bucket: "uploads", Path: "p.jpg"},
				&domain.Asset{ID: "scene-1", Bucket: "uploads", Path: "s.jpg"},
			),
			Styles:       &fakeStyles{byKey: map[string]*domain.Style{"s": {Key: "s", Params: styleParams}}},
			Renders:      &fakeRenders{},
			Store:        newMemStore("http://store"),
			AI:           ai,
			Local:        local,
			RenderBucket: "renders",
			Logger:       discardLogger(),
		}
		return jobs, local, deps
	}

	// AI style with a wired AI engine goes to the AI engine.
	ai := &stubEngine{results: []domain.RenderResult{
		{Data: []byte("x"), Ext: domain.RenderExtPNG},
		{Data: []byte("y"), Ext: domain.RenderExtPNG},
	}}
	_, local, deps := newDeps(domain.StyleParams{Engine: "gemini"}, ai)
	if _, err := New(deps).RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if ai.calls != 1 || local.calls != 0 {
		t.Fatalf("ai=%d local=%d, want ai only", ai.calls, local.calls)
	}

	// AI style without a wired AI engine silently uses the compositor.
	_, local, deps = newDeps(domain.StyleParams{Engine: "gemini"}, nil)
	if _, err := New(deps).RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if local.calls != 1 {
		t.Fatalf("local=%d, want compositor path", local.calls)
	}

	// Non-AI style ignores the wired AI engine.
	ai = &stubEngine{}
	_, local, deps = newDeps(domain.StyleParams{}, ai)
	if _, err := New(deps).RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if ai.calls != 0 || local.calls != 1 {
		t.Fatalf("ai=%d local=%d, want local only", ai.calls, local.calls)
	}
}

func TestRunOnceDiscardsExtraVariants(t *testing.T) {
	job := &domain.Job{ID: "job-1", ProductAssetID: "prod-1", SceneAssetID: "scene-1", StyleKey: "s"}
	jobs := newFakeJobs(job)
	renders := &fakeRenders{}
	local := &stubEngine{results: []domain.RenderResult{
		{Data: []byte("a"), Ext: domain.RenderExtJPG},
		{Data: []byte("b"), Ext: domain.RenderExtJPG},
		{Data: []byte("c"), Ext: domain.RenderExtJPG},
	}}
	o := New(Deps{
		Jobs: jobs,
		Assets: newFakeAssets(
			&domain.Asset{ID: "prod-1", Bucket: "uploads", Path: "p.jpg"},
			&domain.Asset{ID: "scene-1", Bucket: "uploads", Path: "s.jpg"},
		),
		Styles:       &fakeStyles{byKey: map[string]*domain.Style{"s": {Key: "s", Params: domain.StyleParams{Variants: 3}}}},
		Renders:      renders,
		Store:        newMemStore("http://store"),
		Local:        local,
		RenderBucket: "renders",
		Logger:       discardLogger(),
	})

	res, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(res.Variants) != 2 || len(renders.inserted) != 2 {
		t.Fatalf("got %d variants / %d render rows, want exactly 2", len(res.Variants), len(renders.inserted))
	}
}

// cancelingEngine cancels the run context mid-generation, the way a worker
// SIGTERM or an aborted request interrupts an in-flight job.
type cancelingEngine struct {
	cancel context.CancelFunc
}

func (e *cancelingEngine) Generate(ctx context.Context, req engine.Request) ([]domain.RenderResult, error) {
	e.cancel()
	return nil, ctx.Err()
}

func TestRunOnceCanceledMidGenerationStillWritesTerminalStatus(t *testing.T) {
	job := &domain.Job{ID: "job-1", ProductAssetID: "prod-1", SceneAssetID: "scene-1", StyleKey: "s"}
	jobs := newFakeJobs(job)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := New(Deps{
		Jobs: jobs,
		Assets: newFakeAssets(
			&domain.Asset{ID: "prod-1", Bucket: "uploads", Path: "p.jpg"},
			&domain.Asset{ID: "scene-1", Bucket: "uploads", Path: "s.jpg"},
		),
		Styles:       &fakeStyles{byKey: map[string]*domain.Style{"s": {Key: "s"}}},
		Renders:      &fakeRenders{},
		Store:        newMemStore("http://store"),
		Local:        &cancelingEngine{cancel: cancel},
		RenderBucket: "renders",
		Logger:       discardLogger(),
	})

	if _, err := o.RunOnce(ctx); err == nil {
		t.Fatal("canceled run must surface an error")
	}
	if jobs.statuses["job-1"] != domain.JobStatusError {
		t.Fatalf("job status = %q, want error even after cancellation", jobs.statuses["job-1"])
	}
	if jobs.errMsgs["job-1"] == "" {
		t.Fatal("error message must be recorded on the job")
	}
}

func TestRunOnceGenerationFailureMarksJobError(t *testing.T) {
	job := &domain.Job{ID: "job-1", ProductAssetID: "prod-1", SceneAssetID: "scene-1", StyleKey: "s"}
	jobs := newFakeJobs(job)
	o := New(Deps{
		Jobs: jobs,
		Assets: newFakeAssets(
			&domain.Asset{ID: "prod-1", Bucket: "uploads", Path: "p.jpg"},
			&domain.Asset{ID: "scene-1", Bucket: "uploads", Path: "s.jpg"},
		),
		Styles:       &fakeStyles{byKey: map[string]*domain.Style{"s": {Key: "s"}}},
		Renders:      &fakeRenders{},
		Store:        newMemStore("http://store"),
		Local:        &stubEngine{err: errors.New("engine down")},
		RenderBucket: "renders",
		Logger:       discardLogger(),
	})

	_, err := o.RunOnce(context.Background())
	if err == nil {
		t.Fatal("generation failure must surface")
	}
	if jobs.statuses["job-1"] != domain.JobStatusError {
		t.Fatalf("job status = %q, want error", jobs.statuses["job-1"])
	}
	if jobs.errMsgs["job-1"] == "" {
		t.Fatal("error message must be recorded on the job")
	}
}

// End-to-end over the real compositor: compositor-only style, one palette
// color, two persisted JPEG renders, job ends done.
func TestRunOnceCompositorPathEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var img image.Image
		switch r.URL.Path {
		case "/uploads/product.jpg":
			img = imaging.New(300, 400, color.NRGBA{R: 210, G: 40, B: 40, A: 255})
		case "/uploads/scene.jpg":
			img = imaging.New(600, 900, color.NRGBA{R: 30, G: 90, B: 140, A: 255})
		default:
			http.NotFound(w, r)
			return
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
			t.Errorf("encode fixture: %v", err)
		}
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	job := &domain.Job{
		ID:             "job-e2e",
		ProductAssetID: "prod-1",
		SceneAssetID:   "scene-1",
		StyleKey:       "minimalism",
		Palette:        []string{"#112233"},
	}
	jobs := newFakeJobs(job)
	assets := newFakeAssets(
		&domain.Asset{ID: "prod-1", Bucket: "uploads", Path: "product.jpg"},
		&domain.Asset{ID: "scene-1", Bucket: "uploads", Path: "scene.jpg"},
	)
	renders := &fakeRenders{}
	store := newMemStore(srv.URL)
	compositor := compose.NewCompositor(compose.NewFetcher(10 * time.Second))

	o := New(Deps{
		Jobs:         jobs,
		Assets:       assets,
		Styles:       &fakeStyles{byKey: map[string]*domain.Style{"minimalism": {Key: "minimalism", Label: "Minimalism"}}},
		Renders:      renders,
		Store:        store,
		Local:        engine.NewLocal(compositor),
		RenderBucket: "renders",
		Logger:       discardLogger(),
	})

	res, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !res.OK || res.JobID != "job-e2e" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if jobs.statuses["job-e2e"] != domain.JobStatusDone {
		t.Fatalf("job status = %q, want done", jobs.statuses["job-e2e"])
	}
	if len(res.Variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(res.Variants))
	}
	for i, v := range res.Variants {
		if v.Variant != i+1 {
			t.Fatalf("variant order mismatch: slot %d carries variant %d", i, v.Variant)
		}
		if v.RenderID == "" || v.AssetID == "" {
			t.Fatalf("variant %d missing ids: %+v", v.Variant, v)
		}
		data, ok := store.objects[strings.TrimPrefix(v.URL, srv.URL+"/")]
		if !ok || len(data) == 0 {
			t.Fatalf("variant %d bytes not uploaded under %q", v.Variant, v.URL)
		}
		if data[0] != 0xff || data[1] != 0xd8 {
			t.Fatalf("variant %d is not a JPEG", v.Variant)
		}
	}
	if res.Variants[0].RenderID == res.Variants[1].RenderID {
		t.Fatal("render rows must be distinct")
	}
	for _, r := range renders.inserted {
		if r.JobID != "job-e2e" {
			t.Fatalf("render row job id = %q", r.JobID)
		}
		if r.Selected {
			t.Fatal("renders must be inserted unselected")
		}
	}
	if fmt.Sprint(jobs.errMsgs["job-e2e"]) != "" {
		t.Fatalf("error message must stay empty on success, got %q", jobs.errMsgs["job-e2e"])
	}
}
