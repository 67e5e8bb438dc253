package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"composer/internal/compose"
	"composer/internal/domain"
	"composer/internal/providers/engine"
	"composer/internal/storage"
)

// VariantResult describes one persisted render.
type VariantResult struct {
	Variant  int    `json:"variant"`
	RenderID string `json:"render_id"`
	AssetID  string `json:"asset_id"`
	URL      string `json:"url"`
}

// Result is the outcome of a single RunOnce pass.
type Result struct {
	OK       bool            `json:"ok"`
	JobID    string          `json:"job_id,omitempty"`
	Variants []VariantResult `json:"variants,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Deps wires the orchestrator. AI may be nil: engine availability is an
// explicit input here, not ambient environment state, so the per-job engine
// choice stays a visible, testable decision.
type Deps struct {
	Jobs         domain.JobStore
	Assets       domain.AssetStore
	Styles       domain.StyleStore
	Renders      domain.RenderStore
	Store        storage.ObjectStore
	AI           engine.Engine
	Local        engine.Engine
	RenderBucket string
	Logger       zerolog.Logger
}

// Orchestrator drives one job at a time through claim, generation and
// persistence.
type Orchestrator struct {
	deps Deps
}

func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// RunOnce claims the most recently created queued job and runs it to a
// terminal status. An empty queue yields an OK=false result with a nil
// error; any failure after the claim returns a non-nil error alongside a
// result carrying the job id and message, and the job is flipped to error.
func (o *Orchestrator) RunOnce(ctx context.Context) (Result, error) {
	job, err := o.deps.Jobs.ClaimQueued(ctx)
	if errors.Is(err, domain.ErrNoJob) {
		return Result{OK: false, Message: "No queued jobs"}, nil
	}
	if err != nil {
		return Result{OK: false, Message: err.Error()}, fmt.Errorf("claim job: %w", err)
	}

	log := o.deps.Logger.With().Str("job_id", job.ID).Logger()
	log.Info().Str("style", job.StyleKey).Msg("orchestrator: claimed job")

	variants, err := o.process(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("orchestrator: job failed")
		return Result{OK: false, JobID: job.ID, Message: err.Error()}, err
	}

	log.Info().Int("variants", len(variants)).Msg("orchestrator: job done")
	return Result{OK: true, JobID: job.ID, Variants: variants}, nil
}

// process runs the claimed job end to end. Whatever happens, a terminal
// status is written before returning: done on success, error otherwise.
func (o *Orchestrator) process(ctx context.Context, job *domain.Job) (variants []VariantResult, err error) {
	defer func() {
		status := domain.JobStatusDone
		msg := ""
		if err != nil {
			status = domain.JobStatusError
			msg = err.Error()
		}
		// The write must land even when the run failed because ctx was
		// canceled, or the job stays processing forever.
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if uerr := o.deps.Jobs.UpdateStatus(sctx, job.ID, status, msg); uerr != nil {
			o.deps.Logger.Error().Err(uerr).Str("job_id", job.ID).Msg("orchestrator: terminal status write failed")
			if err == nil {
				variants = nil
				err = fmt.Errorf("update job status: %w", uerr)
			}
		}
	}()

	var (
		product, scene *domain.Asset
		style          *domain.Style
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, aerr := o.deps.Assets.GetByID(gctx, job.ProductAssetID)
		if aerr != nil {
			return fmt.Errorf("product asset %s: %w", job.ProductAssetID, aerr)
		}
		product = a
		return nil
	})
	g.Go(func() error {
		a, aerr := o.deps.Assets.GetByID(gctx, job.SceneAssetID)
		if aerr != nil {
			return fmt.Errorf("scene asset %s: %w", job.SceneAssetID, aerr)
		}
		scene = a
		return nil
	})
	g.Go(func() error {
		s, serr := o.deps.Styles.GetByKey(gctx, job.StyleKey)
		if serr != nil {
			return fmt.Errorf("style %q: %w", job.StyleKey, serr)
		}
		style = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	req := engine.Request{
		Prompt:     style.PromptFor(job.Palette),
		Negative:   style.Params.Negative,
		ProductURL: o.deps.Store.PublicURL(product.Bucket, product.Path),
		SceneURL:   o.deps.Store.PublicURL(scene.Bucket, scene.Path),
		Palette:    job.Palette,
		Variants:   style.VariantCount(),
	}

	// Static per-job binary choice; no mid-job switching.
	eng := o.deps.Local
	if style.WantsAI() && o.deps.AI != nil {
		eng = o.deps.AI
	}

	results, err := eng.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if len(results) < domain.MinVariants {
		return nil, fmt.Errorf("engine produced %d variants, need %d", len(results), domain.MinVariants)
	}

	// The product exposes exactly two choices; extras are discarded.
	out := make([]VariantResult, domain.MinVariants)
	pg, pctx := errgroup.WithContext(ctx)
	for i := 0; i < domain.MinVariants; i++ {
		i := i
		pg.Go(func() error {
			v, perr := o.persistVariant(pctx, job.ID, i+1, results[i])
			if perr != nil {
				return perr
			}
			out[i] = v
			return nil
		})
	}
	if err := pg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Orchestrator) persistVariant(ctx context.Context, jobID string, variant int, r domain.RenderResult) (VariantResult, error) {
	path := fmt.Sprintf("jobs/%s/%s.%s", jobID, uuid.NewString(), r.Ext)

	if err := o.deps.Store.Upload(ctx, o.deps.RenderBucket, path, r.Data, r.Ext.MIME()); err != nil {
		return VariantResult{}, fmt.Errorf("upload variant %d: %w", variant, err)
	}

	assetID, err := o.deps.Assets.Insert(ctx, &domain.Asset{
		Kind:      domain.AssetKindRender,
		Bucket:    o.deps.RenderBucket,
		Path:      path,
		MIME:      r.Ext.MIME(),
		SizeBytes: int64(len(r.Data)),
		Width:     compose.CanvasWidth,
		Height:    compose.CanvasHeight,
	})
	if err != nil {
		return VariantResult{}, fmt.Errorf("insert asset for variant %d: %w", variant, err)
	}

	renderID, err := o.deps.Renders.Insert(ctx, &domain.Render{
		JobID:         jobID,
		Variant:       variant,
		RenderAssetID: assetID,
	})
	if err != nil {
		return VariantResult{}, fmt.Errorf("insert render for variant %d: %w", variant, err)
	}

	return VariantResult{
		Variant:  variant,
		RenderID: renderID,
		AssetID:  assetID,
		URL:      o.deps.Store.PublicURL(o.deps.RenderBucket, path),
	}, nil
}
