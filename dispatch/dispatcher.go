package dispatch

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/util"
	"go.uber.org/zap"
)

// BatchResult carries the outcome of one fan-out dispatch. Jobs and Images
// hold one entry per request that succeeded, in completion order, so
// callers must correlate by id, not by position. Failures holds the error
// of every request that did not succeed.
type BatchResult struct {
	Jobs     []model.Job
	Images   []model.FunnelImage
	Failures []error
}

// Dispatcher issues generation requests against the rendering backend,
// all requests of a batch concurrently, and returns only once every
// request has finished. Concurrency is bounded by the configured
// capacity; batches larger than the bound queue behind in-flight
// requests. Individual requests are never retried.
type Dispatcher interface {
	ExecuteParallel(ctx context.Context, funnelId string, stepId string, workflowIds []string,
		basePrompt string, baseNegativePrompt string, baseParameters map[string]any) (*BatchResult, error)
	ExecuteRefinements(ctx context.Context, funnelId string, stepId string,
		refinements []model.RefinementSpec) (*BatchResult, error)
}

var _ Dispatcher = new(renderDispatcher)

type renderDispatcher struct {
	client   RenderClient
	capacity int
}

func NewRenderDispatcher(client RenderClient, capacity int) *renderDispatcher {
	return &renderDispatcher{
		client:   client,
		capacity: capacity,
	}
}

func (d *renderDispatcher) ExecuteParallel(ctx context.Context, funnelId string, stepId string,
	workflowIds []string, basePrompt string, baseNegativePrompt string, baseParameters map[string]any) (*BatchResult, error) {
	requests := make([]RenderRequest, 0, len(workflowIds))
	for _, workflowId := range workflowIds {
		requests = append(requests, RenderRequest{
			WorkflowId:     workflowId,
			Prompt:         basePrompt,
			NegativePrompt: baseNegativePrompt,
			Parameters:     baseParameters,
		})
	}
	logger.Info("dispatching parallel generation", zap.String("funnelId", funnelId),
		zap.String("stepId", stepId), zap.Int("requests", len(requests)))
	return d.execute(ctx, funnelId, stepId, requests), nil
}

func (d *renderDispatcher) ExecuteRefinements(ctx context.Context, funnelId string, stepId string,
	refinements []model.RefinementSpec) (*BatchResult, error) {
	requests := make([]RenderRequest, 0, len(refinements))
	for _, ref := range refinements {
		requests = append(requests, RenderRequest{
			WorkflowId:     ref.WorkflowId,
			Prompt:         ref.Prompt,
			NegativePrompt: ref.NegativePrompt,
			Seed:           ref.Seed,
			Parameters:     ref.Parameters,
		})
	}
	logger.Info("dispatching refinement generation", zap.String("funnelId", funnelId),
		zap.String("stepId", stepId), zap.Int("requests", len(requests)))
	return d.execute(ctx, funnelId, stepId, requests), nil
}

type renderOutcome struct {
	job   model.Job
	image model.FunnelImage
}

func (d *renderDispatcher) execute(ctx context.Context, funnelId string, stepId string, requests []RenderRequest) *BatchResult {
	outcomes := util.FanOut(requests, d.capacity, func(req RenderRequest) (renderOutcome, error) {
		if req.Seed == 0 {
			req.Seed = rand.Int63()
		}
		result, err := d.client.Render(ctx, req)
		if err != nil {
			logger.Error("render request failed", zap.String("workflowId", req.WorkflowId), zap.Error(err))
			return renderOutcome{}, err
		}
		seed := result.Seed
		if seed == 0 {
			seed = req.Seed
		}
		return renderOutcome{
			job: model.Job{
				Id:         result.JobId,
				FunnelId:   funnelId,
				StepId:     stepId,
				WorkflowId: req.WorkflowId,
				Status:     result.Status,
			},
			image: model.FunnelImage{
				Id:             uuid.New().String(),
				FunnelId:       funnelId,
				StepId:         stepId,
				WorkflowId:     req.WorkflowId,
				Prompt:         req.Prompt,
				NegativePrompt: req.NegativePrompt,
				Seed:           seed,
				Parameters:     req.Parameters,
				FilePath:       result.FilePath,
			},
		}, nil
	})
	batch := &BatchResult{}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			batch.Failures = append(batch.Failures, outcome.Err)
			continue
		}
		batch.Jobs = append(batch.Jobs, outcome.Value.job)
		batch.Images = append(batch.Images, outcome.Value.image)
	}
	return batch
}
