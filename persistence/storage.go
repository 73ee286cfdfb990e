package persistence

import (
	"context"
	"fmt"

	"github.com/mohitkumar/funnel/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

// VersionConflictError is returned by SaveFunnel when the stored funnel
// revision no longer matches the revision the caller read. The losing
// caller must reload and retry.
type VersionConflictError struct {
	FunnelId string
}

func (e VersionConflictError) Error() string {
	return fmt.Sprintf("funnel %s was modified concurrently", e.FunnelId)
}

// Storage is the durable gateway for funnels, steps, images and jobs.
// Load methods return nil without error when the entity does not exist.
type Storage interface {
	// SaveFunnel persists the funnel after checking that the stored
	// revision equals funnel.Revision; on success the stored revision is
	// funnel.Revision+1 and funnel.Revision is updated in place. A funnel
	// with Revision 0 must not exist yet.
	SaveFunnel(ctx context.Context, funnel *model.Funnel) error
	LoadFunnel(ctx context.Context, funnelId string) (*model.Funnel, error)
	ListFunnels(ctx context.Context) ([]model.Funnel, error)
	// DeleteFunnel removes the funnel and every step, image and job
	// associated with it as one atomic unit.
	DeleteFunnel(ctx context.Context, funnelId string) error

	SaveStep(ctx context.Context, step *model.FunnelStep) error
	LoadStep(ctx context.Context, funnelId string, stepId string) (*model.FunnelStep, error)
	LoadSteps(ctx context.Context, funnelId string) ([]model.FunnelStep, error)

	SaveImage(ctx context.Context, image *model.FunnelImage) error
	LoadImage(ctx context.Context, funnelId string, imageId string) (*model.FunnelImage, error)
	// LoadImages returns all images of a funnel, or only those of one
	// step when stepId is non empty.
	LoadImages(ctx context.Context, funnelId string, stepId string) ([]model.FunnelImage, error)

	SaveJob(ctx context.Context, job *model.Job) error
	LoadJobs(ctx context.Context, funnelId string) ([]model.Job, error)

	// SaveGeneration writes a step together with its images and jobs and
	// the owning funnel as one unit, so a stage transition and its image
	// set become visible together or not at all. The funnel write is
	// revision checked like SaveFunnel.
	SaveGeneration(ctx context.Context, funnel *model.Funnel, step *model.FunnelStep, images []model.FunnelImage, jobs []model.Job) error
}

// WorkflowStorage holds the catalog of rendering workflow definitions.
type WorkflowStorage interface {
	SaveWorkflow(ctx context.Context, wf *model.WorkflowDef) error
	GetWorkflow(ctx context.Context, id string) (*model.WorkflowDef, error)
	ListWorkflows(ctx context.Context) ([]model.WorkflowDef, error)
}
