package inmem

import (
	"context"
	"sync"

	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence"
)

var _ persistence.Storage = new(InMemoryStorage)

// InMemoryStorage keeps everything behind one lock. It backs the
// STORAGE_TYPE_INMEM configuration and the service tests. Records are
// stored and returned as detached copies so caller side mutation never
// reaches a stored record, matching the redis backend's round trip
// through the codec.
type InMemoryStorage struct {
	mu      sync.Mutex
	funnels map[string]model.Funnel
	steps   map[string]map[string]model.FunnelStep
	images  map[string]map[string]model.FunnelImage
	jobs    map[string]map[string]model.Job
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		funnels: make(map[string]model.Funnel),
		steps:   make(map[string]map[string]model.FunnelStep),
		images:  make(map[string]map[string]model.FunnelImage),
		jobs:    make(map[string]map[string]model.Job),
	}
}

func cloneParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneParams(nested)
		} else {
			out[k] = v
		}
	}
	return out
}

func cloneFunnel(funnel model.Funnel) model.Funnel {
	funnel.Config.SelectedWorkflows = append([]string(nil), funnel.Config.SelectedWorkflows...)
	funnel.Config.BaseParameters = cloneParams(funnel.Config.BaseParameters)
	funnel.Steps = append([]model.StepSummary(nil), funnel.Steps...)
	return funnel
}

func cloneStep(step model.FunnelStep) model.FunnelStep {
	step.TechnicalParameters = cloneParams(step.TechnicalParameters)
	return step
}

func cloneImage(image model.FunnelImage) model.FunnelImage {
	image.Parameters = cloneParams(image.Parameters)
	return image
}

func (s *InMemoryStorage) saveFunnelLocked(funnel *model.Funnel) error {
	current, ok := s.funnels[funnel.Id]
	if ok {
		if current.Revision != funnel.Revision {
			return persistence.VersionConflictError{FunnelId: funnel.Id}
		}
	} else if funnel.Revision != 0 {
		return persistence.VersionConflictError{FunnelId: funnel.Id}
	}
	funnel.Revision++
	s.funnels[funnel.Id] = cloneFunnel(*funnel)
	return nil
}

func (s *InMemoryStorage) SaveFunnel(ctx context.Context, funnel *model.Funnel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveFunnelLocked(funnel)
}

func (s *InMemoryStorage) LoadFunnel(ctx context.Context, funnelId string) (*model.Funnel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	funnel, ok := s.funnels[funnelId]
	if !ok {
		return nil, nil
	}
	funnel = cloneFunnel(funnel)
	return &funnel, nil
}

func (s *InMemoryStorage) ListFunnels(ctx context.Context) ([]model.Funnel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	funnels := make([]model.Funnel, 0, len(s.funnels))
	for _, funnel := range s.funnels {
		funnels = append(funnels, cloneFunnel(funnel))
	}
	return funnels, nil
}

func (s *InMemoryStorage) DeleteFunnel(ctx context.Context, funnelId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.funnels, funnelId)
	delete(s.steps, funnelId)
	delete(s.images, funnelId)
	delete(s.jobs, funnelId)
	return nil
}

func (s *InMemoryStorage) saveStepLocked(step *model.FunnelStep) {
	if s.steps[step.FunnelId] == nil {
		s.steps[step.FunnelId] = make(map[string]model.FunnelStep)
	}
	s.steps[step.FunnelId][step.Id] = cloneStep(*step)
}

func (s *InMemoryStorage) SaveStep(ctx context.Context, step *model.FunnelStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveStepLocked(step)
	return nil
}

func (s *InMemoryStorage) LoadStep(ctx context.Context, funnelId string, stepId string) (*model.FunnelStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.steps[funnelId][stepId]
	if !ok {
		return nil, nil
	}
	step = cloneStep(step)
	return &step, nil
}

func (s *InMemoryStorage) LoadSteps(ctx context.Context, funnelId string) ([]model.FunnelStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := make([]model.FunnelStep, 0, len(s.steps[funnelId]))
	for _, step := range s.steps[funnelId] {
		steps = append(steps, cloneStep(step))
	}
	return steps, nil
}

func (s *InMemoryStorage) SaveImage(ctx context.Context, image *model.FunnelImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveImageLocked(image)
	return nil
}

func (s *InMemoryStorage) saveImageLocked(image *model.FunnelImage) {
	if s.images[image.FunnelId] == nil {
		s.images[image.FunnelId] = make(map[string]model.FunnelImage)
	}
	s.images[image.FunnelId][image.Id] = cloneImage(*image)
}

func (s *InMemoryStorage) LoadImage(ctx context.Context, funnelId string, imageId string) (*model.FunnelImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	image, ok := s.images[funnelId][imageId]
	if !ok {
		return nil, nil
	}
	image = cloneImage(image)
	return &image, nil
}

func (s *InMemoryStorage) LoadImages(ctx context.Context, funnelId string, stepId string) ([]model.FunnelImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	images := make([]model.FunnelImage, 0, len(s.images[funnelId]))
	for _, image := range s.images[funnelId] {
		if stepId != "" && image.StepId != stepId {
			continue
		}
		images = append(images, cloneImage(image))
	}
	return images, nil
}

func (s *InMemoryStorage) SaveJob(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveJobLocked(job)
	return nil
}

func (s *InMemoryStorage) saveJobLocked(job *model.Job) {
	if s.jobs[job.FunnelId] == nil {
		s.jobs[job.FunnelId] = make(map[string]model.Job)
	}
	s.jobs[job.FunnelId][job.Id] = *job
}

func (s *InMemoryStorage) LoadJobs(ctx context.Context, funnelId string) ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]model.Job, 0, len(s.jobs[funnelId]))
	for _, job := range s.jobs[funnelId] {
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *InMemoryStorage) SaveGeneration(ctx context.Context, funnel *model.Funnel, step *model.FunnelStep,
	images []model.FunnelImage, jobs []model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveFunnelLocked(funnel); err != nil {
		return err
	}
	s.saveStepLocked(step)
	for i := range images {
		s.saveImageLocked(&images[i])
	}
	for i := range jobs {
		s.saveJobLocked(&jobs[i])
	}
	return nil
}
