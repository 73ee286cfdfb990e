package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	api "github.com/mohitkumar/funnel/api/v1"
	"github.com/mohitkumar/funnel/dispatch"
	"github.com/mohitkumar/funnel/flow"
	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/metadata"
	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence"
	"go.uber.org/zap"
)

// FunnelService coordinates the funnel use cases: create a funnel, advance
// it to the next step from a selection, mark a selection, and the
// list/load/delete operations. Storage and dispatcher are injected, there
// is no process wide shared instance.
type FunnelService struct {
	storage         persistence.Storage
	dispatcher      dispatch.Dispatcher
	workflowService metadata.WorkflowService
}

func NewFunnelService(storage persistence.Storage, dispatcher dispatch.Dispatcher,
	workflowService metadata.WorkflowService) *FunnelService {
	return &FunnelService{
		storage:         storage,
		dispatcher:      dispatcher,
		workflowService: workflowService,
	}
}

func (s *FunnelService) CreateFunnel(ctx context.Context, req model.CreateFunnelRequest) (*model.FunnelStepResult, error) {
	if req.Name == "" {
		return nil, api.ValidationError{Message: "funnel name is required"}
	}
	if len(req.Config.SelectedWorkflows) == 0 {
		return nil, api.ValidationError{Message: "funnel config must select at least one workflow"}
	}
	if req.Config.BasePrompt == "" {
		return nil, api.ValidationError{Message: "funnel config must carry a base prompt"}
	}
	if err := s.workflowService.Validate(ctx, req.Config.SelectedWorkflows); err != nil {
		return nil, err
	}

	now := time.Now()
	funnel := &model.Funnel{
		Id:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
		Status:      model.FUNNEL_ACTIVE,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	step := flow.NewStep(funnel.Id, 0, "", model.PromptFields{
		Prompt:         req.Config.BasePrompt,
		NegativePrompt: req.Config.BaseNegativePrompt,
	}, req.Config.BaseParameters)
	machine := flow.NewStepMachine(step)
	if err := machine.MarkGenerating(); err != nil {
		return nil, err
	}
	funnel.Steps = append(funnel.Steps, model.StepSummary{Id: step.Id, StepIndex: step.StepIndex, Status: step.Status})

	if err := s.storage.SaveFunnel(ctx, funnel); err != nil {
		return nil, err
	}
	if err := s.storage.SaveStep(ctx, step); err != nil {
		return nil, err
	}
	logger.Info("funnel created", zap.String("funnelId", funnel.Id), zap.String("name", funnel.Name),
		zap.Int("workflows", len(req.Config.SelectedWorkflows)))

	batch, err := s.dispatcher.ExecuteParallel(ctx, funnel.Id, step.Id, req.Config.SelectedWorkflows,
		req.Config.BasePrompt, req.Config.BaseNegativePrompt, req.Config.BaseParameters)
	if err != nil {
		return nil, err
	}
	return s.completeGeneration(ctx, funnel, step, machine, batch)
}

func (s *FunnelService) CreateStep(ctx context.Context, funnelId string, req model.CreateStepRequest) (*model.FunnelStepResult, error) {
	if len(req.SelectedImageIds) == 0 {
		return nil, api.ValidationError{Message: "at least one selected image id is required"}
	}
	funnel, err := s.storage.LoadFunnel(ctx, funnelId)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return nil, api.NotFoundError{Kind: "funnel", Id: funnelId}
	}
	images := make([]model.FunnelImage, 0, len(req.SelectedImageIds))
	for _, imageId := range req.SelectedImageIds {
		image, err := s.storage.LoadImage(ctx, funnelId, imageId)
		if err != nil {
			return nil, err
		}
		if image == nil {
			logger.Debug("discarding unresolved image", zap.String("imageId", imageId))
			continue
		}
		images = append(images, *image)
	}
	if len(images) == 0 {
		return nil, api.NotFoundError{Kind: "selected images of funnel", Id: funnelId}
	}

	// lineage is pinned to the step owning the first resolved image even
	// when the selection spans multiple steps
	parentStepId := images[0].StepId
	promptFields := model.PromptFields{
		Prompt:         funnel.Config.BasePrompt,
		NegativePrompt: funnel.Config.BaseNegativePrompt,
	}
	if req.PromptFields != nil {
		promptFields = *req.PromptFields
	}
	technicalParameters := funnel.Config.BaseParameters
	if req.TechnicalParameters != nil {
		technicalParameters = req.TechnicalParameters
	}

	step := flow.NewStep(funnelId, funnel.CurrentStepIndex+1, parentStepId, promptFields, technicalParameters)
	machine := flow.NewStepMachine(step)
	if err := machine.MarkGenerating(); err != nil {
		return nil, err
	}
	funnel.Steps = append(funnel.Steps, model.StepSummary{Id: step.Id, StepIndex: step.StepIndex, Status: step.Status})
	funnel.CurrentStepIndex = step.StepIndex
	funnel.UpdatedAt = time.Now()

	if err := s.storage.SaveFunnel(ctx, funnel); err != nil {
		return nil, err
	}
	if err := s.storage.SaveStep(ctx, step); err != nil {
		return nil, err
	}
	logger.Info("funnel advanced", zap.String("funnelId", funnelId), zap.Int("stepIndex", step.StepIndex),
		zap.Int("selectedImages", len(images)))

	refinements := flow.BuildRefinements(images, req.Refinements)
	batch, err := s.dispatcher.ExecuteRefinements(ctx, funnelId, step.Id, refinements)
	if err != nil {
		return nil, err
	}
	return s.completeGeneration(ctx, funnel, step, machine, batch)
}

// completeGeneration records the outcome of a dispatch. When every request
// succeeded the step moves to selecting and funnel, step, images and jobs
// are written as one unit. When any request failed the successful images
// and jobs are still persisted, the step stays in generating, and the
// batch errors are reported as a DispatchError.
func (s *FunnelService) completeGeneration(ctx context.Context, funnel *model.Funnel, step *model.FunnelStep,
	machine *flow.StepMachine, batch *dispatch.BatchResult) (*model.FunnelStepResult, error) {
	if len(batch.Failures) > 0 {
		for i := range batch.Images {
			if err := s.storage.SaveImage(ctx, &batch.Images[i]); err != nil {
				return nil, err
			}
		}
		for i := range batch.Jobs {
			if err := s.storage.SaveJob(ctx, &batch.Jobs[i]); err != nil {
				return nil, err
			}
		}
		return nil, api.DispatchError{Failures: batch.Failures}
	}
	if err := machine.MarkSelecting(len(batch.Images)); err != nil {
		return nil, err
	}
	for i := range funnel.Steps {
		if funnel.Steps[i].Id == step.Id {
			funnel.Steps[i].Status = step.Status
		}
	}
	funnel.UpdatedAt = time.Now()
	if err := s.storage.SaveGeneration(ctx, funnel, step, batch.Images, batch.Jobs); err != nil {
		return nil, err
	}
	jobs := make([]model.JobSummary, 0, len(batch.Jobs))
	for _, job := range batch.Jobs {
		jobs = append(jobs, job.Summary())
	}
	return &model.FunnelStepResult{
		Funnel: funnel,
		Step:   step,
		Images: batch.Images,
		Jobs:   jobs,
	}, nil
}

func (s *FunnelService) SelectImages(ctx context.Context, funnelId string, stepId string, imageIds []string) (*model.SelectionResult, error) {
	funnel, err := s.storage.LoadFunnel(ctx, funnelId)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return nil, api.NotFoundError{Kind: "funnel", Id: funnelId}
	}
	step, err := s.storage.LoadStep(ctx, funnelId, stepId)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, api.NotFoundError{Kind: "step", Id: stepId}
	}
	images, err := s.storage.LoadImages(ctx, funnelId, stepId)
	if err != nil {
		return nil, err
	}

	selectedSet := make(map[string]bool, len(imageIds))
	for _, id := range imageIds {
		selectedSet[id] = true
	}
	// full overwrite: membership in the input set decides the flag for
	// every image of the step, a prior selection does not carry over
	selected := make([]model.FunnelImage, 0, len(imageIds))
	for i := range images {
		images[i].Selected = selectedSet[images[i].Id]
		if err := s.storage.SaveImage(ctx, &images[i]); err != nil {
			return nil, err
		}
		if images[i].Selected {
			selected = append(selected, images[i])
		}
	}

	machine := flow.NewStepMachine(step)
	if err := machine.MarkCompleted(len(selected)); err != nil {
		return nil, err
	}
	if err := s.storage.SaveStep(ctx, step); err != nil {
		return nil, err
	}
	for i := range funnel.Steps {
		if funnel.Steps[i].Id == step.Id {
			funnel.Steps[i].Status = step.Status
		}
	}
	funnel.UpdatedAt = time.Now()
	if err := s.storage.SaveFunnel(ctx, funnel); err != nil {
		return nil, err
	}
	logger.Info("selection recorded", zap.String("funnelId", funnelId), zap.String("stepId", stepId),
		zap.Int("selectedCount", len(selected)))
	return &model.SelectionResult{
		Step:           step,
		SelectedImages: selected,
	}, nil
}

func (s *FunnelService) GetFunnel(ctx context.Context, funnelId string) (*model.FunnelView, error) {
	funnel, err := s.storage.LoadFunnel(ctx, funnelId)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return nil, api.NotFoundError{Kind: "funnel", Id: funnelId}
	}
	steps, err := s.storage.LoadSteps(ctx, funnelId)
	if err != nil {
		return nil, err
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })
	var currentStep *model.FunnelStep
	for i := range steps {
		if steps[i].StepIndex == funnel.CurrentStepIndex {
			currentStep = &steps[i]
		}
	}
	images, err := s.storage.LoadImages(ctx, funnelId, "")
	if err != nil {
		return nil, err
	}
	selected := make([]model.FunnelImage, 0)
	for _, image := range images {
		if image.Selected {
			selected = append(selected, image)
		}
	}
	jobs, err := s.storage.LoadJobs(ctx, funnelId)
	if err != nil {
		return nil, err
	}
	jobSummaries := make([]model.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		jobSummaries = append(jobSummaries, job.Summary())
	}
	return &model.FunnelView{
		Funnel:         funnel,
		CurrentStep:    currentStep,
		Steps:          steps,
		Images:         images,
		SelectedImages: selected,
		Jobs:           jobSummaries,
	}, nil
}

func (s *FunnelService) ListFunnels(ctx context.Context) ([]model.Funnel, error) {
	return s.storage.ListFunnels(ctx)
}

func (s *FunnelService) DeleteFunnel(ctx context.Context, funnelId string) error {
	if err := s.storage.DeleteFunnel(ctx, funnelId); err != nil {
		return err
	}
	logger.Info("funnel deleted", zap.String("funnelId", funnelId))
	return nil
}
