package metadata

import (
	"context"
	"time"

	api "github.com/mohitkumar/funnel/api/v1"
	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence"
	c "github.com/patrickmn/go-cache"
)

// WorkflowService is the catalog of rendering workflow definitions a
// funnel config may fan out to.
type WorkflowService interface {
	Save(ctx context.Context, wf model.WorkflowDef) error
	Get(ctx context.Context, id string) (*model.WorkflowDef, error)
	List(ctx context.Context) ([]model.WorkflowDef, error)
	// Validate checks that every id names a registered workflow. An empty
	// catalog validates everything, so the service runs without seeding.
	Validate(ctx context.Context, ids []string) error
}

type workflowService struct {
	storage persistence.WorkflowStorage
	cache   *c.Cache
}

func NewWorkflowService(storage persistence.WorkflowStorage) WorkflowService {
	return &workflowService{
		storage: storage,
		cache:   c.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *workflowService) Save(ctx context.Context, wf model.WorkflowDef) error {
	if wf.Id == "" {
		return api.ValidationError{Message: "workflow id is required"}
	}
	if err := s.storage.SaveWorkflow(ctx, &wf); err != nil {
		return err
	}
	s.cache.Set(wf.Id, wf, c.DefaultExpiration)
	return nil
}

func (s *workflowService) Get(ctx context.Context, id string) (*model.WorkflowDef, error) {
	if cached, found := s.cache.Get(id); found {
		wf := cached.(model.WorkflowDef)
		return &wf, nil
	}
	wf, err := s.storage.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	if wf != nil {
		s.cache.Set(id, *wf, c.DefaultExpiration)
	}
	return wf, nil
}

func (s *workflowService) List(ctx context.Context) ([]model.WorkflowDef, error) {
	return s.storage.ListWorkflows(ctx)
}

func (s *workflowService) Validate(ctx context.Context, ids []string) error {
	defs, err := s.storage.ListWorkflows(ctx)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return nil
	}
	known := make(map[string]bool, len(defs))
	for _, def := range defs {
		known[def.Id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return api.NotFoundError{Kind: "workflow", Id: id}
		}
	}
	return nil
}
