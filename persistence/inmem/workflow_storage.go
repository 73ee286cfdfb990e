package inmem

import (
	"context"
	"sync"

	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence"
)

var _ persistence.WorkflowStorage = new(InMemoryWorkflowStorage)

type InMemoryWorkflowStorage struct {
	mu        sync.Mutex
	workflows map[string]model.WorkflowDef
}

func NewInMemoryWorkflowStorage() *InMemoryWorkflowStorage {
	return &InMemoryWorkflowStorage{
		workflows: make(map[string]model.WorkflowDef),
	}
}

func cloneWorkflow(wf model.WorkflowDef) model.WorkflowDef {
	wf.DefaultParameters = cloneParams(wf.DefaultParameters)
	return wf
}

func (s *InMemoryWorkflowStorage) SaveWorkflow(ctx context.Context, wf *model.WorkflowDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.Id] = cloneWorkflow(*wf)
	return nil
}

func (s *InMemoryWorkflowStorage) GetWorkflow(ctx context.Context, id string) (*model.WorkflowDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[id]
	if !ok {
		return nil, nil
	}
	wf = cloneWorkflow(wf)
	return &wf, nil
}

func (s *InMemoryWorkflowStorage) ListWorkflows(ctx context.Context) ([]model.WorkflowDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defs := make([]model.WorkflowDef, 0, len(s.workflows))
	for _, wf := range s.workflows {
		defs = append(defs, cloneWorkflow(wf))
	}
	return defs, nil
}
