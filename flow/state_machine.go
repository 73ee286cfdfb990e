package flow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/model"
	"go.uber.org/zap"
)

// StepMachine guards the lifecycle of one funnel step:
// pending -> generating -> selecting -> completed. There is no way back to
// generating for the same step; continuing a funnel always creates a new
// step. Transitions mutate the step in memory, the caller persists it.
type StepMachine struct {
	step *model.FunnelStep
}

func NewStep(funnelId string, stepIndex int, parentStepId string, promptFields model.PromptFields,
	technicalParameters map[string]any) *model.FunnelStep {
	return &model.FunnelStep{
		Id:                  uuid.New().String(),
		FunnelId:            funnelId,
		StepIndex:           stepIndex,
		ParentStepId:        parentStepId,
		Status:              model.STEP_PENDING,
		PromptFields:        promptFields,
		TechnicalParameters: technicalParameters,
		CreatedAt:           time.Now(),
	}
}

func NewStepMachine(step *model.FunnelStep) *StepMachine {
	return &StepMachine{step: step}
}

func (m *StepMachine) MarkGenerating() error {
	if m.step.Status != model.STEP_PENDING {
		return fmt.Errorf("can not start generation for step in state %s", m.step.Status)
	}
	m.step.Status = model.STEP_GENERATING
	logger.Debug("step generating", zap.String("stepId", m.step.Id))
	return nil
}

func (m *StepMachine) MarkSelecting(imageCount int) error {
	if m.step.Status != model.STEP_GENERATING {
		return fmt.Errorf("can not record generation result for step in state %s", m.step.Status)
	}
	m.step.Status = model.STEP_SELECTING
	m.step.ImageCount = imageCount
	logger.Debug("step selecting", zap.String("stepId", m.step.Id), zap.Int("imageCount", imageCount))
	return nil
}

// MarkCompleted finalizes a selection. A completed step may be finalized
// again: re-selecting overwrites the previous selection, it never revives
// generation.
func (m *StepMachine) MarkCompleted(selectedCount int) error {
	if m.step.Status != model.STEP_SELECTING && m.step.Status != model.STEP_COMPLETED {
		return fmt.Errorf("can not finalize selection for step in state %s", m.step.Status)
	}
	now := time.Now()
	m.step.Status = model.STEP_COMPLETED
	m.step.SelectedCount = selectedCount
	m.step.CompletedAt = &now
	logger.Debug("step completed", zap.String("stepId", m.step.Id), zap.Int("selectedCount", selectedCount))
	return nil
}
