package flow

import (
	"testing"

	"github.com/mohitkumar/funnel/model"
	"github.com/stretchr/testify/require"
)

func TestStepMachine(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test full lifecycle":         testFullLifecycle,
		"test no backward transition": testNoBackwardTransition,
		"test completed is terminal":  testCompletedIsTerminal,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func testFullLifecycle(t *testing.T) {
	step := NewStep("f-1", 0, "", model.PromptFields{Prompt: "a castle"}, nil)
	require.Equal(t, model.STEP_PENDING, step.Status)
	require.Equal(t, 0, step.StepIndex)
	require.Empty(t, step.ParentStepId)

	m := NewStepMachine(step)
	require.NoError(t, m.MarkGenerating())
	require.Equal(t, model.STEP_GENERATING, step.Status)

	require.NoError(t, m.MarkSelecting(4))
	require.Equal(t, model.STEP_SELECTING, step.Status)
	require.Equal(t, 4, step.ImageCount)

	require.NoError(t, m.MarkCompleted(2))
	require.Equal(t, model.STEP_COMPLETED, step.Status)
	require.Equal(t, 2, step.SelectedCount)
	require.NotNil(t, step.CompletedAt)
}

func testNoBackwardTransition(t *testing.T) {
	step := NewStep("f-1", 1, "s-0", model.PromptFields{}, nil)
	m := NewStepMachine(step)
	require.NoError(t, m.MarkGenerating())
	require.NoError(t, m.MarkSelecting(1))

	require.Error(t, m.MarkGenerating())
	require.Equal(t, model.STEP_SELECTING, step.Status)
}

func testCompletedIsTerminal(t *testing.T) {
	step := NewStep("f-1", 0, "", model.PromptFields{}, nil)
	m := NewStepMachine(step)
	require.NoError(t, m.MarkGenerating())
	require.NoError(t, m.MarkSelecting(3))
	require.NoError(t, m.MarkCompleted(1))

	require.Error(t, m.MarkGenerating())
	require.Error(t, m.MarkSelecting(3))
	require.Equal(t, model.STEP_COMPLETED, step.Status)

	// re-finalizing overwrites the selection without leaving completed
	require.NoError(t, m.MarkCompleted(2))
	require.Equal(t, model.STEP_COMPLETED, step.Status)
	require.Equal(t, 2, step.SelectedCount)
}
