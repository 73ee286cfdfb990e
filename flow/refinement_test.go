package flow

import (
	"testing"

	"github.com/mohitkumar/funnel/model"
	"github.com/stretchr/testify/require"
)

func TestBuildRefinements(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test parameter merge":              testParameterMerge,
		"test fallback without override":    testFallbackWithoutOverride,
		"test field overrides":              testFieldOverrides,
		"test override matched by image id": testOverrideMatchedByImageId,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func sourceImage() model.FunnelImage {
	return model.FunnelImage{
		Id:             "img-1",
		FunnelId:       "f-1",
		StepId:         "s-1",
		WorkflowId:     "wf-a",
		Prompt:         "a castle",
		NegativePrompt: "blurry",
		Seed:           42,
		Parameters:     map[string]any{"steps": 20, "cfg": 7},
	}
}

func testParameterMerge(t *testing.T) {
	specs := BuildRefinements([]model.FunnelImage{sourceImage()}, []model.FunnelRefinement{
		{ImageId: "img-1", Parameters: map[string]any{"cfg": 9}},
	})
	require.Len(t, specs, 1)
	require.Equal(t, map[string]any{"steps": 20, "cfg": 9}, specs[0].Parameters)
}

func testFallbackWithoutOverride(t *testing.T) {
	image := sourceImage()
	specs := BuildRefinements([]model.FunnelImage{image}, nil)
	require.Len(t, specs, 1)
	require.Equal(t, image.Id, specs[0].ParentImageId)
	require.Equal(t, image.WorkflowId, specs[0].WorkflowId)
	require.Equal(t, image.Prompt, specs[0].Prompt)
	require.Equal(t, image.NegativePrompt, specs[0].NegativePrompt)
	require.Equal(t, image.Seed, specs[0].Seed)
	require.Equal(t, image.Parameters, specs[0].Parameters)
}

func testFieldOverrides(t *testing.T) {
	prompt := "a castle at night"
	negative := ""
	specs := BuildRefinements([]model.FunnelImage{sourceImage()}, []model.FunnelRefinement{
		{
			ImageId:        "img-1",
			WorkflowId:     "wf-b",
			Prompt:         &prompt,
			NegativePrompt: &negative,
			Seed:           99,
		},
	})
	require.Len(t, specs, 1)
	require.Equal(t, "wf-b", specs[0].WorkflowId)
	require.Equal(t, "a castle at night", specs[0].Prompt)
	require.Equal(t, "", specs[0].NegativePrompt)
	require.Equal(t, int64(99), specs[0].Seed)
}

func testOverrideMatchedByImageId(t *testing.T) {
	other := sourceImage()
	other.Id = "img-2"
	other.Prompt = "a forest"
	prompt := "changed"
	specs := BuildRefinements([]model.FunnelImage{sourceImage(), other}, []model.FunnelRefinement{
		{ImageId: "img-2", Prompt: &prompt},
	})
	require.Len(t, specs, 2)
	byParent := make(map[string]model.RefinementSpec)
	for _, spec := range specs {
		byParent[spec.ParentImageId] = spec
	}
	require.Equal(t, "a castle", byParent["img-1"].Prompt)
	require.Equal(t, "changed", byParent["img-2"].Prompt)
}
