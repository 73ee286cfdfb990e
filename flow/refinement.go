package flow

import "github.com/mohitkumar/funnel/model"

// BuildRefinements produces one generation spec per selected image. An
// override is matched to its image by exact image id; fields absent from
// the override fall back to the image's own values, so an image with no
// override regenerates with its original parameters. Parameter maps merge
// shallowly, override keys win.
func BuildRefinements(images []model.FunnelImage, overrides []model.FunnelRefinement) []model.RefinementSpec {
	overrideById := make(map[string]model.FunnelRefinement, len(overrides))
	for _, o := range overrides {
		overrideById[o.ImageId] = o
	}
	specs := make([]model.RefinementSpec, 0, len(images))
	for _, image := range images {
		spec := model.RefinementSpec{
			ParentImageId:  image.Id,
			WorkflowId:     image.WorkflowId,
			Prompt:         image.Prompt,
			NegativePrompt: image.NegativePrompt,
			Seed:           image.Seed,
			Parameters:     mergeParameters(image.Parameters, nil),
		}
		if override, ok := overrideById[image.Id]; ok {
			if override.WorkflowId != "" {
				spec.WorkflowId = override.WorkflowId
			}
			if override.Prompt != nil {
				spec.Prompt = *override.Prompt
			}
			if override.NegativePrompt != nil {
				spec.NegativePrompt = *override.NegativePrompt
			}
			if override.Seed != 0 {
				spec.Seed = override.Seed
			}
			spec.Parameters = mergeParameters(image.Parameters, override.Parameters)
		}
		specs = append(specs, spec)
	}
	return specs
}

func mergeParameters(original map[string]any, override map[string]any) map[string]any {
	merged := make(map[string]any, len(original)+len(override))
	for k, v := range original {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
