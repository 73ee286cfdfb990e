package model

type CreateFunnelRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Config      FunnelConfig `json:"config"`
}

type CreateStepRequest struct {
	SelectedImageIds    []string           `json:"selectedImageIds"`
	Refinements         []FunnelRefinement `json:"refinements,omitempty"`
	PromptFields        *PromptFields      `json:"promptFields,omitempty"`
	TechnicalParameters map[string]any     `json:"technicalParameters,omitempty"`
}

type SelectImagesRequest struct {
	ImageIds []string `json:"imageIds"`
}

type FunnelStepResult struct {
	Funnel *Funnel       `json:"funnel"`
	Step   *FunnelStep   `json:"step"`
	Images []FunnelImage `json:"images"`
	Jobs   []JobSummary  `json:"jobs"`
}

type FunnelView struct {
	Funnel         *Funnel       `json:"funnel"`
	CurrentStep    *FunnelStep   `json:"currentStep"`
	Steps          []FunnelStep  `json:"steps"`
	Images         []FunnelImage `json:"images"`
	SelectedImages []FunnelImage `json:"selectedImages"`
	Jobs           []JobSummary  `json:"jobs"`
}

type SelectionResult struct {
	Step           *FunnelStep   `json:"step"`
	SelectedImages []FunnelImage `json:"selectedImages"`
}
