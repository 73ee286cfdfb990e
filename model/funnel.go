package model

import "time"

type FunnelStatus string

const FUNNEL_ACTIVE FunnelStatus = "active"
const FUNNEL_PAUSED FunnelStatus = "paused"
const FUNNEL_COMPLETED FunnelStatus = "completed"

type StepStatus string

const STEP_PENDING StepStatus = "pending"
const STEP_GENERATING StepStatus = "generating"
const STEP_SELECTING StepStatus = "selecting"
const STEP_COMPLETED StepStatus = "completed"

// FunnelConfig is the immutable creation time configuration of a funnel.
type FunnelConfig struct {
	SelectedWorkflows  []string       `json:"selectedWorkflows"`
	BasePrompt         string         `json:"basePrompt"`
	BaseNegativePrompt string         `json:"baseNegativePrompt"`
	BaseParameters     map[string]any `json:"baseParameters"`
}

type StepSummary struct {
	Id        string     `json:"id"`
	StepIndex int        `json:"stepIndex"`
	Status    StepStatus `json:"status"`
}

type Funnel struct {
	Id               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description,omitempty"`
	Config           FunnelConfig  `json:"config"`
	Steps            []StepSummary `json:"steps"`
	CurrentStepIndex int           `json:"currentStepIndex"`
	Status           FunnelStatus  `json:"status"`
	// Revision increases on every save and is checked by the storage
	// layer so concurrent mutations of the same funnel can not both win.
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PromptFields struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
}

type FunnelStep struct {
	Id                  string         `json:"id"`
	FunnelId            string         `json:"funnelId"`
	StepIndex           int            `json:"stepIndex"`
	ParentStepId        string         `json:"parentStepId,omitempty"`
	Status              StepStatus     `json:"status"`
	ImageCount          int            `json:"imageCount"`
	SelectedCount       int            `json:"selectedCount"`
	PromptFields        PromptFields   `json:"promptFields"`
	TechnicalParameters map[string]any `json:"technicalParameters"`
	CreatedAt           time.Time      `json:"createdAt"`
	CompletedAt         *time.Time     `json:"completedAt,omitempty"`
}

type FunnelImage struct {
	Id             string         `json:"id"`
	FunnelId       string         `json:"funnelId"`
	StepId         string         `json:"stepId"`
	WorkflowId     string         `json:"workflowId"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negativePrompt"`
	Seed           int64          `json:"seed"`
	Parameters     map[string]any `json:"parameters"`
	FilePath       string         `json:"filePath,omitempty"`
	Selected       bool           `json:"selected"`
}

type Job struct {
	Id         string `json:"id"`
	FunnelId   string `json:"funnelId"`
	StepId     string `json:"stepId"`
	WorkflowId string `json:"workflowId"`
	Status     string `json:"status"`
}

// JobSummary is the only job shape returned to callers.
type JobSummary struct {
	Id         string `json:"id"`
	WorkflowId string `json:"workflowId"`
	Status     string `json:"status"`
}

func (j Job) Summary() JobSummary {
	return JobSummary{Id: j.Id, WorkflowId: j.WorkflowId, Status: j.Status}
}

// FunnelRefinement is a sparse per image override used when spawning the
// next step from a selection. It is request only, never persisted.
type FunnelRefinement struct {
	ImageId        string         `json:"imageId"`
	WorkflowId     string         `json:"workflowId,omitempty"`
	Prompt         *string        `json:"prompt,omitempty"`
	NegativePrompt *string        `json:"negativePrompt,omitempty"`
	Seed           int64          `json:"seed,omitempty"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

// RefinementSpec is one fully resolved generation request for a refinement
// dispatch, produced by merging a selected image with its override.
type RefinementSpec struct {
	ParentImageId  string         `json:"parentImageId"`
	WorkflowId     string         `json:"workflowId"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negativePrompt"`
	Seed           int64          `json:"seed"`
	Parameters     map[string]any `json:"parameters"`
}

type WorkflowDef struct {
	Id                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	DefaultParameters map[string]any `json:"defaultParameters,omitempty"`
}
