package service

import "github.com/mmynk/tipsplit/internal/models"

// ComputeSplitsRequest splits a pool with an inline template.
type ComputeSplitsRequest struct {
	Template models.TipTemplate `json:"template"`
	Pool     float64            `json:"pool"`
}

type ComputeSplitsResponse struct {
	Result     models.SplitResult `json:"result"`
	TotalCents int64              `json:"totalCents"`
}

type CreateTemplateRequest struct {
	Template models.TipTemplate `json:"template"`
}

type GetTemplateRequest struct {
	TemplateID string `json:"templateId"`
}

type ListTemplatesRequest struct{}

type ListTemplatesResponse struct {
	Templates []*models.TipTemplate `json:"templates"`
}

// UpdateTemplateRequest replaces a stored template; Template.ID selects it.
type UpdateTemplateRequest struct {
	Template models.TipTemplate `json:"template"`
}

// TemplateResponse is returned by every call that yields one template.
type TemplateResponse struct {
	Template *models.TipTemplate `json:"template"`
}

type DeleteTemplateRequest struct {
	TemplateID string `json:"templateId"`
}

type DeleteTemplateResponse struct{}

// ComputeTemplateSplitsRequest splits a pool with a stored template.
// Save records the result in the template's split history.
type ComputeTemplateSplitsRequest struct {
	TemplateID string  `json:"templateId"`
	Pool       float64 `json:"pool"`
	Save       bool    `json:"save"`
}

type ComputeTemplateSplitsResponse struct {
	Result     models.SplitResult `json:"result"`
	TotalCents int64              `json:"totalCents"`

	// SplitID is set when the split was saved.
	SplitID string `json:"splitId,omitempty"`
}

type ListSplitsRequest struct {
	TemplateID string `json:"templateId"`
}

type ListSplitsResponse struct {
	Splits []*models.SplitRecord `json:"splits"`
}
