package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tipsplit/internal/calculator"
	"github.com/mmynk/tipsplit/internal/metrics"
	"github.com/mmynk/tipsplit/internal/models"
	"github.com/mmynk/tipsplit/internal/storage"
)

// SplitService implements the Connect SplitService.
type SplitService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewSplitService creates a new SplitService with the given storage backend.
// m may be nil to disable metrics.
func NewSplitService(store storage.Store, m *metrics.Metrics) *SplitService {
	return &SplitService{store: store, metrics: m}
}

// compute runs the calculator and records metrics. Validation failures
// come back as a warning-carrying result, never as an RPC error.
func (s *SplitService) compute(tmpl models.TipTemplate, pool float64) models.SplitResult {
	rule := models.ParseRuleType(string(tmpl.Rules.Type))
	start := time.Now()

	result, err := calculator.Calculate(tmpl, pool)
	if err != nil {
		slog.Warn("Split input rejected", "rule", rule, "pool", pool, "error", err)
		s.metrics.ObserveValidationFailure()
		return calculator.RejectedResult(tmpl, err)
	}

	s.metrics.ObserveSplit(rule.String(), len(result.Warnings), time.Since(start))
	slog.Debug("Split computed",
		"rule", rule,
		"pool", pool,
		"participants", len(result.Participants),
		"warnings", len(result.Warnings),
	)
	return result
}

// ComputeSplits splits a pool with the template carried in the request.
func (s *SplitService) ComputeSplits(ctx context.Context, req *connect.Request[ComputeSplitsRequest]) (*connect.Response[ComputeSplitsResponse], error) {
	result := s.compute(req.Msg.Template, req.Msg.Pool)
	return connect.NewResponse(&ComputeSplitsResponse{
		Result:     result,
		TotalCents: result.TotalCents(),
	}), nil
}

// CreateTemplate validates and stores a new template.
func (s *SplitService) CreateTemplate(ctx context.Context, req *connect.Request[CreateTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	tmpl := req.Msg.Template
	tmpl.ID = ""
	if err := checkTemplate(tmpl); err != nil {
		return nil, err
	}

	if err := s.store.CreateTemplate(ctx, &tmpl); err != nil {
		return nil, storageError("CreateTemplate", err)
	}
	slog.Info("Template created", "template_id", tmpl.ID, "rule", tmpl.Rules.Type, "participants", len(tmpl.Participants))
	return connect.NewResponse(&TemplateResponse{Template: &tmpl}), nil
}

// GetTemplate returns one stored template.
func (s *SplitService) GetTemplate(ctx context.Context, req *connect.Request[GetTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	if req.Msg.TemplateID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("template_id required"))
	}
	tmpl, err := s.store.GetTemplate(ctx, req.Msg.TemplateID)
	if err != nil {
		return nil, storageError("GetTemplate", err)
	}
	return connect.NewResponse(&TemplateResponse{Template: tmpl}), nil
}

// ListTemplates returns every stored template.
func (s *SplitService) ListTemplates(ctx context.Context, req *connect.Request[ListTemplatesRequest]) (*connect.Response[ListTemplatesResponse], error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, storageError("ListTemplates", err)
	}
	return connect.NewResponse(&ListTemplatesResponse{Templates: templates}), nil
}

// UpdateTemplate replaces a stored template.
func (s *SplitService) UpdateTemplate(ctx context.Context, req *connect.Request[UpdateTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	tmpl := req.Msg.Template
	if tmpl.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("template id required"))
	}
	if err := checkTemplate(tmpl); err != nil {
		return nil, err
	}

	existing, err := s.store.GetTemplate(ctx, tmpl.ID)
	if err != nil {
		return nil, storageError("UpdateTemplate", err)
	}
	tmpl.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateTemplate(ctx, &tmpl); err != nil {
		return nil, storageError("UpdateTemplate", err)
	}
	slog.Info("Template updated", "template_id", tmpl.ID)
	return connect.NewResponse(&TemplateResponse{Template: &tmpl}), nil
}

// DeleteTemplate removes a template and its split history.
func (s *SplitService) DeleteTemplate(ctx context.Context, req *connect.Request[DeleteTemplateRequest]) (*connect.Response[DeleteTemplateResponse], error) {
	if req.Msg.TemplateID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("template_id required"))
	}
	if err := s.store.DeleteTemplate(ctx, req.Msg.TemplateID); err != nil {
		return nil, storageError("DeleteTemplate", err)
	}
	slog.Info("Template deleted", "template_id", req.Msg.TemplateID)
	return connect.NewResponse(&DeleteTemplateResponse{}), nil
}

// ComputeTemplateSplits splits a pool with a stored template and
// optionally records the result.
func (s *SplitService) ComputeTemplateSplits(ctx context.Context, req *connect.Request[ComputeTemplateSplitsRequest]) (*connect.Response[ComputeTemplateSplitsResponse], error) {
	if req.Msg.TemplateID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("template_id required"))
	}
	tmpl, err := s.store.GetTemplate(ctx, req.Msg.TemplateID)
	if err != nil {
		return nil, storageError("ComputeTemplateSplits", err)
	}

	result := s.compute(*tmpl, req.Msg.Pool)
	resp := &ComputeTemplateSplitsResponse{Result: result, TotalCents: result.TotalCents()}

	if req.Msg.Save {
		record := &models.SplitRecord{
			TemplateID: tmpl.ID,
			RuleType:   models.ParseRuleType(string(tmpl.Rules.Type)),
			Pool:       req.Msg.Pool,
			Result:     result,
		}
		if err := s.store.SaveSplit(ctx, record); err != nil {
			return nil, storageError("ComputeTemplateSplits", err)
		}
		resp.SplitID = record.ID
		slog.Info("Split saved", "split_id", record.ID, "template_id", tmpl.ID)
	}

	return connect.NewResponse(resp), nil
}

// ListSplits returns a template's split history.
func (s *SplitService) ListSplits(ctx context.Context, req *connect.Request[ListSplitsRequest]) (*connect.Response[ListSplitsResponse], error) {
	if req.Msg.TemplateID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("template_id required"))
	}
	records, err := s.store.ListSplits(ctx, req.Msg.TemplateID)
	if err != nil {
		return nil, storageError("ListSplits", err)
	}
	return connect.NewResponse(&ListSplitsResponse{Splits: records}), nil
}

// checkTemplate rejects templates holding negative hours, weights or
// percentages. An empty participant list is allowed.
func checkTemplate(tmpl models.TipTemplate) error {
	if err := calculator.ValidateTemplate(tmpl); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// storageError maps a storage failure to a Connect error.
func storageError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, err)
}
