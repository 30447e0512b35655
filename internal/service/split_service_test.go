package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/tipsplit/internal/metrics"
	"github.com/mmynk/tipsplit/internal/middleware"
	"github.com/mmynk/tipsplit/internal/models"
	"github.com/mmynk/tipsplit/internal/storage/sqlite"
)

func ptr(v float64) *float64 { return &v }

type testServer struct {
	client  *SplitServiceClient
	metrics *metrics.Metrics
	url     string
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor(m))
	splitPath, splitHandler := NewSplitServiceHandler(NewSplitService(store, m), interceptors)

	mux := http.NewServeMux()
	mux.Handle(splitPath, splitHandler)
	mux.Handle("/splits/", NewExportHandler(store, "USD"))

	server := httptest.NewServer(mux)
	client := NewSplitServiceClient(http.DefaultClient, server.URL)

	cleanup := func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return &testServer{client: client, metrics: m, url: server.URL}, cleanup
}

func teamTemplate() models.TipTemplate {
	return models.TipTemplate{
		Name:  "Friday night",
		Rules: models.TipRules{Type: models.RuleHours},
		Participants: []models.Participant{
			{ID: "p1", Name: "Alice", Role: "server", Hours: ptr(6)},
			{ID: "p2", Name: "Bob", Role: "bartender", Hours: ptr(3)},
			{ID: "p3", Name: "Charlie", Role: "busser", Hours: ptr(3)},
		},
	}
}

func amounts(r models.SplitResult) []float64 {
	out := make([]float64, len(r.Participants))
	for i, p := range r.Participants {
		if p.CalculatedAmount != nil {
			out[i] = *p.CalculatedAmount
		}
	}
	return out
}

func TestComputeSplits_EqualSplit(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := ts.client.ComputeSplits(context.Background(), connect.NewRequest(&ComputeSplitsRequest{
		Template: models.TipTemplate{
			Rules: models.TipRules{Type: models.RuleEqual},
			Participants: []models.Participant{
				{ID: "p1", Name: "Alice", Role: "server"},
				{ID: "p2", Name: "Bob", Role: "server"},
				{ID: "p3", Name: "Charlie", Role: "busser"},
			},
		},
		Pool: 1.00,
	}))
	if err != nil {
		t.Fatalf("ComputeSplits failed: %v", err)
	}

	want := []float64{0.34, 0.33, 0.33}
	got := amounts(resp.Msg.Result)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("participant %d: expected %.2f, got %.2f", i, want[i], got[i])
		}
	}
	if resp.Msg.TotalCents != 100 {
		t.Errorf("TotalCents: expected 100, got %d", resp.Msg.TotalCents)
	}
	if len(resp.Msg.Result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", resp.Msg.Result.Warnings)
	}
	if got := testutil.ToFloat64(ts.metrics.SplitsComputed.WithLabelValues("equal")); got != 1 {
		t.Errorf("splits computed metric: expected 1, got %f", got)
	}
}

func TestComputeSplits_RuleTypeAlias(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tmpl := teamTemplate()
	tmpl.Rules.Type = "Hours-Based"

	resp, err := ts.client.ComputeSplits(context.Background(), connect.NewRequest(&ComputeSplitsRequest{
		Template: tmpl,
		Pool:     120,
	}))
	if err != nil {
		t.Fatalf("ComputeSplits failed: %v", err)
	}

	want := []float64{60, 30, 30}
	got := amounts(resp.Msg.Result)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("participant %d: expected %.2f, got %.2f", i, want[i], got[i])
		}
	}
}

func TestComputeSplits_ValidationFailure(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		name     string
		template models.TipTemplate
		pool     float64
		contains string
	}{
		{
			name:     "negative pool",
			template: teamTemplate(),
			pool:     -5,
			contains: "pool amount must be a non-negative number",
		},
		{
			name:     "no participants",
			template: models.TipTemplate{Rules: models.TipRules{Type: models.RuleEqual}},
			pool:     50,
			contains: "at least one participant is required",
		},
		{
			name: "negative hours",
			template: models.TipTemplate{
				Rules: models.TipRules{Type: models.RuleHours},
				Participants: []models.Participant{
					{ID: "p1", Name: "Alice", Hours: ptr(-1)},
				},
			},
			pool:     50,
			contains: "negative hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ts.client.ComputeSplits(context.Background(), connect.NewRequest(&ComputeSplitsRequest{
				Template: tt.template,
				Pool:     tt.pool,
			}))
			if err != nil {
				t.Fatalf("validation failures must not be RPC errors, got %v", err)
			}

			r := resp.Msg.Result
			if len(r.Warnings) != 1 {
				t.Fatalf("expected exactly one warning, got %v", r.Warnings)
			}
			if !strings.HasPrefix(r.Warnings[0], "Validation failed: ") {
				t.Errorf("warning should start with 'Validation failed: ', got %q", r.Warnings[0])
			}
			if !strings.Contains(r.Warnings[0], tt.contains) {
				t.Errorf("warning %q should mention %q", r.Warnings[0], tt.contains)
			}
			if len(r.Participants) != len(tt.template.Participants) {
				t.Errorf("expected %d echoed participants, got %d", len(tt.template.Participants), len(r.Participants))
			}
			for _, p := range r.Participants {
				if p.CalculatedAmount != nil {
					t.Errorf("participant %s should have no amount", p.Name)
				}
			}
		})
	}

	if got := testutil.ToFloat64(ts.metrics.ValidationFailures); got != float64(len(tests)) {
		t.Errorf("validation failure metric: expected %d, got %f", len(tests), got)
	}
}

func TestCreateTemplate_And_GetTemplate(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	createResp, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{
		Template: teamTemplate(),
	}))
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	created := createResp.Msg.Template
	if created == nil || created.ID == "" {
		t.Fatal("expected a template with a non-empty ID")
	}
	if created.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}

	getResp, err := ts.client.GetTemplate(context.Background(), connect.NewRequest(&GetTemplateRequest{
		TemplateID: created.ID,
	}))
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}

	got := getResp.Msg.Template
	if got.Name != "Friday night" {
		t.Errorf("name: expected 'Friday night', got '%s'", got.Name)
	}
	if got.Rules.Type != models.RuleHours {
		t.Errorf("rule type: expected hours, got %s", got.Rules.Type)
	}
	if len(got.Participants) != 3 {
		t.Fatalf("participants: expected 3, got %d", len(got.Participants))
	}
	if got.Participants[0].Hours == nil || *got.Participants[0].Hours != 6 {
		t.Errorf("Alice hours: expected 6, got %v", got.Participants[0].Hours)
	}
}

func TestCreateTemplate_AutoGenerateName(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tmpl := teamTemplate()
	tmpl.Name = ""

	resp, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{
		Template: tmpl,
	}))
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	if resp.Msg.Template.Name != "hours split for 3 people" {
		t.Errorf("name: expected 'hours split for 3 people', got '%s'", resp.Msg.Template.Name)
	}
}

func TestCreateTemplate_InvalidValues(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tmpl := teamTemplate()
	tmpl.Rules.OffTheTop = []models.OffTheTopRule{{Role: "busser", Percentage: -10}}

	_, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{
		Template: tmpl,
	}))
	if err == nil {
		t.Fatal("expected error for negative off-the-top percentage")
	}
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", connect.CodeOf(err))
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := ts.client.GetTemplate(context.Background(), connect.NewRequest(&GetTemplateRequest{
		TemplateID: "nonexistent-id",
	}))
	if err == nil {
		t.Fatal("expected error for non-existent template")
	}

	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T", err)
	}
	if connectErr.Code() != connect.CodeNotFound {
		t.Errorf("expected NotFound, got %v", connectErr.Code())
	}
}

func TestGetTemplate_MissingID(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := ts.client.GetTemplate(context.Background(), connect.NewRequest(&GetTemplateRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestListTemplates(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	for _, name := range []string{"Lunch", "Dinner"} {
		tmpl := teamTemplate()
		tmpl.Name = name
		if _, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{Template: tmpl})); err != nil {
			t.Fatalf("CreateTemplate failed: %v", err)
		}
	}

	resp, err := ts.client.ListTemplates(context.Background(), connect.NewRequest(&ListTemplatesRequest{}))
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(resp.Msg.Templates) != 2 {
		t.Errorf("expected 2 templates, got %d", len(resp.Msg.Templates))
	}
}

func TestUpdateTemplate(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	createResp, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{
		Template: teamTemplate(),
	}))
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	created := *createResp.Msg.Template

	updated := created
	updated.Name = "Saturday brunch"
	updated.Rules = models.TipRules{
		Type:        models.RuleRoleWeighted,
		RoleWeights: map[string]float64{"server": 60, "bartender": 25, "busser": 15},
	}
	updated.Participants = created.Participants[:2]

	updateResp, err := ts.client.UpdateTemplate(context.Background(), connect.NewRequest(&UpdateTemplateRequest{
		Template: updated,
	}))
	if err != nil {
		t.Fatalf("UpdateTemplate failed: %v", err)
	}
	if updateResp.Msg.Template.CreatedAt != created.CreatedAt {
		t.Errorf("CreatedAt changed: %d -> %d", created.CreatedAt, updateResp.Msg.Template.CreatedAt)
	}

	getResp, err := ts.client.GetTemplate(context.Background(), connect.NewRequest(&GetTemplateRequest{
		TemplateID: created.ID,
	}))
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	got := getResp.Msg.Template
	if got.Name != "Saturday brunch" {
		t.Errorf("name: expected 'Saturday brunch', got '%s'", got.Name)
	}
	if got.Rules.Type != models.RuleRoleWeighted {
		t.Errorf("rule type: expected roleWeighted, got %s", got.Rules.Type)
	}
	if len(got.Participants) != 2 {
		t.Errorf("participants: expected 2, got %d", len(got.Participants))
	}
	if got.Rules.RoleWeights["busser"] != 15 {
		t.Errorf("busser weight: expected 15, got %f", got.Rules.RoleWeights["busser"])
	}
}

func TestUpdateTemplate_NotFound(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tmpl := teamTemplate()
	tmpl.ID = "nonexistent-id"

	_, err := ts.client.UpdateTemplate(context.Background(), connect.NewRequest(&UpdateTemplateRequest{
		Template: tmpl,
	}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestDeleteTemplate(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	createResp, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{
		Template: teamTemplate(),
	}))
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	id := createResp.Msg.Template.ID

	if _, err := ts.client.DeleteTemplate(context.Background(), connect.NewRequest(&DeleteTemplateRequest{TemplateID: id})); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}

	_, err = ts.client.GetTemplate(context.Background(), connect.NewRequest(&GetTemplateRequest{TemplateID: id}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound after delete, got %v", err)
	}

	_, err = ts.client.DeleteTemplate(context.Background(), connect.NewRequest(&DeleteTemplateRequest{TemplateID: id}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound on second delete, got %v", err)
	}

	rpcs := ts.metrics.RPCRequests
	if got := testutil.ToFloat64(rpcs.WithLabelValues(DeleteTemplateProcedure, "ok")); got != 1 {
		t.Errorf("ok deletes: expected 1, got %f", got)
	}
	if got := testutil.ToFloat64(rpcs.WithLabelValues(DeleteTemplateProcedure, "not_found")); got != 1 {
		t.Errorf("not_found deletes: expected 1, got %f", got)
	}
}

func TestComputeTemplateSplits_SaveAndList(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	createResp, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{
		Template: teamTemplate(),
	}))
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	templateID := createResp.Msg.Template.ID

	// Unsaved computation leaves no history.
	previewResp, err := ts.client.ComputeTemplateSplits(context.Background(), connect.NewRequest(&ComputeTemplateSplitsRequest{
		TemplateID: templateID,
		Pool:       100,
	}))
	if err != nil {
		t.Fatalf("ComputeTemplateSplits failed: %v", err)
	}
	if previewResp.Msg.SplitID != "" {
		t.Errorf("unsaved split should have no ID, got %s", previewResp.Msg.SplitID)
	}

	saveResp, err := ts.client.ComputeTemplateSplits(context.Background(), connect.NewRequest(&ComputeTemplateSplitsRequest{
		TemplateID: templateID,
		Pool:       100,
		Save:       true,
	}))
	if err != nil {
		t.Fatalf("ComputeTemplateSplits failed: %v", err)
	}
	if saveResp.Msg.SplitID == "" {
		t.Fatal("expected a split ID for a saved split")
	}
	if saveResp.Msg.TotalCents != 10000 {
		t.Errorf("TotalCents: expected 10000, got %d", saveResp.Msg.TotalCents)
	}

	want := []float64{50, 25, 25}
	got := amounts(saveResp.Msg.Result)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("participant %d: expected %.2f, got %.2f", i, want[i], got[i])
		}
	}

	listResp, err := ts.client.ListSplits(context.Background(), connect.NewRequest(&ListSplitsRequest{
		TemplateID: templateID,
	}))
	if err != nil {
		t.Fatalf("ListSplits failed: %v", err)
	}
	if len(listResp.Msg.Splits) != 1 {
		t.Fatalf("expected 1 recorded split, got %d", len(listResp.Msg.Splits))
	}
	record := listResp.Msg.Splits[0]
	if record.ID != saveResp.Msg.SplitID {
		t.Errorf("split ID: expected %s, got %s", saveResp.Msg.SplitID, record.ID)
	}
	if record.Pool != 100 {
		t.Errorf("pool: expected 100, got %f", record.Pool)
	}
	if record.RuleType != models.RuleHours {
		t.Errorf("rule type: expected hours, got %s", record.RuleType)
	}
	if record.Result.TotalCents() != 10000 {
		t.Errorf("stored total: expected 10000, got %d", record.Result.TotalCents())
	}
}

func TestComputeTemplateSplits_NotFound(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := ts.client.ComputeTemplateSplits(context.Background(), connect.NewRequest(&ComputeTemplateSplitsRequest{
		TemplateID: "nonexistent-id",
		Pool:       10,
	}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestExportHandler(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	createResp, err := ts.client.CreateTemplate(context.Background(), connect.NewRequest(&CreateTemplateRequest{
		Template: teamTemplate(),
	}))
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	saveResp, err := ts.client.ComputeTemplateSplits(context.Background(), connect.NewRequest(&ComputeTemplateSplitsRequest{
		TemplateID: createResp.Msg.Template.ID,
		Pool:       100,
		Save:       true,
	}))
	if err != nil {
		t.Fatalf("ComputeTemplateSplits failed: %v", err)
	}
	splitID := saveResp.Msg.SplitID

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		contentType string
		bodyCheck   func(t *testing.T, body string)
	}{
		{
			name:        "csv",
			path:        "/splits/" + splitID + "/export.csv",
			wantStatus:  http.StatusOK,
			contentType: "text/csv; charset=utf-8",
			bodyCheck: func(t *testing.T, body string) {
				if !strings.HasPrefix(body, "name,role,amount (USD)\n") {
					t.Errorf("unexpected CSV header: %q", body)
				}
				if !strings.Contains(body, "Alice,server,50.00") {
					t.Errorf("CSV missing Alice's row: %q", body)
				}
			},
		},
		{
			name:        "pdf",
			path:        "/splits/" + splitID + "/export.pdf",
			wantStatus:  http.StatusOK,
			contentType: "application/pdf",
			bodyCheck: func(t *testing.T, body string) {
				if !strings.HasPrefix(body, "%PDF-") {
					t.Errorf("body is not a PDF")
				}
			},
		},
		{
			name:       "unknown split",
			path:       "/splits/nonexistent-id/export.csv",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown format",
			path:       "/splits/" + splitID + "/export.xml",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.url + tt.path)
			if err != nil {
				t.Fatalf("GET %s failed: %v", tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status: expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.contentType != "" && resp.Header.Get("Content-Type") != tt.contentType {
				t.Errorf("content type: expected %s, got %s", tt.contentType, resp.Header.Get("Content-Type"))
			}
			if tt.bodyCheck != nil {
				body, err := io.ReadAll(resp.Body)
				if err != nil {
					t.Fatalf("failed to read body: %v", err)
				}
				tt.bodyCheck(t, string(body))
			}
		})
	}
}
