package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// SplitServiceName is the fully-qualified name of the split service.
const SplitServiceName = "tipsplit.v1.SplitService"

// Procedure paths served by NewSplitServiceHandler.
const (
	ComputeSplitsProcedure         = "/" + SplitServiceName + "/ComputeSplits"
	CreateTemplateProcedure        = "/" + SplitServiceName + "/CreateTemplate"
	GetTemplateProcedure           = "/" + SplitServiceName + "/GetTemplate"
	ListTemplatesProcedure         = "/" + SplitServiceName + "/ListTemplates"
	UpdateTemplateProcedure        = "/" + SplitServiceName + "/UpdateTemplate"
	DeleteTemplateProcedure        = "/" + SplitServiceName + "/DeleteTemplate"
	ComputeTemplateSplitsProcedure = "/" + SplitServiceName + "/ComputeTemplateSplits"
	ListSplitsProcedure            = "/" + SplitServiceName + "/ListSplits"
)

// jsonCodec carries plain Go message structs as JSON. It replaces
// connect's protobuf JSON codec under the same name.
type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// NewSplitServiceHandler builds an HTTP handler serving every SplitService
// procedure. It returns the path prefix to mount it on.
func NewSplitServiceHandler(svc *SplitService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ComputeSplitsProcedure, connect.NewUnaryHandler(ComputeSplitsProcedure, svc.ComputeSplits, opts...))
	mux.Handle(CreateTemplateProcedure, connect.NewUnaryHandler(CreateTemplateProcedure, svc.CreateTemplate, opts...))
	mux.Handle(GetTemplateProcedure, connect.NewUnaryHandler(GetTemplateProcedure, svc.GetTemplate, opts...))
	mux.Handle(ListTemplatesProcedure, connect.NewUnaryHandler(ListTemplatesProcedure, svc.ListTemplates, opts...))
	mux.Handle(UpdateTemplateProcedure, connect.NewUnaryHandler(UpdateTemplateProcedure, svc.UpdateTemplate, opts...))
	mux.Handle(DeleteTemplateProcedure, connect.NewUnaryHandler(DeleteTemplateProcedure, svc.DeleteTemplate, opts...))
	mux.Handle(ComputeTemplateSplitsProcedure, connect.NewUnaryHandler(ComputeTemplateSplitsProcedure, svc.ComputeTemplateSplits, opts...))
	mux.Handle(ListSplitsProcedure, connect.NewUnaryHandler(ListSplitsProcedure, svc.ListSplits, opts...))

	return "/" + SplitServiceName + "/", mux
}

// SplitServiceClient calls a SplitService over Connect.
type SplitServiceClient struct {
	computeSplits         *connect.Client[ComputeSplitsRequest, ComputeSplitsResponse]
	createTemplate        *connect.Client[CreateTemplateRequest, TemplateResponse]
	getTemplate           *connect.Client[GetTemplateRequest, TemplateResponse]
	listTemplates         *connect.Client[ListTemplatesRequest, ListTemplatesResponse]
	updateTemplate        *connect.Client[UpdateTemplateRequest, TemplateResponse]
	deleteTemplate        *connect.Client[DeleteTemplateRequest, DeleteTemplateResponse]
	computeTemplateSplits *connect.Client[ComputeTemplateSplitsRequest, ComputeTemplateSplitsResponse]
	listSplits            *connect.Client[ListSplitsRequest, ListSplitsResponse]
}

// NewSplitServiceClient creates a client for the service at baseURL.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SplitServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &SplitServiceClient{
		computeSplits:         connect.NewClient[ComputeSplitsRequest, ComputeSplitsResponse](httpClient, baseURL+ComputeSplitsProcedure, opts...),
		createTemplate:        connect.NewClient[CreateTemplateRequest, TemplateResponse](httpClient, baseURL+CreateTemplateProcedure, opts...),
		getTemplate:           connect.NewClient[GetTemplateRequest, TemplateResponse](httpClient, baseURL+GetTemplateProcedure, opts...),
		listTemplates:         connect.NewClient[ListTemplatesRequest, ListTemplatesResponse](httpClient, baseURL+ListTemplatesProcedure, opts...),
		updateTemplate:        connect.NewClient[UpdateTemplateRequest, TemplateResponse](httpClient, baseURL+UpdateTemplateProcedure, opts...),
		deleteTemplate:        connect.NewClient[DeleteTemplateRequest, DeleteTemplateResponse](httpClient, baseURL+DeleteTemplateProcedure, opts...),
		computeTemplateSplits: connect.NewClient[ComputeTemplateSplitsRequest, ComputeTemplateSplitsResponse](httpClient, baseURL+ComputeTemplateSplitsProcedure, opts...),
		listSplits:            connect.NewClient[ListSplitsRequest, ListSplitsResponse](httpClient, baseURL+ListSplitsProcedure, opts...),
	}
}

func (c *SplitServiceClient) ComputeSplits(ctx context.Context, req *connect.Request[ComputeSplitsRequest]) (*connect.Response[ComputeSplitsResponse], error) {
	return c.computeSplits.CallUnary(ctx, req)
}

func (c *SplitServiceClient) CreateTemplate(ctx context.Context, req *connect.Request[CreateTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	return c.createTemplate.CallUnary(ctx, req)
}

func (c *SplitServiceClient) GetTemplate(ctx context.Context, req *connect.Request[GetTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	return c.getTemplate.CallUnary(ctx, req)
}

func (c *SplitServiceClient) ListTemplates(ctx context.Context, req *connect.Request[ListTemplatesRequest]) (*connect.Response[ListTemplatesResponse], error) {
	return c.listTemplates.CallUnary(ctx, req)
}

func (c *SplitServiceClient) UpdateTemplate(ctx context.Context, req *connect.Request[UpdateTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	return c.updateTemplate.CallUnary(ctx, req)
}

func (c *SplitServiceClient) DeleteTemplate(ctx context.Context, req *connect.Request[DeleteTemplateRequest]) (*connect.Response[DeleteTemplateResponse], error) {
	return c.deleteTemplate.CallUnary(ctx, req)
}

func (c *SplitServiceClient) ComputeTemplateSplits(ctx context.Context, req *connect.Request[ComputeTemplateSplitsRequest]) (*connect.Response[ComputeTemplateSplitsResponse], error) {
	return c.computeTemplateSplits.CallUnary(ctx, req)
}

func (c *SplitServiceClient) ListSplits(ctx context.Context, req *connect.Request[ListSplitsRequest]) (*connect.Response[ListSplitsResponse], error) {
	return c.listSplits.CallUnary(ctx, req)
}
