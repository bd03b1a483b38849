package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/service"
	"github.com/actionculture/heritage/internal/validate"
)

// SitesServiceName is the fully qualified name of the sites read service.
const SitesServiceName = "heritage.v1.Sites"

const (
	getSiteMethod   = "/" + SitesServiceName + "/GetSite"
	listSitesMethod = "/" + SitesServiceName + "/ListSites"
)

// SitesServer is the server API for heritage.v1.Sites.
type SitesServer interface {
	// GetSite takes {"id"} and returns one site with its media and events.
	GetSite(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListSites takes the listing filter and page and returns {"items", "page", "limit", "total", "totalPages"}.
	ListSites(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSitesServer registers srv under heritage.v1.Sites.
func RegisterSitesServer(s grpc.ServiceRegistrar, srv SitesServer) {
	s.RegisterService(&sitesServiceDesc, srv)
}

var sitesServiceDesc = grpc.ServiceDesc{
	ServiceName: SitesServiceName,
	HandlerType: (*SitesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSite", Handler: getSiteHandler},
		{MethodName: "ListSites", Handler: listSitesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "heritage/v1/sites.proto",
}

func getSiteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SitesServer).GetSite(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSiteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SitesServer).GetSite(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listSitesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SitesServer).ListSites(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listSitesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SitesServer).ListSites(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SitesClient is the client API for heritage.v1.Sites.
type SitesClient struct {
	cc grpc.ClientConnInterface
}

func NewSitesClient(cc grpc.ClientConnInterface) *SitesClient {
	return &SitesClient{cc: cc}
}

func (c *SitesClient) GetSite(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSiteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SitesClient) ListSites(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listSitesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type sitesHandler struct {
	sites *service.SiteService
}

type getSiteRequest struct {
	ID string `json:"id"`
}

func (h *sitesHandler) GetSite(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in getSiteRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, mapDomainError(err)
	}

	id, err := domain.ParseID("id", in.ID)
	if err != nil {
		return nil, mapDomainError(err)
	}

	site, err := h.sites.GetSite(ctx, id)
	if err != nil {
		return nil, mapDomainError(err)
	}

	return toStruct(api.FromSite(site))
}

type listSitesRequest struct {
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	Search     string   `json:"search"`
	Categories []string `json:"categories"`
	Wilayas    []string `json:"wilayas"`
	DateFrom   string   `json:"date_from"`
	DateTo     string   `json:"date_to"`
	PriceMin   *float64 `json:"price_min"`
	PriceMax   *float64 `json:"price_max"`
	SortBy     string   `json:"sort_by"`
	SortOrder  string   `json:"sort_order"`
}

func (r listSitesRequest) filter() (domain.SiteFilter, error) {
	f := domain.SiteFilter{
		Search:    r.Search,
		Wilayas:   r.Wilayas,
		PriceMin:  r.PriceMin,
		PriceMax:  r.PriceMax,
		SortBy:    r.SortBy,
		SortOrder: domain.SortOrder(r.SortOrder),
	}
	for _, c := range r.Categories {
		f.Categories = append(f.Categories, domain.Category(c))
	}
	if r.DateFrom != "" {
		t, err := validate.ParseDateTime(r.DateFrom)
		if err != nil {
			return f, domain.ValidationError{Field: "date_from", Message: "invalid date"}
		}
		f.DateFrom = &t
	}
	if r.DateTo != "" {
		t, err := validate.ParseDateTime(r.DateTo)
		if err != nil {
			return f, domain.ValidationError{Field: "date_to", Message: "invalid date"}
		}
		f.DateTo = &t
	}
	return f, nil
}

func (h *sitesHandler) ListSites(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listSitesRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, mapDomainError(err)
	}

	filter, err := in.filter()
	if err != nil {
		return nil, mapDomainError(err)
	}

	page, err := h.sites.ListSites(ctx, filter, domain.PageRequest{Page: in.Page, Limit: in.Limit})
	if err != nil {
		return nil, mapDomainError(err)
	}

	return toStruct(api.Page[api.Site]{
		Items:      api.FromSites(page.Items),
		Pagination: page.Pagination,
	})
}

// toStruct converts a JSON-encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes a protobuf Struct into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	b, err := s.MarshalJSON()
	if err != nil {
		return domain.ValidationError{Field: "request", Message: "invalid struct"}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return domain.ValidationError{Field: "request", Message: err.Error()}
	}
	return nil
}
