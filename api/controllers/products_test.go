package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogsvc "github.com/khetihal/khetihal-backend/internal/catalog"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

type stubCatalogService struct {
	result  *catalogsvc.ListResult
	product *catalogsvc.ProductDTO
	query   string
}

func (s *stubCatalogService) List(ctx context.Context, input catalogsvc.ListInput) (*catalogsvc.ListResult, error) {
	s.query = input.Filters.Query
	return s.result, nil
}

func (s *stubCatalogService) Get(ctx context.Context, id uuid.UUID) (*catalogsvc.ProductDTO, error) {
	if s.product == nil || s.product.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.product, nil
}

func TestProductListPassesSearchQuery(t *testing.T) {
	svc := &stubCatalogService{result: &catalogsvc.ListResult{Products: []catalogsvc.ProductDTO{
		{ID: uuid.New(), Name: "Brown Rice", Price: decimal.RequireFromString("3.00"), Stock: 40},
	}}}
	handler := ProductList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?query=rice&limit=10", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.query != "rice" {
		t.Fatalf("expected query to reach service, got %q", svc.query)
	}

	var envelope struct {
		Data catalogsvc.ListResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Products) != 1 || envelope.Data.Products[0].Name != "Brown Rice" {
		t.Fatalf("unexpected products: %+v", envelope.Data.Products)
	}
}

func TestProductListRejectsBadLimit(t *testing.T) {
	handler := ProductList(&stubCatalogService{result: &catalogsvc.ListResult{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=nope", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductGetNotFound(t *testing.T) {
	handler := ProductGet(&stubCatalogService{}, nil)

	missing := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+missing.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productID", missing.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
