package controllers

import (
	"net/http"
	"strings"

	"github.com/khetihal/khetihal-backend/api/responses"
	"github.com/khetihal/khetihal-backend/api/validators"
	"github.com/khetihal/khetihal-backend/internal/mirror"
	"github.com/khetihal/khetihal-backend/pkg/enums"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
	"github.com/khetihal/khetihal-backend/pkg/logger"
)

// MirrorProductList reads the products sheet, optionally filtered by name.
func MirrorProductList(svc mirror.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mirror service unavailable"))
			return
		}

		query := validators.SanitizeString(strings.TrimSpace(r.URL.Query().Get("query")), maxSearchQueryLen)

		products, err := svc.ListProducts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}

// MirrorProductAdd appends a product row to the sheet.
func MirrorProductAdd(svc mirror.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mirror service unavailable"))
			return
		}

		var body mirror.ProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddProduct(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// MirrorProductUpdate rewrites a product row in place.
func MirrorProductUpdate(svc mirror.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mirror service unavailable"))
			return
		}

		id, err := validators.ParseInt64Param(r, "rowID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body mirror.ProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateProduct(r.Context(), id, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// MirrorProductDelete removes a product row from the sheet.
func MirrorProductDelete(svc mirror.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mirror service unavailable"))
			return
		}

		id, err := validators.ParseInt64Param(r, "rowID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// MirrorOrderList reads the order ledger sheet.
func MirrorOrderList(svc mirror.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mirror service unavailable"))
			return
		}

		list, err := svc.ListOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"orders": list})
	}
}

type mirrorOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MirrorOrderUpdateStatus rewrites the status cell of a ledger row.
func MirrorOrderUpdateStatus(svc mirror.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mirror service unavailable"))
			return
		}

		id, err := validators.ParseInt64Param(r, "rowID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body mirrorOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateOrderStatus(r.Context(), id, enums.OrderStatus(strings.ToLower(strings.TrimSpace(body.Status)))); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
