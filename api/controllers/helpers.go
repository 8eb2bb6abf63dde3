package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/khetihal/khetihal-backend/api/middleware"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

// currentUserID extracts the authenticated user's id from the request context.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
