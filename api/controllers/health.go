package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/khetihal/khetihal-backend/api/responses"
	"github.com/khetihal/khetihal-backend/pkg/config"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
	"github.com/khetihal/khetihal-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Khetihal-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the datastore, cache, and sheet mirror. A nil dependency
// is reported as skipped so dev stacks without Sheets credentials stay ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache, sheetMirror pinger) http.HandlerFunc {
	deps := []struct {
		name   string
		pinger pinger
	}{
		{"database", database},
		{"redis", cache},
		{"sheets", sheetMirror},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Khetihal-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		ready := true
		for _, dep := range deps {
			if dep.pinger == nil {
				checks[dep.name] = "skipped"
				continue
			}
			if err := dep.pinger.Ping(ctx); err != nil {
				logg.Error(r.Context(), "health.dependency_unavailable", err)
				checks[dep.name] = "unavailable"
				ready = false
				continue
			}
			checks[dep.name] = "ok"
		}

		if !ready {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
