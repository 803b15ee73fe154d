package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tech0-pos/pos-api/app/render"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger zerolog.Logger
}

func NewHealthHandler(db Pinger, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// HandleRoot reports that the process is serving.
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDB pings the database and reports 503 when it is unreachable.
func (h *HealthHandler) HandleDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database health check failed")
		render.JSON(w, http.StatusServiceUnavailable, map[string]string{"db": "unavailable"})
		return
	}

	render.JSON(w, http.StatusOK, map[string]string{"db": "ok"})
}
