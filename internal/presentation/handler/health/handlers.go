package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/2vw/equinox/internal/infrastructure/json"
)

var (
	startTime       = time.Now()
	healthy   int32 = 1 // 1 = healthy, 0 = draining
)

// Probe checks a single dependency, e.g. a database ping.
type Probe func(ctx context.Context) error

type Handler struct {
	probes map[string]Probe
}

func NewHandler(probes map[string]Probe) *Handler {
	return &Handler{probes: probes}
}

// SetUnhealthy flips the liveness flag so load balancers stop routing
// traffic here. Called when graceful shutdown begins.
func SetUnhealthy() {
	atomic.StoreInt32(&healthy, 0)
}

// GetHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API, including uptime, current timestamp and dependency probe results
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse "Service is healthy"
// @Failure      503 {object} healthResponse "Service is unhealthy"
// @Router       /health [get]
// @Router       /healthz [get]
// @Router       /ready [get]
// @Router       /live [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if atomic.LoadInt32(&healthy) == 0 {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	var checks map[string]string
	if len(h.probes) > 0 {
		checks = make(map[string]string, len(h.probes))

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, probe := range h.probes {
			if err := probe(ctx); err != nil {
				checks[name] = err.Error()
				status = "unhealthy"
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
	}

	json.Write(w, code, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Checks:    checks,
	})
}
