package status

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/observability"
	"github.com/kbukum/packetflow/version"
)

// Register mounts the status endpoints on engine.
func Register(engine *gin.Engine, src Sources) {
	var checkers []observability.HealthChecker
	if src.Health != nil {
		checkers = append(checkers, src.Health)
	}
	if src.Stats != nil {
		checkers = append(checkers, src.Stats)
	}
	engine.GET("/healthz", Health(src.Service, checkers...))
	engine.GET("/stats", Stats(src.Stats))
	engine.GET("/stats/:stage", Stage(src.Stats))
	engine.GET("/version", Version())
}

// Health reports service health from every checker. A down entry turns the
// response into a 503.
func Health(service string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(service, version.Get().Short())
		sh.Collect(c.Request.Context(), checkers...)

		httpStatus := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":     sh.Status,
			"service":    sh.Service,
			"version":    sh.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": sh.Components,
		})
	}
}

// Stats reports per-stage item counters.
func Stats(stats *observability.Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stats == nil {
			RespondWithError(c, errors.ServiceUnavailable("stats"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"stages": stats.Snapshot()})
	}
}

// Stage reports the counters of one stage.
func Stage(stats *observability.Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stats == nil {
			RespondWithError(c, errors.ServiceUnavailable("stats"))
			return
		}
		name := c.Param("stage")
		snap, ok := stats.Stage(name)
		if !ok {
			RespondWithError(c, errors.NotFound("stage", name))
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// Version reports build information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}

// RespondWithError writes err as a structured error body, using the
// AppError's status when err carries one and 500 otherwise.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, errors.Internal(err).ToResponse())
}
