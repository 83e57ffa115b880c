// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/http/middleware"
	"carpool/internal/modules/rides"
)

func NewRouter(svc *rides.Service, log *slog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Recovery())

	h := NewRidesHandler(svc)
	api := r.Group("/api/rides")
	api.POST("/assign-users", h.AssignUsers)
	api.POST("/assign-start-times", h.AssignStartTimes)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
