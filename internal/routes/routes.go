package routes

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"sport_sessions/internal/controllers"
	"sport_sessions/internal/middleware"
	"sport_sessions/internal/realtime"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Auth      *middleware.Authenticator
	Sessions  controllers.SessionService
	Sports    controllers.SportLister
	Reports   controllers.ReportService
	Users     controllers.UserStore
	Hub       *realtime.Hub
	AccessLog io.Writer     // request log destination; stderr when nil
	Timeout   time.Duration // per-request budget for profile reads and writes

	// CORSOrigins lists the browser origins allowed to call the API with
	// credentials. Empty allows every origin without credentials.
	CORSOrigins []string
}

// The live feed authenticates with a query token; it is kept out of the
// access log so tokens never reach disk.
var accessLogSkip = []string{"/healthz", "/ws/sessions"}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	out := d.AccessLog
	if out == nil {
		out = os.Stderr
	}
	r.Use(
		ginlog.SetLogger(
			ginlog.WithWriter(out),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath(accessLogSkip),
		),
		gin.Recovery(),
		cors.New(corsConfig(d.CORSOrigins)),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SessionRoutes(r, d)
	SportRoutes(r, d)
	UserRoutes(r, d)
	AdminRoutes(r, d)
	WebSocketRoutes(r, d)

	return r
}
