// Package httpapi is the REST and websocket surface of the server, built
// on gin.
package httpapi

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/server/hub"
	"github.com/dmitrijs2005/mediminder/internal/server/records"
	"github.com/dmitrijs2005/mediminder/internal/server/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// MountPoint prefixes every route.
const MountPoint = "/api"

type Options struct {
	Users   *users.Service
	Records *records.Service
	Hub     *hub.Hub
	Logger  *logging.ZapLogger

	// AllowedOrigins lists browser origins; "*" allows any.
	AllowedOrigins []string
	Production     bool

	// RateLimits is nil when limiting is off.
	RateLimits *RateLimits
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// originPatterns converts allowed origins to the host patterns the
// websocket handshake checks.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

func noLimit(c *gin.Context) { c.Next() }

func NewRouter(o Options) *gin.Engine {
	if o.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	zl := o.Logger.Zap()

	h := &Handler{
		users:   o.Users,
		records: o.Records,
		hub:     o.Hub,
		origins: originPatterns(o.AllowedOrigins),
		logger:  o.Logger,
	}

	r := gin.New()
	r.Use(Recovery(zl))
	r.Use(cors.New(corsConfig(o.AllowedOrigins)))
	r.Use(RequestID())
	r.Use(RequestLogging(zl))

	r.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "route not found")
	})

	byIP, byUser := noLimit, noLimit
	if o.RateLimits != nil {
		rl := NewRateLimiter(*o.RateLimits, zl)
		byIP, byUser = rl.ByIP(), rl.ByUser()
	}

	g := r.Group(MountPoint)
	g.GET(api.HealthPath, h.health)
	g.POST(api.AuthRegisterPath, byIP, h.register)
	g.POST(api.AuthLoginPath, byIP, h.login)

	authed := g.Group("", Authenticate(o.Users), byUser)
	authed.GET(api.AuthMePath, h.me)
	authed.GET(api.ProfilePath, h.getProfile)
	authed.PUT(api.ProfilePath, h.putProfile)
	authed.GET(api.ChangesPath, h.changes)
	for _, col := range models.AllCollections() {
		path := api.CollectionPath(col.Path())
		authed.GET(path, h.list(col.Path()))
		authed.POST(path, h.replace(col.Path()))
		authed.DELETE(path, h.deleteAll(col.Path()))
	}

	admin := authed.Group(api.AdminUsersPath, RequireAdmin())
	admin.GET("", h.adminUsers)
	admin.GET("/:id/:collection", h.adminRecords)

	return r
}
