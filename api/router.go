package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamiltczarnik/Lira/logging"
)

// AudioURLPrefix is where saved audio files are served.
const AudioURLPrefix = "/static/audio"

// RouterOptions configures CORS and static audio serving.
type RouterOptions struct {
	CORSOrigins []string
	// AudioDir is served under AudioURLPrefix when set.
	AudioDir string
}

// NewRouter wires middleware and every route onto a new gin engine.
func NewRouter(h *Handler, logger logrus.FieldLogger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/", h.root)
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/products", h.getProducts)
	api.POST("/chat", h.chat)
	api.POST("/login", h.login)
	api.POST("/signup", h.signup)
	api.GET("/user/:customerId", h.getUser)

	if opts.AudioDir != "" {
		r.Static(AudioURLPrefix, opts.AudioDir)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", logging.RequestIDHeader},
		ExposeHeaders: []string{logging.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
