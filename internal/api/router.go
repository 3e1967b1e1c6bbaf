package api

import (
	"github.com/gin-gonic/gin"

	"jpkvat/internal/config"
	"jpkvat/internal/logger"
	"jpkvat/pkg/services"
)

// NewRouter wires the middleware chain and routes.
func NewRouter(cfg *config.Config, gen services.DeclarationGenerator, kinds []string) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logger.WithComponent("api")

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(log))
	r.Use(Recovery(log))

	h := NewHandler(gen, kinds, log)

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/declarations", h.Generate)
		v1.POST("/declarations/batch", h.GenerateBatch)
		v1.GET("/nip/:nip", h.CheckNIP)
	}

	return r
}
