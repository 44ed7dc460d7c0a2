package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/server/handlers/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/server/middlewares"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/jwks"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(
	planHandler *plan.PlanHandler,
	authCfg middlewares.AuthConfig,
	keys jwks.KeyProvider,
	log logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "plan-api",
		})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middlewares.Auth(authCfg, keys))
	{
		plans := v1.Group("/plan")
		{
			plans.POST("", planHandler.Create)
			plans.GET("/:id", planHandler.Get)
			plans.PUT("/:id", planHandler.Put)
			plans.PATCH("/:id", planHandler.Patch)
			plans.DELETE("/:id", planHandler.Delete)
		}
	}

	return r
}
