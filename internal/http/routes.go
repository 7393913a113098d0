package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tazhibayda/foodshare-service/internal/repo"
)

func NewRouter(h *Handler, jwtSecret string, rds *repo.Redis, rlPerMin int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := AuthJWT(jwtSecret)
	limit := RateLimitMutations(rds, rlPerMin)

	api := r.Group("/api")
	{
		api.GET("/listings", auth, h.ListActive)
		api.POST("/listings", auth, limit, h.CreateListing)
		api.POST("/listings/:id/accept", auth, limit, h.AcceptListing)
		api.GET("/listings/my-donations", auth, h.MyDonations)
		api.GET("/listings/accepted", auth, h.AcceptedListings)
		api.GET("/events", auth, h.Events)
	}
	return r
}
