package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sahilrm794/Context-QA/internal/bootstrap"
	"github.com/sahilrm794/Context-QA/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(
		app.Config.App.Name,
		app.Config.App.Env,
		app.Config.Storage.IndexRoot,
		app.Config.Storage.DataRoot,
		app.StartedAt,
	)
	qaHandler := handler.NewQAHandler(app.QAService)

	api := router.Group("/api")
	api.GET("/healthcheck", healthHandler.Check)
	api.POST("/upload", qaHandler.Upload)
	api.POST("/chat", qaHandler.Chat)

	return router
}
