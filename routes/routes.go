package routes

import (
	"net/http"

	"carbscan-backend/controllers"
	"carbscan-backend/middlewares"
	"carbscan-backend/services"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Identity   *services.IdentityService
	Registry   *services.DeviceRegistry
	Store      *services.MessageStore
	Dispatcher *services.Dispatcher
	Results    *services.ResultCache
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	deviceController := controllers.NewDeviceController(deps.Registry)
	notificationController := controllers.NewNotificationController(deps.Store, deps.Dispatcher, deps.Registry, deps.Results)

	authed := middlewares.AuthMiddleware(deps.Identity)

	devices := r.Group("/devices")
	devices.Use(middlewares.RateLimiter(1, 5), authed)
	{
		devices.POST("/register", deviceController.Register)
		devices.POST("/unregister", deviceController.Unregister)
	}

	user := r.Group("/user")
	user.Use(authed)
	{
		user.GET("/profile", controllers.GetProfile)
		user.POST("/notifications/toggle", notificationController.ToggleNotifications)
	}

	admin := r.Group("/admin/notifications")
	admin.Use(middlewares.AdminAuthMiddleware())
	{
		admin.POST("", notificationController.CreateMessage)
		admin.POST("/send", notificationController.TriggerSend)
		admin.GET("/pending", notificationController.ListPending)
		admin.POST("/process", notificationController.ProcessPending)
		admin.GET("/:id/result", notificationController.GetResult)
	}

	return r
}
