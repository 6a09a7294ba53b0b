package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shareporter/shareporter/server/handles"
	"github.com/shareporter/shareporter/server/middlewares"
)

func Init(e *gin.Engine) {
	e.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Admin-Token"},
	}))

	api := e.Group("/api")
	api.POST("/auth/login", handles.Login)
	api.GET("/public-settings", handles.PublicSettings)

	api.GET("/tasks", handles.ListTasks)
	api.POST("/tasks", handles.CreateTask)
	api.DELETE("/tasks/:id", handles.DeleteTask)
	api.POST("/tasks/:id/run", handles.RunTask)
	api.POST("/tasks/:id/pin", handles.PinTask)
	api.POST("/tasks/:id/replace-link", handles.ReplaceLink)
	api.POST("/tasks/:id/resource-url", handles.UpdateResourceURL)
	api.GET("/tasks/:id/logs", handles.ListTaskLogs)
	api.POST("/tasks/:id/refresh-index", handles.RefreshTaskIndex)
	api.POST("/scan", handles.ScanPath)
	api.GET("/115/folders", handles.ListFolders)

	admin := api.Group("", middlewares.AdminRequired)
	admin.GET("/settings", handles.GetSettings)
	admin.POST("/settings", handles.SaveSettings)
	admin.DELETE("/tasks", handles.DeleteAllTasks)
}
