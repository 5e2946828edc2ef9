package router

import (
	"strategyWorkbench/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupFeatureRoutes(api *echo.Group, handler *rest.BinningHandler) {
	api.GET("/features", handler.ListFeatures)
}

func SetupBinningRoutes(api *echo.Group, handler *rest.BinningHandler) {
	bin := api.Group("/binning")

	bin.POST("/recompute", handler.Recompute)

	sessions := bin.Group("/sessions")
	sessions.POST("", handler.CreateSession)
	sessions.GET("/:id", handler.GetSession)
	sessions.DELETE("/:id", handler.DeleteSession)
	sessions.PUT("/:id/feature", handler.SelectFeature)
	sessions.PUT("/:id/cut-points", handler.SetCutPoints)
	sessions.POST("/:id/drag/start", handler.BeginDrag)
	sessions.POST("/:id/drag/move", handler.MoveDrag)
	sessions.POST("/:id/drag/end", handler.EndDrag)
	sessions.GET("/:id/chart", handler.Chart)
	sessions.GET("/:id/report.pdf", handler.Report)
	sessions.POST("/:id/apply", handler.ApplyToProject)
}

func SetupProjectRoutes(api *echo.Group, handler *rest.ProjectHandler, authRequired echo.MiddlewareFunc) {
	projects := api.Group("/projects")

	projects.GET("", handler.ListProjects)
	projects.GET("/:id", handler.GetProject)
	projects.GET("/:id/export", handler.ExportProject)

	projects.POST("", handler.CreateProject, authRequired)
	projects.POST("/import", handler.ImportProject, authRequired)
	projects.POST("/export", handler.ExportAllProjects, authRequired)
	projects.PUT("/:id", handler.UpdateProject, authRequired)
	projects.DELETE("/:id", handler.DeleteProject, authRequired)
	projects.POST("/:id/duplicate", handler.DuplicateProject, authRequired)
}

func SetupTaskRoutes(api *echo.Group, handler *rest.TaskHandler) {
	api.GET("/tasks/:id", handler.GetTask)
}

func SetupAuthRoutes(api *echo.Group, handler *rest.AuthHandler) {
	api.POST("/auth/token", handler.IssueToken)
}
