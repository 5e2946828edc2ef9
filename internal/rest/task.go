package rest

import (
	"net/http"

	"strategyWorkbench/pkg/task"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type TaskRegistry interface {
	Get(id string) (*task.Future, error)
}

type TaskHandler struct {
	tasks TaskRegistry
}

func NewTaskHandler(tasks TaskRegistry) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) GetTask(c echo.Context) error {
	f, err := h.tasks.Get(c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(f.View()))
}
