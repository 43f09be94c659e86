package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetProjectID(ctx *gin.Context) (uint, error) {
	projectIDStr := ctx.Param("project_id")

	if projectIDStr == "" {
		return 0, errors.New("Project ID not found")
	}

	projectID, err := strconv.ParseUint(projectIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Project ID")
	}

	return uint(projectID), nil
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	taskIDStr := ctx.Param("task_id")

	if taskIDStr == "" {
		return 0, errors.New("Task ID not found")
	}

	taskID, err := strconv.ParseUint(taskIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Task ID")
	}

	return uint(taskID), nil
}

func GetProjectTaskID(ctx *gin.Context) (uint, uint, error) {
	projectID, err := GetProjectID(ctx)

	if err != nil {
		return 0, 0, err
	}

	taskID, err := GetTaskID(ctx)

	if err != nil {
		return 0, 0, err
	}

	return projectID, taskID, nil
}
