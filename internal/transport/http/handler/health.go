package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	appName   string
	env       string
	indexRoot string
	dataRoot  string
	startedAt time.Time
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(appName, env, indexRoot, dataRoot string, startedAt time.Time) *HealthHandler {
	return &HealthHandler{
		appName:   appName,
		env:       env,
		indexRoot: indexRoot,
		dataRoot:  dataRoot,
		startedAt: startedAt,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	indexStatus := checkDir(h.indexRoot)
	dataStatus := checkDir(h.dataRoot)

	statusCode := http.StatusOK
	status := "ok"
	if !indexStatus.OK || !dataStatus.OK {
		statusCode = http.StatusServiceUnavailable
		status = "degraded"
	}

	c.JSON(statusCode, gin.H{
		"status":     status,
		"app":        h.appName,
		"env":        h.env,
		"uptime_sec": int(time.Since(h.startedAt).Seconds()),
		"dependencies": gin.H{
			"index_storage": indexStatus,
			"data_storage":  dataStatus,
		},
	})
}

func checkDir(path string) dependencyStatus {
	info, err := os.Stat(path)
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	if !info.IsDir() {
		return dependencyStatus{OK: false, Message: "not a directory"}
	}
	return dependencyStatus{OK: true}
}
