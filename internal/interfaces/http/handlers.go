package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
	"github.com/garyjia/workflow-reconciler/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	syncService    service.SyncService
	requestService service.RequestService
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	syncService service.SyncService,
	requestService service.RequestService,
	logger Logger,
) *Handlers {
	return &Handlers{
		syncService:    syncService,
		requestService: requestService,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// RunSync handles POST /api/v1/legacy-sync/runs
func (h *Handlers) RunSync(c *gin.Context) {
	var req service.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid sync request body", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	resp, err := h.syncService.RunSync(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, reconcile.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, reconcile.ErrFetchFailed):
			status = http.StatusBadGateway
		case errors.Is(err, service.ErrRunInProgress):
			status = http.StatusConflict
		}
		c.JSON(status, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    resp,
	})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid request ID", "id", idStr, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request ID",
		})
		return
	}

	req, err := h.requestService.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// GetRequestByLegacyID handles GET /api/v1/companies/:company_id/requests/legacy/:legacy_id
func (h *Handlers) GetRequestByLegacyID(c *gin.Context) {
	companyStr := c.Param("company_id")
	companyID, err := strconv.ParseInt(companyStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid company ID",
		})
		return
	}

	req, err := h.requestService.GetRequestByLegacyID(c.Request.Context(), companyID, c.Query("source_system"), c.Param("legacy_id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

func (h *Handlers) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrRequestNotFound) {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "request not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   "failed to retrieve request",
	})
}
