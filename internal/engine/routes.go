package engine

import (
	"encoding/csv"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/adaptmel/missionquery/internal/errors"
	"github.com/adaptmel/missionquery/internal/observability"
)

// SetHealthChecker sets the health checker for the HTTP surface
func (e *Engine) SetHealthChecker(checker *observability.HealthChecker) {
	e.health = checker
}

// SetupRoutes configures the HTTP surface
func (e *Engine) SetupRoutes() *gin.Engine {
	r := gin.New()

	httpLogger := observability.NewLogger("http")
	r.Use(observability.RecoveryMiddleware(httpLogger))
	r.Use(observability.RequestLoggingMiddleware(httpLogger))
	r.Use(observability.CORSWithLogging(httpLogger))
	r.Use(observability.MetricsMiddleware())
	r.Use(observability.MetricsEndpointMiddleware(observability.GetGlobalMetrics()))

	if e.health != nil {
		r.Use(observability.HealthCheckMiddleware(e.health))
	} else {
		r.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"service": "missionquery",
			})
		})
	}

	api := r.Group("/api/v1")
	{
		api.POST("/ask", e.handleAsk)
		api.GET("/ask/csv", e.handleAskCSV)
		api.GET("/schema", e.handleSchema)
	}

	return r
}

func (e *Engine) handleAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		enhancedErr := apperrors.NewInvalidInputError("request body", err.Error())
		c.JSON(http.StatusBadRequest, formatErrorResponse(enhancedErr))
		return
	}

	response, err := e.Ask(c.Request.Context(), &req)
	if err != nil {
		c.JSON(getErrorStatusCode(err), formatErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, response)
}

// handleAskCSV answers a question and streams the result as a CSV
// download, formatted the same way the table display is.
func (e *Engine) handleAskCSV(c *gin.Context) {
	question := c.Query("q")
	if question == "" {
		enhancedErr := apperrors.NewInvalidInputError("q", "query parameter is required")
		c.JSON(http.StatusBadRequest, formatErrorResponse(enhancedErr))
		return
	}

	response, err := e.Ask(c.Request.Context(), &AskRequest{Question: question})
	if err != nil {
		c.JSON(getErrorStatusCode(err), formatErrorResponse(err))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="results.csv"`)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(response.DisplayColumns); err != nil {
		return
	}
	for _, row := range response.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = FormatCell(response.Columns[i], cell)
		}
		if err := w.Write(record); err != nil {
			return
		}
	}
	w.Flush()
}

func (e *Engine) handleSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": e.schema.Version,
		"tables":  e.schema.Tables,
	})
}

// formatErrorResponse formats an error into a user-friendly response
func formatErrorResponse(err error) gin.H {
	if enhancedErr, ok := err.(*apperrors.EnhancedError); ok {
		response := gin.H{
			"error": gin.H{
				"code":    enhancedErr.Code,
				"message": enhancedErr.Message,
			},
		}

		if enhancedErr.Details != "" {
			response["error"].(gin.H)["details"] = enhancedErr.Details
		}

		if enhancedErr.Suggestion != "" {
			response["error"].(gin.H)["suggestion"] = enhancedErr.Suggestion
		}

		if len(enhancedErr.Metadata) > 0 {
			response["error"].(gin.H)["metadata"] = enhancedErr.Metadata
		}

		return response
	}

	return gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	}
}

// getErrorStatusCode returns the appropriate HTTP status code for an error
func getErrorStatusCode(err error) int {
	if enhancedErr, ok := err.(*apperrors.EnhancedError); ok {
		switch enhancedErr.Code {
		case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeMissingRequired,
			apperrors.ErrCodeSafetyValidation, apperrors.ErrCodeEmptyTranslation:
			return http.StatusBadRequest
		case apperrors.ErrCodeTranslationRateLimit:
			return http.StatusTooManyRequests
		case apperrors.ErrCodeTranslationUpstream:
			return http.StatusBadGateway
		case apperrors.ErrCodeTranslationAuth, apperrors.ErrCodeMissingCredential:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
