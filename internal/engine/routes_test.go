package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptmel/missionquery/internal/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	apiError429 = llm.APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}
	apiError500 = llm.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
)

func TestRoutes_Ask(t *testing.T) {
	stub := &stubClient{
		sql:     "SELECT acronym FROM projects ORDER BY project_id",
		summary: "All projects in the mission portfolio.",
	}
	router := New(stub, newFixtureStore(t), nil).SetupRoutes()

	t.Run("answers a question", func(t *testing.T) {
		body, _ := json.Marshal(AskRequest{Question: "List all projects"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/ask", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp AskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, StateNormal, resp.State)
		assert.Equal(t, 3, resp.RowCount)
		assert.Equal(t, []string{"Acronym"}, resp.DisplayColumns)
	})

	t.Run("rejects missing question", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/ask", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	})

	t.Run("sets request id header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/schema", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestRoutes_AskCSV(t *testing.T) {
	stub := &stubClient{
		sql:     "SELECT acronym, total_budget_euro FROM projects ORDER BY project_id",
		summary: "All projects.",
	}
	router := New(stub, newFixtureStore(t), nil).SetupRoutes()

	t.Run("streams formatted csv", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/ask/csv?q=List+all+projects", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "results.csv")

		body := w.Body.String()
		assert.Contains(t, body, "Acronym,Total Budget (€)")
		assert.Contains(t, body, "REGILIENCE,\"€4,999,000.00\"")
	})

	t.Run("requires the q parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/ask/csv", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRoutes_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubClient
		wantStatus int
	}{
		{
			name:       "rate limit maps to 429",
			stub:       &stubClient{sqlErr: &apiError429},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "upstream maps to 502",
			stub:       &stubClient{sqlErr: &apiError500},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "safety violation maps to 400",
			stub:       &stubClient{sql: "DELETE FROM projects"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := New(tt.stub, newFixtureStore(t), nil).SetupRoutes()

			body, _ := json.Marshal(AskRequest{Question: "anything"})
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/v1/ask", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRoutes_HealthAndMetricsFallback(t *testing.T) {
	stub := &stubClient{sql: "SELECT 1"}
	router := New(stub, newFixtureStore(t), nil).SetupRoutes()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "metrics")
	})
}
