package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncAssignerDeletion(t *testing.T) {
	before := testutil.ToFloat64(AssignerDeletions.WithLabelValues("blocked"))
	IncAssignerDeletion("blocked")
	IncAssignerDeletion("blocked")
	assert.Equal(t, before+2, testutil.ToFloat64(AssignerDeletions.WithLabelValues("blocked")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordHTTPRequestDuration("GET", "/tasks", "200", 5*time.Millisecond)
	RecordDBQueryDuration("list_tasks", 2*time.Millisecond)
	IncAssignerDeletion("deleted")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http_request_duration_seconds")
	assert.Contains(t, body, "db_query_duration_seconds")
	assert.Contains(t, body, "assigner_deletions_total")
}
