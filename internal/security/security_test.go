package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestParseMetricsLabels(t *testing.T) {
	t.Setenv("CHAT_TEST_REGION", "eu-west")

	labels, err := ParseMetricsLabels("service=chat,region=${CHAT_TEST_REGION}")
	require.NoError(t, err)
	require.Equal(t, prometheus.Labels{"service": "chat", "region": "eu-west"}, labels)

	labels, err = ParseMetricsLabels("")
	require.NoError(t, err)
	require.Nil(t, labels)

	_, err = ParseMetricsLabels("novalue")
	require.Error(t, err)
	_, err = ParseMetricsLabels("1bad=x")
	require.Error(t, err)
}

func TestRecordingHelpersAreSafeBeforeInit(t *testing.T) {
	require.NotPanics(t, func() {
		JournalWritten("user")
		JournalWriteFailed()
		JournalQueueDepth(3)
		JournalReplayed("applied", 2)
	})
}

func newIdentityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdentityMiddleware())
	r.GET("/open", func(c *gin.Context) {
		id, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "ok": ok})
	})
	r.GET("/private", RequireUser(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestIdentityMiddleware(t *testing.T) {
	r := newIdentityRouter()
	id := uuid.New()

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"anonymous open", "/open", "", http.StatusOK},
		{"identified open", "/open", id.String(), http.StatusOK},
		{"malformed header", "/open", "not-a-uuid", http.StatusBadRequest},
		{"anonymous private", "/private", "", http.StatusUnauthorized},
		{"identified private", "/private", id.String(), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)
		})
	}
}
