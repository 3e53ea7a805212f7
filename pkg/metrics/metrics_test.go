package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncEmailFailed_DefaultsEmptyLabels(t *testing.T) {
	before := testutil.ToFloat64(emailFailed.WithLabelValues("unknown", "unknown"))
	IncEmailFailed("", "")
	after := testutil.ToFloat64(emailFailed.WithLabelValues("unknown", "unknown"))
	assert.Equal(t, before+1, after)
}

func TestSetQueueDepth(t *testing.T) {
	SetQueueDepth(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(queueDepth))
}

func TestHandler_ServesRegistry(t *testing.T) {
	IncEmailSent("direct")

	app := fiber.New()
	app.Use(HTTPMiddleware())
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "expomail_email_sent_total"))
}
