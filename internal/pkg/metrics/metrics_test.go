package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flood-exposure-viewer/internal/domain"
)

func TestMetrics_Recorders(t *testing.T) {
	m := New()

	m.SetActiveSessions(3)
	m.ObserveCommand("set_year", nil)
	m.ObserveCommand("set_year", nil)
	m.ObserveCommand("toggle_category", errors.New("bad"))
	m.ObserveExport(domain.ExportStatusReady)
	m.ObserveStreamMessage(domain.StreamExportRequest, nil)
	m.ObserveLegendRefresh(20 * time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("set_year", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("toggle_category", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("ready")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.legendRefresh))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SetActiveSessions(1)

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "flood_viewer_active_sessions 1")
}
