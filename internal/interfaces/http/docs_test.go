package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/retail-core/internal/interfaces/http"
)

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMountDocs_SinArchivoNoMonta(t *testing.T) {
	app := fiber.New()
	assert.False(t, apphttp.MountDocs(app, "", "x"))
	assert.False(t, apphttp.MountDocs(app, filepath.Join(t.TempDir(), "swagger.json"), "x"))

	status, _ := get(t, app, "/docs")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMountDocs_SirveUIYEspecificacion(t *testing.T) {
	app := fiber.New()
	require.True(t, apphttp.MountDocs(app, "../../../docs/swagger.json", "retail-core API"))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	status, body := get(t, app, "/docs")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "swagger")

	status, body = get(t, app, "/docs/swagger.json")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "/api/bills/{id}/finalize")

	status, _ = get(t, app, "/health")
	assert.Equal(t, http.StatusOK, status)
}
