package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVersionFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/inventory", "v1"},
		{"/v1", "v1"},
		{"/v12/items", "v12"},
		{"/health", ""},
		{"/vendors", ""},
		{"/v0/items", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, extractVersionFromPath(tt.path))
		})
	}
}

func TestAPIVersionResolver(t *testing.T) {
	vm := NewVersionMiddleware()
	e := echo.New()
	handler := vm.APIVersionResolver()(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("api_version").(string))
	})

	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)))
	assert.Equal(t, "v1", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/v2/dashboard", nil), rec)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "supported_versions")
}

func TestVersionHeader(t *testing.T) {
	vm := NewVersionMiddleware()
	e := echo.New()
	rec := httptest.NewRecorder()
	handler := vm.VersionHeader("v1")(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/me", nil), rec)))
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Empty(t, rec.Header().Get("X-API-Deprecated"))
}
