package apikey

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(key string) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(key))
	app.Get("/private", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		headers map[string]string
		want    int
	}{
		{name: "Bearer", key: "secret", headers: map[string]string{"Authorization": "Bearer secret"}, want: http.StatusOK},
		{name: "APIKeyHeader", key: "secret", headers: map[string]string{"apikey": "secret"}, want: http.StatusOK},
		{name: "WrongKey", key: "secret", headers: map[string]string{"Authorization": "Bearer other"}, want: http.StatusUnauthorized},
		{name: "Missing", key: "secret", want: http.StatusUnauthorized},
		{name: "Disabled", key: "", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(tt.key)
			req := httptest.NewRequest("GET", "/private", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
