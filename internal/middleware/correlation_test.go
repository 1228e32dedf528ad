package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDPropagation(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationIDFromContext(c.UserContext()))
	})

	cases := []struct {
		name     string
		header   string
		value    string
		expected string
	}{
		{name: "correlation header", header: CorrelationHeader, value: "abc-123", expected: "abc-123"},
		{name: "request id fallback", header: "X-Request-ID", value: "req.7", expected: "req.7"},
		{name: "rejects unsafe id", header: CorrelationHeader, value: "bad\"id"},
		{name: "rejects oversized id", header: CorrelationHeader, value: strings.Repeat("a", maxCorrelationLength+1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(tc.header, tc.value)
			resp, err := app.Test(req)
			require.NoError(t, err)

			echoed := resp.Header.Get(CorrelationHeader)
			require.NotEmpty(t, echoed)
			if tc.expected != "" {
				require.Equal(t, tc.expected, echoed)
			} else {
				require.NotEqual(t, tc.value, echoed)
				require.Len(t, echoed, 36)
			}
		})
	}
}
