// Package webtest drives fiber apps from handler tests.
package webtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"aether-backend/internal/auth"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const Secret = "0123456789abcdef0123456789abcdef"

// Token signs a token for the address and role with Secret.
func Token(t testing.TB, address string, role models.UserRole) string {
	t.Helper()
	token, err := auth.GenerateToken(Secret, address, role)
	require.NoError(t, err)
	return token
}

// Do sends a JSON request and decodes the JSON response into a map.
func Do(t testing.TB, app *fiber.App, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
