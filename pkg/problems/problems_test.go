package problems

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase(t *testing.T) {
	t.Setenv("PROBLEM_BASE_URL", "")
	t.Setenv("BASE_PUBLIC_URL", "")
	assert.Equal(t, "https://example.com/problems", Base())

	t.Setenv("BASE_PUBLIC_URL", "https://shop.example/")
	assert.Equal(t, "https://shop.example/problems", Base())

	t.Setenv("PROBLEM_BASE_URL", "https://errors.example/p/")
	assert.Equal(t, "https://errors.example/p", Base())
	assert.Equal(t, "https://errors.example/p/vendor-not-found", Type("vendor-not-found"))
}

func TestWrite(t *testing.T) {
	t.Setenv("PROBLEM_BASE_URL", "")
	t.Setenv("BASE_PUBLIC_URL", "")
	w := httptest.NewRecorder()
	Write(w, http.StatusServiceUnavailable, "directory-unavailable", "Vendor directory unavailable", "db down")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, Problem{
		Type:   "https://example.com/problems/directory-unavailable",
		Title:  "Vendor directory unavailable",
		Status: http.StatusServiceUnavailable,
		Detail: "db down",
	}, p)
}
