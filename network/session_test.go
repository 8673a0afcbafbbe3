package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSessionMintsCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()

	sid, header := ensureSession(w, r)
	require.NotEmpty(t, sid)
	require.NotNil(t, header)

	set := header.Get("Set-Cookie")
	require.NotEmpty(t, set)
	assert.Contains(t, set, sessionCookie+"="+string(sid))
	assert.Contains(t, set, "HttpOnly")
}

func TestEnsureSessionReusesCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "deadbeef"})
	w := httptest.NewRecorder()

	sid, header := ensureSession(w, r)
	assert.Equal(t, "deadbeef", string(sid))
	assert.Nil(t, header, "an existing session must not be re-set")
}

func TestEnsureSessionIdsDiffer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	a, _ := ensureSession(httptest.NewRecorder(), r)
	b, _ := ensureSession(httptest.NewRecorder(), r)
	assert.NotEqual(t, a, b)
}
