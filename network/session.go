package network

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/quizpulse/quizpulse/engine"
)

// sessionCookie carries the persistent client identity across reconnects.
// All tabs of one browser share the cookie, so they share a session and
// exercise the registry's refcounting.
const sessionCookie = "qp_session"

// ensureSession returns the request's session id, minting and setting a
// fresh one when absent. The Set-Cookie header rides on the websocket
// upgrade response.
func ensureSession(w http.ResponseWriter, r *http.Request) (engine.SessionID, http.Header) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return engine.SessionID(c.Value), nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a degraded id
		// is still better than refusing the connection
		copy(buf, []byte(r.RemoteAddr))
	}
	id := hex.EncodeToString(buf)

	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	header := http.Header{}
	header.Add("Set-Cookie", cookie.String())
	return engine.SessionID(id), header
}
