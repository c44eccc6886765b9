// internal/api/session.go
package api

import (
	"context"
	"net/http"
	"strings"
)

type sessionKey struct{}

// sessionContext copies the session header into the request context and
// echoes it back so the front end keeps using the same id.
func sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id != "" {
			w.Header().Set(SessionHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, id))
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}
