package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireOperator guards mutating endpoints with the operator bearer token
// issued by the surrounding API layer. With no token configured the
// endpoints fail closed.
func (a *API) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.token == "" {
			writeError(w, http.StatusUnauthorized, "operator token not configured")
			return
		}
		header := r.Header.Get("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}
