package router

import (
	"net/http"
	"strings"

	"github.com/toolvault/toolvault/internal/pkg/jwt"
)

// middlewareAuthentication verifies bearer tokens and enforces the
// second-factor gate: a session whose second factor is still pending may
// only reach the endpoints in pendingEndpoints.
func middlewareAuthentication(
	verifier jwt.JWT,
	publicEndpoints map[string]map[string]struct{},
	pendingEndpoints map[string]map[string]struct{},
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			if !claims.TwoFactor && !isPendingAllowed(pendingEndpoints, r.Method, path) {
				writeJSON(w, errorResponse{Message: "Second factor verification required"}, http.StatusForbidden)
				return
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isPendingAllowed(pendingEndpoints map[string]map[string]struct{}, method, path string) bool {
	s, ok := pendingEndpoints[method]
	if !ok {
		return false
	}
	_, ok = s[path]
	return ok
}
