package inspect

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// TokenMiddleware returns a chi-compatible middleware that requires
// "Authorization: Bearer <token>". An empty token disables the check.
func TokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or invalid authorization header", "missing_token")
				return
			}
			got := strings.TrimPrefix(auth, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid token", "invalid_token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes a JSON error response:
//
//	{"error":{"message":"...","type":"...","code":"..."}}
//
// code may be empty; it then defaults to the type derived from status.
func writeError(w http.ResponseWriter, status int, message, code string) {
	errType := defaultErrType(status)
	if code == "" {
		code = errType
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody(message, errType, code))
}

func errorBody(message, errType, code string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]string{
			"message": message,
			"type":    errType,
			"code":    code,
		},
	}
}

// writeJSON encodes v before committing the status so an encoding failure
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorBody("response could not be encoded", defaultErrType(status), "encoding_error"))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func defaultErrType(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "authentication_error"
	case status == http.StatusNotFound:
		return "not_found_error"
	case status == http.StatusNotImplemented:
		return "not_implemented_error"
	case status == http.StatusServiceUnavailable:
		return "unavailable_error"
	case status >= 400 && status < 500:
		return "invalid_request_error"
	default:
		return "server_error"
	}
}
