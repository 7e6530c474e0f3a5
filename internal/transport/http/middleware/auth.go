package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pixelgram/internal/httputil"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// SubjectKey is the context key for the authenticated external subject id
	SubjectKey contextKey = "subject"
)

const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// AuthMiddleware validates bearer tokens issued by the identity provider and
// stores the token subject in the request context. It never touches the
// database; mapping the subject to a user row is the identity resolver's job.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, code, ok := subjectFromRequest(r, jwtSecret)
			if !ok {
				switch code {
				case CodeTokenExpired:
					httputil.WriteUnauthenticatedWithCode(w, code, "Access token has expired")
				case CodeTokenInvalid:
					httputil.WriteUnauthenticatedWithCode(w, code, "Invalid authentication token")
				default:
					httputil.WriteUnauthenticated(w, "Missing authentication token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware attaches the subject when a valid token is present
// and otherwise lets the request through anonymously. Used on read endpoints
// that allow anonymous browsing.
func OptionalAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subject, _, ok := subjectFromRequest(r, jwtSecret); ok {
				r = r.WithContext(context.WithValue(r.Context(), SubjectKey, subject))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// subjectFromRequest extracts and validates the bearer token, returning the
// token subject. The failure code distinguishes missing, expired and invalid
// tokens.
func subjectFromRequest(r *http.Request, jwtSecret string) (subject, failCode string, ok bool) {
	var tokenString string

	// Authorization header first (mobile apps)
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenString = parts[1]
		}
	}

	// Cookie fallback (web browsers)
	if tokenString == "" {
		cookie, err := r.Cookie("access_token")
		if err == nil && cookie.Value != "" {
			tokenString = cookie.Value
		}
	}

	if tokenString == "" {
		return "", "", false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return "", CodeTokenExpired, false
		}
		return "", CodeTokenInvalid, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", CodeTokenInvalid, false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", CodeTokenInvalid, false
	}

	return sub, "", true
}

// GetSubjectFromContext extracts the authenticated external subject id from
// the request context. Returns the subject and true if found.
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok
}
