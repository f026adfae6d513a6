// Package middleware provides HTTP middleware for authenticating pose authors.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// authorKey is the context key for storing the authenticated author.
const authorKey ContextKey = "author"

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (SubjectGetter, error)
}

// SubjectGetter is an interface for extracting the author from token claims.
type SubjectGetter interface {
	GetSubject() (string, error)
}

// AuthMiddleware creates middleware that validates Bearer tokens and adds the
// author to the request context.
func AuthMiddleware(jwtService TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			author, err := claims.GetSubject()
			if err != nil || author == "" {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), authorKey, author)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="pose-coach"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// GetAuthor extracts the authenticated author from the request context.
func GetAuthor(r *http.Request) (string, error) {
	author, ok := r.Context().Value(authorKey).(string)
	if !ok || author == "" {
		return "", fmt.Errorf("author not found in request context")
	}
	return author, nil
}

// AuthorKey returns the context key for the author (for testing purposes).
func AuthorKey() ContextKey {
	return authorKey
}
