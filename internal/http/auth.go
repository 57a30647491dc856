package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
)

// ExternalClaims are the claims of tokens issued by the user service.
// Older tokens carry the user only in the subject.
type ExternalClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// newActorMiddleware returns the middleware establishing the acting user.
func newActorMiddleware(jwtSecret string) Middleware {
	if jwtSecret == "" {
		return headerActorMiddleware
	}
	return bearerActorMiddleware([]byte(jwtSecret))
}

// bearerActorMiddleware takes the acting user from a signed bearer token.
// The X-User-ID header is ignored so it cannot be spoofed.
func bearerActorMiddleware(secret []byte) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Missing or malformed Authorization header")
				writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "UNAUTHENTICATED", Error: "bearer token required"})
				return
			}

			claims, err := parseToken(secret, parts[1])
			if err != nil {
				log.Warn("Token validation failed", "error", err)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "UNAUTHENTICATED", Error: "invalid or expired token"})
				return
			}
			next.ServeHTTP(w, withActor(r, claims.UserID))
		})
	}
}

func parseToken(secret []byte, tokenString string) (*ExternalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ExternalClaims{}, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*ExternalClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}
