package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type tokenDataContextKey struct{}

type Claims[T any] struct {
	jwt.RegisteredClaims
	TokenInfo T `json:"info"`
}

// GenerateBearerToken signs input with HS256 and returns it as an Authorization header value.
func GenerateBearerToken[T any](input T, exp time.Duration, secret string) (string, error) {
	now := time.Now()

	tokenData := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims[T]{
		TokenInfo: input,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(exp)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	token, err := tokenData.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return "Bearer " + token, nil
}

func VerifyJWTBearerToken[T any](header, secret string) (*T, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" || strings.Contains(tokenString, " ") {
		return nil, jwt.ErrTokenMalformed
	}

	claims := &Claims[T]{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &claims.TokenInfo, nil
}

// AuthBearerMiddlewareInit - пропускает только запросы с валидным Bearer токеном
func AuthBearerMiddlewareInit[T any](secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenInfo, err := VerifyJWTBearerToken[T](r.Header.Get("Authorization"), secret)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), tokenDataContextKey{}, tokenInfo)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTokenInfo returns nil when the request did not pass the middleware.
func GetTokenInfo[T any](r *http.Request) *T {
	tokenInfo, ok := r.Context().Value(tokenDataContextKey{}).(*T)
	if !ok {
		return nil
	}

	return tokenInfo
}
