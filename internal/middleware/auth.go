package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrIdentityRejected is returned by UserResolver when the identity is valid but
// cannot be mapped to a local user.
var ErrIdentityRejected = errors.New("identity rejected")

// UserResolver maps an authenticated subject to a local user, provisioning it
// when needed. email may be empty; accessToken is set only for access tokens.
type UserResolver interface {
	ResolveUser(ctx context.Context, sub, email, accessToken string) (userID, userEmail string, err error)
}

type AuthConfig struct {
	DevMode      bool
	JWKSClient   *JWKSClient
	Issuer       string
	AppClientID  string
	UserResolver UserResolver
}

type Auth struct {
	cfg AuthConfig
}

func NewAuth(cfg AuthConfig) (*Auth, error) {
	if !cfg.DevMode {
		if cfg.UserResolver == nil {
			return nil, fmt.Errorf("middleware: UserResolver is required when DevMode is false")
		}
		if cfg.JWKSClient == nil {
			return nil, fmt.Errorf("middleware: JWKSClient is required when DevMode is false")
		}
	}
	return &Auth{cfg: cfg}, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Internal endpoints carry their own shared-secret check.
		cleanPath := path.Clean(r.URL.Path)
		if cleanPath == "/health" || strings.HasPrefix(cleanPath, "/internal/") {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.DevMode {
			a.handleDevMode(w, r, next)
			return
		}

		a.handleJWT(w, r, next)
	})
}

// handleDevMode trusts X-User-ID. With a resolver configured the header is
// treated as a subject and provisioned like a token would be.
func (a *Auth) handleDevMode(w http.ResponseWriter, r *http.Request, next http.Handler) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID header required in dev mode")
		return
	}
	email := r.Header.Get("X-User-Email")

	if a.cfg.UserResolver == nil {
		next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), userID, email)))
		return
	}
	a.resolve(w, r, next, userID, email, "")
}

func (a *Auth) handleJWT(w http.ResponseWriter, r *http.Request, next http.Handler) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization header required")
		return
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
		return
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}

		return a.cfg.JWKSClient.GetKey(r.Context(), kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil || !token.Valid {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token claims")
		return
	}

	accessToken, ok := a.checkClient(claims, tokenStr)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token not issued for this client")
		return
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sub claim not found")
		return
	}
	email, _ := claims["email"].(string)

	a.resolve(w, r, next, sub, email, accessToken)
}

// checkClient verifies the token targets the app client. Cognito ID tokens
// carry it in aud, access tokens in client_id. The raw token is returned for
// access tokens so the resolver can query the user pool with it.
func (a *Auth) checkClient(claims jwt.MapClaims, raw string) (accessToken string, ok bool) {
	switch claims["token_use"] {
	case "access":
		clientID, _ := claims["client_id"].(string)
		return raw, clientID == a.cfg.AppClientID
	default:
		aud, err := claims.GetAudience()
		return "", err == nil && slices.Contains(aud, a.cfg.AppClientID)
	}
}

func (a *Auth) resolve(w http.ResponseWriter, r *http.Request, next http.Handler, sub, email, accessToken string) {
	userID, userEmail, err := a.cfg.UserResolver.ResolveUser(r.Context(), sub, email, accessToken)
	if err != nil {
		if errors.Is(err, ErrIdentityRejected) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user could not be identified")
		} else {
			slog.ErrorContext(r.Context(), "user resolution failed",
				"request_id", RequestID(r.Context()),
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), userID, userEmail)))
}

// CognitoJWKSURL returns the JWKS URL for the given Cognito User Pool.
func CognitoJWKSURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, userPoolID)
}

// CognitoIssuer returns the expected issuer for the given Cognito User Pool.
func CognitoIssuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}
