package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/josealejferFB/krizo-backend/internal/reqctx"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/labstack/echo/v4"
)

// TokenVerifier checks a bearer token and returns the caller's uid.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (string, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

func (v firebaseVerifier) VerifyIDToken(ctx context.Context, token string) (string, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}
	return t.UID, nil
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{verifier: firebaseVerifier{client: client}}, nil
}

func NewAuthMiddlewareWithVerifier(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, api.Fail(workflow.CodeUnauthorized, "Inicia sesión para continuar"))
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		uid, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil || uid == "" {
			return c.JSON(http.StatusUnauthorized, api.Fail(workflow.CodeUnauthorized, "Tu sesión expiró, vuelve a iniciar sesión"))
		}
		c.Set("uid", uid)
		c.SetRequest(c.Request().WithContext(reqctx.WithUID(c.Request().Context(), uid)))
		return next(c)
	}
}
