package middleware

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// TokenVerifier verifies Firebase ID tokens; *auth.Client satisfies it
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserResolver maps a Firebase UID to the local user
type UserResolver interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and stores the matching
// local user id in the context
func FirebaseAuthMiddleware(verifier TokenVerifier, users UserResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				if apperrors.CodeOf(err) == apperrors.CodeNotFound {
					return echo.NewHTTPError(http.StatusUnauthorized, "No account is linked to this Firebase user")
				}
				log.Error().Err(err).Str("firebase_uid", token.UID).Msg("failed to resolve firebase user")
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user")
			}

			c.Set("firebaseUID", token.UID)
			c.Set(UserIDKey, user.ID)
			return next(c)
		}
	}
}
