package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/auth"
	"github.com/tillpoint/tillpoint/internal/config"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/types"
)

// StoreMiddleware resolves the caller and the store a request is scoped to.
// Every request needs a bearer token carrying a store claim. The store header
// may repeat that store but never override it. Local deployments can set
// auth.allow_store_header to accept the header alone.
func StoreMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	provider := auth.NewProvider(cfg)
	storeHeader := cfg.Auth.StoreHeader
	if storeHeader == "" {
		storeHeader = types.HeaderStoreID
	}

	allowHeader := cfg.Auth.AllowStoreHeader && cfg.Deployment.Mode == types.ModeLocal
	if allowHeader {
		logger.Warnw("store header accepted without a token", "header", storeHeader)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		headerStore := strings.TrimSpace(c.GetHeader(storeHeader))

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			if !allowHeader || headerStore == "" {
				abortWith(c, ierr.NewError("authorization header is required").
					WithHint("Please provide a bearer token").
					Mark(ierr.ErrUnauthenticated))
				return
			}
			setIdentity(c, headerStore, types.DefaultUserID)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWith(c, ierr.NewError("invalid authorization header").
				WithHint("Invalid authorization header format").
				Mark(ierr.ErrUnauthenticated))
			return
		}

		claims, err := provider.ValidateToken(ctx, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			abortWith(c, ierr.NewError("invalid token").
				WithHint("Invalid token").
				Mark(ierr.ErrUnauthenticated))
			return
		}

		if claims.StoreID == "" {
			abortWith(c, ierr.NewError("token has no store claim").
				WithHint("Invalid token claims").
				Mark(ierr.ErrUnauthenticated))
			return
		}

		if headerStore != "" && headerStore != claims.StoreID {
			logger.Debugw("store header does not match token",
				"header_store_id", headerStore,
				"token_store_id", claims.StoreID,
				"user_id", claims.UserID,
			)
			abortWith(c, ierr.NewError("store header does not match token").
				WithHint("The token is not valid for this store").
				Mark(ierr.ErrPermissionDenied))
			return
		}

		setIdentity(c, claims.StoreID, claims.UserID)
	}
}

func setIdentity(c *gin.Context, storeID, userID string) {
	ctx := types.SetStoreID(c.Request.Context(), storeID)
	ctx = types.SetUserID(ctx, userID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// abortWith stops the chain and leaves the error for ErrorHandler to render
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
