package api

import (
	"context"

	"github.com/rpupo63/our-little-infinity/models"
)

type keyType string

const userKey keyType = "user"

// ctxWithUser adds the logged-in user to the context
func ctxWithUser(ctx context.Context, user *models.AuthUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// ctxGetUser retrieves the logged-in user, nil outside requireUser
func ctxGetUser(ctx context.Context) *models.AuthUser {
	user, _ := ctx.Value(userKey).(*models.AuthUser)
	return user
}
