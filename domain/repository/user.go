package repository

import (
	"context"

	"my-campaign/domain/model"
)

// IUser is the boundary toward the excluded authentication subsystem. Only the
// lookups the auth middleware needs cross it.
type IUser interface {
	GetByUserName(ctx context.Context, userName string) (model.User, error)
}
