package repository

import (
	"context"

	"github.com/alexarts74/payetavie/internal/model"
)

// UserRepository maps Cognito subjects to local users. GetByCognitoSub returns
// sql.ErrNoRows for an unknown subject.
type UserRepository interface {
	GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error)
	GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error)
}
