package cognito

import "context"

// Directory looks up user attributes in the identity provider.
type Directory interface {
	// LookupEmail returns the email of the user owning accessToken.
	LookupEmail(ctx context.Context, accessToken string) (string, error)
}
