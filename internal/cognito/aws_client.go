package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/smithy-go"
)

type getUserAPI interface {
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
}

// AWSDirectory implements Directory using the AWS SDK v2.
type AWSDirectory struct {
	cip getUserAPI
}

// NewAWSDirectory creates a Directory for the user pool's region.
func NewAWSDirectory(ctx context.Context, region string) (*AWSDirectory, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &AWSDirectory{cip: cip.NewFromConfig(cfg)}, nil
}

func (d *AWSDirectory) LookupEmail(ctx context.Context, accessToken string) (string, error) {
	out, err := d.cip.GetUser(ctx, &cip.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return "", mapAWSError(err)
	}

	for _, attr := range out.UserAttributes {
		if aws.ToString(attr.Name) == "email" && aws.ToString(attr.Value) != "" {
			return aws.ToString(attr.Value), nil
		}
	}
	return "", ErrEmailUnavailable
}

// mapAWSError converts AWS SDK errors to cognito sentinel errors.
func mapAWSError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("cognito: %w", err)
	}

	switch apiErr.ErrorCode() {
	case "NotAuthorizedException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrNotAuthorized)
	case "UserNotFoundException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrUserNotFound)
	case "TooManyRequestsException", "LimitExceededException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrTooManyRequests)
	default:
		return fmt.Errorf("cognito %s: %w", apiErr.ErrorCode(), err)
	}
}

// Compile-time check: AWSDirectory implements Directory.
var _ Directory = (*AWSDirectory)(nil)
