package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
)

const charsetUTF8 = "UTF-8"

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails through Amazon SES v2.
type SESSender struct {
	client sesAPI
}

func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(cfg)}, nil
}

func (s *SESSender) Send(ctx context.Context, msg Message) (string, error) {
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charsetUTF8)},
				},
			},
		},
	})
	if err != nil {
		return "", mapSESError(err)
	}
	if out.MessageId == nil || *out.MessageId == "" {
		return "", fmt.Errorf("ses: accepted without message id: %w", ErrRejected)
	}
	return *out.MessageId, nil
}

func mapSESError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("ses: %v: %w", err, ErrTransport)
	}

	switch apiErr.ErrorCode() {
	case "TooManyRequestsException", "LimitExceededException":
		return fmt.Errorf("ses %s: %s: %w", apiErr.ErrorCode(), apiErr.ErrorMessage(), ErrTransport)
	}
	if apiErr.ErrorFault() == smithy.FaultServer {
		return fmt.Errorf("ses %s: %s: %w", apiErr.ErrorCode(), apiErr.ErrorMessage(), ErrTransport)
	}
	return fmt.Errorf("ses %s: %s: %w", apiErr.ErrorCode(), apiErr.ErrorMessage(), ErrRejected)
}

var _ Sender = (*SESSender)(nil)
