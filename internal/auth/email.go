package auth

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// EmailSender delivers one-time codes
type EmailSender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// SESSender sends OTP emails through Amazon SES
type SESSender struct {
	client *sesv2.Client
	sender string
}

// NewSESSender creates an SES-backed sender
func NewSESSender(ctx context.Context, region, sender string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
		sender: sender,
	}, nil
}

// SendOTP sends the login code
func (s *SESSender) SendOTP(ctx context.Context, to, code string) error {
	subject := "Your Forestblock login code"
	body := fmt.Sprintf("Your one-time login code is %s. It expires in a few minutes.\n\nIf you did not request this, ignore this email.", code)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.sender,
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body:    &types.Body{Text: &types.Content{Data: &body}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

// LogSender logs codes instead of sending them. Development only.
type LogSender struct {
	Logger *zap.Logger
}

// SendOTP logs the code
func (s *LogSender) SendOTP(_ context.Context, to, code string) error {
	s.Logger.Info("OTP issued", zap.String("email", to), zap.String("code", code))
	return nil
}
