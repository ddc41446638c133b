package mail

import (
	"context"
	"fmt"

	appconfig "family-tree-go/internal/config"
	"family-tree-go/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSender delivers invite mail through Amazon SES v2. With no from-address
// configured it runs disabled and logs instead of sending, which keeps local
// development working without AWS credentials.
type SESSender struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	log       logger.Logger
}

func NewSESSender(ctx context.Context, cfg appconfig.MailConfig, log logger.Logger) (*SESSender, error) {
	if cfg.FromEmail == "" {
		log.Warn("mail: SES_FROM_EMAIL not configured, mail sending disabled")
		return &SESSender{enabled: false, log: log}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Info("mail: SES sender enabled", "from", cfg.FromEmail, "region", cfg.AWSRegion)
	return &SESSender{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		enabled:   true,
		log:       log,
	}, nil
}

func (s *SESSender) SendInvite(ctx context.Context, toEmail, link string) error {
	if !s.enabled {
		s.log.Info("mail: sending disabled, skipping invite mail", "to", toEmail, "link", link)
		return nil
	}

	subject := "You have been invited to your family tree"
	textBody := fmt.Sprintf(
		"You have been invited to claim your place in the family tree.\n\n"+
			"Open the link below to accept the invite and set up your sign-in:\n\n%s\n\n"+
			"The link expires; if it no longer works, ask the family admin for a new invite.\n",
		link,
	)

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	s.log.Info("mail: invite sent", "to", toEmail)
	return nil
}
