package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/config"
)

// EmailService sends transactional mail through Amazon SES. With no from
// address configured the service is a logging no-op, so local and test
// environments need no AWS credentials.
type EmailService struct {
	client        *sesv2.Client
	fromEmail     string
	fromName      string
	portalBaseURL string
	enabled       bool
	logger        zerolog.Logger
}

// NewEmailService creates a new EmailService.
func NewEmailService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*EmailService, error) {
	log := logger.With().Str("service", "email").Logger()

	if cfg.SESFromEmail == "" {
		log.Info().Msg("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, logger: log}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	log.Info().Str("from", cfg.SESFromEmail).Str("region", cfg.AWSRegion).Msg("email service enabled")
	return &EmailService{
		client:        sesv2.NewFromConfig(awsCfg),
		fromEmail:     cfg.SESFromEmail,
		fromName:      cfg.SESFromName,
		portalBaseURL: cfg.PortalBaseURL,
		enabled:       true,
		logger:        log,
	}, nil
}

// Enabled reports whether mail will actually be sent.
func (s *EmailService) Enabled() bool {
	return s.enabled
}

// SendRegistrationConfirmation mails the primary guardian after a family
// registration is accepted.
func (s *EmailService) SendRegistrationConfirmation(ctx context.Context, toEmail, guardianName string, studentNames []string) error {
	if !s.enabled {
		s.logger.Info().Str("to", toEmail).Msg("skipping registration confirmation: email disabled")
		return nil
	}

	students := strings.Join(studentNames, ", ")
	subject := "Your registration has been received"

	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thank you for registering. We received enrollment information for: <strong>%s</strong>.</p>
<p>You can sign in and track progress at <a href="%s">%s</a>.</p>
<p>Our registration team will follow up if any documents are still required.</p>`,
		guardianName, students, s.portalBaseURL, s.portalBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Thank you for registering. We received enrollment information for: %s.

You can sign in and track progress at %s.

Our registration team will follow up if any documents are still required.
`, guardianName, students, s.portalBaseURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

// SendStudentCredentials mails a newly created student their login email.
func (s *EmailService) SendStudentCredentials(ctx context.Context, toEmail, studentName string) error {
	if !s.enabled {
		s.logger.Info().Str("to", toEmail).Msg("skipping credentials mail: email disabled")
		return nil
	}

	subject := "Your student account is ready"
	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your student account has been created. Sign in with this email address at <a href="%s">%s</a> using the password chosen during registration.</p>`,
		studentName, s.portalBaseURL, s.portalBaseURL)
	textBody := fmt.Sprintf(`Hi %s,

Your student account has been created. Sign in with this email address at %s using the password chosen during registration.
`, studentName, s.portalBaseURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}
	s.logger.Info().Str("to", toEmail).Str("subject", subject).Msg("email sent")
	return nil
}
