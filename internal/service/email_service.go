package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends transactional mail via Amazon SES. Delivery is
// fire-and-forget: callers log failures but never fail their own flow on a
// send error, and nothing waits on delivery confirmation.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. An empty fromEmail produces a
// disabled service that skips all sends, which keeps local development and
// tests from needing AWS credentials.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendInvitationEmail delivers a registration invitation link
func (s *EmailService) SendInvitationEmail(ctx context.Context, toEmail, token string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): invitation to %s", toEmail)
		return nil
	}

	inviteLink := fmt.Sprintf("%s/register?token=%s", s.appBaseURL, token)

	subject := "You're invited to join AlumniHub"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2e5f8a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2e5f8a; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Welcome back to your alumni community</h1>
		</div>
		<div class="content">
			<p>Hello,</p>
			<p>You have been invited to join AlumniHub, the community platform for alumni and their families.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Complete Your Registration</a>
			</p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
			<p><strong>This invitation expires in 72 hours</strong> and can be used once.</p>
			<p>If you weren't expecting this invitation, you can safely ignore this email.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from AlumniHub. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, inviteLink, inviteLink)

	textBody := fmt.Sprintf(`Hello,

You have been invited to join AlumniHub, the community platform for alumni and their families.

Complete your registration:
%s

This invitation expires in 72 hours and can be used once.

If you weren't expecting this invitation, you can safely ignore this email.

---
This is an automated email from AlumniHub. Please do not reply.
`, inviteLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendConsentRequestEmail notifies the account holder that a family member's
// profile is waiting on parental consent.
func (s *EmailService) SendConsentRequestEmail(ctx context.Context, toEmail, memberName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): consent request to %s", toEmail)
		return nil
	}

	consentLink := fmt.Sprintf("%s/profiles", s.appBaseURL)

	subject := fmt.Sprintf("Parental consent needed for %s", memberName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2e5f8a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2e5f8a; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Parental Consent Needed</h1>
		</div>
		<div class="content">
			<p>Hello,</p>
			<p>The profile for <strong>%s</strong> on your AlumniHub family account requires parental consent before it can access the platform.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Review and Give Consent</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from AlumniHub. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, memberName, consentLink)

	textBody := fmt.Sprintf(`Hello,

The profile for %s on your AlumniHub family account requires parental consent before it can access the platform.

Review and give consent: %s

---
This is an automated email from AlumniHub. Please do not reply.
`, memberName, consentLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
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
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
