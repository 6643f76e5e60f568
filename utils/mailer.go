package utils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sirupsen/logrus"
)

type Mailer struct {
	client *ses.Client
	from   string
}

// NewMailer builds the SES sender once at startup; no package globals.
func NewMailer(ctx context.Context) (*Mailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, fmt.Errorf("aws config load failed: %w", err)
	}
	return &Mailer{client: ses.NewFromConfig(cfg), from: os.Getenv("SES_EMAIL")}, nil
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
		Source: aws.String(m.from),
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		logrus.WithError(err).Error("SES send failed")
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

// ExpiringItem is the slim view the digest needs.
type ExpiringItem struct {
	Name     string
	Quantity float64
	Unit     string
	DaysLeft int
}

// SendExpiryDigest mails the user a list of items expiring within a few days.
func (m *Mailer) SendExpiryDigest(ctx context.Context, to string, items []ExpiringItem) error {
	var sb strings.Builder
	sb.WriteString("These pantry items are close to expiring:\n\n")
	for _, it := range items {
		switch {
		case it.DaysLeft < 0:
			fmt.Fprintf(&sb, "- %s (%.1f %s) — already expired\n", it.Name, it.Quantity, it.Unit)
		case it.DaysLeft == 0:
			fmt.Fprintf(&sb, "- %s (%.1f %s) — expires today\n", it.Name, it.Quantity, it.Unit)
		default:
			fmt.Fprintf(&sb, "- %s (%.1f %s) — %d day(s) left\n", it.Name, it.Quantity, it.Unit, it.DaysLeft)
		}
	}
	sb.WriteString("\nUse them soon, or share them on the community board.")
	return m.send(ctx, to, "Eco-Loop: items expiring soon", sb.String())
}
