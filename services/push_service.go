package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"backend/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PushNote is one spoilage or expiry notification bound for a phone.
type PushNote struct {
	Title string
	Body  string
	Kind  string // alert type, "warning" | "info"
	Ref   string // alert id, for deep-linking from the notification tap
}

// PushService delivers expiry/spoilage alerts to registered mobile
// devices through SNS platform endpoints. Android and iOS both ride the
// FCM platform application.
type PushService struct {
	db          *gorm.DB
	sns         *awssns.Client
	platformArn string
}

func NewPushService(db *gorm.DB) (*PushService, error) {
	arn := os.Getenv("SNS_FCM_ARN")
	if arn == "" {
		return nil, errors.New("SNS_FCM_ARN not set")
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-south-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &PushService{db: db, sns: awssns.NewFromConfig(cfg), platformArn: arn}, nil
}

// tokenHash keys device rows without storing the raw FCM token.
func tokenHash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// RegisterDevice creates (or refreshes) the SNS endpoint for a device
// token. Re-registering the same token updates the existing row instead
// of piling up endpoints.
func (p *PushService) RegisterDevice(ctx context.Context, userID uint, platform, token string) (*models.UserDevice, error) {
	platform = strings.ToLower(platform)
	switch platform {
	case "android", "ios":
	default:
		return nil, errors.New("unknown platform")
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.platformArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, err
	}
	endpointArn := aws.ToString(out.EndpointArn)
	hash := tokenHash(token)

	var dev models.UserDevice
	err = p.db.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", userID, hash).
		First(&dev).Error
	switch {
	case err == nil:
		dev.Platform = platform
		dev.EndpointARN = endpointArn
		dev.UpdatedAt = time.Now()
		if err := p.db.WithContext(ctx).Save(&dev).Error; err != nil {
			return nil, err
		}
		return &dev, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		dev = models.UserDevice{
			UserID:      userID,
			Platform:    platform,
			TokenHash:   hash,
			EndpointARN: endpointArn,
		}
		if err := p.db.WithContext(ctx).Create(&dev).Error; err != nil {
			return nil, err
		}
		return &dev, nil
	default:
		return nil, err
	}
}

// SNS json-structure envelope: the GCM leg must be a JSON string, not a
// nested object.
type fcmEnvelope struct {
	Default string `json:"default"`
	GCM     string `json:"GCM"`
}

type fcmMessage struct {
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func encodePushNote(n PushNote) (string, error) {
	inner, err := json.Marshal(fcmMessage{
		Notification: fcmNotification{Title: n.Title, Body: n.Body},
		Data:         map[string]string{"kind": n.Kind, "ref": n.Ref},
	})
	if err != nil {
		return "", err
	}
	envelope, err := json.Marshal(fcmEnvelope{Default: n.Body, GCM: string(inner)})
	if err != nil {
		return "", err
	}
	return string(envelope), nil
}

// PushToUser fans the note out to every enabled device the user has.
// Best-effort: a dead endpoint loses one notification, not the alert
// itself (the row and websocket legs already carried it).
func (p *PushService) PushToUser(ctx context.Context, userID uint, n PushNote) {
	var devices []models.UserDevice
	if err := p.db.WithContext(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Find(&devices).Error; err != nil || len(devices) == 0 {
		return
	}

	msg, err := encodePushNote(n)
	if err != nil {
		return
	}
	for _, d := range devices {
		if _, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(msg),
			TargetArn:        aws.String(d.EndpointARN),
		}); err != nil {
			logrus.WithError(err).WithField("device", d.ID).Warn("push delivery failed")
		}
	}
}
