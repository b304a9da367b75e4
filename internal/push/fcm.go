package push

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultSendTimeout = 10 * time.Second

// FCMGateway delivers payloads through the Firebase Cloud Messaging
// HTTP v1 API.
type FCMGateway struct {
	client   *resty.Client
	endpoint string
}

var _ Gateway = (*FCMGateway)(nil)

func NewFCMGateway(projectID string) (*FCMGateway, error) {
	endpoint := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", strings.TrimSpace(projectID))
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return NewFCMGatewayWithClient(endpoint, client)
}

func NewFCMGatewayWithClient(endpoint string, client *resty.Client) (*FCMGateway, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("fcm endpoint is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &FCMGateway{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

type fcmMessage struct {
	Message fcmMessageBody `json:"message"`
}

type fcmMessageBody struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Android      fcmAndroidConfig  `json:"android"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroidConfig struct {
	Priority     string                 `json:"priority"`
	Notification fcmAndroidNotification `json:"notification"`
}

type fcmAndroidNotification struct {
	ChannelID            string `json:"channel_id"`
	Sound                string `json:"sound"`
	NotificationPriority string `json:"notification_priority"`
}

func (g *FCMGateway) Send(ctx context.Context, credential *Credential, token string, payload Payload) error {
	if g == nil || g.client == nil {
		return fmt.Errorf("gateway is not initialized")
	}
	if !credential.Valid(time.Now()) {
		return fmt.Errorf("%w: credential is missing or expired", ErrUnauthorized)
	}
	if strings.TrimSpace(token) == "" {
		return &GatewayError{Message: "device token is required"}
	}

	body := fcmMessage{
		Message: fcmMessageBody{
			Token: token,
			Notification: fcmNotification{
				Title: payload.Title,
				Body:  payload.Body,
			},
			Android: fcmAndroidConfig{
				Priority: "high",
				Notification: fcmAndroidNotification{
					ChannelID:            "alarm_channel",
					Sound:                "default",
					NotificationPriority: "PRIORITY_MAX",
				},
			},
			Data: payload.Data,
		},
	}

	response, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(credential.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(g.endpoint)
	if err != nil {
		return &GatewayError{
			Message: "send request failed",
			Cause:   err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &GatewayError{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(response.String()),
	}
}
