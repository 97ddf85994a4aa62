package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FCMConfig holds Firebase Cloud Messaging configuration
type FCMConfig struct {
	ServerKey string
	ProjectID string
}

// FCMClient sends push notifications via Firebase Cloud Messaging.
// Delivery is best effort: the redemption protocol never depends on a push
// arriving, since shops poll and sessions expire server-side.
type FCMClient struct {
	config     FCMConfig
	httpClient *http.Client
}

// NewFCMClient creates a new FCM client
func NewFCMClient(config FCMConfig) *FCMClient {
	return &FCMClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Message represents a push notification
type Message struct {
	Token string // Device token
	Title string
	Body  string
	Data  map[string]string // Custom data
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification *fcmNotification  `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *fcmAndroid       `json:"android,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority string `json:"priority,omitempty"`
}

// Send sends a push notification
func (c *FCMClient) Send(ctx context.Context, msg *Message) error {
	if c.config.ServerKey == "" || msg.Token == "" {
		return nil
	}

	request := fcmRequest{
		Message: fcmMessage{
			Token: msg.Token,
			Notification: &fcmNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
			Android: &fcmAndroid{
				Priority: "high",
			},
		},
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal fcm request: %w", err)
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", c.config.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.ServerKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send fcm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}
	return nil
}
