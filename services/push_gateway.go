package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	TicketStatusOK    = "ok"
	TicketStatusError = "error"

	// Gateway error code meaning the token is permanently invalid and the
	// device should be dropped from the registry.
	ErrorDeviceNotRegistered = "DeviceNotRegistered"
)

type PushMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
	Sound string         `json:"sound,omitempty"`
}

type PushTicket struct {
	Status  string             `json:"status"`
	ID      string             `json:"id,omitempty"`
	Message string             `json:"message,omitempty"`
	Details *PushTicketDetails `json:"details,omitempty"`
}

type PushTicketDetails struct {
	Error string `json:"error,omitempty"`
}

// Reason returns the most specific error description the gateway gave.
func (t PushTicket) Reason() string {
	if t.Details != nil && t.Details.Error != "" {
		return t.Details.Error
	}
	if t.Message != "" {
		return t.Message
	}
	return "unknown error"
}

// PushGateway abstracts the push delivery service. SubmitBatch must return
// one ticket per submitted message, in submission order; that ordering is how
// tickets are matched back to devices.
type PushGateway interface {
	IsValidToken(token string) bool
	MaxBatchSize() int
	SubmitBatch(ctx context.Context, messages []PushMessage) ([]PushTicket, error)
}

const (
	expoPushURL      = "https://exp.host/--/api/v2/push/send"
	expoMaxBatchSize = 100
)

// ExpoGateway talks to the Expo push HTTP API.
type ExpoGateway struct {
	url         string
	accessToken string
	client      *http.Client
}

func NewExpoGateway() *ExpoGateway {
	url := os.Getenv("EXPO_PUSH_URL")
	if url == "" {
		url = expoPushURL
	}
	return &ExpoGateway{
		url:         url,
		accessToken: os.Getenv("EXPO_ACCESS_TOKEN"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *ExpoGateway) IsValidToken(token string) bool {
	if strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[") {
		return strings.HasSuffix(token, "]") && !strings.Contains(strings.TrimSuffix(token, "]"), "]")
	}
	return false
}

func (g *ExpoGateway) MaxBatchSize() int {
	return expoMaxBatchSize
}

type submitResponse struct {
	Data []PushTicket `json:"data"`
}

func (g *ExpoGateway) SubmitBatch(ctx context.Context, messages []PushMessage) ([]PushTicket, error) {
	reqBody, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.accessToken)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push gateway status %d body=%q", resp.StatusCode, string(body))
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to decode push gateway response: %w body=%q", err, string(body))
	}
	if len(sr.Data) != len(messages) {
		return nil, fmt.Errorf("push gateway returned %d tickets for %d messages", len(sr.Data), len(messages))
	}

	return sr.Data, nil
}
