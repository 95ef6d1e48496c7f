package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(url string) *ExpoGateway {
	g := NewExpoGateway()
	g.url = url
	return g
}

func TestExpoGateway_IsValidToken(t *testing.T) {
	g := NewExpoGateway()

	cases := map[string]bool{
		"ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]": true,
		"ExpoPushToken[xxxxxxxxxxxxxxxxxxxxxx]":     true,
		"ExponentPushToken[]":                       true,
		"ExponentPushToken[abc":                     false,
		"fcm-registration-token":                    false,
		"":                                          false,
		"ExponentPushToken[a]b]":                    false,
	}
	for token, want := range cases {
		assert.Equal(t, want, g.IsValidToken(token), "token %q", token)
	}
}

func TestExpoGateway_SubmitBatch_TicketsInOrder(t *testing.T) {
	var captured []PushMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"ticket-1"},{"status":"error","message":"device gone","details":{"error":"DeviceNotRegistered"}}]}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)

	tickets, err := g.SubmitBatch(context.Background(), []PushMessage{
		{To: "ExponentPushToken[aaa]", Title: "Hi", Body: "Test"},
		{To: "ExponentPushToken[bbb]", Title: "Hi", Body: "Test"},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, TicketStatusOK, tickets[0].Status)
	assert.Equal(t, "ticket-1", tickets[0].ID)

	assert.Equal(t, TicketStatusError, tickets[1].Status)
	assert.Equal(t, ErrorDeviceNotRegistered, tickets[1].Reason())

	require.Len(t, captured, 2)
	assert.Equal(t, "ExponentPushToken[aaa]", captured[0].To)
	assert.Equal(t, "ExponentPushToken[bbb]", captured[1].To)
}

func TestExpoGateway_SubmitBatch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)

	_, err := g.SubmitBatch(context.Background(), []PushMessage{{To: "ExponentPushToken[aaa]"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestExpoGateway_SubmitBatch_TicketCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"status":"ok"}]}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)

	_, err := g.SubmitBatch(context.Background(), []PushMessage{
		{To: "ExponentPushToken[aaa]"},
		{To: "ExponentPushToken[bbb]"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 tickets for 2 messages")
}

func TestExpoGateway_SubmitBatch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("THIS IS NOT JSON"))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)

	_, err := g.SubmitBatch(context.Background(), []PushMessage{{To: "ExponentPushToken[aaa]"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestPushTicket_Reason(t *testing.T) {
	assert.Equal(t, "DeviceNotRegistered", errorTicket("DeviceNotRegistered").Reason())
	assert.Equal(t, "delivery failed", PushTicket{Status: TicketStatusError, Message: "delivery failed"}.Reason())
	assert.Equal(t, "unknown error", PushTicket{Status: TicketStatusError}.Reason())
}
