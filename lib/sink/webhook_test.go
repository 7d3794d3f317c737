package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"misattend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestWebhook(t *testing.T) {
	var received struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
		Time    string           `json:"time"`
	}
	var token string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("x-token")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		err = json.Unmarshal(body, &received)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tel := telemetry.NewRecorder()
	webhook := NewWebhook(WebhookConfig{
		Url:     server.URL,
		Headers: map[string]string{"x-token": "secret"},
	}, tel)

	err := webhook.Write(context.Background(), testReport)
	require.NoError(t, err)
	require.Equal(t, "secret", token)
	require.True(t, received.Success)
	require.Len(t, received.Data, 2)
	require.Equal(t, "DSS", received.Data[0]["subjectName"])
	require.NotEmpty(t, received.Time)

	require.NotEmpty(t, tel.Reports("debug", "resty.request"))
}

func TestWebhookRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tel := telemetry.NewRecorder()
	err := NewWebhook(WebhookConfig{Url: server.URL}, tel).Write(context.Background(), testReport)
	require.ErrorContains(t, err, "500")
	require.Len(t, tel.Reports("broken", report_webhook_post), 1)
}
