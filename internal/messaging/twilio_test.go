package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/config"
)

func twilioConfig(baseURL string) config.WhatsAppConfig {
	return config.WhatsAppConfig{
		AccountSID:         "AC123",
		AuthToken:          "secret",
		FromNumber:         "+14155238886",
		CountryCode:        "+91",
		APIBaseURL:         baseURL,
		TimeoutSeconds:     2,
		BreakerFailures:    2,
		BreakerOpenSeconds: 60,
	}
}

func TestTwilioSenderPostsForm(t *testing.T) {
	type captured struct {
		path, user, from, to, body string
	}
	requests := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ := r.BasicAuth()
		_ = r.ParseForm()
		requests <- captured{
			path: r.URL.Path,
			user: user,
			from: r.PostForm.Get("From"),
			to:   r.PostForm.Get("To"),
			body: r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender(twilioConfig(srv.URL), zap.NewNop())
	require.NoError(t, sender.Send(context.Background(), "9876543210", "hello"))

	got := <-requests
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	assert.Equal(t, "AC123", got.user)
	assert.Equal(t, "whatsapp:+14155238886", got.from)
	assert.Equal(t, "whatsapp:+919876543210", got.to)
	assert.Equal(t, "hello", got.body)
}

func TestTwilioSenderOpensBreakerOnProviderFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := NewTwilioSender(twilioConfig(srv.URL), zap.NewNop())
	for i := 0; i < 3; i++ {
		err := sender.Send(context.Background(), "9876543210", "hello")
		assert.ErrorIs(t, err, ErrDeliveryFailed)
	}

	assert.Equal(t, int32(2), hits.Load(), "third call is rejected by the open breaker")
	assert.Equal(t, "open", sender.State())
}

func TestTwilioSenderRecipientErrorsKeepBreakerClosed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = r.ParseForm()
		if r.PostForm.Get("To") == "whatsapp:+15550001111" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewTwilioSender(twilioConfig(srv.URL), zap.NewNop())
	for i := 0; i < 5; i++ {
		err := sender.Send(context.Background(), "+15550001111", "hello")
		require.ErrorIs(t, err, ErrDeliveryFailed)
		assert.Contains(t, err.Error(), "Invalid 'To' Phone Number")
	}

	assert.Equal(t, "closed", sender.State())
	require.NoError(t, sender.Send(context.Background(), "9876543210", "hello"))
	assert.Equal(t, int32(6), hits.Load())
}

func TestTwilioSenderRateLimitCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sender := NewTwilioSender(twilioConfig(srv.URL), zap.NewNop())
	for i := 0; i < 2; i++ {
		_ = sender.Send(context.Background(), "9876543210", "hello")
	}
	assert.Equal(t, "open", sender.State())
}

func TestTwilioSenderCancelledContext(t *testing.T) {
	sender := NewTwilioSender(twilioConfig("http://127.0.0.1:1"), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, "9876543210", "x"), ErrDeliveryFailed)
}

func TestFormatRecipient(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"9876543210", "+919876543210"},
		{"+919876543210", "+919876543210"},
		{"whatsapp:+15550001111", "+15550001111"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRecipient(tt.in, "+91"), tt.in)
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zap.NewNop())
	assert.NoError(t, s.Send(context.Background(), "x", "y"))
	assert.NoError(t, s.SendEmail(context.Background(), "a@b.c", "s", "b"))
}
