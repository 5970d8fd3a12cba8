package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/civicdesk/grievance-service/internal/api/http"
	"github.com/civicdesk/grievance-service/internal/api/http/handlers"
	"github.com/civicdesk/grievance-service/internal/auth"
	"github.com/civicdesk/grievance-service/internal/chatbot"
	"github.com/civicdesk/grievance-service/internal/config"
	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/observability"
	"github.com/civicdesk/grievance-service/internal/repository"
	"github.com/civicdesk/grievance-service/internal/service"
	"github.com/civicdesk/grievance-service/internal/session"
)

var ticketPattern = regexp.MustCompile(`^RHT\d{6}[A-Z0-9]{4}$`)

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
	Error      struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type captureSender struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (s *captureSender) Send(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = map[string][]string{}
	}
	s.sent[to] = append(s.sent[to], body)
	return nil
}

func (s *captureSender) messages(to string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent[to]...)
}

type testServer struct {
	app    *fiber.App
	sender *captureSender
}

type serverOptions struct {
	limits            httptransport.RateLimits
	allowDefaultAdmin bool
	checks            []handlers.DependencyCheck
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	complaints := repository.NewMemoryComplaintRepository()
	admins := repository.NewMemoryAdminRepository()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("test-secret", 60)
	sender := &captureSender{}

	intake := service.NewIntakeService(service.IntakeDependencies{
		ComplaintRepo: complaints,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	tracking := service.NewTrackingService(service.TrackingDependencies{ComplaintRepo: complaints, Logger: logger})
	status := service.NewStatusService(service.StatusDependencies{
		ComplaintRepo: complaints,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
		AllowDefaultAdmin:     opts.allowDefaultAdmin,
	}, service.AuthDependencies{
		AdminRepo:     admins,
		ComplaintRepo: complaints,
		TokenManager:  tokens,
		Logger:        logger,
	})
	analytics := service.NewAnalyticsService(service.AnalyticsDependencies{ComplaintRepo: complaints, Logger: logger})
	machine := chatbot.NewMachine(chatbot.Dependencies{
		Sessions: session.NewMemoryStore(30 * time.Minute),
		Sender:   sender,
		Intake:   intake,
		Tracker:  tracking,
		Metrics:  metrics,
		Logger:   logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: httptransport.ErrorHandler(logger)})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:    5 * time.Second,
		CORSOrigin: "*",
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler("grievance-service", "test", "memory", opts.checks...),
		Complaints:        handlers.NewComplaintsHandler(intake, tracking, status, 1024),
		Admin:             handlers.NewAdminHandler(authService),
		Analytics:         handlers.NewAnalyticsHandler(analytics),
		WhatsApp:          handlers.NewWhatsAppHandler(machine, logger),
		AuthMiddleware:    auth.NewAuthMiddleware(tokens, admins),
		Metrics:           metrics,
		RateLimits:        opts.limits,
		AllowDefaultAdmin: opts.allowDefaultAdmin,
	})
	return &testServer{app: app, sender: sender}
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) (*nethttp.Response, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (s *testServer) json(t *testing.T, method, target, token string, payload any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, body := s.do(t, req)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	code, env := s.json(t, fiber.MethodPost, "/api/admin/create-default", "", nil)
	require.Equal(t, fiber.StatusCreated, code)
	require.True(t, env.Success)

	code, env = s.json(t, fiber.MethodPost, "/api/admin/login", "", map[string]string{
		"username": service.DefaultAdminUsername,
		"password": service.DefaultAdminPassword,
	})
	require.Equal(t, fiber.StatusOK, code)
	var login struct {
		Token string `json:"token"`
		Admin struct {
			Role string `json:"role"`
		} `json:"admin"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "super_admin", login.Admin.Role)
	return login.Token
}

func complaintPayload() map[string]string {
	return map[string]string{
		"name":          "Asha",
		"phone":         "9876543210",
		"ward":          "Ward 3",
		"department":    "Water Supply",
		"complaintType": "Leakage",
		"description":   "Pipe burst near market",
		"address":       "12 MG Road",
	}
}

func (s *testServer) submit(t *testing.T) string {
	t.Helper()
	code, env := s.json(t, fiber.MethodPost, "/api/complaints/submit", "", complaintPayload())
	require.Equal(t, fiber.StatusCreated, code)
	var data struct {
		TicketID string `json:"ticketId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.TicketID
}

func TestSubmitTrackAndUpdateStatus(t *testing.T) {
	srv := newTestServer(t, serverOptions{allowDefaultAdmin: true})

	code, env := srv.json(t, fiber.MethodPost, "/api/complaints/submit", "", complaintPayload())
	require.Equal(t, fiber.StatusCreated, code)
	assert.True(t, env.Success)
	assert.Equal(t, "Complaint submitted successfully", env.Message)
	var submitted struct {
		TicketID            string `json:"ticketId"`
		EstimatedResolution string `json:"estimatedResolution"`
		HasPhoto            bool   `json:"hasPhoto"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Regexp(t, ticketPattern, submitted.TicketID)
	assert.Equal(t, "7 days", submitted.EstimatedResolution)
	assert.False(t, submitted.HasPhoto)

	code, env = srv.json(t, fiber.MethodGet, "/api/complaints/track/"+submitted.TicketID, "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var tracked struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Updates []struct {
			Status  string `json:"status"`
			Officer string `json:"officer"`
		} `json:"updates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tracked))
	assert.Equal(t, submitted.TicketID, tracked.ID)
	assert.Equal(t, "received", tracked.Status)
	require.Len(t, tracked.Updates, 1)
	assert.Equal(t, "System", tracked.Updates[0].Officer)

	token := srv.login(t)

	code, env = srv.json(t, fiber.MethodGet, "/api/complaints?status=received", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var items []struct {
		ID              string `json:"id"`
		TicketID        string `json:"ticketId"`
		AssignedOfficer string `json:"assignedOfficer"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, submitted.TicketID, items[0].TicketID)
	assert.Equal(t, "Not Assigned", items[0].AssignedOfficer)
	assert.JSONEq(t, `{"current":1,"pages":1,"total":1,"hasNext":false,"hasPrev":false}`, string(env.Pagination))

	code, env = srv.json(t, fiber.MethodPut, "/api/complaints/"+items[0].ID+"/status", token, map[string]string{
		"status":  "in_progress",
		"message": "Crew dispatched",
	})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Complaint status updated successfully", env.Message)

	code, env = srv.json(t, fiber.MethodGet, "/api/complaints/track/"+strings.ToLower(submitted.TicketID), "", nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &tracked))
	assert.Equal(t, "in_progress", tracked.Status)
	require.Len(t, tracked.Updates, 2)
	assert.Equal(t, "admin", tracked.Updates[1].Officer)
}

func TestSubmitValidationEnvelope(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	payload := complaintPayload()
	payload["phone"] = "12345"
	payload["ward"] = "Ward 11"
	code, env := srv.json(t, fiber.MethodPost, "/api/complaints/submit", "", payload)

	require.Equal(t, fiber.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "phone")
	assert.Contains(t, env.Error.Details, "ward")
}

func TestTrackUnknownTicket(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	code, env := srv.json(t, fiber.MethodGet, "/api/complaints/track/RHT000000XXXX", "", nil)

	assert.Equal(t, fiber.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestSubmitWithPhotoThenFetchIt(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	png := []byte("\x89PNG\r\n\x1a\nfake-image-bytes")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range complaintPayload() {
		require.NoError(t, mw.WriteField(k, v))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="leak.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/complaints/submit", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	resp, body := srv.do(t, req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	var data struct {
		TicketID string `json:"ticketId"`
		HasPhoto bool   `json:"hasPhoto"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.HasPhoto)

	resp, body = srv.do(t, httptest.NewRequest(fiber.MethodGet, "/api/complaints/photo/"+data.TicketID, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="leak.png"`)
	assert.Equal(t, png, body)
}

func TestSubmitRejectsOversizedPhoto(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range complaintPayload() {
		require.NoError(t, mw.WriteField(k, v))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="big.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xff}, 2048))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/complaints/submit", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	resp, body := srv.do(t, req)

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Contains(t, env.Error.Details, "photo")
}

func TestPhotoMissing(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	ticket := srv.submit(t)

	code, env := srv.json(t, fiber.MethodGet, "/api/complaints/photo/"+ticket, "", nil)

	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Photo not found", env.Error.Message)
}

func TestSubmitRateLimit(t *testing.T) {
	srv := newTestServer(t, serverOptions{limits: httptransport.RateLimits{Window: time.Minute, Submit: 1}})
	srv.submit(t)

	code, env := srv.json(t, fiber.MethodPost, "/api/complaints/submit", "", complaintPayload())

	assert.Equal(t, fiber.StatusTooManyRequests, code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)
	assert.Contains(t, env.Error.Message, "Too many complaints")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	for _, target := range []string{"/api/complaints", "/api/admin/profile", "/api/analytics/dashboard"} {
		code, env := srv.json(t, fiber.MethodGet, target, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, code, target)
		assert.Equal(t, "No token, authorization denied", env.Error.Message, target)
	}

	code, env := srv.json(t, fiber.MethodGet, "/api/complaints", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Token is not valid", env.Error.Message)
}

func TestLoginFailure(t *testing.T) {
	srv := newTestServer(t, serverOptions{allowDefaultAdmin: true})
	srv.login(t)

	code, env := srv.json(t, fiber.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "admin",
		"password": "wrong",
	})

	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", env.Error.Message)
}

func TestCreateDefaultAdminDisabled(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	code, env := srv.json(t, fiber.MethodPost, "/api/admin/create-default", "", nil)

	assert.Equal(t, fiber.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestAdminProfileAndList(t *testing.T) {
	srv := newTestServer(t, serverOptions{allowDefaultAdmin: true})
	token := srv.login(t)
	srv.submit(t)

	code, env := srv.json(t, fiber.MethodGet, "/api/admin/profile", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var profile struct {
		Username string `json:"username"`
		Stats    struct {
			TotalComplaints    int `json:"totalComplaints"`
			ResolvedComplaints int `json:"resolvedComplaints"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "admin", profile.Username)
	assert.Equal(t, 1, profile.Stats.TotalComplaints)
	assert.Zero(t, profile.Stats.ResolvedComplaints)
	assert.NotContains(t, string(env.Data), "password")

	code, env = srv.json(t, fiber.MethodGet, "/api/admin/all", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var admins []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &admins))
	assert.Len(t, admins, 1)
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv := newTestServer(t, serverOptions{allowDefaultAdmin: true})
	token := srv.login(t)
	srv.submit(t)
	srv.submit(t)

	code, env := srv.json(t, fiber.MethodGet, "/api/analytics/dashboard", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var dashboard struct {
		TotalComplaints  int            `json:"totalComplaints"`
		Received         int            `json:"received"`
		ByDepartment     map[string]int `json:"byDepartment"`
		RecentComplaints []any          `json:"recentComplaints"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dashboard))
	assert.Equal(t, 2, dashboard.TotalComplaints)
	assert.Equal(t, 2, dashboard.Received)
	assert.Equal(t, 2, dashboard.ByDepartment["Water Supply"])
	assert.Len(t, dashboard.RecentComplaints, 2)

	code, env = srv.json(t, fiber.MethodGet, "/api/analytics/trends?period=7", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var trends []struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &trends))
	require.Len(t, trends, 1)
	assert.Equal(t, 2, trends[0].Count)

	code, env = srv.json(t, fiber.MethodGet, "/api/analytics/trends?period=abc", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, _ = srv.json(t, fiber.MethodGet, "/api/analytics/department-performance", token, nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestWhatsAppWebhookRepliesThroughSender(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	form := url.Values{}
	form.Set("From", "whatsapp:+919999999999")
	form.Set("Body", "hi")
	form.Set("ProfileName", "Ravi")
	req := httptest.NewRequest(fiber.MethodPost, "/api/whatsapp/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, body := srv.do(t, req)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	replies := srv.sender.messages("+919999999999")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Hello Ravi!")
}

func TestWhatsAppWebhookRequiresSender(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	req := httptest.NewRequest(fiber.MethodPost, "/api/whatsapp/webhook", strings.NewReader("Body=hi"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, _ := srv.do(t, req)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	resp, body := srv.do(t, httptest.NewRequest(fiber.MethodGet, "/api/health", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "OK", health["status"])
	assert.Equal(t, "in-memory", health["database"])

	resp, _ = srv.do(t, httptest.NewRequest(fiber.MethodGet, "/health/live", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = srv.do(t, httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestReadyReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, serverOptions{checks: []handlers.DependencyCheck{
		{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	}})

	resp, body := srv.do(t, httptest.NewRequest(fiber.MethodGet, "/health/ready", nil))

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)
	assert.Equal(t, "connection refused", env.Error.Details["redis"])
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	code, env := srv.json(t, fiber.MethodGet, "/api/nope", "", nil)

	assert.Equal(t, fiber.StatusNotFound, code)
	assert.False(t, env.Success)
}
