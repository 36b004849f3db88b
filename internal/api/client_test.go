package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com/", staticToken("test-key"))

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.tokens == nil {
			t.Error("tokens should be set")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.retryBackoff != time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, time.Second)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com", nil, WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.example.com", nil, WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})

	t.Run("with logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", nil, WithLogger(logger))
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", nil, WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", staticToken("key"),
			WithTimeout(15*time.Second),
			WithRetries(10, 500*time.Millisecond),
			WithLogger(logger),
		)
		if c.httpClient.Timeout != 15*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 15*time.Second)
		}
		if c.maxRetries != 10 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 10)
		}
		if c.retryBackoff != 500*time.Millisecond {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 500*time.Millisecond)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("nil token source", func(t *testing.T) {
		c := NewClient("https://api.example.com", nil)
		if c.tokens != nil {
			t.Error("tokens should be nil")
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := &APIError{
			StatusCode: 404,
			Message:    "Not Found",
			Body:       []byte(`{"error": "server not found"}`),
		}
		expected := "api error 404: Not Found"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("IsRetryable for 5xx errors", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{500, true},
			{502, true},
			{503, true},
			{504, true},
			{429, true},
			{400, false},
			{401, false},
			{403, false},
			{404, false},
			{200, false},
			{499, false},
		}

		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
			}
		}
	})
}

// TestDoRequest tests the HTTP request functionality.
func TestDoRequest(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept header = %q, want %q", r.Header.Get("Accept"), "application/json")
			}
			if r.Header.Get("Authorization") != "test-key" {
				t.Errorf("Authorization header = %q, want %q", r.Header.Get("Authorization"), "test-key")
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("test-key"))
		body, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q, want %q", string(body), `{"status": "ok"}`)
		}
	})

	t.Run("request without token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Errorf("Authorization header should be empty, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken(""))
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("request with query parameters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("limit") != "10" {
				t.Errorf("limit = %q, want %q", r.URL.Query().Get("limit"), "10")
			}
			if r.URL.Query().Get("cursor") != "abc123" {
				t.Errorf("cursor = %q, want %q", r.URL.Query().Get("cursor"), "abc123")
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"))
		query := make(map[string][]string)
		query["limit"] = []string{"10"}
		query["cursor"] = []string{"abc123"}
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", query, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("4xx error returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"))
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 404)
		}
		if apiErr.Message != "not found" {
			t.Errorf("Message = %q, want backend error text", apiErr.Message)
		}
		if !strings.Contains(string(apiErr.Body), "not found") {
			t.Errorf("Body should contain 'not found', got %q", string(apiErr.Body))
		}
	})

	t.Run("5xx error returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`internal error`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"))
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 500 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 500)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := c.doRequest(ctx, http.MethodGet, "/test", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context canceled") {
			t.Errorf("error should contain 'context canceled', got %v", err)
		}
	})
}

// TestDoWithRetry tests the retry logic.
func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"), WithRetries(3, 10*time.Millisecond))
		body, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %q, want %q", string(body), `{"ok": true}`)
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("retries on 5xx and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`error`))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"), WithRetries(3, 10*time.Millisecond))
		body, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %q, want %q", string(body), `{"ok": true}`)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("retries on 429 and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`rate limited`))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"), WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("does not retry on 4xx (except 429)", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`bad request`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"), WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`error`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"), WithRetries(2, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "max retries exceeded") {
			t.Errorf("error should contain 'max retries exceeded', got %v", err)
		}
		// 1 initial + 2 retries = 3 attempts
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("context cancellation during retry", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"), WithRetries(5, 50*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
		defer cancel()

		_, err := c.doWithRetry(ctx, http.MethodGet, "/test", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context") {
			t.Errorf("error should be context-related, got %v", err)
		}
	})
}

// staticToken is a TokenSource returning a fixed token; empty means logged out.
type staticToken string

func (s staticToken) Token(ctx context.Context) (string, bool, error) {
	return string(s), s != "", nil
}

type failingToken struct{}

func (failingToken) Token(ctx context.Context) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestTokenSourceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer server.Close()

	c := NewClient(server.URL, failingToken{})
	_, err := c.Servers(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read token") {
		t.Errorf("err = %v, want read token error", err)
	}
}

// TestEndpoints checks paths and decoding of every list endpoint.
func TestEndpoints(t *testing.T) {
	routes := map[string]string{
		"/v0/users/@me":           `{"id":"1","username":"me","display_name":null,"email":"me@example.com","email_verified":true}`,
		"/v0/servers":             `[{"id":"3","name":"s","owner_id":"1"}]`,
		"/v0/servers/3/members":   `[{"server_id":"3","user_id":"1","created_at":"2024-05-24T00:00:00Z","nickname":null,"user":{"id":"1","username":"me"}}]`,
		"/v0/servers/3/channels":  `[{"id":"7","name":"general","kind":"text","server_id":"3"}]`,
		"/v0/servers/3/invites":   `[{"id":"abc","server":{"id":"3","name":"s","owner_id":"1"},"created_at":"2024-05-24T00:00:00Z","expires_at":"2024-05-25T00:00:00Z"}]`,
		"/v0/direct-channels":     `[{"id":"20","name":"","kind":"DM","user":{"id":"9","username":"ann"}}]`,
		"/v0/channels/7/messages": `[{"id":"5","kind":"text","content":"hi","channel_id":"7","user":{"id":"9","username":"ann"}}]`,
		"/v0/invites/abc":         `{"id":"abc","server":{"id":"3","name":"s","owner_id":"1"}}`,
		"/v0/users/9":             `{"id":"9","username":"ann","display_name":"Ann"}`,
		"/v0/friends":             `[{"user":{"id":"1","username":"me"},"friend":{"id":"9","username":"ann"},"created_at":"2024-05-24T00:00:00Z","channel":{"id":"20","name":"","kind":"DM"}}]`,
		"/v0/friend-requests":     `[{"sender":{"id":"9","username":"ann"},"receiver":{"id":"1","username":"me"},"created_at":"2024-05-24T00:00:00Z"}]`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("%s: method = %s, want GET", r.URL.Path, r.Method)
		}
		if r.Header.Get("Authorization") != "tok" {
			t.Errorf("%s: Authorization = %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	c := NewClient(server.URL, staticToken("tok"))
	ctx := context.Background()

	me, err := c.Me(ctx)
	if err != nil || me.ID != "1" || !me.EmailVerified {
		t.Errorf("Me() = %+v, %v", me, err)
	}

	servers, err := c.Servers(ctx)
	if err != nil || len(servers) != 1 || servers[0].OwnerID != "1" {
		t.Errorf("Servers() = %+v, %v", servers, err)
	}

	members, err := c.Members(ctx, "3")
	if err != nil || len(members) != 1 || members[0].Key() != "3-1" {
		t.Errorf("Members() = %+v, %v", members, err)
	}

	channels, err := c.Channels(ctx, "3")
	if err != nil || len(channels) != 1 || channels[0].ServerID == nil || *channels[0].ServerID != "3" {
		t.Errorf("Channels() = %+v, %v", channels, err)
	}

	invites, err := c.Invites(ctx, "3")
	if err != nil || len(invites) != 1 || invites[0].Server.ID != "3" {
		t.Errorf("Invites() = %+v, %v", invites, err)
	}

	dms, err := c.DirectChannels(ctx)
	if err != nil || len(dms) != 1 || !dms[0].IsDM() {
		t.Errorf("DirectChannels() = %+v, %v", dms, err)
	}

	messages, err := c.Messages(ctx, "7", MessagesQuery{})
	if err != nil || len(messages) != 1 || messages[0].User.ID != "9" {
		t.Errorf("Messages() = %+v, %v", messages, err)
	}

	invite, err := c.Invite(ctx, "abc")
	if err != nil || invite.ID != "abc" {
		t.Errorf("Invite() = %+v, %v", invite, err)
	}

	user, err := c.User(ctx, "9")
	if err != nil || user.Name() != "Ann" {
		t.Errorf("User() = %+v, %v", user, err)
	}

	friends, err := c.Friends(ctx)
	if err != nil || len(friends) != 1 || friends[0].Friend.ID != "9" {
		t.Errorf("Friends() = %+v, %v", friends, err)
	}

	requests, err := c.FriendRequests(ctx)
	if err != nil || len(requests) != 1 || requests[0].Sender.ID != "9" {
		t.Errorf("FriendRequests() = %+v, %v", requests, err)
	}
}

func TestMessagesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		if got := r.URL.Query().Get("last_id"); got != "99" {
			t.Errorf("last_id = %q, want 99", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, staticToken("tok"))
	if _, err := c.Messages(context.Background(), "7", MessagesQuery{Limit: 50, LastID: "99"}); err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
}

func TestLogin(t *testing.T) {
	t.Run("returns token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/v0/login" {
				t.Errorf("request = %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("login must not carry a token")
			}
			var body loginRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body.Username != "ann" || body.Password != "hunter22" {
				t.Errorf("body = %+v", body)
			}
			w.Write([]byte(`{"token":"session-token"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		token, err := c.Login(context.Background(), "ann", "hunter22")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if token != "session-token" {
			t.Errorf("token = %q, want session-token", token)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid username or password"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		_, err := c.Login(context.Background(), "ann", "wrong")
		if !IsUnauthorized(err) {
			t.Fatalf("err = %v, want unauthorized", err)
		}
		if !strings.Contains(err.Error(), "Invalid username or password") {
			t.Errorf("err = %v, want backend message", err)
		}
	})
}

func TestLogout(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		if r.Header.Get("Authorization") != "tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL, staticToken("tok"))
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if !called.Load() {
		t.Error("logout endpoint not called")
	}
}

func TestJSONUnmarshalErrors(t *testing.T) {
	t.Run("invalid JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`not valid json`))
		}))
		defer server.Close()

		c := NewClient(server.URL, staticToken("key"))
		_, err := c.Servers(context.Background())
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "unmarshal") {
			t.Errorf("error should contain 'unmarshal', got %v", err)
		}
	})
}
