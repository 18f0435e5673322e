package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appear/aiq/internal/core"
)

func newAuthServer(t *testing.T, discovery func(base string) (int, string), token func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/discovery":
			if r.URL.Query().Get("orgName") != "x" {
				t.Errorf("unexpected orgName %q", r.URL.Query().Get("orgName"))
			}
			status, body := discovery(server.URL)
			writeJSON(w, status, body)
		case "/org/x/token":
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			status, body := token(r)
			writeJSON(w, status, body)
		default:
			writeJSON(w, http.StatusNotFound, `{"error":"not_found"}`)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func validDiscovery(base string) (int, string) {
	return http.StatusOK, `{"links":{"token":"` + base + `/org/x/token"}}`
}

func TestLoginPersistsSession(t *testing.T) {
	server := newAuthServer(t, validDiscovery, func(r *http.Request) (int, string) {
		want := map[string]string{"username": "u", "password": "p", "grant_type": "password", "scope": "admin"}
		for key, value := range want {
			if got := r.PostForm.Get(key); got != value {
				t.Errorf("form %s = %q, want %q", key, got, value)
			}
		}
		return http.StatusOK, `{"access_token":"t","expires_in":3600,"user":{"_id":9,"username":"u"}}`
	})
	f := newFixture(t, core.Config{})

	config, err := f.services.Login(context.Background(), LoginParams{
		ServerURL: server.URL + "/discovery",
		OrgName:   "x",
		Username:  "u",
		Password:  "p",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	want := core.Config{
		ServerURL:   server.URL + "/discovery",
		OrgName:     "x",
		BaseURL:     server.URL + "/org/x",
		AccessToken: "t",
		UserID:      core.NumericID(9),
		Username:    "u",
		ExpiresIn:   3600,
	}
	if diff := cmp.Diff(want, *config); diff != "" {
		t.Fatalf("returned config mismatch (-want +got):\n%s", diff)
	}
	stored, err := core.LoadConfig(f.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if diff := cmp.Diff(want, *stored); diff != "" {
		t.Fatalf("stored config mismatch (-want +got):\n%s", diff)
	}
	if info := f.services.Info(); info == nil || info.AccessToken != "t" {
		t.Fatalf("expected info to reflect the new session, got %#v", info)
	}

	data, err := os.ReadFile(f.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if got := string(raw["userId"]); got != "9" {
		t.Fatalf("expected userId stored as the number 9, got %s", got)
	}
}

func TestLoginWithoutAccessTokenKeepsSession(t *testing.T) {
	server := newAuthServer(t, validDiscovery, func(*http.Request) (int, string) {
		return http.StatusOK, `{"user":{"_id":9,"username":"u"}}`
	})
	f := newFixture(t, loggedIn(server.URL))
	before, err := os.ReadFile(f.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	_, err = f.services.Login(context.Background(), LoginParams{
		ServerURL: server.URL + "/discovery",
		OrgName:   "x",
		Username:  "u",
		Password:  "p",
	})
	expectError(t, err, KindRemote, MsgNoAccessToken)

	after, err := os.ReadFile(f.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(after) != string(before) {
		t.Fatalf("previous session overwritten: %q", after)
	}
	if info := f.services.Info(); info == nil || info.AccessToken != "token" {
		t.Fatalf("expected previous session, got %#v", info)
	}
}

func TestLoginNormalizesServerURL(t *testing.T) {
	server := newAuthServer(t, validDiscovery, func(*http.Request) (int, string) {
		return http.StatusOK, `{"access_token":"t","user":{"_id":"u1","username":"u"}}`
	})
	f := newFixture(t, core.Config{})

	config, err := f.services.Login(context.Background(), LoginParams{
		ServerURL: "  " + server.URL + "/discovery/ ",
		OrgName:   "x",
		Username:  "u",
		Password:  "p",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if config.ServerURL != server.URL+"/discovery" {
		t.Fatalf("expected trimmed server url, got %q", config.ServerURL)
	}

	_, err = f.services.Login(context.Background(), LoginParams{
		ServerURL: "api.appeariq.com",
		OrgName:   "x",
		Username:  "u",
		Password:  "p",
	})
	expectError(t, err, KindValidation, MsgBadServerURL)
}

func TestLoginRemapsFailures(t *testing.T) {
	tests := []struct {
		name      string
		discovery func(string) (int, string)
		token     func(*http.Request) (int, string)
		kind      Kind
		msg       string
	}{
		{
			name:      "discovery without links",
			discovery: func(string) (int, string) { return http.StatusOK, `{}` },
			kind:      KindRemote,
			msg:       MsgCannotConnect,
		},
		{
			name:      "discovery not found",
			discovery: func(string) (int, string) { return http.StatusNotFound, `{"error":"not_found"}` },
			kind:      KindRemote,
			msg:       MsgOrgNotFound,
		},
		{
			name:      "discovery server error",
			discovery: func(string) (int, string) { return http.StatusInternalServerError, `{"error":"boom"}` },
			kind:      KindRemote,
			msg:       MsgCannotConnect,
		},
		{
			name:      "token not found",
			discovery: validDiscovery,
			token:     func(*http.Request) (int, string) { return http.StatusNotFound, `{"error":"not_found"}` },
			kind:      KindRemote,
			msg:       MsgOrgNotFound,
		},
		{
			name:      "token rejected",
			discovery: validDiscovery,
			token: func(*http.Request) (int, string) {
				return http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Bad credentials"}`
			},
			kind: KindRemote,
			msg:  "Bad credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newAuthServer(t, tt.discovery, func(r *http.Request) (int, string) {
				if tt.token == nil {
					t.Errorf("token endpoint should not be called")
					return http.StatusTeapot, `{}`
				}
				return tt.token(r)
			})
			f := newFixture(t, core.Config{})

			_, err := f.services.Login(context.Background(), LoginParams{
				ServerURL: server.URL + "/discovery",
				OrgName:   "x",
				Username:  "u",
				Password:  "p",
			})
			expectError(t, err, tt.kind, tt.msg)

			data, err := os.ReadFile(f.configPath)
			if err != nil {
				t.Fatalf("read config: %v", err)
			}
			if string(data) != "{}\n" {
				t.Fatalf("config should stay empty, got %q", data)
			}
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()
	f := newFixture(t, core.Config{})

	_, err := f.services.Login(context.Background(), LoginParams{ServerURL: endpoint, OrgName: "x", Username: "u", Password: "p"})
	expectError(t, err, KindRemote, MsgCannotConnect)
}

func TestLoginValidatesInOrder(t *testing.T) {
	server := unexpectedServer(t)
	tests := []struct {
		params LoginParams
		msg    string
	}{
		{params: LoginParams{}, msg: MsgOrgRequired},
		{params: LoginParams{OrgName: "x", Password: "p"}, msg: MsgUsernameRequired},
		{params: LoginParams{OrgName: "x", Username: "u"}, msg: MsgPasswordRequired},
	}
	f := newFixture(t, core.Config{})
	for _, tt := range tests {
		tt.params.ServerURL = server.URL
		_, err := f.services.Login(context.Background(), tt.params)
		expectError(t, err, KindValidation, tt.msg)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/admin/logout" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing bearer token")
		}
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer server.Close()
	f := newFixture(t, loggedIn(server.URL))

	if err := f.services.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one logout call, got %d", calls.Load())
	}
	data, err := os.ReadFile(f.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("expected cleared config, got %q", data)
	}
	if f.services.Info() != nil {
		t.Fatalf("expected no session after logout")
	}
}

func TestLogoutClearsSessionOnExpiredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid_token"}`)
	}))
	defer server.Close()
	f := newFixture(t, loggedIn(server.URL))

	err := f.services.Logout(context.Background())
	expectError(t, err, KindAuth, MsgSessionExpired)

	data, err := os.ReadFile(f.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("expected cleared config, got %q", data)
	}
}

func TestLogoutRequiresSession(t *testing.T) {
	f := newFixture(t, core.Config{BaseURL: unexpectedServer(t).URL})

	expectError(t, f.services.Logout(context.Background()), KindAuth, MsgNotAuthorized)
}
