package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/exitcode"
)

// fakeBackend serves the auth endpoints the login and register commands
// talk to. One account exists: alice / s3cret.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok123", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /users/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "username": "alice", "email": "alice@example.com"})
	})
	mux.HandleFunc("POST /users/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Username == "alice" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Username already registered"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": 2, "username": body.Username, "email": body.Email})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginCommand_Success(t *testing.T) {
	srv := fakeBackend(t)
	cmd := &commands.LoginCmd{}
	cmd.SetPassword("s3cret")

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:    t.TempDir(),
		APIURL: srv.URL,
	}

	code := cmd.Run(context.Background(), cfg, nil, []string{"alice"}, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "logged in as alice\n" {
		t.Errorf("expected login confirmation, got %q", outBuf.String())
	}

	// Verify the token was persisted
	if !cfg.HasToken() {
		t.Error("token.json should exist after successful login")
	}
	token, err := cfg.LoadToken()
	if err != nil || token == nil {
		t.Fatalf("LoadToken: token=%v err=%v", token, err)
	}
	if token.AccessToken != "tok123" {
		t.Errorf("persisted access token = %q, want tok123", token.AccessToken)
	}
}

func TestLoginCommand_BadCredentials(t *testing.T) {
	srv := fakeBackend(t)
	cmd := &commands.LoginCmd{}
	cmd.SetPassword("wrong")

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:    t.TempDir(),
		APIURL: srv.URL,
	}

	code := cmd.Run(context.Background(), cfg, nil, []string{"alice"}, &outBuf, &errBuf)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout, got %q", outBuf.String())
	}
	if errBuf.String() != "error: invalid username or password\n" {
		t.Errorf("expected invalid credentials error, got %q", errBuf.String())
	}
	if cfg.HasToken() {
		t.Error("no token should be persisted after rejected login")
	}
}

func TestLoginCommand_AlreadyLoggedIn(t *testing.T) {
	srv := fakeBackend(t)
	cmd := &commands.LoginCmd{}

	tmpDir := t.TempDir()
	tokenJSON := `{"access_token":"tok123","token_type":"bearer"}`
	if err := os.WriteFile(filepath.Join(tmpDir, "token.json"), []byte(tokenJSON), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:    tmpDir,
		APIURL: srv.URL,
	}

	code := cmd.Run(context.Background(), cfg, nil, []string{"alice"}, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "already logged in as alice\n" {
		t.Errorf("expected already-logged-in message, got %q", outBuf.String())
	}
}

func TestLoginCommand_StaleTokenFallsThroughToLogin(t *testing.T) {
	srv := fakeBackend(t)
	cmd := &commands.LoginCmd{}
	cmd.SetPassword("s3cret")

	tmpDir := t.TempDir()
	// A persisted token the server no longer accepts.
	tokenJSON := `{"access_token":"expired","token_type":"bearer"}`
	if err := os.WriteFile(filepath.Join(tmpDir, "token.json"), []byte(tokenJSON), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:    tmpDir,
		APIURL: srv.URL,
	}

	code := cmd.Run(context.Background(), cfg, nil, []string{"alice"}, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "logged in as alice\n" {
		t.Errorf("expected fresh login, got %q", outBuf.String())
	}
	token, err := cfg.LoadToken()
	if err != nil || token == nil {
		t.Fatalf("LoadToken: token=%v err=%v", token, err)
	}
	if token.AccessToken != "tok123" {
		t.Errorf("persisted access token = %q, want replacement tok123", token.AccessToken)
	}
}

func TestLoginCommand_NoUsername(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errBuf.String() != "error: username required\n" {
		t.Errorf("expected username required error, got %q", errBuf.String())
	}
}

func TestLogoutCommand_RemovesToken(t *testing.T) {
	cmd := &commands.LogoutCmd{}

	tmpDir := t.TempDir()
	tokenPath := filepath.Join(tmpDir, "token.json")
	if err := os.WriteFile(tokenPath, []byte(`{"access_token":"tok123"}`), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: tmpDir}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if errBuf.String() != "" {
		t.Errorf("expected no stderr, got %q", errBuf.String())
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", outBuf.String())
	}

	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	cmd := &commands.LogoutCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if errBuf.String() != "" {
		t.Errorf("expected no stderr, got %q", errBuf.String())
	}
	if outBuf.String() != "not logged in\n" {
		t.Errorf("expected 'not logged in\\n', got %q", outBuf.String())
	}
}

func TestRegisterCommand_Success(t *testing.T) {
	srv := fakeBackend(t)
	cmd := &commands.RegisterCmd{}
	cmd.SetPassword("pw")

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:    t.TempDir(),
		APIURL: srv.URL,
	}

	code := cmd.Run(context.Background(), cfg, nil, []string{"bob", "bob@example.com"}, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "registered bob (run: taskman login bob)\n" {
		t.Errorf("expected registration confirmation, got %q", outBuf.String())
	}
	if cfg.HasToken() {
		t.Error("register must not log the new account in")
	}
}

func TestRegisterCommand_DuplicateUsername(t *testing.T) {
	srv := fakeBackend(t)
	cmd := &commands.RegisterCmd{}
	cmd.SetPassword("pw")

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:    t.TempDir(),
		APIURL: srv.URL,
	}

	code := cmd.Run(context.Background(), cfg, nil, []string{"alice", "other@example.com"}, &outBuf, &errBuf)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout, got %q", outBuf.String())
	}
	if errBuf.String() != "error: Username already registered\n" {
		t.Errorf("expected duplicate error, got %q", errBuf.String())
	}
}

func TestRegisterCommand_MissingArgs(t *testing.T) {
	cmd := &commands.RegisterCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, []string{"bob"}, &outBuf, &errBuf)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errBuf.String() != "error: username and email required\n" {
		t.Errorf("expected usage error, got %q", errBuf.String())
	}
}
