package app

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "MySecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("Hash should start with $argon2id$v=19$, got: %s", hash)
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed on second call: %v", err)
	}
	if hash == hash2 {
		t.Error("Two hashes of same password should be different (different salts)")
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "MySecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{name: "Correct password", password: password, hash: hash, want: true},
		{name: "Wrong password", password: "WrongPassword456", hash: hash, want: false},
		{name: "Invalid hash format", password: password, hash: "invalid", wantErr: true},
		{name: "Wrong algorithm", password: password, hash: "$bcrypt$v=1$m=65536,t=1,p=4$salt$hash", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyPassword(tt.password, tt.hash)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateAuthFile(t *testing.T) {
	authFile := filepath.Join(t.TempDir(), "auth.secret")

	t.Run("Create new file", func(t *testing.T) {
		if err := CreateAuthFile(authFile, "testuser", "TestPassword123456", false); err != nil {
			t.Fatalf("CreateAuthFile() failed: %v", err)
		}

		info, err := os.Stat(authFile)
		if err != nil {
			t.Fatalf("Failed to stat auth file: %v", err)
		}
		if info.Mode().Perm() != 0400 {
			t.Errorf("Expected file mode 0400 (read-only), got %o", info.Mode().Perm())
		}

		auth, err := LoadAuth(authFile)
		if err != nil {
			t.Fatalf("LoadAuth() failed: %v", err)
		}
		if auth.User != "testuser" {
			t.Errorf("Expected username testuser, got %s", auth.User)
		}
		match, err := VerifyPassword("TestPassword123456", string(auth.hash))
		if err != nil || !match {
			t.Errorf("Password verification failed for created hash: %v", err)
		}
	})

	t.Run("Overwrite with flag", func(t *testing.T) {
		if err := CreateAuthFile(authFile, "newuser", "NewPassword123456", true); err != nil {
			t.Fatalf("CreateAuthFile() with overwrite failed: %v", err)
		}

		content, _ := os.ReadFile(authFile)
		if !strings.HasPrefix(string(content), "newuser:") {
			t.Error("File should be overwritten with new username")
		}
	})
}

func TestAuthFilePath(t *testing.T) {
	got, err := AuthFilePath("/etc/partyplaner/auth.secret")
	if err != nil || got != "/etc/partyplaner/auth.secret" {
		t.Errorf("AuthFilePath() = %q, %v", got, err)
	}

	got, err = AuthFilePath("")
	if err != nil {
		t.Fatalf("AuthFilePath() failed: %v", err)
	}
	if filepath.Base(got) != DefaultAuthFile {
		t.Errorf("Expected default file name %s, got %s", DefaultAuthFile, got)
	}
}

func TestLoadAuth(t *testing.T) {
	tests := []struct {
		name        string
		setupFile   func(string) error
		wantUser    string
		wantErr     bool
		wantEnabled bool
	}{
		{
			name: "Valid auth file",
			setupFile: func(path string) error {
				hash, _ := HashPassword("TestPassword123456")
				return os.WriteFile(path, []byte("testuser:"+hash), 0600)
			},
			wantUser:    "testuser",
			wantEnabled: true,
		},
		{
			name:      "File not exists (dev mode)",
			setupFile: func(path string) error { return nil },
		},
		{
			name: "Invalid format (missing colon)",
			setupFile: func(path string) error {
				return os.WriteFile(path, []byte("invalidformat"), 0600)
			},
			wantErr: true,
		},
		{
			name: "Invalid format (empty)",
			setupFile: func(path string) error {
				return os.WriteFile(path, []byte(""), 0600)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authFile := filepath.Join(t.TempDir(), "auth.secret")
			if err := tt.setupFile(authFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			auth, err := LoadAuth(authFile)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if auth.User != tt.wantUser {
				t.Errorf("User = %s, want %s", auth.User, tt.wantUser)
			}
			if auth.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", auth.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}

	password := "TestPassword123456"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to create test hash: %v", err)
	}
	protected := &Auth{User: "admin", hash: []byte(hash)}

	basic := func(userpass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(userpass))
	}

	tests := []struct {
		name           string
		auth           *Auth
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{"Valid credentials", protected, basic("admin:" + password), http.StatusOK, "success"},
		{"Invalid password", protected, basic("admin:wrongpassword"), http.StatusUnauthorized, "Unauthorized\n"},
		{"Invalid username", protected, basic("wronguser:" + password), http.StatusUnauthorized, "Unauthorized\n"},
		{"No auth header", protected, "", http.StatusUnauthorized, "Unauthorized\n"},
		{"Dev mode (no auth file)", &Auth{}, "", http.StatusOK, "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/parties/add", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			tt.auth.RequireAuth(testHandler)(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}
			if body := w.Body.String(); body != tt.expectedBody {
				t.Errorf("Expected body %q, got %q", tt.expectedBody, body)
			}
			if tt.expectedStatus == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("Expected WWW-Authenticate header on 401")
			}
		})
	}
}

func TestArgon2idParameters(t *testing.T) {
	if argon2Memory < 64*1024 {
		t.Error("Argon2id memory should be at least 64MB (OWASP recommendation)")
	}
	if argon2Time < 1 {
		t.Error("Argon2id time parameter should be at least 1")
	}
	if argon2KeyLen < 32 {
		t.Error("Argon2id key length should be at least 32 bytes")
	}
	if saltLen < 16 {
		t.Error("Salt length should be at least 16 bytes")
	}
}
