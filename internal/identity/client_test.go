package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jadihebat/platform/internal/apperror"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestFetchUser_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" {
			t.Errorf("path = %q, want /users/me", r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); got != userFields {
			t.Errorf("fields = %q, want %q", got, userFields)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{
				"id":         "u-1",
				"email":      "budi@example.com",
				"first_name": "Budi",
				"last_name":  "Santoso",
				"avatar":     "https://cdn.example.com/a.png",
			},
		})
	})

	result := client.FetchUser(context.Background(), "tok-1")
	if result.User == nil {
		t.Fatalf("no user returned, status %d", result.Status)
	}
	if result.User.ID != "u-1" || result.User.Email != "budi@example.com" {
		t.Errorf("user = %+v", result.User)
	}
	if result.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", result.Status)
	}
}

func TestFetchUser_EmptyToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called with an empty token")
	})

	result := client.FetchUser(context.Background(), "")
	if result.User != nil || result.Status != http.StatusUnauthorized {
		t.Errorf("result = %+v, want 401 with no user", result)
	}
}

func TestFetchUser_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	result := client.FetchUser(context.Background(), "expired")
	if result.User != nil || result.Status != http.StatusUnauthorized {
		t.Errorf("result = %+v, want 401 with no user", result)
	}
}

func TestFetchUser_NetworkErrorIsStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	client := NewClient(srv.URL, time.Second)

	result := client.FetchUser(context.Background(), "tok")
	if result.User != nil || result.Status != 0 {
		t.Errorf("result = %+v, want status 0 with no user", result)
	}
}

func TestFetchUser_MalformedBodyIsProviderError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`)) // 200 but no id
	})

	result := client.FetchUser(context.Background(), "tok")
	if result.User != nil || result.Status != http.StatusInternalServerError {
		t.Errorf("result = %+v, want 500 with no user", result)
	}
}

func TestRefresh_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "r-1" || body["mode"] != "json" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{
				"access_token":  "new-a",
				"refresh_token": "new-r",
			},
		})
	})

	pair, err := client.Refresh(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken != "new-a" || pair.RefreshToken != "new-r" {
		t.Errorf("pair = %+v", pair)
	}
}

func TestRefresh_Rejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := client.Refresh(context.Background(), "revoked"); err == nil {
		t.Fatal("expected an error for a rejected refresh")
	}
}

func TestRefresh_MissingAccessToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"refresh_token": "only-this"}}`))
	})

	if _, err := client.Refresh(context.Background(), "r-1"); err == nil {
		t.Fatal("expected an error when the response lacks an access token")
	}
}

func TestLogin_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{
				"access_token":  "a-1",
				"refresh_token": "r-1",
			},
		})
	})

	pair, err := client.Login(context.Background(), "budi@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken != "a-1" || pair.RefreshToken != "r-1" {
		t.Errorf("pair = %+v", pair)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), "budi@example.com", "wrong")
	if err == nil {
		t.Fatal("expected an error")
	}
	if apperror.SafeCode(err) != http.StatusUnauthorized {
		t.Errorf("error code = %d, want 401", apperror.SafeCode(err))
	}
}

func TestLogout(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestAdminCreateUser_DuplicateEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer admin-tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors": [{"message": "Field \"email\" has to be unique."}]}`))
	}))
	defer srv.Close()

	admin := NewAdminClient(srv.URL, "admin-tok", "role-1", 5*time.Second)
	err := admin.CreateUser(context.Background(), CreateUserInput{
		Email:     "budi@example.com",
		Password:  "secret123",
		FirstName: "Budi",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if apperror.SafeCode(err) != http.StatusConflict {
		t.Errorf("error code = %d, want 409", apperror.SafeCode(err))
	}
}

func TestDisplayOmitsVerifiedFields(t *testing.T) {
	v := Verified{
		ID:        "u-1",
		Email:     "budi@example.com",
		FirstName: "Budi",
		LastName:  "Santoso",
		Avatar:    "a.png",
	}

	payload, err := json.Marshal(v.Display())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(payload, &decoded)

	for _, forbidden := range []string{"id", "email"} {
		if _, ok := decoded[forbidden]; ok {
			t.Errorf("display payload contains %q: %s", forbidden, payload)
		}
	}
	if decoded["first_name"] != "Budi" || decoded["avatar"] != "a.png" {
		t.Errorf("display payload = %s", payload)
	}
}
