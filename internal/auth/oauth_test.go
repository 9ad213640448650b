package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGitHubStub(t *testing.T, user, emails string) *GitHubProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(user))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emails))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGitHubProvider("id", "secret", "http://localhost/callback")
	p.apiBase = srv.URL
	return p
}

func TestFetchUser_PublicEmail(t *testing.T) {
	p := newGitHubStub(t, `{"id": 7, "login": "ada", "email": "Ada@Example.com"}`, `[]`)

	u, err := p.fetchUser(context.Background(), http.DefaultClient)
	if err != nil {
		t.Fatalf("fetchUser() error = %v", err)
	}
	if u.ID != 7 || u.Email != "ada@example.com" {
		t.Errorf("fetchUser() = %+v", u)
	}
}

func TestFetchUser_HiddenEmailUsesPrimaryVerified(t *testing.T) {
	p := newGitHubStub(t,
		`{"id": 7, "login": "ada", "email": null}`,
		`[{"email":"old@example.com","primary":false,"verified":true},{"email":"ada@example.com","primary":true,"verified":true}]`)

	u, err := p.fetchUser(context.Background(), http.DefaultClient)
	if err != nil {
		t.Fatalf("fetchUser() error = %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("Email = %q, want the primary verified address", u.Email)
	}
}

func TestFetchUser_InvalidUser(t *testing.T) {
	p := newGitHubStub(t, `{"id": 0}`, `[]`)

	if _, err := p.fetchUser(context.Background(), http.DefaultClient); err == nil {
		t.Fatal("fetchUser() should reject a user without an ID")
	}
}

func TestAuthURL_CarriesState(t *testing.T) {
	p := NewGitHubProvider("client-id", "secret", "http://localhost/auth/github/callback")

	url := p.AuthURL("xyz")
	if !strings.Contains(url, "state=xyz") || !strings.Contains(url, "client_id=client-id") {
		t.Errorf("AuthURL() = %q", url)
	}
}
