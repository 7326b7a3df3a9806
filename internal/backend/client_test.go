package backend_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sokoni-app/sokoni_mobile/internal/backend"
	"github.com/sokoni-app/sokoni_mobile/internal/devbackend"
	"github.com/sokoni-app/sokoni_mobile/internal/logging"
)

// appTransport routes the client's requests into an in-process devbackend
// instead of a network listener.
type appTransport struct {
	app *fiber.App
}

func (t appTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.app.Test(req, -1)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	app := devbackend.NewApp(devbackend.NewMemoryRepository(), "test-secret", time.Hour, logging.Discard())
	return backend.NewClient("http://devbackend.local",
		backend.WithHTTPClient(&http.Client{Transport: appTransport{app: app}}))
}

func TestRegisterLoginProfileRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Register(ctx, "amina@example.com", "password123", "Amina")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Token == "" || created.User.DisplayName != "Amina" {
		t.Fatalf("unexpected register result %+v", created)
	}

	logged, err := client.Login(ctx, "amina@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	profile, err := client.GetProfile(ctx, logged.Token)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.ID != created.User.ID || profile.IdentityVerified {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestLoginCredentialErrorCarriesServerMessage(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Register(ctx, "amina@example.com", "password123", "Amina"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := client.Login(ctx, "amina@example.com", "wrong-password")

	var be *backend.Error
	if !errors.As(err, &be) {
		t.Fatalf("expected *backend.Error, got %v", err)
	}
	if be.Kind != backend.KindCredential {
		t.Fatalf("expected credential kind, got %s", be.Kind)
	}
	if be.Message != "invalid email or password" {
		t.Fatalf("expected server message preserved, got %q", be.Message)
	}
}

func TestGetProfileWithInvalidToken(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetProfile(context.Background(), "garbage.token.here")
	if !backend.IsKind(err, backend.KindCredential) {
		t.Fatalf("expected credential error, got %v", err)
	}
}

func TestVerifyIdentityRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Register(ctx, "amina@example.com", "password123", "Amina")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := client.VerifyIdentity(ctx, created.Token); err != nil {
		t.Fatalf("verify identity: %v", err)
	}

	profile, err := client.GetProfile(ctx, created.Token)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !profile.IdentityVerified {
		t.Fatalf("expected identity_verified after confirmation")
	}
}

func TestTransportErrorClassification(t *testing.T) {
	client := backend.NewClient("http://devbackend.local",
		backend.WithHTTPClient(&http.Client{Transport: failingTransport{}}))

	_, err := client.Login(context.Background(), "a@example.com", "password123")
	if !backend.IsKind(err, backend.KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
