package config

import (
	"context"
	"os"
	"testing"

	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/pkg/httpx"
)

func TestNewClient_DevelopmentSelectsFake(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	client, err := cfg.NewClient()
	if err != nil {
		t.Fatalf("NewClient() = %v, want nil", err)
	}
	if _, ok := client.(*httpx.FakeClient); !ok {
		t.Fatalf("NewClient() = %T, want *httpx.FakeClient in development", client)
	}
}

func TestNewClient_ProductionDialsRealBackend(t *testing.T) {
	os.Clearenv()
	os.Setenv("POSAUTH_ENV", "production")
	os.Setenv("POSAUTH_API_URL", "https://pos.example.com")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	client, err := cfg.NewClient()
	if err != nil {
		t.Fatalf("NewClient() = %v, want nil", err)
	}
	if _, ok := client.(*httpx.HTTPClient); !ok {
		t.Fatalf("NewClient() = %T, want *httpx.HTTPClient outside development", client)
	}
}

func TestNewCoordinator_DevLoginWorks(t *testing.T) {
	os.Clearenv()
	os.Setenv("POSAUTH_STORE", "memory")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	c, err := cfg.NewCoordinator()
	if err != nil {
		t.Fatalf("NewCoordinator() = %v, want nil", err)
	}

	if err := c.Login(context.Background(), models.Credentials{Username: "admin", Password: "admin123!"}); err != nil {
		t.Fatalf("Login against dev backend = %v, want nil", err)
	}
	if !c.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false after dev login")
	}
}
