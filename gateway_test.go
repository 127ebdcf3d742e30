package gateway

import (
	"errors"
	"log/slog"
	"testing"
)

func TestErrorExportAliases(t *testing.T) {
	err := NotAuthorized("token expired")

	var apiErr *Error
	if !errors.As(error(err), &apiErr) {
		t.Fatalf("expected alias to unwrap to *Error, got %T", err)
	}
	if apiErr.StatusCode() != 401 {
		t.Fatalf("expected status 401, got %d", apiErr.StatusCode())
	}

	serialized := apiErr.Serialize()
	if serialized.Message != "token expired" || serialized.Status != "error" {
		t.Fatalf("unexpected serialized form: %#v", serialized)
	}
}

func TestEncodingExportAliases(t *testing.T) {
	payload := map[string]string{"hello": "world"}
	if _, err := Marshal(payload); err != nil {
		t.Fatalf("marshal alias failed: %v", err)
	}
	if err := Unmarshal([]byte(`{"hello":"world"}`), &payload); err != nil {
		t.Fatalf("unmarshal alias failed: %v", err)
	}
}

func TestLoggerExports(t *testing.T) {
	logger := NewSlogServiceLogger(slog.New(slog.DiscardHandler))
	logger.Info("boot", LogFields{"component": "test"})

	adapter := NewWatermillAdapter(logger)
	if adapter == nil {
		t.Fatal("expected watermill adapter instance")
	}
}

func TestIDExports(t *testing.T) {
	if NewULID() == NewULID() {
		t.Fatal("expected distinct ULIDs from consecutive calls")
	}
	if NewInstanceID() == "" {
		t.Fatal("expected non-empty instance id")
	}
}

func TestHubExport(t *testing.T) {
	h := NewHub(NewSlogServiceLogger(slog.New(slog.DiscardHandler)))
	if h == nil {
		t.Fatal("expected hub instance")
	}
}

func TestConstantExports(t *testing.T) {
	if ListenPort != 3001 {
		t.Fatalf("expected listen port 3001, got %d", ListenPort)
	}
	if MaxBodyBytes != 50<<20 {
		t.Fatalf("expected 50mb body cap, got %d", MaxBodyBytes)
	}
	if BroadcastTopic != "chatwire.broadcast" {
		t.Fatalf("unexpected broadcast topic %q", BroadcastTopic)
	}
}
