package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitTracer(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		endpoint    string
	}{
		{"explicit endpoint", ServerServiceName, "localhost:4318"},
		{"default endpoint", WorkerServiceName, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, tt.serviceName, tt.endpoint)
			if err != nil {
				t.Fatalf("InitTracer() error = %v", err)
			}
			if err := Shutdown(ctx, tp); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("disabled", func(t *testing.T) {
		shutdown, err := Setup(ctx, false, ServerServiceName, "")
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := shutdown(ctx); err != nil {
			t.Errorf("noop shutdown error = %v", err)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		shutdown, err := Setup(ctx, true, ServerServiceName, "localhost:4318")
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := shutdown(ctx); err != nil {
			t.Errorf("shutdown error = %v", err)
		}
	})
}

func TestShutdownNil(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown() with nil provider should not error, got: %v", err)
	}
}
