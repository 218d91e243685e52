package cli

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		hostPort string
		secure   bool
	}{
		{"http://collector", "collector:80", false},
		{"http://collector:4317", "collector:4317", false},
		{"https://otel.example.com", "otel.example.com:443", true},
		{"https://otel.example.com:8443", "otel.example.com:8443", true},
		{"localhost:4317", "localhost:4317", true},
	}
	for _, tt := range tests {
		hostPort, secure := splitEndpoint(tt.endpoint)
		if hostPort != tt.hostPort || secure != tt.secure {
			t.Errorf("splitEndpoint(%q) = %q, %v; want %q, %v", tt.endpoint, hostPort, secure, tt.hostPort, tt.secure)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("Authorization=Bearer abc, x-team = graph ,bad key=1,novalue,=empty")
	want := map[string]string{
		"authorization": "Bearer abc",
		"x-team":        "graph",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseHeaders = %v, want %v", got, want)
	}
	if len(parseHeaders("")) != 0 {
		t.Error("empty header string should yield no headers")
	}
}

func TestSetupTracingDisabled(t *testing.T) {
	t.Setenv(envOTLPEndpoint, "")

	shutdown, err := SetupTracing(context.Background(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("SetupTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestExporterOptions(t *testing.T) {
	plain := exporterOptions("http://collector:4317", nil)
	withHeaders := exporterOptions("https://collector", map[string]string{"x-team": "graph"})
	if len(withHeaders) != len(plain)+1 {
		t.Errorf("headers should add one option: %d vs %d", len(withHeaders), len(plain))
	}
}
