package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultHTTPSConfig(t *testing.T) {
	config := DefaultHTTPSConfig()

	if config == nil {
		t.Fatal("expected non-nil config")
	}

	if config.MinTLSVersion != TLS12 {
		t.Errorf("expected MinTLSVersion TLS12, got %d", config.MinTLSVersion)
	}
	if config.MaxTLSVersion != TLS13 {
		t.Errorf("expected MaxTLSVersion TLS13, got %d", config.MaxTLSVersion)
	}
	if len(config.CipherSuites) == 0 {
		t.Error("expected CipherSuites to be set")
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("expected Timeout 30s, got %v", config.Timeout)
	}
	if config.IdleConnTimeout != 90*time.Second {
		t.Errorf("expected IdleConnTimeout 90s, got %v", config.IdleConnTimeout)
	}
}

func TestRecommendedTLS12CipherSuites(t *testing.T) {
	if len(RecommendedTLS12CipherSuites) == 0 {
		t.Error("expected recommended cipher suites to be defined")
	}

	// Check that all cipher suites are valid TLS 1.2 ECDHE suites
	for _, suite := range RecommendedTLS12CipherSuites {
		name := tls.CipherSuiteName(suite)
		if name == "" {
			t.Errorf("unknown cipher suite: %d", suite)
		}
	}
}

func TestNewHTTPSClient_NilConfig(t *testing.T) {
	client := NewHTTPSClient(nil)

	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.client == nil {
		t.Error("expected http.Client to be initialized")
	}
	if client.config == nil {
		t.Error("expected config to be set to default")
	}
}

func TestNewHTTPSClient_CustomConfig(t *testing.T) {
	config := &HTTPSConfig{
		MinTLSVersion:   TLS13,
		MaxTLSVersion:   TLS13,
		Timeout:         60 * time.Second,
		IdleConnTimeout: 120 * time.Second,
	}

	client := NewHTTPSClient(config)

	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.config.MinTLSVersion != TLS13 {
		t.Error("expected custom MinTLSVersion")
	}
	if client.config.Timeout != 60*time.Second {
		t.Error("expected custom Timeout")
	}
}

func TestHTTPSClient_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != contentType {
			t.Errorf("expected content-type '%s', got '%s'", contentType, ct)
		}
		if r.Header.Get("User-Agent") != "go-ebics/1.0" {
			t.Errorf("expected User-Agent 'go-ebics/1.0'")
		}

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<ebicsResponse/>"))
	}))
	defer server.Close()

	client := NewHTTPSClient(nil)

	response, err := client.Send(context.Background(), server.URL, []byte("<ebicsRequest/>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(response) != "<ebicsResponse/>" {
		t.Errorf("unexpected response: %s", string(response))
	}
}

func TestHTTPSClient_Send_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPSClient(nil)

	_, err := client.Send(context.Background(), server.URL, []byte("<ebicsRequest/>"))
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestHTTPSClient_Send_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := NewHTTPSClient(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Send(ctx, server.URL, []byte("<ebicsRequest/>"))
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
