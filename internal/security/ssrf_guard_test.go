package security

import (
	"testing"
	"time"
)

func TestValidateURL_AllowsPublicHTTPS(t *testing.T) {
	guard := NewSSRFGuard()

	allowed := []string{
		"https://cdn.auth0.com/avatars/pa.png",
		"http://example.com/image.jpg",
		"https://93.184.216.34/photo.png",
	}
	for _, rawURL := range allowed {
		if err := guard.ValidateURL(rawURL); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", rawURL, err)
		}
	}
}

func TestValidateURL_BlocksDangerousURLs(t *testing.T) {
	guard := NewSSRFGuard()

	cases := []struct {
		name   string
		rawURL string
	}{
		{"empty URL", ""},
		{"file scheme", "file:///etc/passwd"},
		{"ftp scheme", "ftp://example.com/a.png"},
		{"localhost", "http://localhost/avatar.png"},
		{"localhost uppercase", "http://LOCALHOST/avatar.png"},
		{"loopback IP", "http://127.0.0.1/avatar.png"},
		{"private 10.x", "http://10.0.0.5/avatar.png"},
		{"private 172.16.x", "http://172.16.0.1/avatar.png"},
		{"private 192.168.x", "http://192.168.1.10/avatar.png"},
		{"cloud metadata IP", "http://169.254.169.254/latest/meta-data/"},
		{"current network", "http://0.0.0.0/avatar.png"},
		{"IPv6 loopback", "http://[::1]/avatar.png"},
		{"IPv6 link local", "http://[fe80::1]/avatar.png"},
		{"IPv6 unique local", "http://[fd00::1]/avatar.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := guard.ValidateURL(tc.rawURL); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tc.rawURL)
			}
		})
	}
}

func TestNewSafeClient_ReturnsConfiguredClient(t *testing.T) {
	guard := NewSSRFGuard()

	client := guard.NewSafeClient(10*time.Second, 5<<20)
	if client == nil {
		t.Fatal("NewSafeClient() returned nil")
	}
	if client.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", client.Timeout)
	}
}
