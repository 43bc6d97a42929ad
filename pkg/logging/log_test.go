package logging

import (
	"net/http/httptest"
	"testing"
)

func TestSafeHeadersRedaction(t *testing.T) {
	r := httptest.NewRequest("GET", "/users", nil)
	r.Header.Set("Authorization", "Bearer secret-token")
	r.Header.Set("X-Api-Key", "k-123")
	r.Header.Set("Cookie", "session=abc")
	r.Header.Set("X-Role-Name", "admin")

	h := SafeHeaders(r)
	for _, k := range []string{"Authorization", "X-Api-Key", "Cookie"} {
		if h[k] != "<redacted>" {
			t.Fatalf("%s not redacted: %q", k, h[k])
		}
	}
	if h["X-Role-Name"] != "admin" {
		t.Fatalf("non-sensitive header mangled: %q", h["X-Role-Name"])
	}
}
