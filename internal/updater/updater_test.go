package updater

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- isNewer ---

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"0.1.0", "0.2.0", true},
		{"0.2.0", "0.1.0", false},
		{"1.0.0", "1.0.0", false},
		{"0.9.0", "0.10.0", true},
		{"1.2", "1.2.1", true},
		{"dev", "1.0.0", false},
		{"", "1.0.0", false},
		{"1.0.0", "", false},
		{"1.9.9", "2.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.latest, func(t *testing.T) {
			if got := isNewer(tt.current, tt.latest); got != tt.want {
				t.Errorf("isNewer(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

// --- CheckVersion ---

// withEndpoint points the updater at a test server for one test.
func withEndpoint(t *testing.T, url string) {
	t.Helper()
	orig := releaseEndpoint
	releaseEndpoint = url
	t.Cleanup(func() { releaseEndpoint = orig })
}

func TestCheckVersion_UpdateAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v0.5.0", "html_url": "https://example.com/release"}`))
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	result := CheckVersion("0.4.0")
	if !result.UpdateAvailable {
		t.Error("UpdateAvailable = false, want true")
	}
	if result.LatestVersion != "0.5.0" {
		t.Errorf("LatestVersion = %s, want 0.5.0", result.LatestVersion)
	}
	if result.ReleaseURL != "https://example.com/release" {
		t.Errorf("ReleaseURL = %s", result.ReleaseURL)
	}
}

func TestCheckVersion_AlreadyLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v0.4.0"}`))
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	if result := CheckVersion("0.4.0"); result.UpdateAvailable {
		t.Error("UpdateAvailable = true for equal versions")
	}
}

func TestCheckVersion_APIFailure_Silent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	result := CheckVersion("0.4.0")
	if result.UpdateAvailable {
		t.Error("UpdateAvailable = true on API failure")
	}
	if result.CurrentVersion != "0.4.0" {
		t.Errorf("CurrentVersion = %s, want 0.4.0 even on failure", result.CurrentVersion)
	}
}

func TestCheckVersion_DevBuild_NeverUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v99.0.0"}`))
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	if result := CheckVersion("dev"); result.UpdateAvailable {
		t.Error("dev builds must not report updates")
	}
}
