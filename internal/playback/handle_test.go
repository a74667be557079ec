package playback

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/faiface/beep"
	"go.uber.org/zap"

	"codeberg.org/snonux/slovnyk/internal/tts"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SLOVNYK_PLAYER_BACKEND", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.SampleRate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", cfg.SampleRate)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("Expected fetch timeout 15s, got %s", cfg.FetchTimeout)
	}

	t.Setenv("SLOVNYK_PLAYER_BACKEND", "beep")
	t.Setenv("SLOVNYK_PLAYER_VOLUME_DB", "-3.5")
	t.Setenv("SLOVNYK_PLAYER_FETCH_TIMEOUT", "2s")

	cfg, err = ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.Backend != "beep" {
		t.Errorf("Expected backend beep, got %s", cfg.Backend)
	}
	if cfg.VolumeDB != -3.5 {
		t.Errorf("Expected volume -3.5, got %f", cfg.VolumeDB)
	}
	if cfg.FetchTimeout != 2*time.Second {
		t.Errorf("Expected fetch timeout 2s, got %s", cfg.FetchTimeout)
	}
}

func TestConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("SLOVNYK_PLAYER_SAMPLE_RATE", "fast")

	if _, err := ConfigFromEnv(); err == nil {
		t.Error("Expected error for invalid sample rate")
	}
}

func TestNewOpener(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{"default", "", false},
		{"exec", "exec", false},
		{"beep", "beep", false},
		{"unknown", "pulse", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOpener(&Config{Backend: tt.backend}, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewOpener() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "unknown player backend") {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if o == nil {
				t.Error("Expected an opener")
			}
		})
	}
}

func TestGainInDecibels(t *testing.T) {
	tests := []struct {
		db   float64
		want float64
	}{
		{0, 1},
		{-20, 0.1},
		{-6, 0.501},
		{20, 10},
	}

	for _, tt := range tests {
		full := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
			for i := range samples {
				samples[i] = [2]float64{1, 1}
			}
			return len(samples), true
		})

		samples := make([][2]float64, 4)
		withGain(full, tt.db).Stream(samples)
		if got := samples[0][0]; math.Abs(got-tt.want) > 0.001 {
			t.Errorf("Gain of %v dB = %f, want %f", tt.db, got, tt.want)
		}
	}
}

func TestBeepFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "slovnyk-test" {
			t.Errorf("Unexpected user agent: %s", r.Header.Get("User-Agent"))
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("this is not an mp3 stream"))
	}))
	defer server.Close()

	o := NewBeepOpener(&Config{UserAgent: "slovnyk-test"}, zap.NewNop().Sugar())

	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"not found", "/missing", "unexpected status 404"},
		{"not decodable", "/garbage", "failed to decode clip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := o.fetch(context.Background(), tts.Locator(server.URL+tt.path))
			if err == nil {
				t.Fatal("Expected fetch error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}
