package envstruct_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/loadcoach/internal/envstruct"
)

func TestPopulate(t *testing.T) {
	type serverConfig struct {
		Addr    string        `env:"LC_ADDR" envDefault:"localhost:8082"`
		Timeout time.Duration `env:"LC_TIMEOUT" envDefault:"2s"`
		Limit   int           `env:"LC_LIMIT" envDefault:"10"`
		Debug   bool          `env:"LC_DEBUG" envDefault:"false"`
		Ignored string
	}
	type required struct {
		DSN string `env:"LC_DSN"`
	}
	type unsupported struct {
		Ratio float64 `env:"LC_RATIO" envDefault:"0.5"`
	}

	tests := []struct {
		name      string
		v         any
		lookupEnv func(string) (string, bool)
		want      any
		wantErr   error
	}{
		{
			name:      "nil",
			v:         nil,
			lookupEnv: func(_ string) (string, bool) { return "", false },
			wantErr:   envstruct.ErrInvalidValue,
		},
		{
			name:      "not pointer",
			v:         serverConfig{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			wantErr:   envstruct.ErrInvalidValue,
		},
		{
			name:      "defaults",
			v:         &serverConfig{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			want:      &serverConfig{Addr: "localhost:8082", Timeout: 2 * time.Second, Limit: 10, Debug: false},
		},
		{
			name: "environment overrides defaults",
			v:    &serverConfig{},
			lookupEnv: func(key string) (string, bool) {
				values := map[string]string{
					"LC_ADDR":    "localhost:0",
					"LC_TIMEOUT": "150ms",
					"LC_LIMIT":   "3",
					"LC_DEBUG":   "true",
				}
				v, ok := values[key]
				return v, ok
			},
			want: &serverConfig{Addr: "localhost:0", Timeout: 150 * time.Millisecond, Limit: 3, Debug: true},
		},
		{
			name:      "required value missing",
			v:         &required{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			wantErr:   envstruct.ErrEnvNotSet,
		},
		{
			name:      "malformed int",
			v:         &serverConfig{},
			lookupEnv: func(key string) (string, bool) { return "ten", key == "LC_LIMIT" },
			wantErr:   envstruct.ErrInvalidValue,
		},
		{
			name:      "unsupported type",
			v:         &unsupported{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			wantErr:   envstruct.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := envstruct.Populate(tt.v, tt.lookupEnv)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Populate() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Populate() unexpected error = %v", err)
			}
			if diff := cmp.Diff(tt.want, tt.v); diff != "" {
				t.Errorf("Populate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LC_ADDR=localhost:9999\nLC_LIMIT=7\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	environment := func(key string) (string, bool) {
		if key == "LC_LIMIT" {
			return "4", true
		}
		return "", false
	}

	lookupEnv, err := envstruct.WithDotenv(path, environment)
	if err != nil {
		t.Fatalf("WithDotenv() error = %v", err)
	}

	if v, _ := lookupEnv("LC_ADDR"); v != "localhost:9999" {
		t.Errorf("LC_ADDR = %q, want value from the dotenv file", v)
	}
	if v, _ := lookupEnv("LC_LIMIT"); v != "4" {
		t.Errorf("LC_LIMIT = %q, want the environment to take precedence", v)
	}
	if _, ok := lookupEnv("LC_MISSING"); ok {
		t.Error("LC_MISSING should not be set")
	}

	t.Run("missing file", func(t *testing.T) {
		lookup, err := envstruct.WithDotenv(filepath.Join(dir, "nope.env"), environment)
		if err != nil {
			t.Fatalf("WithDotenv() error = %v", err)
		}
		if v, _ := lookup("LC_LIMIT"); v != "4" {
			t.Errorf("LC_LIMIT = %q, want 4", v)
		}
	})
}
