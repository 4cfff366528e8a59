package bucketkit

import (
	"os"
	"testing"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    SessionConfig
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want: SessionConfig{
				DefaultMode:  "0777",
				AutoCleanup:  false,
				Returning:    false,
				SignedURLTTL: 900,
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"BUCKETKIT_DEFAULT_MODE":   "0644",
				"BUCKETKIT_AUTO_CLEANUP":   "true",
				"BUCKETKIT_RETURNING":      "true",
				"BUCKETKIT_SIGNED_URL_TTL": "60",
			},
			want: SessionConfig{
				DefaultMode:  "0644",
				AutoCleanup:  true,
				Returning:    true,
				SignedURLTTL: 60,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			t.Cleanup(func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			})

			got, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig: %v", err)
			}
			if *got != tt.want {
				t.Errorf("GetConfig() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
