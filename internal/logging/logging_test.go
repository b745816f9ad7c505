package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	cases := []struct {
		env       string
		wantDebug bool
		wantInfo  bool
	}{
		{"development", true, true},
		{"production", false, true},
		{"quiet", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupWithWriter(tc.env, &buf)
			logger.Debug().Msg("debug-line")
			logger.Info().Msg("info-line")
			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tc.wantDebug {
				t.Errorf("debug logged = %v, want %v: %q", got, tc.wantDebug, out)
			}
			if got := strings.Contains(out, "info-line"); got != tc.wantInfo {
				t.Errorf("info logged = %v, want %v: %q", got, tc.wantInfo, out)
			}
		})
	}
}
