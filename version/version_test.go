package version

import (
	"strings"
	"testing"
)

func TestGetPrefersLinkTimeValues(t *testing.T) {
	orig := [3]string{Version, GitCommit, BuildTime}
	t.Cleanup(func() { Version, GitCommit, BuildTime = orig[0], orig[1], orig[2] })

	Version, GitCommit, BuildTime = "1.2.0", "abcdef0123", "2026-01-02T03:04:05Z"
	info := Get()
	if info.Version != "1.2.0" || info.GitCommit != "abcdef0" || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("Get() = %+v", info)
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("Short(%+v) = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	s := Info{Version: "1.0.0", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.26.0"}.String()
	for _, part := range []string{"1.0.0", "built 2026-01-02T03:04:05Z", "go1.26.0"} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}
