package i18n

import (
	"testing"
)

func TestChineseLocale(t *testing.T) {
	Init("zh-Hans")

	tests := []struct {
		id     string
		def    string
		wantZh string
	}{
		{"common.time.justNow", "just now", "刚刚"},
		{"render.noSessions", "No sessions found.", "未找到会话。"},
		{"render.timeline.today", "Today", "今天"},
		{"render.detail.project", "Project", "项目"},
		{"adapters.installed", "installed", "已安装"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := T(tt.id, tt.def)
			if got != tt.wantZh {
				t.Errorf("T(%q) = %q, want %q", tt.id, got, tt.wantZh)
			}
		})
	}
}

func TestEnglishDoesNotReturnChinese(t *testing.T) {
	Init("en")

	got := T("render.noSessions", "No sessions found.")
	if got != "No sessions found." {
		t.Errorf("English T(render.noSessions) = %q, want %q", got, "No sessions found.")
	}
}

func TestLocaleSwitch(t *testing.T) {
	// Start with English
	Init("en")
	en := T("render.detail.project", "Project")
	if en != "Project" {
		t.Errorf("English detail.project = %q, want %q", en, "Project")
	}

	// Switch to Chinese
	Init("zh-Hans")
	zh := T("render.detail.project", "Project")
	if zh != "项目" {
		t.Errorf("Chinese detail.project = %q, want %q", zh, "项目")
	}

	// Switch back to English
	Init("en")
	en2 := T("render.detail.project", "Project")
	if en2 != "Project" {
		t.Errorf("English detail.project after switch = %q, want %q", en2, "Project")
	}
}

func TestUntranslatedKeyFallsBack(t *testing.T) {
	Init("zh-Hans")

	// Use a key that definitely isn't in zh-Hans.toml
	got := T("some.untranslated.key", "English fallback")
	if got != "English fallback" {
		t.Errorf("untranslated key = %q, want %q", got, "English fallback")
	}
}
