package version

import (
	"testing"
	"time"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GitCommit == "" {
		t.Error("GitCommit should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
	if info.Platform == "" {
		t.Error("Platform should not be empty")
	}
	if !info.BuildTime.IsZero() {
		t.Error("BuildTime should stay zero for an unparsable BuildDate")
	}
}

func TestGetBuildInfo_ParsesValidDate(t *testing.T) {
	originalBuildDate := BuildDate
	defer func() { BuildDate = originalBuildDate }()

	validDate := "2026-01-13T20:00:00Z"
	BuildDate = validDate

	info := GetBuildInfo()
	expectedTime, _ := time.Parse(time.RFC3339, validDate)
	if !info.BuildTime.Equal(expectedTime) {
		t.Errorf("BuildTime = %v, want %v", info.BuildTime, expectedTime)
	}
}

func TestMailer(t *testing.T) {
	originalVersion := Version
	defer func() { Version = originalVersion }()

	Version = "1.2.0"
	if got := Mailer(); got != "gradenotify/1.2.0" {
		t.Errorf("Mailer() = %q, want %q", got, "gradenotify/1.2.0")
	}
}
