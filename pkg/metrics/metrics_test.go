package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailMetricsExistAndIncrement(t *testing.T) {
	// Use a test label to avoid colliding with other tests
	lbl := "test-host"

	MailSent.WithLabelValues(lbl).Inc()
	if v := testutil.ToFloat64(MailSent.WithLabelValues(lbl)); v < 1 {
		t.Fatalf("expected MailSent >= 1, got %v", v)
	}

	MailFailed.WithLabelValues(lbl).Add(2)
	if v := testutil.ToFloat64(MailFailed.WithLabelValues(lbl)); v < 2 {
		t.Fatalf("expected MailFailed >= 2, got %v", v)
	}

	MailRendered.WithLabelValues(lbl).Inc()
	if v := testutil.ToFloat64(MailRendered.WithLabelValues(lbl)); v < 1 {
		t.Fatalf("expected MailRendered >= 1, got %v", v)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordsLoaded.WithLabelValues("scores").Add(3)
	path := filepath.Join(t.TempDir(), "gradenotify.prom")

	require.NoError(t, WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `gradenotify_records_loaded_total{mode="scores"}`)
	assert.Contains(t, string(content), "gradenotify_last_run_timestamp_seconds")
	assert.NotContains(t, string(content), "go_goroutines")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing-dir", "x.prom"))
	assert.Error(t, err)
}
