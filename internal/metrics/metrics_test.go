// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_CountersIncrement(t *testing.T) {
	r := New()
	r.FilesDiscovered.Add(3)
	r.FilesSkipped.WithLabelValues("test_file").Inc()
	r.WarningsEmitted.WithLabelValues("unused_def").Add(2)
	r.ErrorsEmitted.Inc()
	r.ObservePhase("extract", 10*time.Millisecond)

	if got := testutil.ToFloat64(r.FilesDiscovered); got != 3 {
		t.Errorf("expected files_discovered_total == 3, got %v", got)
	}
	if got := testutil.ToFloat64(r.FilesSkipped.WithLabelValues("test_file")); got != 1 {
		t.Errorf("expected files_skipped_total{reason=test_file} == 1, got %v", got)
	}
	if got := testutil.ToFloat64(r.WarningsEmitted.WithLabelValues("unused_def")); got != 2 {
		t.Errorf("expected warnings_emitted_total{type=unused_def} == 2, got %v", got)
	}
	if got := testutil.ToFloat64(r.ErrorsEmitted); got != 1 {
		t.Errorf("expected errors_emitted_total == 1, got %v", got)
	}
}
