// Package perf provides lightweight per-phase timing instrumentation for
// the compiler pipeline, logged through logrus at debug level so it stays
// silent by default and only shows up when ORUS_LOG_LEVEL=debug.
package perf

import (
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// Stats snapshots memory and wall-clock usage at a point in time, for
// comparison against a later snapshot.
type Stats struct {
	startTime time.Time
	startMem  uint64
	startGC   uint32
}

// Start captures the current memory and time baseline.
func Start() *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &Stats{startTime: time.Now(), startMem: m.TotalAlloc, startGC: m.NumGC}
}

// Log emits a debug-level line reporting elapsed time, bytes allocated, and
// GC cycles since Start, prefixed by phase.
func (s *Stats) Log(phase, file string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	log.WithFields(log.Fields{
		"phase":  phase,
		"file":   file,
		"allocB": m.TotalAlloc - s.startMem,
		"gcs":    m.NumGC - s.startGC,
	}).Debugf("%s took %s", phase, time.Since(s.startTime))
}

// SetLevel parses level (e.g. "debug", "info", "warn") and applies it to
// logrus's standard logger, falling back to info on an unrecognized value.
func SetLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
