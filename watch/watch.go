// Package watch times the phases of a generation run and writes a small
// report next to the generated sources.
package watch

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gdbind.watch")

// Lap is one recorded phase.
type Lap struct {
	Phase    string
	Duration time.Duration
}

// Watch records phase durations. It is not safe for concurrent use.
type Watch struct {
	ID    string
	start time.Time
	last  time.Time
	laps  []Lap
	now   func() time.Time
}

// Start returns a running watch with a fresh run id.
func Start() *Watch {
	return start(time.Now)
}

func start(now func() time.Time) *Watch {
	t := now()
	return &Watch{ID: uuid.NewString(), start: t, last: t, now: now}
}

// Record closes the current phase under the given name.
func (w *Watch) Record(phase string) {
	t := w.now()
	w.laps = append(w.laps, Lap{Phase: phase, Duration: t.Sub(w.last)})
	w.last = t
}

// Laps returns the recorded phases in order.
func (w *Watch) Laps() []Lap {
	return append([]Lap(nil), w.laps...)
}

// Total is the time from Start to the last Record.
func (w *Watch) Total() time.Duration {
	return w.last.Sub(w.start)
}

// Report renders the laps as a table.
func (w *Watch) Report() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "run %s\n", w.ID)
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"PHASE", "DURATION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, lap := range w.laps {
		table.Append([]string{lap.Phase, lap.Duration.String()})
	}
	table.SetFooter([]string{"total", w.Total().String()})
	table.Render()
	return buf.String()
}

// WriteStatsTo writes the report to path. Failures are logged, not returned.
func (w *Watch) WriteStatsTo(path string) {
	if err := os.WriteFile(path, []byte(w.Report()), 0o644); err != nil {
		log.Warningf("writing stats to %s: %v", path, err)
		return
	}
	log.Debugf("stats written to %s", path)
}
