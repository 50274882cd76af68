package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"city-parking/internal/logging"
	"city-parking/internal/parking"
)

// Record is one slot in the exported file.
type Record struct {
	SlotID   string `json:"slotId"`
	Floor    int    `json:"floor"`
	Distance int    `json:"distance"`
	Occupied bool   `json:"occupied"`
	Vehicle  string `json:"vehicle"`
}

// Source is the part of the parking service the exporter reads.
type Source interface {
	Slots() []parking.SlotStatus
	Changes() <-chan struct{}
}

// Exporter mirrors the slot map to a JSON file for the web dashboard.
type Exporter struct {
	source   Source
	path     string
	interval time.Duration
}

func NewExporter(source Source, path string, interval time.Duration) *Exporter {
	return &Exporter{
		source:   source,
		path:     path,
		interval: interval,
	}
}

func Records(slots []parking.SlotStatus) []Record {
	records := make([]Record, 0, len(slots))
	for _, s := range slots {
		records = append(records, Record{
			SlotID:   s.SlotID,
			Floor:    s.Floor,
			Distance: s.Distance,
			Occupied: s.Occupied,
			Vehicle:  s.Plate,
		})
	}
	return records
}

// Export writes the current slot map once.
func (e *Exporter) Export() error {
	data, err := json.MarshalIndent(Records(e.source.Slots()), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeAtomic(e.path, data)
}

// Run exports at start, after every change signal and on every tick of
// the interval (when positive) until ctx is done. Write failures are
// logged and retried on the next trigger.
func (e *Exporter) Run(ctx context.Context) error {
	e.exportAndLog(ctx, "start")

	var tick <-chan time.Time
	if e.interval > 0 {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.source.Changes():
			e.exportAndLog(ctx, "change")
		case <-tick:
			e.exportAndLog(ctx, "interval")
		}
	}
}

func (e *Exporter) exportAndLog(ctx context.Context, trigger string) {
	if err := e.Export(); err != nil {
		logging.Error(ctx, "snapshot export failed", "path", e.path, "trigger", trigger, "error", err)
		return
	}
	logging.Debug(ctx, "snapshot exported", "path", e.path, "trigger", trigger)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
