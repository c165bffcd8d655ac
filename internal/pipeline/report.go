package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// AnalysisReport is the exportable plan produced by the analyze phase.
type AnalysisReport struct {
	RunID       string           `json:"run_id"`
	Mode        string           `json:"mode"`
	GeneratedAt time.Time        `json:"generated_at"`
	Fingerprint string           `json:"settings_fingerprint"`
	Settings    []string         `json:"settings"`
	Results     []AnalysisResult `json:"results"`

	TotalFiles    int   `json:"total_files"`
	Failed        int   `json:"failed"`
	Passthrough   int   `json:"passthrough"`
	CurrentSize   int64 `json:"current_size"`
	ProjectedSize int64 `json:"projected_size"`
}

// BuildAnalysisReport aggregates analysis results into a report. The
// aggregation is commutative: result order never changes the totals.
func (o *Optimizer) BuildAnalysisReport(results []AnalysisResult) AnalysisReport {
	report := AnalysisReport{
		RunID:       o.runID,
		Mode:        o.cfg.Mode,
		GeneratedAt: time.Now().UTC(),
		Fingerprint: o.cfg.Fingerprint(),
		Settings:    o.cfg.Export(),
		Results:     results,
		TotalFiles:  len(results),
	}
	for _, r := range results {
		if !r.OK() {
			report.Failed++
			continue
		}
		if r.Passthrough {
			report.Passthrough++
		}
		report.CurrentSize += r.FileSize
		report.ProjectedSize += r.ProjectedSize
	}
	return report
}

// WriteJSON writes the report to path with stable indentation.
func (r AnalysisReport) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// FormatSize renders a byte count in human-readable units.
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.2f TB", size)
}

// FormatDuration renders an elapsed time the way run summaries show it.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %.1fs", int(seconds)/60, seconds-float64(int(seconds)/60*60))
	default:
		h := int(seconds) / 3600
		m := (int(seconds) % 3600) / 60
		return fmt.Sprintf("%dh %dm %.0fs", h, m, seconds-float64(h*3600+m*60))
	}
}
