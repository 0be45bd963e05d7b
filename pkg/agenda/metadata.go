package agenda

import (
	"regexp"
	"strings"
)

// Metadata is the session-level header information scraped from a grid:
// doctor, specialty and schedule date. Absent fields stay empty; the caller
// supplies its own fallbacks.
type Metadata struct {
	Doctor    string `json:"doctor,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	Date      string `json:"date,omitempty"`
}

// DetectMetadata folds the three label-anchored detections over the rows.
// Each field is detected at most once; the first matching row wins, so
// re-running over the same grid always yields the same snapshot.
func (e *Extractor) DetectMetadata(rows []Row) Metadata {
	var meta Metadata
	for _, row := range rows {
		e.applyMetadata(&meta, row)
	}
	return meta
}

func (e *Extractor) applyMetadata(meta *Metadata, row Row) {
	c := e.compiled

	if meta.Doctor == "" && containsAny(row.Flat, c.rules.DoctorLabels) {
		if value := labeledValue(row, c.doctorRe); value != "" {
			// The doctor cell often carries trailing room or schedule info
			// after a pipe or hyphen.
			if idx := strings.IndexAny(value, "|-"); idx >= 0 {
				value = value[:idx]
			}
			meta.Doctor = strings.TrimSpace(value)
		}
	}

	if meta.Specialty == "" && containsAny(row.Flat, c.rules.SpecialtyLabels) {
		if value := labeledValue(row, c.specialtyRe); value != "" {
			meta.Specialty = strings.TrimSpace(value)
		}
	}

	if meta.Date == "" && containsAny(row.Flat, c.rules.DateLabels) {
		if m := c.dateRe.FindStringSubmatch(row.Flat); len(m) > 1 {
			// Source convention is day-month-year; normalize to calendar
			// order.
			parts := strings.Split(strings.ReplaceAll(m[1], "-", "/"), "/")
			if len(parts) == 3 {
				meta.Date = parts[2] + "-" + parts[1] + "-" + parts[0]
			}
		}
	}
}

// labeledValue prefers a match within a single cell so a row carrying both
// the doctor and specialty cells does not bleed one value into the other,
// then falls back to the joined row for labels split across cells.
func labeledValue(row Row, re *regexp.Regexp) string {
	for _, cell := range row.Cells {
		if m := re.FindStringSubmatch(cell); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return m[1]
		}
	}
	if m := re.FindStringSubmatch(row.Raw); len(m) > 1 {
		return m[1]
	}
	return ""
}
