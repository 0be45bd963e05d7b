package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	recordsCreated    atomic.Int64
	movementsApplied  atomic.Int64
	conflictsDetected atomic.Int64
	extractionRuns    atomic.Int64
	extractionEmpty   atomic.Int64
	entriesExtracted  atomic.Int64
	entriesFailed     atomic.Int64
)

func IncRecordsCreated()   { recordsCreated.Add(1) }
func IncMovementsApplied() { movementsApplied.Add(1) }

func AddConflictsDetected(n int) { conflictsDetected.Add(int64(n)) }

func ObserveExtraction(entries int) {
	extractionRuns.Add(1)
	if entries == 0 {
		extractionEmpty.Add(1)
		return
	}
	entriesExtracted.Add(int64(entries))
}

func IncEntriesFailed() { entriesFailed.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeCounter(w, "prontrack_records_created_total", "Records created, manually or by schedule reconciliation.", recordsCreated.Load())
	writeCounter(w, "prontrack_movements_applied_total", "Movement log entries appended (moves, corrections, reverts).", movementsApplied.Load())
	writeCounter(w, "prontrack_conflicts_detected_total", "Agenda entries flagged as location conflicts.", conflictsDetected.Load())
	writeCounter(w, "prontrack_extraction_runs_total", "Agenda grids submitted for extraction.", extractionRuns.Load())
	writeCounter(w, "prontrack_extraction_empty_total", "Extraction runs that matched zero patient rows.", extractionEmpty.Load())
	writeCounter(w, "prontrack_entries_extracted_total", "Appointment entries produced by extraction.", entriesExtracted.Load())
	writeCounter(w, "prontrack_entries_failed_total", "Appointment entries that failed during reconciliation.", entriesFailed.Load())
}

func writeCounter(w http.ResponseWriter, name, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, value)
}
