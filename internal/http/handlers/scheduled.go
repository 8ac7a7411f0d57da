package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/processor"
)

// AuditHandler runs the ledger audit. It is called by the CLI and by
// external schedulers in addition to the in-process one.
func AuditHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting ledger audit...")
		report, err := processor.RunAudit(r.Context(), IsDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		log.Info("Ledger audit finished.", "players", report.Players, "matches", report.Matches, "drifts", len(report.Drifts))
		writeJSON(w, http.StatusOK, report)
	}
}
