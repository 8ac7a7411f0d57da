package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/notifier"
	"github.com/mauv0809/pong-ladder/internal/processor"
)

// respondWithSlackMsg is a helper to write a formatted Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg any) {
	writeJSON(w, http.StatusOK, msg)
}

func LadderCommandHandler(proc *processor.Processor, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		standings, err := proc.Ladder(r.Context())
		if err != nil {
			http.Error(w, "Failed to get ladder", http.StatusInternalServerError)
			log.Error("Failed to get ladder", "error", err)
			return
		}

		msg, err := notifier.FormatLadderResponse(standings)
		if err != nil {
			http.Error(w, "Failed to format ladder", http.StatusInternalServerError)
			log.Error("Failed to format ladder", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}

func PlayerStatsCommandHandler(proc *processor.Processor, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		query := strings.TrimSpace(r.FormValue("text"))
		if query == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		log.Info("Received player stats command", "player", query)
		stats, err := proc.PlayerStats(r.Context(), query)
		var msg any
		var nf *processor.PlayerNotFound
		switch {
		case errors.As(err, &nf):
			log.Warn("Could not find player", "player", query)
			msg, err = notifier.FormatPlayerNotFoundResponse(query, nf.Names())
		case err != nil:
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats", "error", err)
			return
		default:
			msg, err = notifier.FormatPlayerStatsResponse(stats)
		}

		if err != nil {
			http.Error(w, "Failed to format player stats", http.StatusInternalServerError)
			log.Error("Failed to format player stats", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}
