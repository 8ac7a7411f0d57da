package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/mauv0809/pong-ladder/internal/processor"
)

type createPlayerRequest struct {
	Name           string  `json:"name"`
	StartingRating float64 `json:"starting_rating"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warn("Failed to decode request body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// ListPlayersHandler serves the ladder standings.
func ListPlayersHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		standings, err := processor.Ladder(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, standings)
	}
}

func CreatePlayerHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPlayerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := processor.CreatePlayer(r.Context(), req.Name, req.StartingRating)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Info("Player created", "id", p.ID, "name", p.Name, "startingRating", p.StartingRating)
		writeJSON(w, http.StatusCreated, p)
	}
}

func GetPlayerHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := processor.Player(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// PlayerHistoryHandler serves a player's rating trajectory. The path value
// may be an id or a name.
func PlayerHistoryHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := processor.PlayerStats(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats.History)
	}
}

func ListMatchesHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ledger.MatchFilter{PlayerID: r.URL.Query().Get("player")}
		matches, err := processor.Matches(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func SubmitMatchHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub ledger.Submission
		if !decodeBody(w, r, &sub) {
			return
		}
		dryRun := IsDryRunFromContext(r)
		res, err := processor.SubmitMatch(r.Context(), sub, dryRun)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusCreated
		if dryRun {
			status = http.StatusOK
		}
		writeJSON(w, status, res)
	}
}

func EditMatchHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub ledger.Submission
		if !decodeBody(w, r, &sub) {
			return
		}
		res, err := processor.EditMatch(r.Context(), r.PathValue("id"), sub, IsDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func DeleteMatchHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := processor.DeleteMatch(r.Context(), r.PathValue("id"), IsDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}
