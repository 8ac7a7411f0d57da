package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/processor"
	"github.com/mauv0809/pong-ladder/internal/pubsub"
)

// MatchEventHandler receives Pub/Sub push deliveries of processor.MatchEvent
// and sends the matching notification. A nil pubsubClient decodes with the
// default codec.
func MatchEventHandler(proc *processor.Processor, pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	decode := pubsub.Decode
	if pubsubClient != nil {
		decode = pubsubClient.ProcessMessage
	}
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received match event", "body", string(bodyBytes))

		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"`
			} `json:"message"`
		}

		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		var ev processor.MatchEvent
		if err := decode(rawData, &ev); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		ev.DryRun = ev.DryRun || IsDryRunFromContext(r)
		if err := proc.HandleMatchEvent(r.Context(), ev); err != nil {
			log.Error("Failed to handle match event", "error", err, "type", ev.Type, "matchID", ev.Match.ID)
			http.Error(w, "Failed to handle match event", statusFor(err))
			return
		}
		w.Write([]byte("OK"))
	}
}
