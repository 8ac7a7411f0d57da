package http

import (
	"net/http"

	"github.com/mauv0809/pong-ladder/internal/config"
	"github.com/mauv0809/pong-ladder/internal/http/handlers"
	"github.com/mauv0809/pong-ladder/internal/metrics"
	"github.com/mauv0809/pong-ladder/internal/notifier"
	"github.com/mauv0809/pong-ladder/internal/processor"
	"github.com/mauv0809/pong-ladder/internal/pubsub"
)

func NewServer(metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, processor *processor.Processor, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Processor:      processor,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	slackAuth := slackVerifierMiddleware(s.Cfg.SlackSigningSecret)

	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(handlers.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("GET /players", Chain(handlers.ListPlayersHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /players", Chain(handlers.CreatePlayerHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("GET /players/{id}", Chain(handlers.GetPlayerHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("GET /players/{id}/history", Chain(handlers.PlayerHistoryHandler(s.Processor), paramsMiddleware))

	s.Router.Handle("GET /matches", Chain(handlers.ListMatchesHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /matches", Chain(handlers.SubmitMatchHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("PUT /matches/{id}", Chain(handlers.EditMatchHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("DELETE /matches/{id}", Chain(handlers.DeleteMatchHandler(s.Processor), paramsMiddleware))

	s.Router.Handle("GET /audit", Chain(handlers.AuditHandler(s.Processor), paramsMiddleware))

	s.Router.Handle("POST /slack/command/ladder", Chain(handlers.LadderCommandHandler(s.Processor, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/player-stats", Chain(handlers.PlayerStatsCommandHandler(s.Processor, s.Notifier), paramsMiddleware, slackAuth))

	s.Router.Handle("POST /events/match", Chain(handlers.MatchEventHandler(s.Processor, s.pubsub), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
