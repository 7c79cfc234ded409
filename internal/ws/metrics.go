package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	GameConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_game_connections",
		Help: "Currently open game-scoped websocket connections",
	})
	LobbyConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_lobby_connections",
		Help: "Currently open lobby-scoped websocket connections",
	})
	Broadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_broadcasts_total",
			Help: "Messages pushed to clients by type",
		},
		[]string{"type"},
	)
	HandshakeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_handshake_failures_total",
		Help: "Game connections dropped during the handshake",
	})
)

func init() {
	prometheus.MustRegister(GameConns)
	prometheus.MustRegister(LobbyConns)
	prometheus.MustRegister(Broadcasts)
	prometheus.MustRegister(HandshakeFailures)
}
