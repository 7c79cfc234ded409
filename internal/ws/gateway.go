package ws

import "pubgames_tictactoe/internal/domain"

// Gateway bundles the two connection scopes behind the single notifier
// surface the services publish through.
type Gateway struct {
	Games *GameManager
	Lobby *LobbyManager
}

func NewGateway(games *GameManager, lobby *LobbyManager) *Gateway {
	return &Gateway{Games: games, Lobby: lobby}
}

func (g *Gateway) GameUpdated(game *domain.Game) { g.Games.GameUpdated(game) }
func (g *Gateway) GameEnded(game *domain.Game)   { g.Games.GameEnded(game) }

func (g *Gateway) ChallengeReceived(opponentID int64, ch *domain.Challenge) {
	g.Lobby.ChallengeReceived(opponentID, ch)
}

func (g *Gateway) ChallengeAccepted(requesterID, opponentID int64, game *domain.Game) {
	g.Lobby.ChallengeAccepted(requesterID, opponentID, game)
}

func (g *Gateway) ChallengeResolved(requesterID, challengeID int64, status domain.OfferStatus) {
	g.Lobby.ChallengeResolved(requesterID, challengeID, status)
}

func (g *Gateway) BroadcastUserOffline(userID int64, userName string) {
	g.Lobby.BroadcastUserOffline(userID, userName)
}
