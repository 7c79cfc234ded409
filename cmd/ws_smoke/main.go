package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"pubgames_tictactoe/internal/client"
	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/service"
	"pubgames_tictactoe/internal/ws"

	"github.com/jonboulle/clockwork"
)

// Exercises the full protocol against a locally running server: heartbeat,
// challenge, accept, game websocket handshake, a scripted first-to-1 round.
func main() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "30041"
	}
	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	service.InitJWT()
	tokenA, err := service.GenerateJWT(9001, "smokeA")
	if err != nil {
		log.Fatalf("gen token A: %v", err)
	}
	tokenB, err := service.GenerateJWT(9002, "smokeB")
	if err != nil {
		log.Fatalf("gen token B: %v", err)
	}

	apiA := client.NewAPIClient(base, tokenA)
	apiB := client.NewAPIClient(base, tokenB)
	ctx := context.Background()

	// both online
	if err := apiA.Heartbeat(ctx, false); err != nil {
		log.Fatalf("heartbeat A: %v", err)
	}
	if err := apiB.Heartbeat(ctx, false); err != nil {
		log.Fatalf("heartbeat B: %v", err)
	}

	ch, err := apiA.CreateChallenge(ctx, client.ChallengeRequest{
		OpponentID: 9002,
		Mode:       "normal",
		FirstTo:    1,
	})
	if err != nil {
		log.Fatalf("create challenge: %v", err)
	}
	log.Printf("challenge %d sent", ch.ID)

	game, err := apiB.RespondChallenge(ctx, ch.ID, true)
	if err != nil {
		log.Fatalf("accept challenge: %v", err)
	}
	log.Printf("game %d started", game.ID)

	clock := clockwork.NewRealClock()
	dial := func(who string, token string) *client.GameConn {
		url := fmt.Sprintf("ws://127.0.0.1:%s/api/ws/game/%d?token=%s", port, game.ID, token)
		gc := client.NewGameConn(url, nil, clock)
		gc.OnState = func(s client.ConnState) { log.Printf("%s state: %s", who, s) }
		gc.OnMessage = func(m ws.Inbound) { log.Printf("%s got: %s", who, m.Type) }
		gc.Connect()
		return gc
	}

	connA := dial("A", tokenA)
	defer connA.Close()
	connB := dial("B", tokenB)
	defer connB.Close()

	waitConnected := func(who string, gc *client.GameConn) {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if gc.State() == client.StateConnected {
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
		log.Fatalf("%s never reached connected, state=%s", who, gc.State())
	}
	waitConnected("A", connA)
	waitConnected("B", connB)

	// diagonal win for A (X): 0, 4, 8 against B's 1, 2
	script := []struct {
		api *client.APIClient
		pos int
	}{
		{apiA, 0}, {apiB, 1}, {apiA, 4}, {apiB, 2}, {apiA, 8},
	}
	var last *domain.MoveResult
	for _, step := range script {
		last, err = step.api.Move(ctx, game.ID, step.pos)
		if err != nil {
			log.Fatalf("move %d: %v", step.pos, err)
		}
	}

	if !last.SeriesOver || last.Game.WinnerID == nil || *last.Game.WinnerID != 9001 {
		log.Fatalf("unexpected result: %+v", last)
	}

	time.Sleep(500 * time.Millisecond) // let broadcasts land
	log.Println("smoke test finished: A won the series")
}
