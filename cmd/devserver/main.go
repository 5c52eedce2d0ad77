package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arenahub/arena-client/internal/devserver"
	"github.com/arenahub/arena-client/pkg/types"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	addr := os.Getenv("DEVSERVER_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	srv := devserver.New(log)
	srv.SeedTournaments([]types.Tournament{
		{ID: 1, Name: "Spring Cup", Game: "valorant", Status: types.TournamentUpcoming,
			MaxParticipants: 16, StartsAt: time.Now().Add(48 * time.Hour)},
		{ID: 2, Name: "Weekly Ladder", Game: "lol", Status: types.TournamentLive,
			MaxParticipants: 64, StartsAt: time.Now()},
	})
	srv.SeedFantasyTeams([]types.FantasyTeam{
		{ID: 1, Name: "Dream Five", League: "LCS", Points: 120.5},
	})

	log.Info("devserver listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
