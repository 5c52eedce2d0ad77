// arenactl is a small headless client: it logs in, syncs the caches, opens
// the live notifications channel and prints store updates as they arrive.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arenahub/arena-client/internal/client"
	"github.com/arenahub/arena-client/internal/config"
	"github.com/arenahub/arena-client/internal/creds"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := creds.NewFileStore(creds.DefaultPath())
	c := client.New(ctx, client.Options{
		Config: config.FromEnv(),
		Creds:  store,
		Logger: log,
	})
	defer c.Close()

	if user := os.Getenv("ARENA_USERNAME"); user != "" {
		if err := c.Login(ctx, user, os.Getenv("ARENA_PASSWORD")); err != nil {
			log.Fatal("login failed", zap.Error(err))
		}
	}
	if _, ok := store.CurrentToken(); !ok {
		log.Fatal("no credentials; set ARENA_USERNAME/ARENA_PASSWORD or log in first")
	}
	if !store.HasVisited() {
		log.Info("first run, welcome")
		_ = store.MarkVisited()
	}

	if err := c.SyncNotifications(ctx); err != nil {
		log.Warn("notification sync failed", zap.Error(err))
	}
	if err := c.SyncTournaments(ctx); err != nil {
		log.Warn("tournament sync failed", zap.Error(err))
	}

	c.ConnectLive()

	updates, cancel := c.Store().Watch()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			log.Info("store update",
				zap.Int("notifications", len(snap.Notifications)),
				zap.Int("unread", snap.UnreadCount),
				zap.Int("tournaments", len(snap.Tournaments)),
			)
		}
	}
}
