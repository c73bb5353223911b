package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hackhub/internal/config"
	"hackhub/internal/domain"
	"hackhub/internal/payment"
	"hackhub/internal/queue"
	"hackhub/internal/roster"
	"hackhub/internal/store"
)

// Worker consumes refund review messages and flags the affected teams for
// coordinator attention.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "hackhub:events")
	}

	teams := roster.NewService(roster.NewPostgresStore(db.Client, cfg.DBTimeout))

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != payment.MsgTeamReview {
			continue
		}

		var review payment.ReviewMessage
		if err := json.Unmarshal(msg.Body, &review); err != nil {
			log.Printf("bad review message: %v", err)
			continue
		}

		team, err := teams.TeamOfUser(ctx, review.HackathonID, review.UserID)
		if err != nil {
			if domain.IsKind(err, domain.KindNotFound) {
				// Refunded user was not on a team; nothing to review.
				continue
			}
			log.Printf("team lookup for user %s failed: %v", review.UserID, err)
			continue
		}

		reason := review.Reason
		if reason == "" {
			reason = "member registration refunded"
		}
		if err := teams.FlagForReview(ctx, team.ID, reason); err != nil {
			log.Printf("flag team %s failed: %v", team.ID, err)
			continue
		}
		log.Printf("team %s flagged for review (registration %s refunded)", team.ID, review.RegistrationID)
	}

	log.Println("worker stopped")
}
