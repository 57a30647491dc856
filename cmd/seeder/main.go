package main

import (
	"context"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/skillswap/internal/database"
	"github.com/mauv0809/skillswap/internal/directory"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/metrics"
	"github.com/mauv0809/skillswap/internal/notifier"
)

const numNegotiations = 200

var (
	seedUsers = map[string]string{
		"seed-user-1": "Seeder Ada",
		"seed-user-2": "Seeder Grace",
		"seed-user-3": "Seeder Linus",
		"seed-user-4": "Seeder Barbara",
		"seed-user-5": "Seeder Ken",
	}
	seedSkills = map[string]string{
		"seed-skill-guitar":  "Guitar",
		"seed-skill-pottery": "Pottery",
		"seed-skill-spanish": "Spanish",
		"seed-skill-chess":   "Chess",
	}
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":           "skillswap.db",
		"TURSO_PRIMARY_URL": "",
		"TURSO_AUTH_TOKEN":  "",
		"REDIS_ADDR":        "localhost:6379",
		"REDIS_PASSWORD":    "",
		"REDIS_DB":          "0",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			config[key] = value
		}
	}
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()
	ctx := context.Background()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()

	redisDB, err := strconv.Atoi(cfg["REDIS_DB"])
	if err != nil {
		log.Fatalf("Invalid REDIS_DB: %s", err)
	}
	redisClient, err := directory.NewRedisClient(ctx, cfg["REDIS_ADDR"], cfg["REDIS_PASSWORD"], redisDB)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %s", err)
	}
	defer redisClient.Close()
	names := directory.New(redisClient)

	for id, name := range seedUsers {
		if err := names.PutUser(ctx, id, name); err != nil {
			log.Fatalf("Failed to store user %s: %s", id, err)
		}
	}
	for id, name := range seedSkills {
		if err := names.PutSkill(ctx, id, name); err != nil {
			log.Fatalf("Failed to store skill %s: %s", id, err)
		}
	}
	log.Info("Ensured directory names exist.", "users", len(seedUsers), "skills", len(seedSkills))

	// Seeding goes through the engine so every row respects the negotiation rules.
	// No notification channels: seeded activity must not reach Slack or subscribers.
	metricsSvc := metrics.NewService()
	store := matchmaking.NewStore(db)
	engine := matchmaking.NewEngine(store, notifier.NewFanout(metricsSvc), names, metricsSvc, matchmaking.Settings{})
	lifecycle := matchmaking.NewLifecycle(store, metricsSvc)

	users := keys(seedUsers)
	skills := keys(seedSkills)
	startTime := time.Now()
	var agreed, skipped int

	for i := 0; i < numNegotiations; i++ {
		requester := users[rand.Intn(len(users))]
		target := users[rand.Intn(len(users))]
		if requester == target {
			skipped++
			continue
		}
		match, err := negotiate(ctx, engine, lifecycle, requester, target, skills[rand.Intn(len(skills))])
		if err != nil {
			// Pairs that already agreed or ran out of rounds are expected.
			log.Debug("Negotiation skipped", "requester", requester, "target", target, "error", err)
			skipped++
			continue
		}
		if match != nil {
			agreed++
		}
		if (i+1)%50 == 0 {
			log.Info("Seeded negotiations", "completed", i+1, "total", numNegotiations)
		}
	}

	log.Info("Successfully seeded negotiations.", "agreed", agreed, "skipped", skipped, "duration", time.Since(startTime))
}

// negotiate plays out a random negotiation: a proposal, up to two counter-offers
// and then an accept, a reject or nothing.
func negotiate(ctx context.Context, engine *matchmaking.Engine, lifecycle *matchmaking.Lifecycle, requester, target, skill string) (*matchmaking.Match, error) {
	request, err := engine.CreateProposal(ctx, matchmaking.ProposalInput{
		RequesterID:  requester,
		TargetUserID: target,
		SkillID:      skill,
		Terms:        randomTerms(),
		Message:      "Seeded proposal, happy to swap!",
	})
	if err != nil {
		return nil, err
	}

	for counters := rand.Intn(3); counters > 0; counters-- {
		request, err = engine.CounterOffer(ctx, request.ID, request.TargetUserID, randomTerms(), "Seeded counter-offer")
		if err != nil {
			return nil, err
		}
	}

	switch rand.Intn(3) {
	case 0:
		match, err := engine.Accept(ctx, request.ID, request.TargetUserID)
		if err != nil {
			return nil, err
		}
		for sessions := rand.Intn(match.TotalSessionsPlanned() + 1); sessions > 0; sessions-- {
			if match, err = lifecycle.CompleteSession(ctx, match.ID); err != nil {
				return nil, err
			}
		}
		return match, nil
	case 1:
		reason := "Seeded rejection"
		_, err := engine.Reject(ctx, request.ID, request.TargetUserID, &reason)
		return nil, err
	default:
		return nil, nil
	}
}

func randomTerms() matchmaking.Terms {
	terms := matchmaking.Terms{
		TotalSessions:          1 + rand.Intn(5),
		SessionDurationMinutes: 30 * (1 + rand.Intn(4)),
		PreferredDays:          []string{"MONDAY", "WEDNESDAY"},
	}
	if rand.Intn(2) == 0 {
		terms.IsMonetary = true
		terms.OfferedAmount = int64(1000 + rand.Intn(4000))
		terms.Currency = "EUR"
	}
	return terms
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
