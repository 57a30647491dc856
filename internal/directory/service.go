package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/redis/go-redis/v9"
)

const (
	usersKey      = "skillswap:directory:users"
	skillsKey     = "skillswap:directory:skills"
	lookupTimeout = 250 * time.Millisecond
)

// Service resolves display names from the hashes the user and skill services
// keep in redis. Lookups never fail: misses and errors resolve to a placeholder.
type Service struct {
	client Client
}

var _ matchmaking.Directory = (*Service)(nil)

// New creates a new directory service.
func New(client Client) *Service {
	return &Service{client: client}
}

// NewRedisClient connects to redis and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	log.Info("Connected to redis", "addr", addr, "db", db)
	return client, nil
}

func (s *Service) UserName(ctx context.Context, userID string) string {
	return s.lookup(ctx, usersKey, userID, matchmaking.PlaceholderUserName)
}

func (s *Service) SkillName(ctx context.Context, skillID string) string {
	return s.lookup(ctx, skillsKey, skillID, matchmaking.PlaceholderSkillName)
}

func (s *Service) lookup(ctx context.Context, key, id, placeholder string) string {
	if id == "" {
		return placeholder
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	name, err := s.client.HGet(ctx, key, id).Result()
	switch {
	case errors.Is(err, redis.Nil):
		log.Debug("Directory miss", "key", key, "id", id)
		return placeholder
	case err != nil:
		log.Warn("Directory lookup failed", "key", key, "id", id, "error", err)
		return placeholder
	case name == "":
		return placeholder
	}
	return name
}

// PutUser stores the display name of a user.
func (s *Service) PutUser(ctx context.Context, userID, name string) error {
	if err := s.client.HSet(ctx, usersKey, userID, name).Err(); err != nil {
		return fmt.Errorf("failed to store user name: %w", err)
	}
	return nil
}

// PutSkill stores the display name of a skill.
func (s *Service) PutSkill(ctx context.Context, skillID, name string) error {
	if err := s.client.HSet(ctx, skillsKey, skillID, name).Err(); err != nil {
		return fmt.Errorf("failed to store skill name: %w", err)
	}
	return nil
}

// ForgetUser drops a deleted user from the directory.
func (s *Service) ForgetUser(ctx context.Context, userID string) error {
	if err := s.client.HDel(ctx, usersKey, userID).Err(); err != nil {
		return fmt.Errorf("failed to forget user: %w", err)
	}
	return nil
}

// ForgetSkill drops a deleted skill from the directory.
func (s *Service) ForgetSkill(ctx context.Context, skillID string) error {
	if err := s.client.HDel(ctx, skillsKey, skillID).Err(); err != nil {
		return fmt.Errorf("failed to forget skill: %w", err)
	}
	return nil
}
