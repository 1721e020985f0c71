// internal/app/auth.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenMismatch = errors.New("invalid token")
)

type Auth struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
	tokenHeader string
}

func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader}, nil
	}

	client, err := NewRedisClient(context.Background(), config.Auth.RedisURL)
	if err != nil {
		return nil, err
	}

	return &Auth{
		enabled:     true,
		redis:       client,
		keyTemplate: config.Auth.TokenKeyTemplate,
		tokenHeader: config.Auth.TokenHeader,
	}, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func quizTokenKey(template, quiz, student string) string {
	return strings.NewReplacer(
		"{quiz}", quiz,
		"{student}", student,
	).Replace(template)
}

// ValidateToken checks token against the hash stored for the (quiz, student) pair.
func (a *Auth) ValidateToken(ctx context.Context, quiz, student, token string) error {
	if !a.enabled {
		return nil
	}

	key := quizTokenKey(a.keyTemplate, quiz, student)

	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		logger.Debug.Printf("Token not found for key: %s", key)
		return ErrTokenNotFound
	}

	if token == "" || fields["token"] != token {
		logger.Debug.Printf("Token mismatch for quiz/student=%s/%s and what's found in %s", quiz, student, key)
		return ErrTokenMismatch
	}

	return nil
}
