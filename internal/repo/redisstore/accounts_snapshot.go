package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "taskflow:accounts"

type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// AccountsSnapshot keeps the account table as one JSON value under a single key.
type AccountsSnapshot struct {
	redisdb *redis.Client
	key     string
}

func New(cfg Config) *AccountsSnapshot {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return NewWithClient(redisdb, cfg.Key)
}

func NewWithClient(redisdb *redis.Client, key string) *AccountsSnapshot {
	if key == "" {
		key = DefaultKey
	}

	return &AccountsSnapshot{redisdb: redisdb, key: key}
}

func (s *AccountsSnapshot) Load(ctx context.Context) ([]user.Account, error) {
	b, err := s.redisdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, user.ErrNoSnapshot
		}
		return nil, err
	}

	var accounts []user.Account
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}

	return accounts, nil
}

func (s *AccountsSnapshot) Save(ctx context.Context, accounts []user.Account) error {
	if accounts == nil {
		accounts = []user.Account{}
	}

	b, err := json.Marshal(accounts)
	if err != nil {
		return err
	}

	return s.redisdb.Set(ctx, s.key, b, 0).Err()
}

// this ping function checks redis connectivity
func (s *AccountsSnapshot) Ping(ctx context.Context) error {
	return s.redisdb.Ping(ctx).Err()
}

func (s *AccountsSnapshot) Close() error {
	return s.redisdb.Close()
}
