package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/go-redis/redis/v8"
)

// RedisStore is the redis backed alternative to TournamentStore. Snapshots are JSON
// strings; secondary lookups are plain keys pointing at the tournament id.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(ctx context.Context, t *bracket.Tournament) error {
	data, err := encodeTournament(t)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tournamentKey(t.ID), data, 0)
		if t.IsActive {
			pipe.SAdd(ctx, activeKey, t.ID)
		} else {
			pipe.SRem(ctx, activeKey, t.ID)
		}
		if t.HostChannelID != "" {
			pipe.Set(ctx, hostChannelKey(t.HostChannelID), t.ID, 0)
		}
		for id := range t.Matches {
			pipe.Set(ctx, matchKey(id), t.ID, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save tournament %s: %w", t.ID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*bracket.Tournament, error) {
	data, err := s.client.Get(ctx, tournamentKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return decodeTournament(data)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	t, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	keys := []string{tournamentKey(id)}
	for matchID := range t.Matches {
		keys = append(keys, matchKey(matchID))
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, activeKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete tournament %s: %w", id, err)
	}

	// The host channel may already point at a newer tournament. A stale pointer only
	// resolves to ErrNotFound, so failing to clear it does not fail the delete.
	if t.HostChannelID != "" {
		key := hostChannelKey(t.HostChannelID)
		current, err := s.client.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			slog.Warn("failed to read host channel pointer", "tournament_id", id, "key", key, "error", err)
		case current == id:
			if err := s.client.Del(ctx, key).Err(); err != nil {
				slog.Warn("failed to clear host channel pointer", "tournament_id", id, "key", key, "error", err)
			}
		}
	}
	return nil
}

func (s *RedisStore) ListActive(ctx context.Context) ([]*bracket.Tournament, error) {
	ids, err := s.client.SMembers(ctx, activeKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active tournaments: %w", err)
	}

	tournaments := make([]*bracket.Tournament, 0, len(ids))
	for _, id := range ids {
		t, err := s.Load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			slog.Warn("active set points at a missing tournament", "tournament_id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, nil
}

func (s *RedisStore) FindByHostChannel(ctx context.Context, channelID string) (*bracket.Tournament, error) {
	return s.follow(ctx, hostChannelKey(channelID))
}

func (s *RedisStore) FindByMatch(ctx context.Context, matchID bracket.MatchID) (*bracket.Tournament, error) {
	return s.follow(ctx, matchKey(matchID))
}

func (s *RedisStore) follow(ctx context.Context, key string) (*bracket.Tournament, error) {
	id, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", key, err)
	}
	return s.Load(ctx, id)
}

const activeKey = "tournaments:active"

func tournamentKey(id string) string {
	return fmt.Sprintf("tournament:%s", id)
}

func hostChannelKey(channelID string) string {
	return fmt.Sprintf("tournament:host:%s", channelID)
}

func matchKey(id bracket.MatchID) string {
	return fmt.Sprintf("tournament:match:%s", id)
}
