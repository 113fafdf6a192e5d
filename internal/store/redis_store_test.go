package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	tour := newStartedTournament(t, "host-1")
	require.NoError(t, s.Save(ctx, tour))

	loaded, err := s.Load(ctx, tour.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Matches, len(tour.Matches))

	byHost, err := s.FindByHostChannel(ctx, "host-1")
	require.NoError(t, err)
	assert.Equal(t, tour.ID, byHost.ID)

	for id := range tour.Matches {
		byMatch, err := s.FindByMatch(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, tour.ID, byMatch.ID)
	}

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	loaded.IsActive = false
	require.NoError(t, s.Save(ctx, loaded))
	active, err = s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, s.Delete(ctx, tour.ID))
	_, err = s.Load(ctx, tour.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindByHostChannel(ctx, "host-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, tour.ID), ErrNotFound)
}

// failingDel rejects plain DEL commands on one key. Pipelined commands pass through.
type failingDel struct {
	key string
}

func (h failingDel) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	args := cmd.Args()
	if cmd.Name() == "del" && len(args) == 2 && args[1] == h.key {
		return ctx, errors.New("del refused")
	}
	return ctx, nil
}

func (failingDel) AfterProcess(context.Context, redis.Cmder) error { return nil }

func (failingDel) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (failingDel) AfterProcessPipeline(context.Context, []redis.Cmder) error { return nil }

func TestRedisStoreDeleteHostPointer(t *testing.T) {
	ctx := context.Background()
	hostKey := hostChannelKey("host-1")

	tests := []struct {
		name        string
		newer       bool
		failDel     bool
		wantPointer bool
	}{
		{name: "own pointer is cleared"},
		{name: "newer tournament keeps the pointer", newer: true, wantPointer: true},
		{name: "failed clear leaves a stale pointer", failDel: true, wantPointer: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mr := setupRedisStore(t)

			tour := newStartedTournament(t, "host-1")
			require.NoError(t, s.Save(ctx, tour))

			var newer string
			if tt.newer {
				next := newStartedTournament(t, "host-1")
				require.NoError(t, s.Save(ctx, next))
				newer = next.ID
			}
			if tt.failDel {
				s.client.AddHook(failingDel{key: hostKey})
			}

			require.NoError(t, s.Delete(ctx, tour.ID))
			_, err := s.Load(ctx, tour.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, tt.wantPointer, mr.Exists(hostKey))

			found, err := s.FindByHostChannel(ctx, "host-1")
			if tt.newer {
				require.NoError(t, err)
				assert.Equal(t, newer, found.ID)
				return
			}
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}
