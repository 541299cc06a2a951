package sortedset

import (
	"context"
	"fmt"

	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
	exchangev1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/exchange/v1"
	v9 "github.com/redis/go-redis/v9"
)

// Store implements exchangev1.Store on top of Redis sorted sets and plain keys.
type Store struct {
	client redis.Client
}

// NewStore creates a new Store backed by client.
func NewStore(client redis.Client) *Store {
	return &Store{client: client}
}

// Put adds member to the sorted set at key with the given score.
func (s *Store) Put(ctx context.Context, key string, score float64, member string) error {
	_, err := s.client.ZAdd(ctx, key, v9.Z{Score: score, Member: member})
	return err
}

// PopMin removes and returns the lowest scored member of key.
func (s *Store) PopMin(ctx context.Context, key string) (exchangev1.Member, bool, error) {
	members, err := s.client.ZPopMin(ctx, key, 1)
	if err != nil {
		return exchangev1.Member{}, false, err
	}
	return first(members)
}

// PopMax removes and returns the highest scored member of key.
func (s *Store) PopMax(ctx context.Context, key string) (exchangev1.Member, bool, error) {
	members, err := s.client.ZPopMax(ctx, key, 1)
	if err != nil {
		return exchangev1.Member{}, false, err
	}
	return first(members)
}

// RangeByScore returns the members of key scored within [min, max], lowest first.
func (s *Store) RangeByScore(ctx context.Context, key string, min, max float64) ([]exchangev1.Member, error) {
	members, err := s.client.ZRangeByScoreWithScores(ctx, key, min, max)
	if err != nil {
		return nil, err
	}

	result := make([]exchangev1.Member, 0, len(members))
	for _, z := range members {
		result = append(result, toMember(z))
	}
	return result, nil
}

// Remove deletes the exact members from key. Missing members are ignored.
func (s *Store) Remove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	_, err := s.client.ZRem(ctx, key, args...)
	return err
}

// Count returns the cardinality of the sorted set at key.
func (s *Store) Count(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key)
}

// Get returns the value stored at key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	return s.client.Get(ctx, key)
}

// Set stores value at key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0)
}

func first(members []v9.Z) (exchangev1.Member, bool, error) {
	if len(members) == 0 {
		return exchangev1.Member{}, false, nil
	}
	return toMember(members[0]), true, nil
}

func toMember(z v9.Z) exchangev1.Member {
	value, ok := z.Member.(string)
	if !ok {
		value = fmt.Sprint(z.Member)
	}
	return exchangev1.Member{Value: value, Score: z.Score}
}
