// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/mszylkowski/reactionsbackend/models"
)

const (
	pollIndexKeyTemplate = "%s:polls"
	slotKeyTemplate      = "%s:poll:%s:%d"
)

// Result codes returned by castVoteScript
const (
	scriptAccepted   = 1
	scriptDuplicate  = 2
	scriptOutOfRange = 3
)

// castVoteScript registers the poll and adds the client to one slot unless
// it already sits in any of them. KEYS[1] is the poll index, KEYS[2..] the
// slot sets in order. ARGV is poll id, client id, option.
var castVoteScript = redis.NewScript(`
local created = redis.call('SADD', KEYS[1], ARGV[1])
for i = 2, #KEYS do
	if redis.call('SISMEMBER', KEYS[i], ARGV[2]) == 1 then
		return {created, 2}
	end
end
local option = tonumber(ARGV[3])
if option == nil or option < 0 or option >= #KEYS - 1 then
	return {created, 3}
end
redis.call('SADD', KEYS[option + 2], ARGV[2])
return {created, 1}
`)

// RedisStore keeps each option slot in a Redis set and the poll ids in an
// index set, all under a common key prefix.
type RedisStore struct {
	cli    *redis.Client
	prefix string
}

func NewRedisStore(cli *redis.Client, prefix string) *RedisStore {
	return &RedisStore{cli: cli, prefix: prefix}
}

// OpenRedisStore connects to url and removes any keys under prefix left by
// a previous run.
func OpenRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	s := NewRedisStore(cli, prefix)
	if err := s.Clear(ctx); err != nil {
		cli.Close()
		return nil, err
	}
	return s, nil
}

// Clear deletes every key owned by the store
func (s *RedisStore) Clear(ctx context.Context) error {
	var keys []string
	iter := s.cli.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	for batch := range slices.Chunk(keys, 100) {
		if err := s.cli.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Ensure(ctx context.Context, pollID string) (bool, error) {
	n, err := s.cli.SAdd(ctx, s.indexKey(), pollID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to ensure poll: %w", err)
	}
	if n > 0 {
		logCreated(pollID)
	}
	return n > 0, nil
}

func (s *RedisStore) CastVote(ctx context.Context, pollID, clientID string, option int) (VoteOutcome, error) {
	keys := append([]string{s.indexKey()}, s.slotKeys(pollID)...)
	res, err := castVoteScript.Run(ctx, s.cli, keys, pollID, clientID, option).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("failed to cast vote: %w", err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("unexpected cast vote reply %v", res)
	}
	if res[0] > 0 {
		logCreated(pollID)
	}

	var outcome VoteOutcome
	switch res[1] {
	case scriptAccepted:
		outcome = VoteAccepted
	case scriptDuplicate:
		outcome = VoteDuplicate
	case scriptOutOfRange:
		outcome = VoteOutOfRange
	default:
		return 0, fmt.Errorf("unexpected cast vote result %d", res[1])
	}
	logOutcome(pollID, option, outcome)
	return outcome, nil
}

func (s *RedisStore) Snapshot(ctx context.Context, pollID, clientID string) (models.PollSnapshot, error) {
	var added *redis.IntCmd
	var cards [MaxOptions]*redis.IntCmd
	var members [MaxOptions]*redis.BoolCmd

	keys := s.slotKeys(pollID)
	_, err := s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, s.indexKey(), pollID)
		for i, key := range keys {
			cards[i] = pipe.SCard(ctx, key)
			members[i] = pipe.SIsMember(ctx, key, clientID)
		}
		return nil
	})
	if err != nil {
		return models.PollSnapshot{}, fmt.Errorf("failed to read poll: %w", err)
	}
	if added.Val() > 0 {
		logCreated(pollID)
	}

	var counts [MaxOptions]int
	selected := -1
	for i := range counts {
		counts[i] = int(cards[i].Val())
		if members[i].Val() {
			selected = i
		}
	}
	return buildSnapshot(counts, selected), nil
}

func (s *RedisStore) Polls(ctx context.Context) ([]models.PollSummary, error) {
	ids, err := s.cli.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	slices.Sort(ids)

	cards := make([][MaxOptions]*redis.IntCmd, len(ids))
	_, err = s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			for j, key := range s.slotKeys(id) {
				cards[i][j] = pipe.SCard(ctx, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	out := make([]models.PollSummary, 0, len(ids))
	for i, id := range ids {
		counts := make([]int, MaxOptions)
		for j := range counts {
			counts[j] = int(cards[i][j].Val())
		}
		out = append(out, models.PollSummary{ID: id, Counts: counts})
	}
	return out, nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	ids, err := s.cli.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list polls: %w", err)
	}

	_, err = s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			for option, key := range s.slotKeys(id) {
				pipe.Del(ctx, key)
				n := fakeVoteCount()
				if n == 0 {
					continue
				}
				voters := make([]any, n)
				for i := range voters {
					voters[i] = SyntheticClientID(option, i)
				}
				pipe.SAdd(ctx, key, voters...)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset polls: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.cli.Close()
}

func (s *RedisStore) indexKey() string {
	return fmt.Sprintf(pollIndexKeyTemplate, s.prefix)
}

func (s *RedisStore) slotKeys(pollID string) []string {
	keys := make([]string, MaxOptions)
	for i := range keys {
		keys[i] = fmt.Sprintf(slotKeyTemplate, s.prefix, pollID, i)
	}
	return keys
}
