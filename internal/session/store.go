// Package session keeps the server-side session records that decide whether
// a request is authenticated.  Records live in Redis with a TTL equal to the
// session window, so an abandoned session disappears on its own.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/connecthub/internal/model"
)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session not found")

// RedisStore stores sessions as JSON under "<prefix>:<id>" and keeps a
// per-user set of ids so all sessions of a user can be dropped at once.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }
func (s *RedisStore) userKey(uid uint64) string { return fmt.Sprintf("%s:user:%d", s.prefix, uid) }

// Save writes the record with a TTL running until its expiry.
func (s *RedisStore) Save(ctx context.Context, sess model.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sess.ID), data, ttl)
	pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
	pipe.Expire(ctx, s.userKey(sess.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a record by id.
func (s *RedisStore) Get(ctx context.Context, id string) (model.Session, error) {
	var sess model.Session
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return sess, ErrNotFound
	}
	if err != nil {
		return sess, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Delete removes a record.  Missing records are not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	if err == nil {
		pipe.SRem(ctx, s.userKey(sess.UserID), id)
	}
	_, execErr := pipe.Exec(ctx)
	return execErr
}

// DeleteAllForUser drops every record of a user and returns how many went.
func (s *RedisStore) DeleteAllForUser(ctx context.Context, userID uint64) (int, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, s.userKey(userID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(ids), nil
}
