package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storefront/pkg/models"
)

const defaultRedisPrefix = "storefront"

// RedisStore keeps one hash (id -> JSON fields) per collection plus a list of
// ids in insertion order.
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{Client: client, Prefix: prefix}
}

func (s *RedisStore) docsKey(collection string) string {
	return fmt.Sprintf("%s:%s:docs", s.Prefix, collection)
}

func (s *RedisStore) orderKey(collection string) string {
	return fmt.Sprintf("%s:%s:order", s.Prefix, collection)
}

func (s *RedisStore) IsEmpty(ctx context.Context, collection string) (bool, error) {
	n, err := s.Client.HLen(ctx, s.docsKey(collection)).Result()
	if err != nil {
		return false, wrap("isEmpty", collection, "", err)
	}
	return n == 0, nil
}

func (s *RedisStore) GetAll(ctx context.Context, collection string) ([]models.Document, error) {
	ids, err := s.Client.LRange(ctx, s.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, wrap("getAll", collection, "", fmt.Errorf("lrange: %w", err))
	}
	if len(ids) == 0 {
		return []models.Document{}, nil
	}

	vals, err := s.Client.HMGet(ctx, s.docsKey(collection), ids...).Result()
	if err != nil {
		return nil, wrap("getAll", collection, "", fmt.Errorf("hmget: %w", err))
	}

	out := make([]models.Document, 0, len(ids))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// listed but already removed from the hash
			continue
		}
		fields, err := decodeFields([]byte(raw))
		if err != nil {
			return nil, wrap("getAll", collection, ids[i], fmt.Errorf("decode fields: %w", err))
		}
		out = append(out, models.Document{ID: ids[i], Fields: fields})
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	raw, err := s.Client.HGet(ctx, s.docsKey(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get", collection, id, err)
	}
	fields, err := decodeFields([]byte(raw))
	if err != nil {
		return nil, wrap("get", collection, id, fmt.Errorf("decode fields: %w", err))
	}
	return &models.Document{ID: id, Fields: fields}, nil
}

func (s *RedisStore) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	docsKey := s.docsKey(collection)
	orderKey := s.orderKey(collection)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, docsKey, id).Result()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists = false
		} else if err != nil {
			return fmt.Errorf("hget: %w", err)
		}

		next := fields
		if merge && exists {
			prev, err := decodeFields([]byte(raw))
			if err != nil {
				return fmt.Errorf("decode existing: %w", err)
			}
			next = mergeFields(prev, fields)
		}
		b, err := encodeFields(next)
		if err != nil {
			return fmt.Errorf("encode fields: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, docsKey, id, string(b))
			if !exists {
				pipe.RPush(ctx, orderKey, id)
			}
			return nil
		})
		return err
	}

	if err := s.Client.Watch(ctx, txf, docsKey); err != nil {
		return wrap("set", collection, id, err)
	}
	return nil
}

func (s *RedisStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	b, err := encodeFields(fields)
	if err != nil {
		return "", wrap("add", collection, id, err)
	}
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docsKey(collection), id, string(b))
		pipe.RPush(ctx, s.orderKey(collection), id)
		return nil
	})
	if err != nil {
		return "", wrap("add", collection, id, err)
	}
	return id, nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.docsKey(collection), id)
		pipe.LRem(ctx, s.orderKey(collection), 0, id)
		return nil
	})
	if err != nil {
		return wrap("delete", collection, id, err)
	}
	return nil
}

func (s *RedisStore) Where(ctx context.Context, collection, field string, value any) ([]models.Document, error) {
	docs, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filter(docs, field, value), nil
}
