package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
)

// Redis stores each posting as a JSON string under "<prefix>:job:<id>" and
// tracks the ids in the set "<prefix>:jobs".
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection with a PING.
func NewRedis(ctx context.Context, cfg config.StoreConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return NewRedisWithClient(client, cfg.RedisPrefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "jobscout"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) jobKey(id string) string { return r.prefix + ":job:" + id }
func (r *Redis) indexKey() string        { return r.prefix + ":jobs" }

func (r *Redis) Save(ctx context.Context, job *models.JobPosting) error {
	existing, err := r.List(ctx)
	if err != nil {
		return err
	}
	markDuplicate(job, existing)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.jobKey(job.ID), data, 0)
		pipe.SAdd(ctx, r.indexKey(), job.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", job.ID, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (*models.JobPosting, error) {
	data, err := r.client.Get(ctx, r.jobKey(normalizeID(id))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var job models.JobPosting
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (r *Redis) List(ctx context.Context) ([]*models.JobPosting, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return []*models.JobPosting{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.jobKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	jobs := make([]*models.JobPosting, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Index entry without a value; the posting was removed underneath us.
			continue
		}
		var job models.JobPosting
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			return nil, fmt.Errorf("decode job %s: %w", ids[i], err)
		}
		jobs = append(jobs, &job)
	}
	sortNewestFirst(jobs)
	return jobs, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	id = normalizeID(id)
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.jobKey(id))
		pipe.SRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	jobs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return rank(jobs, query, limit), nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
