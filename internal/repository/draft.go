package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/flyerdrop/tournees-api/internal/domain"
)

var ErrDraftNotFound = errors.New("draft not found")

const draftKeyPrefix = "tournees:draft:"

// DraftStore keeps in-progress bookings in Redis. Every save renews the TTL,
// so a draft expires after ttl of inactivity.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{
		client: client,
		ttl:    ttl,
	}
}

func draftKey(id string) string {
	return draftKeyPrefix + id
}

func (s *DraftStore) Save(ctx context.Context, draft domain.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = s.client.Set(ctx, draftKey(draft.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("s.client.Set -> %w", err)
	}

	return nil
}

func (s *DraftStore) Get(ctx context.Context, id string) (domain.Draft, error) {
	data, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Draft{}, ErrDraftNotFound
		}

		return domain.Draft{}, fmt.Errorf("s.client.Get -> %w", err)
	}

	var draft domain.Draft
	if err = json.Unmarshal(data, &draft); err != nil {
		return domain.Draft{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return draft, nil
}

func (s *DraftStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("s.client.Del -> %w", err)
	}

	return nil
}
