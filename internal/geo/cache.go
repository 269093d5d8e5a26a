package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const sectorsBucket = "iris_sectors"

type cacheEntry struct {
	FetchedAt time.Time `json:"fetched_at"`
	Features  []Feature `json:"features"`
}

// CachedClient is a read-through cache over a Fetcher, persisted in BoltDB.
// When a refresh fails, a stale entry is served instead of the error.
type CachedClient struct {
	next Fetcher
	db   *bbolt.DB
	ttl  time.Duration
	now  func() time.Time
}

func NewCachedClient(next Fetcher, dbPath string, ttl time.Duration) (*CachedClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory -> %w", err)
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt.Open -> %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sectorsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket -> %w", err)
	}

	return &CachedClient{
		next: next,
		db:   db,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

func (c *CachedClient) FetchSectors(ctx context.Context, communeCode string) ([]Feature, error) {
	entry, found, err := c.get(communeCode)
	if err != nil {
		zap.L().Warn("geometry cache read failed", zap.String("commune_code", communeCode), zap.Error(err))
	}
	if found && c.fresh(entry) {
		return entry.Features, nil
	}

	features, err := c.next.FetchSectors(ctx, communeCode)
	if err != nil {
		if found {
			zap.L().Warn("serving stale geometry", zap.String("commune_code", communeCode), zap.Error(err))
			return entry.Features, nil
		}
		return nil, fmt.Errorf("c.next.FetchSectors -> %w", err)
	}

	if err = c.put(communeCode, cacheEntry{FetchedAt: c.now(), Features: features}); err != nil {
		zap.L().Warn("geometry cache write failed", zap.String("commune_code", communeCode), zap.Error(err))
	}

	return features, nil
}

func (c *CachedClient) fresh(entry cacheEntry) bool {
	return c.ttl <= 0 || c.now().Sub(entry.FetchedAt) < c.ttl
}

func (c *CachedClient) get(key string) (cacheEntry, bool, error) {
	var (
		entry cacheEntry
		found bool
	)
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(sectorsBucket)).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return cacheEntry{}, false, err
	}

	return entry, found, nil
}

func (c *CachedClient) put(key string, entry cacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sectorsBucket)).Put([]byte(key), data)
	})
}

// Invalidate drops the cached sectors of a commune.
func (c *CachedClient) Invalidate(communeCode string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sectorsBucket)).Delete([]byte(communeCode))
	})
}

func (c *CachedClient) Close() error {
	return c.db.Close()
}
