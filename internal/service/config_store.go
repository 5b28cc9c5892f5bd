package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"alphabit/internal/models"
	"alphabit/internal/repository"
)

// Dynamic config keys. Values live in the configs table and can change
// without a restart; the scheduler re-reads them every tick.
const (
	KeySyncSchedulerEnabled  = "SYNC_SCHEDULER_ENABLED"
	KeySyncIntervalMinutes   = "SYNC_INTERVAL_MINUTES"
	KeySyncDelayAfterUpdate  = "SYNC_DELAY_AFTER_UPDATE"
	KeyReferrerAddress       = "ALPHABIT_REFERRER_ADDRESS"
	KeyIndexerURL            = "THETANUTS_INDEXER_URL"
	KeyNotifierURL           = "NEYNAR_API_URL"
	KeyExpiryReminderEnabled = "EXPIRY_REMINDER_ENABLED"
	KeyExpiryReminderWindow  = "EXPIRY_REMINDER_WINDOW_MINUTES"
)

type cachedEntry struct {
	value     string
	fetchedAt time.Time
}

// ConfigStoreService reads dynamic settings from the DB through a TTL cache
// (key to value plus fetch time). Lookup order: cache, DB, static fallback,
// caller default.
type ConfigStoreService struct {
	Repo     repository.Repository
	TTL      time.Duration
	Fallback map[string]string
	Logger   *zap.Logger
	Now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedEntry
}

func (s *ConfigStoreService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ConfigStoreService) Get(ctx context.Context, key, defaultValue string) string {
	if s == nil {
		return defaultValue
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return defaultValue
	}

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && s.now().Sub(entry.fetchedAt) < s.TTL {
		s.mu.Unlock()
		return entry.value
	}
	s.mu.Unlock()

	if s.Repo != nil {
		item, err := s.Repo.GetAppConfigByKey(ctx, key)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("config fetch failed, using fallback", zap.String("key", key), zap.Error(err))
			}
		} else if item != nil {
			s.mu.Lock()
			if s.cache == nil {
				s.cache = map[string]cachedEntry{}
			}
			s.cache[key] = cachedEntry{value: item.Value, fetchedAt: s.now()}
			s.mu.Unlock()
			return item.Value
		}
	}

	if v, ok := s.Fallback[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

func (s *ConfigStoreService) GetBool(ctx context.Context, key string, defaultValue bool) bool {
	raw := s.Get(ctx, key, strconv.FormatBool(defaultValue))
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (s *ConfigStoreService) GetInt(ctx context.Context, key string, defaultValue int) int {
	raw := s.Get(ctx, key, strconv.Itoa(defaultValue))
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (s *ConfigStoreService) Set(ctx context.Context, key, value string) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	item := &models.AppConfig{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.Repo.UpsertAppConfig(ctx, item); err != nil {
		return err
	}
	s.mu.Lock()
	if s.cache == nil {
		s.cache = map[string]cachedEntry{}
	}
	s.cache[key] = cachedEntry{value: value, fetchedAt: s.now()}
	s.mu.Unlock()
	return nil
}
