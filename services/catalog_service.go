package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"roles-server/models"
)

// Ingester produces a complete place collection or fails.
type Ingester interface {
	Ingest(ctx context.Context) ([]models.Place, error)
}

// CatalogStatus describes the current collection.
type CatalogStatus struct {
	Loaded       bool      `json:"loaded"`
	Count        int       `json:"count"`
	LastIngested time.Time `json:"last_ingested"`
	LastError    string    `json:"last_error,omitempty"`
}

// CatalogService owns the current place collection. The collection is
// replaced wholesale on a successful ingestion and left untouched on
// failure; callers never observe a partial set.
type CatalogService struct {
	ingester Ingester
	archive  Archive
	log      *zap.SugaredLogger
	group    singleflight.Group

	mu           sync.RWMutex
	places       []models.Place
	loaded       bool
	lastErr      error
	lastIngested time.Time
}

// NewCatalogService builds a catalog. archive may be nil.
func NewCatalogService(ingester Ingester, archive Archive, log *zap.SugaredLogger) *CatalogService {
	return &CatalogService{
		ingester: ingester,
		archive:  archive,
		log:      log,
	}
}

// Reload runs one ingestion. Concurrent callers share the same run, so it
// does not stop when the caller that started it goes away.
func (c *CatalogService) Reload(ctx context.Context) ([]models.Place, error) {
	v, err, shared := c.group.Do("ingest", func() (any, error) {
		return c.reload(context.WithoutCancel(ctx))
	})
	if shared {
		c.log.Debugf("Reload joined an ingestion already in flight")
	}
	if err != nil {
		return nil, err
	}
	return v.([]models.Place), nil
}

func (c *CatalogService) reload(ctx context.Context) ([]models.Place, error) {
	places, err := c.ingester.Ingest(ctx)
	if err != nil {
		c.log.Errorf("Failed to load places: %v", err)
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	c.places = places
	c.loaded = true
	c.lastErr = nil
	c.lastIngested = time.Now()
	c.mu.Unlock()

	if c.archive != nil {
		if err := c.archive.ReplaceAll(ctx, places); err != nil {
			c.log.Warnf("Failed to archive places: %v", err)
		}
	}
	return places, nil
}

// Places returns the current collection. ok is false until the first
// successful ingestion; err is the last ingestion failure, if any.
func (c *CatalogService) Places() (places []models.Place, ok bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.places, c.loaded, c.lastErr
}

// Find looks a place up by id in the current collection.
func (c *CatalogService) Find(id string) (models.Place, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.places {
		if p.ID == id {
			return p, true
		}
	}
	return models.Place{}, false
}

func (c *CatalogService) Status() CatalogStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := CatalogStatus{
		Loaded:       c.loaded,
		Count:        len(c.places),
		LastIngested: c.lastIngested,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

// ArchiveCount reports how many places the archive holds, or -1 without one.
func (c *CatalogService) ArchiveCount(ctx context.Context) (int64, error) {
	if c.archive == nil {
		return -1, nil
	}
	return c.archive.Count(ctx)
}
