package redis

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/TreatIQ-Intelligence/internal/domain/treatment"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// Cache key namespaces.
const (
	treatmentKeyPrefix = "treatment:"
	historyKeyPrefix   = "history:age:"
	catalogKey         = "catalog:all"
)

// Cache labels reported to the observer.
const (
	CacheTreatments = "treatments"
	CacheHistory    = "history"
	CacheCatalog    = "catalog"
)

// CacheObserver is told about every cache lookup.
type CacheObserver interface {
	RecordCacheAccess(cache string, hit bool)
}

type noopCacheObserver struct{}

func (noopCacheObserver) RecordCacheAccess(string, bool) {}

// CachedRepository is a read-through cache in front of a treatment
// repository.  Cache failures degrade to the inner repository; inner
// failures are returned unchanged.
type CachedRepository struct {
	inner    treatment.Repository
	cache    Cache
	ttl      time.Duration
	log      logging.Logger
	observer CacheObserver
	group    singleflight.Group
}

var (
	_ treatment.Repository    = (*CachedRepository)(nil)
	_ treatment.CatalogLister = (*CachedRepository)(nil)
)

// NewCachedRepository wraps inner.  A zero ttl uses the cache default.
func NewCachedRepository(inner treatment.Repository, cache Cache, ttl time.Duration, log logging.Logger, observer CacheObserver) *CachedRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if observer == nil {
		observer = noopCacheObserver{}
	}
	return &CachedRepository{
		inner:    inner,
		cache:    cache,
		ttl:      ttl,
		log:      log.Named("treatment_cache"),
		observer: observer,
	}
}

// FetchTreatments serves cached records and loads the rest from the inner
// repository in one call.  Ids the inner repository does not know are cached
// as absent.
func (r *CachedRepository) FetchTreatments(ctx context.Context, ids []string) ([]*prediction.TreatmentRecord, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return []*prediction.TreatmentRecord{}, nil
	}

	keys := make([]string, len(unique))
	for i, id := range unique {
		keys[i] = treatmentKeyPrefix + id
	}
	cached, err := r.cache.MGet(ctx, keys)
	if err != nil {
		r.log.Warn("treatment cache unavailable, reading through", logging.Err(err))
		cached = map[string][]byte{}
	}

	out := make([]*prediction.TreatmentRecord, 0, len(unique))
	var missing []string
	for i, id := range unique {
		raw, ok := cached[keys[i]]
		if !ok {
			r.observer.RecordCacheAccess(CacheTreatments, false)
			missing = append(missing, id)
			continue
		}
		r.observer.RecordCacheAccess(CacheTreatments, true)
		if raw == nil {
			continue
		}
		var rec prediction.TreatmentRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			r.log.Warn("discarding undecodable cache entry", logging.String("id", id), logging.Err(err))
			missing = append(missing, id)
			continue
		}
		out = append(out, &rec)
	}
	if len(missing) == 0 {
		return out, nil
	}

	sort.Strings(missing)
	v, err := r.shared(ctx, "treatments:"+strings.Join(missing, ","), func(ctx context.Context) (interface{}, error) {
		return r.loadTreatments(ctx, missing)
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range v.([]*prediction.TreatmentRecord) {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

// shared runs fn once per key across concurrent callers.  fn gets a context
// that keeps the caller's values but not its cancellation, so the callers
// still waiting are not failed by one that gives up.  A cancelled caller
// stops waiting and returns ctx.Err().
func (r *CachedRepository) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// loadTreatments reads ids from the inner repository and caches every
// record, and every id it does not know as absent.
func (r *CachedRepository) loadTreatments(ctx context.Context, ids []string) ([]*prediction.TreatmentRecord, error) {
	records, err := r.inner.FetchTreatments(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*prediction.TreatmentRecord, 0, len(records))
	found := make(map[string]bool, len(ids))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		cp := *rec
		found[cp.ID] = true
		out = append(out, &cp)
		if err := r.cache.Set(ctx, treatmentKeyPrefix+cp.ID, &cp, r.ttl); err != nil {
			r.log.Warn("failed to cache treatment", logging.String("id", cp.ID), logging.Err(err))
		}
	}
	for _, id := range ids {
		if found[id] {
			continue
		}
		if err := r.cache.SetNull(ctx, treatmentKeyPrefix+id); err != nil {
			r.log.Warn("failed to cache absent treatment", logging.String("id", id), logging.Err(err))
		}
	}
	return out, nil
}

// FetchHistoricalOutcomes caches outcomes per patient age.  Profiles without
// an age go straight to the inner repository.
func (r *CachedRepository) FetchHistoricalOutcomes(ctx context.Context, profile *prediction.PatientProfile) ([]*prediction.HistoricalRecord, error) {
	age, ok := profile.KnownAge()
	if !ok {
		return r.inner.FetchHistoricalOutcomes(ctx, profile)
	}

	var (
		out    []*prediction.HistoricalRecord
		loaded atomic.Bool
	)
	err := r.cache.GetOrSet(ctx, historyKeyPrefix+strconv.Itoa(age), &out, r.ttl, func(ctx context.Context) (interface{}, error) {
		loaded.Store(true)
		records, err := r.inner.FetchHistoricalOutcomes(ctx, profile)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []*prediction.HistoricalRecord{}
		}
		return records, nil
	})
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeCacheError) || loaded.Load() {
			return nil, err
		}
		r.log.Warn("history cache unavailable, reading through", logging.Err(err))
		return r.inner.FetchHistoricalOutcomes(ctx, profile)
	}
	r.observer.RecordCacheAccess(CacheHistory, !loaded.Load())
	if out == nil {
		out = []*prediction.HistoricalRecord{}
	}
	return out, nil
}

// ListTreatments caches the full catalog when the inner repository can
// enumerate it.
func (r *CachedRepository) ListTreatments(ctx context.Context) ([]*prediction.TreatmentRecord, error) {
	lister, ok := r.inner.(treatment.CatalogLister)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotImplemented, "record store cannot list treatments")
	}

	var (
		out    []*prediction.TreatmentRecord
		loaded atomic.Bool
	)
	err := r.cache.GetOrSet(ctx, catalogKey, &out, r.ttl, func(ctx context.Context) (interface{}, error) {
		loaded.Store(true)
		return lister.ListTreatments(ctx)
	})
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeCacheError) || loaded.Load() {
			return nil, err
		}
		r.log.Warn("catalog cache unavailable, reading through", logging.Err(err))
		return lister.ListTreatments(ctx)
	}
	r.observer.RecordCacheAccess(CacheCatalog, !loaded.Load())
	return out, nil
}

// Invalidate drops every cached treatment, history and catalog entry.
func (r *CachedRepository) Invalidate(ctx context.Context) (int64, error) {
	var total int64
	for _, prefix := range []string{treatmentKeyPrefix, historyKeyPrefix, catalogKey} {
		n, err := r.cache.DeleteByPrefix(ctx, prefix)
		total += n
		if err != nil {
			return total, err
		}
	}
	r.log.Info("treatment cache invalidated", logging.Int64("keys", total))
	return total, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

//Personal.AI order the ending
