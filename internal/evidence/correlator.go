package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sitewatch/fieldops/internal/metrics"
	"github.com/sitewatch/fieldops/internal/model"
	"github.com/sitewatch/fieldops/internal/store"
)

// Match is the outcome of resolving a photo against a building's spaces.
// SpaceID is model.UnresolvedSpace when no geofence candidate exists.
type Match struct {
	SpaceID    string  `json:"space_id"`
	Confidence float64 `json:"confidence"`
}

// Unresolved is the no-candidate outcome. It is a valid result, not an error.
var Unresolved = Match{SpaceID: model.UnresolvedSpace, Confidence: 0}

// ResolveSpace matches a photo's GPS fix against the building's spaces.
// A space is a candidate when the great-circle distance to its geofence
// center is within radius plus the photo's reported accuracy; the accuracy
// margin absorbs GPS error. Confidence is 100*(1 - distance/radius) clamped
// to [0, 100]. The highest confidence wins; exact ties go to the smaller
// radius, since the more specific location is the better answer.
func ResolveSpace(photo model.PhotoEvidence, spaces []model.BuildingSpace) Match {
	best := Unresolved
	bestRadius := 0.0
	found := false

	for _, sp := range spaces {
		if sp.Geofence == nil || sp.Geofence.Radius <= 0 {
			continue
		}
		dist := Haversine(photo.GPS, sp.Geofence.Center)
		if dist > sp.Geofence.Radius+photo.GPS.Accuracy {
			continue
		}
		confidence := clamp(100*(1-dist/sp.Geofence.Radius), 0, 100)
		better := confidence > best.Confidence ||
			(confidence == best.Confidence && sp.Geofence.Radius < bestRadius)
		if !found || better {
			best = Match{SpaceID: sp.ID, Confidence: confidence}
			bestRadius = sp.Geofence.Radius
			found = true
		}
	}
	return best
}

// Config tunes the correlator's cache behavior.
type Config struct {
	// StatsCacheTTL bounds how long cached space stats are served.
	// Default: 10m.
	StatsCacheTTL time.Duration `yaml:"stats_cache_ttl" mapstructure:"stats_cache_ttl"`
}

const defaultStatsCacheTTL = 10 * time.Minute

// Correlator resolves photos to spaces and keeps per-space photo rollups
// current. Space-stats recomputation is serialized per building so two
// photo ingestions for the same building never race.
type Correlator struct {
	store   store.Store
	kv      KVStore // optional
	cfg     Config
	metrics *metrics.Metrics
	log     *zap.Logger

	mu        sync.Mutex
	buildings map[string]*sync.Mutex
}

// NewCorrelator creates a Correlator. kv and m may be nil.
func NewCorrelator(st store.Store, kv KVStore, cfg Config, m *metrics.Metrics) *Correlator {
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = defaultStatsCacheTTL
	}
	return &Correlator{
		store:     st,
		kv:        kv,
		cfg:       cfg,
		metrics:   m,
		log:       zap.L().With(zap.String("component", "evidence.correlator")),
		buildings: make(map[string]*sync.Mutex),
	}
}

// Rematch recomputes the automatic space resolution for a photo and
// persists it. Photos carrying a worker override are left untouched: the
// override permanently wins over automatic matching.
func (c *Correlator) Rematch(ctx context.Context, photoID string) (Match, error) {
	photo, err := c.store.GetPhoto(ctx, photoID)
	if err != nil {
		return Unresolved, err
	}
	if photo.WorkerOverride != nil {
		c.metrics.IncResolutionOutcome("override")
		return Match{SpaceID: photo.WorkerOverride.SpaceID, Confidence: 100}, nil
	}

	spaces, err := c.store.ListSpaces(ctx, photo.BuildingID)
	if err != nil {
		return Unresolved, err
	}
	match := ResolveSpace(*photo, spaces)

	if match.SpaceID == model.UnresolvedSpace {
		photo.SmartLocation = nil
		c.metrics.IncResolutionOutcome("unresolved")
	} else {
		photo.SmartLocation = &model.SmartLocation{
			DetectedSpaceID: match.SpaceID,
			Confidence:      match.Confidence,
		}
		c.metrics.IncResolutionOutcome("matched")
	}

	if err := c.store.UpdatePhoto(ctx, photo); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.metrics.IncWriteConflict("photo")
		}
		return Unresolved, err
	}
	if err := c.RecomputeSpaceStats(ctx, photo.BuildingID); err != nil {
		return Unresolved, err
	}

	c.log.Debug("rematched photo",
		zap.String("photo_id", photoID),
		zap.String("space_id", match.SpaceID),
		zap.Float64("confidence", match.Confidence),
	)
	return match, nil
}

// ApplyOverride records a worker's manual space assignment for a photo.
// The space must belong to the photo's building. Re-applying the same space
// only updates the note, so the call is idempotent.
func (c *Correlator) ApplyOverride(ctx context.Context, photoID, spaceID, note string) error {
	photo, err := c.store.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}

	spaces, err := c.store.ListSpaces(ctx, photo.BuildingID)
	if err != nil {
		return err
	}
	known := false
	for _, sp := range spaces {
		if sp.ID == spaceID {
			known = true
			break
		}
	}
	if !known {
		return eris.Wrapf(store.ErrInvalidReference,
			"evidence: space %s not in building %s", spaceID, photo.BuildingID)
	}

	photo.WorkerOverride = &model.WorkerOverride{SpaceID: spaceID, Note: note}
	if err := c.store.UpdatePhoto(ctx, photo); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.metrics.IncWriteConflict("photo")
		}
		return err
	}
	c.metrics.IncResolutionOutcome("override")

	if err := c.RecomputeSpaceStats(ctx, photo.BuildingID); err != nil {
		return err
	}
	c.log.Info("applied space override",
		zap.String("photo_id", photoID),
		zap.String("space_id", spaceID),
	)
	return nil
}

// SpaceStats returns the per-space photo rollups for a building, served
// from the cache when fresh.
func (c *Correlator) SpaceStats(ctx context.Context, buildingID string) ([]model.SpaceStats, error) {
	if c.kv != nil {
		cached, err := c.kv.Get(ctx, statsKey(buildingID))
		if err == nil {
			var stats []model.SpaceStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return stats, nil
			}
			// Fall through to the store on a corrupt cache entry.
		} else if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("space stats cache read failed",
				zap.String("building_id", buildingID), zap.Error(err))
		}
	}
	return c.store.GetSpaceStats(ctx, buildingID)
}

// RecomputeSpaceStats rebuilds photo counts and last-capture times for
// every space in a building from the photos attributed to it. Calls for
// the same building are serialized; different buildings proceed in parallel.
func (c *Correlator) RecomputeSpaceStats(ctx context.Context, buildingID string) error {
	lock := c.buildingLock(buildingID)
	lock.Lock()
	defer lock.Unlock()

	photos, err := c.store.ListPhotosByBuilding(ctx, buildingID)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	lastAt := make(map[string]time.Time)
	for _, p := range photos {
		spaceID := p.ResolvedSpace()
		if spaceID == model.UnresolvedSpace {
			continue
		}
		counts[spaceID]++
		if p.CaptureTimestamp.After(lastAt[spaceID]) {
			lastAt[spaceID] = p.CaptureTimestamp
		}
	}

	stats := make([]model.SpaceStats, 0, len(counts))
	for spaceID, count := range counts {
		last := lastAt[spaceID]
		stats = append(stats, model.SpaceStats{
			SpaceID:     spaceID,
			BuildingID:  buildingID,
			PhotoCount:  count,
			LastPhotoAt: &last,
		})
	}

	if err := c.store.PutSpaceStats(ctx, buildingID, stats); err != nil {
		return err
	}

	if c.kv != nil {
		payload, err := json.Marshal(stats)
		if err != nil {
			return eris.Wrap(err, "evidence: marshal space stats")
		}
		if err := c.kv.Set(ctx, statsKey(buildingID), string(payload), c.cfg.StatsCacheTTL); err != nil {
			// Cache write failures are non-fatal; the store holds the truth.
			c.log.Warn("space stats cache write failed",
				zap.String("building_id", buildingID), zap.Error(err))
		}
	}
	return nil
}

func (c *Correlator) buildingLock(buildingID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.buildings[buildingID]
	if !ok {
		lock = &sync.Mutex{}
		c.buildings[buildingID] = lock
	}
	return lock
}

func statsKey(buildingID string) string {
	return "fieldops:space-stats:" + buildingID
}
