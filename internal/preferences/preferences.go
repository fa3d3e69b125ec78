// Package preferences keeps per-user display settings for the session and
// writes them through to a persistent store.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/metrics"
	"github.com/alexanderramin/edboard/internal/repository"
)

var (
	ErrInvalidInterval = errors.New("invalid rotation interval")
	ErrUnknownArea     = errors.New("unknown area")
)

// NotSavedNotice is shown once when a preference could not be persisted.
const NotSavedNotice = "Preferences could not be saved; they apply to this session only."

// Store persists preferences. Loads return an error wrapping
// repository.ErrNotFound for a user who never saved the value.
type Store interface {
	LoadAreaFilters(ctx context.Context, userID string) ([]string, error)
	SaveAreaFilters(ctx context.Context, userID string, areas []string) error
	LoadRotationInterval(ctx context.Context, userID string) (int, error)
	SaveRotationInterval(ctx context.Context, userID string, seconds int) error
}

// Cache answers reads from the session first, then the store, then defaults.
type Cache struct {
	store  Store
	areas  []string
	logger *zap.Logger

	mu       sync.Mutex
	session  map[string]domain.PresentationPreferences
	noticeUp bool
	shown    bool
}

// NewCache builds a cache over store. knownAreas, when non-empty, restricts
// the areas a user may select. A nil store keeps preferences in memory only.
func NewCache(store Store, knownAreas []string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:   store,
		areas:   slices.Clone(knownAreas),
		logger:  logger,
		session: make(map[string]domain.PresentationPreferences),
	}
}

// KnownAreas returns the selectable areas.
func (c *Cache) KnownAreas() []string {
	return slices.Clone(c.areas)
}

// Get returns the preferences of a user.
func (c *Cache) Get(ctx context.Context, userID string) domain.PresentationPreferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(ctx, userID)
}

func (c *Cache) getLocked(ctx context.Context, userID string) domain.PresentationPreferences {
	if p, ok := c.session[userID]; ok {
		return clonePrefs(p)
	}
	prefs := domain.DefaultPreferences(userID)
	if c.store != nil {
		areas, err := c.store.LoadAreaFilters(ctx, userID)
		if c.loadOK(userID, "area_filters", err) {
			prefs.AreaFilters = c.knownOnly(areas)
		}
		seconds, err := c.store.LoadRotationInterval(ctx, userID)
		if c.loadOK(userID, "rotation_interval", err) && domain.ValidRotationInterval(seconds) {
			prefs.RotationSeconds = seconds
		}
	}
	c.session[userID] = prefs
	return clonePrefs(prefs)
}

// AreaFilters returns the areas a user filters the board by. Empty means all.
func (c *Cache) AreaFilters(ctx context.Context, userID string) []string {
	return c.Get(ctx, userID).AreaFilters
}

// RotationInterval returns the user's page rotation interval in seconds.
func (c *Cache) RotationInterval(ctx context.Context, userID string) int {
	return c.Get(ctx, userID).RotationSeconds
}

// SetAreaFilters updates the session immediately and reports whether the
// change was persisted.
func (c *Cache) SetAreaFilters(ctx context.Context, userID string, areas []string) (bool, error) {
	normalized, err := c.normalizeAreas(areas)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prefs := c.getLocked(ctx, userID)
	prefs.AreaFilters = normalized
	c.session[userID] = prefs
	return c.persisted(userID, c.write(func(s Store) error {
		return s.SaveAreaFilters(ctx, userID, slices.Clone(normalized))
	})), nil
}

// SetRotationInterval updates the session immediately and reports whether
// the change was persisted.
func (c *Cache) SetRotationInterval(ctx context.Context, userID string, seconds int) (bool, error) {
	if !domain.ValidRotationInterval(seconds) {
		return false, fmt.Errorf("%w: %d (allowed %v)", ErrInvalidInterval, seconds, domain.AllowedRotationSeconds())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prefs := c.getLocked(ctx, userID)
	prefs.RotationSeconds = seconds
	c.session[userID] = prefs
	return c.persisted(userID, c.write(func(s Store) error {
		return s.SaveRotationInterval(ctx, userID, seconds)
	})), nil
}

var errNoStore = errors.New("no preference store configured")

func (c *Cache) write(fn func(Store) error) error {
	if c.store == nil {
		return errNoStore
	}
	return fn(c.store)
}

func (c *Cache) persisted(userID string, err error) bool {
	if err != nil {
		if !errors.Is(err, errNoStore) {
			c.logger.Warn("saving preferences failed, keeping them for this session",
				zap.String("user", userID), zap.Error(err))
		}
		metrics.RecordPreferenceWrite(false)
		c.noticeUp = true
		return false
	}
	metrics.RecordPreferenceWrite(true)
	return true
}

func (c *Cache) loadOK(userID, key string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrNotFound):
	default:
		c.logger.Warn("loading preferences failed, using defaults",
			zap.String("user", userID), zap.String("key", key), zap.Error(err))
	}
	return false
}

// knownOnly drops stored areas that are no longer known.
func (c *Cache) knownOnly(areas []string) []string {
	if len(c.areas) == 0 {
		return slices.Clone(areas)
	}
	var out []string
	for _, a := range areas {
		if slices.Contains(c.areas, a) {
			out = append(out, a)
		}
	}
	return out
}

// Notice returns the not-saved notice the first time it is asked for after
// a failed save.
func (c *Cache) Notice() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.noticeUp || c.shown {
		return "", false
	}
	c.shown = true
	return NotSavedNotice, true
}

// normalizeAreas trims, dedupes and validates areas, returning them in the
// order of the known area list.
func (c *Cache) normalizeAreas(areas []string) ([]string, error) {
	seen := make(map[string]bool, len(areas))
	var out []string
	for _, a := range areas {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		canonical := a
		if len(c.areas) > 0 {
			idx := slices.IndexFunc(c.areas, func(k string) bool { return strings.EqualFold(k, a) })
			if idx < 0 {
				return nil, fmt.Errorf("%w: %q", ErrUnknownArea, a)
			}
			canonical = c.areas[idx]
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	if len(c.areas) > 0 {
		slices.SortFunc(out, func(a, b string) int {
			return slices.Index(c.areas, a) - slices.Index(c.areas, b)
		})
	}
	return out, nil
}

func clonePrefs(p domain.PresentationPreferences) domain.PresentationPreferences {
	p.AreaFilters = slices.Clone(p.AreaFilters)
	return p
}
