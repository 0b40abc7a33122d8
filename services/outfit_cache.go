package services

import (
	"context"
	"fmt"
	"time"

	"capsulifyapi/outfits"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"go.uber.org/zap"
)

const outfitCacheTTL = 30 * time.Minute

// OutfitCacheProvider keeps the generated outfit list of a user's wardrobe.
// Entries are keyed by the wardrobe version, so a wardrobe change simply
// makes old entries unreachable.
type OutfitCacheProvider[T outfits.Item] interface {
	Get(ctx context.Context, userID, version uint) ([]outfits.Outfit[T], bool)
	Set(ctx context.Context, userID, version uint, list []outfits.Outfit[T])
}

type OutfitCache[T outfits.Item] struct {
	namespace string
	cache     *cache.Cache[[]outfits.Outfit[T]]
}

// NewOutfitCache creates an in-memory cache holding up to maxOutfits outfits
// across all users.
func NewOutfitCache[T outfits.Item](namespace string, maxOutfits int64) (*OutfitCache[T], error) {
	ristrettoStore, err := newRistrettoStore(maxOutfits)
	if err != nil {
		return nil, err
	}
	return &OutfitCache[T]{
		namespace: namespace,
		cache:     cache.New[[]outfits.Outfit[T]](ristrettoStore),
	}, nil
}

func (c *OutfitCache[T]) key(userID, version uint) string {
	return fmt.Sprintf("%s:%d:%d", c.namespace, userID, version)
}

func (c *OutfitCache[T]) Get(ctx context.Context, userID, version uint) ([]outfits.Outfit[T], bool) {
	list, err := c.cache.Get(ctx, c.key(userID, version))
	if err != nil {
		return nil, false
	}
	return list, true
}

func (c *OutfitCache[T]) Set(ctx context.Context, userID, version uint, list []outfits.Outfit[T]) {
	cost := max(int64(len(list)), 1)
	err := c.cache.Set(ctx, c.key(userID, version), list,
		store.WithCost(cost),
		store.WithExpiration(outfitCacheTTL),
	)
	if err != nil {
		// the cache rejects entries under pressure, the list is just regenerated next time
		zap.L().Debug("outfit list not cached",
			zap.String("namespace", c.namespace),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
	}
}
