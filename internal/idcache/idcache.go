// Package idcache memoizes the durable ids assigned to player names and game
// type signatures so the import loop hits the database once per distinct key.
package idcache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"voyager.com/tracker/hand"
)

// Backing resolves cache misses. *store.Store satisfies it. ext is the
// connection or transaction the resolution must run on; during an import it
// is the import transaction, which already holds the write lock.
type Backing interface {
	FindOrCreatePlayer(ext sqlx.Ext, siteID int, name string) (uint64, error)
	FindOrCreateGameType(ext sqlx.Ext, siteID int, gt *hand.GameType) (uint64, error)
}

type Cache struct {
	players   *lru.Cache
	gameTypes *lru.Cache
	backing   Backing
}

func NewCache(size int, backing Backing) (*Cache, error) {
	players, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize player id cache")
	}
	gameTypes, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize game type id cache")
	}
	return &Cache{
		players:   players,
		gameTypes: gameTypes,
		backing:   backing,
	}, nil
}

type playerKey struct {
	siteID int
	name   string
}

// PlayerID returns the durable id for (siteID, name), resolving and caching
// on first sight.
func (c *Cache) PlayerID(ext sqlx.Ext, siteID int, name string) (uint64, error) {
	key := playerKey{siteID: siteID, name: name}
	v, exists := c.players.Get(key)
	if !exists {
		id, err := c.backing.FindOrCreatePlayer(ext, siteID, name)
		if err != nil {
			return 0, errors.Wrapf(err, "Unable to resolve id for player %s", name)
		}
		c.players.Add(key, id)
		return id, nil
	}
	return v.(uint64), nil
}

// PlayerIDs resolves a batch of names, returning ids keyed by name.
func (c *Cache) PlayerIDs(ext sqlx.Ext, siteID int, names []string) (map[string]uint64, error) {
	ids := make(map[string]uint64, len(names))
	for _, name := range names {
		id, err := c.PlayerID(ext, siteID, name)
		if err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, nil
}

type gameTypeKey struct {
	siteID     int
	gtType     string
	base       string
	category   string
	limit      string
	smallBlind int64
	bigBlind   int64
	smallBet   int64
	bigBet     int64
}

// GameTypeID returns the durable id for a game type signature, resolving and
// caching on first sight.
func (c *Cache) GameTypeID(ext sqlx.Ext, siteID int, gt *hand.GameType) (uint64, error) {
	key := gameTypeKey{
		siteID:     siteID,
		gtType:     gt.Type,
		base:       gt.Base,
		category:   gt.Category,
		limit:      gt.Limit,
		smallBlind: gt.SmallBlind,
		bigBlind:   gt.BigBlind,
		smallBet:   gt.SmallBet,
		bigBet:     gt.BigBet,
	}
	v, exists := c.gameTypes.Get(key)
	if !exists {
		id, err := c.backing.FindOrCreateGameType(ext, siteID, gt)
		if err != nil {
			return 0, errors.Wrap(err, "Unable to resolve game type id")
		}
		c.gameTypes.Add(key, id)
		return id, nil
	}
	return v.(uint64), nil
}
