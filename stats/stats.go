// Package stats maintains the HudCache statistics rollup: incremental upserts
// as hands are imported, full rebuilds from history, and the read paths that
// feed hand overlays.
package stats

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"voyager.com/tracker/hand"
	"voyager.com/tracker/store"
)

var statsLogger = log.With().Str("logger_name", "stats::stats").Logger()

// Display styles for the read path.
const (
	StyleAll     = "A"
	StyleRecent  = "T"
	StyleSession = "S"
)

// Maintainer applies per-hand counter deltas to the HudCache inside the
// import transaction and rebuilds the whole cache on demand.
type Maintainer struct {
	store   *store.Store
	useDate bool
}

func NewMaintainer(st *store.Store, useDateInKey bool) *Maintainer {
	return &Maintainer{store: st, useDate: useDateInKey}
}

// PositionBucket collapses a raw position label into the hud bucket:
// B and S for the blinds, D button, C cutoff, M middle, E early.
func PositionBucket(position string) string {
	switch position {
	case "B", "S":
		return position
	case "0":
		return "D"
	case "1":
		return "C"
	case "2", "3", "4":
		return "M"
	default:
		return "E"
	}
}

func (m *Maintainer) styleKey(start time.Time) string {
	if !m.useDate {
		return "A000000"
	}
	return "d" + start.Format("060102")
}

// ApplyHand folds one hand's derived stats into the cache. Each player's row
// is updated in place; a zero-rows-affected update means the row does not
// exist yet and gets inserted instead.
func (m *Maintainer) ApplyHand(tx *sqlx.Tx, gameTypeID uint64, seats int, start time.Time, playerIDs map[string]uint64, d *hand.Derived) error {
	styleKey := m.styleKey(start)
	for name, ps := range d.Players {
		playerID, ok := playerIDs[name]
		if !ok {
			return errors.Errorf("no resolved id for player %s", name)
		}
		key := store.HudKey{
			GametypeID:  gameTypeID,
			PlayerID:    playerID,
			ActiveSeats: seats,
			Position:    PositionBucket(ps.Position),
			StyleKey:    styleKey,
		}
		deltas := store.HudDeltas(ps)
		n, err := m.store.UpdateHudCache(tx, key, deltas)
		if err != nil {
			return err
		}
		if n == 0 {
			if err := m.store.InsertHudCache(tx, key, deltas); err != nil {
				return err
			}
		}
	}
	return nil
}

// RebuildFailure is returned when a rebuild fails after the cache has been
// cleared. The cache is left empty rather than half-rebuilt; a later rebuild
// restores it.
type RebuildFailure struct {
	Err error
}

func (e *RebuildFailure) Error() string {
	return fmt.Sprintf("hud cache rebuild failed, cache left cleared: %v", e.Err)
}

func (e *RebuildFailure) Unwrap() error { return e.Err }

// RebuildAll recomputes the whole cache from stored history. Hero ids get the
// longer heroStart lookback, everyone else starts at villainStart.
func (m *Maintainer) RebuildAll(heroIDs []uint64, heroStart, villainStart time.Time) error {
	statsLogger.Info().
		Int("heroes", len(heroIDs)).
		Time("hero_start", heroStart).
		Time("villain_start", villainStart).
		Msg("Rebuilding hud cache")
	if err := m.store.ClearHudCache(); err != nil {
		return errors.Wrap(err, "Unable to clear hud cache before rebuild")
	}
	if err := m.store.RebuildHudCache(m.useDate, heroIDs, heroStart, villainStart); err != nil {
		statsLogger.Error().Err(err).Msg("Hud cache rebuild failed, cache is cleared")
		return &RebuildFailure{Err: err}
	}
	return nil
}

// Reader serves aggregated statistics for the players seated in a hand.
type Reader struct {
	store       *store.Store
	hudDays     int
	heroHudDays int
}

func NewReader(st *store.Store, hudDays, heroHudDays int) *Reader {
	return &Reader{store: st, hudDays: hudDays, heroHudDays: heroHudDays}
}

// StatsForHand returns counter sums for every player dealt into the hand.
// Style A uses all cached history, style T bounds it by the configured day
// windows, style S computes the last 24 hours straight from the hand rows.
func (r *Reader) StatsForHand(handID, heroID uint64, style string, now time.Time, seatsMin, seatsMax int) (map[uint64]store.StatRow, error) {
	switch style {
	case StyleSession:
		return r.store.SessionStats(handID, store.HandStartCutoff(now), seatsMin, seatsMax)
	case StyleRecent:
		heroKey := "d" + now.AddDate(0, 0, -r.heroHudDays).Format("060102")
		villainKey := "d" + now.AddDate(0, 0, -r.hudDays).Format("060102")
		return r.store.AggregatedStats(handID, heroID, heroKey, villainKey, seatsMin, seatsMax)
	case StyleAll:
		return r.store.AggregatedStats(handID, heroID, "A000000", "A000000", seatsMin, seatsMax)
	default:
		return nil, errors.Errorf("unknown display style %q", style)
	}
}
