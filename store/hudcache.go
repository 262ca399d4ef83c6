package store

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"voyager.com/tracker/hand"
)

// hudCacheCounters are the accumulating counter columns of the HudCache
// table, in the order HudDeltas emits them. Every name except HDs is also a
// HandsPlayers column, which is what makes the rebuild a single aggregate
// pass.
var hudCacheCounters = []string{
	"HDs",
	"street0VPI", "street0Aggr", "street0_3BChance", "street0_3BDone",
	"street1Seen", "street2Seen", "street3Seen", "street4Seen",
	"sawShowdown",
	"street1Aggr", "street2Aggr", "street3Aggr", "street4Aggr",
	"otherRaisedStreet1", "otherRaisedStreet2", "otherRaisedStreet3", "otherRaisedStreet4",
	"foldToOtherRaisedStreet1", "foldToOtherRaisedStreet2", "foldToOtherRaisedStreet3", "foldToOtherRaisedStreet4",
	"wonWhenSeenStreet1", "wonAtSD",
	"stealAttemptChance", "stealAttempted",
	"foldBbToStealChance", "foldedBbToSteal", "foldSbToStealChance", "foldedSbToSteal",
	"street1CBChance", "street2CBChance", "street3CBChance", "street4CBChance",
	"street1CBDone", "street2CBDone", "street3CBDone", "street4CBDone",
	"foldToStreet1CBChance", "foldToStreet2CBChance", "foldToStreet3CBChance", "foldToStreet4CBChance",
	"foldToStreet1CBDone", "foldToStreet2CBDone", "foldToStreet3CBDone", "foldToStreet4CBDone",
	"totalProfit",
	"street1CheckCallRaiseChance", "street2CheckCallRaiseChance", "street3CheckCallRaiseChance", "street4CheckCallRaiseChance",
	"street1CheckCallRaiseDone", "street2CheckCallRaiseDone", "street3CheckCallRaiseDone", "street4CheckCallRaiseDone",
}

var hudCacheKeyCols = []string{
	"gametypeId", "playerId", "activeSeats", "position", "tourneyTypeId", "styleKey",
}

// HudKey is the composite key of one HudCache row.
type HudKey struct {
	GametypeID    uint64
	PlayerID      uint64
	ActiveSeats   int
	Position      string
	TourneyTypeID int
	StyleKey      string
}

func (k HudKey) args() []interface{} {
	return []interface{}{k.GametypeID, k.PlayerID, k.ActiveSeats, k.Position, k.TourneyTypeID, k.StyleKey}
}

// HudDeltas converts one player's derived stats into the counter vector added
// to that player's HudCache row.
func HudDeltas(ps *hand.PlayerStats) []int64 {
	d := make([]int64, 0, len(hudCacheCounters))
	d = append(d, 1) // HDs
	d = append(d, i64(ps.VPIP), i64(ps.Aggr[0]), i64(ps.ThreeBetChance), i64(ps.ThreeBetDone))
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.Seen[n]))
	}
	d = append(d, i64(ps.SawShowdown))
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.Aggr[n]))
	}
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.OtherRaised[n]))
	}
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.FoldToOtherRaised[n]))
	}
	d = append(d, i64(ps.WonWhenSawFlop), i64(ps.WonAtShowdown))
	d = append(d, i64(ps.StealChance), i64(ps.StealAttempted))
	d = append(d, i64(ps.FoldBBToStealChance), i64(ps.FoldedBBToSteal), i64(ps.FoldSBToStealChance), i64(ps.FoldedSBToSteal))
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.CBChance[n]))
	}
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.CBDone[n]))
	}
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.FoldToCBChance[n]))
	}
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.FoldToCBDone[n]))
	}
	d = append(d, ps.TotalProfit)
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.CheckCallRaiseChance[n]))
	}
	for n := 1; n <= 4; n++ {
		d = append(d, i64(ps.CheckCallRaiseDone[n]))
	}
	return d
}

func i64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// UpdateHudCache adds the deltas to an existing row and returns the number of
// rows affected; zero means no row exists yet and the caller must insert.
func (s *Store) UpdateHudCache(tx *sqlx.Tx, key HudKey, deltas []int64) (int64, error) {
	sets := make([]string, len(hudCacheCounters))
	for i, c := range hudCacheCounters {
		sets[i] = c + " = " + c + " + ?"
	}
	where := make([]string, len(hudCacheKeyCols))
	for i, c := range hudCacheKeyCols {
		where[i] = c + " = ?"
	}
	q := "UPDATE HudCache SET " + strings.Join(sets, ", ") +
		" WHERE " + strings.Join(where, " AND ")
	args := make([]interface{}, 0, len(deltas)+len(hudCacheKeyCols))
	for _, d := range deltas {
		args = append(args, d)
	}
	args = append(args, key.args()...)
	res, err := tx.Exec(s.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "HudCache update failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "HudCache update affected-rows unavailable")
	}
	return n, nil
}

// InsertHudCache seeds a new row with the delta values.
func (s *Store) InsertHudCache(tx *sqlx.Tx, key HudKey, deltas []int64) error {
	cols := strings.Join(hudCacheKeyCols, ", ") + ", " + strings.Join(hudCacheCounters, ", ")
	binds := strings.TrimSuffix(strings.Repeat("?, ", len(hudCacheKeyCols)+len(hudCacheCounters)), ", ")
	args := key.args()
	for _, d := range deltas {
		args = append(args, d)
	}
	_, err := tx.Exec(s.db.Rebind("INSERT INTO HudCache ("+cols+") VALUES ("+binds+")"), args...)
	if err != nil {
		return errors.Wrap(err, "HudCache insert failed")
	}
	return nil
}

// ClearHudCache empties the statistics cache.
func (s *Store) ClearHudCache() error {
	_, err := s.db.Exec("DELETE FROM HudCache")
	if err != nil {
		return errors.Wrap(err, "HudCache clear failed")
	}
	return nil
}

func (s *Store) hudStyleKeyExpr(useDate bool) string {
	if !useDate {
		return "'A000000'"
	}
	if s.isPostgres() {
		return "'d' || to_char(h.handStart, 'YYMMDD')"
	}
	return "'d' || strftime('%y%m%d', h.handStart)"
}

// positionBucketExpr collapses raw positions into the hud buckets:
// B/S blinds, D button, C cutoff, M middle, E early.
const positionBucketExpr = `CASE hp.position
	WHEN 'B' THEN 'B' WHEN 'S' THEN 'S' WHEN '0' THEN 'D' WHEN '1' THEN 'C'
	WHEN '2' THEN 'M' WHEN '3' THEN 'M' WHEN '4' THEN 'M' ELSE 'E' END`

// RebuildHudCache recomputes the whole cache from the persisted per-player
// history in one aggregate pass. Hero ids use heroStart as the history
// cutoff, everyone else uses villainStart.
func (s *Store) RebuildHudCache(useDate bool, heroIDs []uint64, heroStart, villainStart time.Time) error {
	sums := make([]string, len(hudCacheCounters))
	for i, c := range hudCacheCounters {
		if c == "HDs" {
			sums[i] = "COUNT(1)"
		} else {
			sums[i] = "SUM(hp." + c + ")"
		}
	}

	q := "INSERT INTO HudCache (" +
		strings.Join(hudCacheKeyCols, ", ") + ", " + strings.Join(hudCacheCounters, ", ") + ") " +
		"SELECT h.gametypeId, hp.playerId, h.seats, " + positionBucketExpr + ", hp.tourneyTypeId, " +
		s.hudStyleKeyExpr(useDate) + ", " + strings.Join(sums, ", ") + " " +
		"FROM HandsPlayers hp INNER JOIN Hands h ON (h.id = hp.handId) "

	var args []interface{}
	if len(heroIDs) == 0 {
		q += "WHERE h.handStart > ? "
		args = append(args, villainStart)
	} else {
		var err error
		q += "WHERE (hp.playerId IN (?) AND h.handStart > ?) OR (hp.playerId NOT IN (?) AND h.handStart > ?) "
		q, args, err = sqlx.In(q+"GROUP BY 1, 2, 3, 4, 5, 6", heroIDs, heroStart, heroIDs, villainStart)
		if err != nil {
			return errors.Wrap(err, "HudCache rebuild query expansion failed")
		}
		_, err = s.db.Exec(s.db.Rebind(q), args...)
		if err != nil {
			return errors.Wrap(err, "HudCache rebuild failed")
		}
		return nil
	}
	q += "GROUP BY 1, 2, 3, 4, 5, 6"
	_, err := s.db.Exec(s.db.Rebind(q), args...)
	if err != nil {
		return errors.Wrap(err, "HudCache rebuild failed")
	}
	return nil
}
