package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// StatRow is one player's aggregated counters, keyed by the lowercase column
// name. Values are plain sums ready for the read API to turn into ratios.
type StatRow map[string]int64

// AggregatedStats returns the HudCache sums for every player dealt into the
// given hand. The hero's rows reach back further than everyone else's, which
// is what the two styleKey bounds express.
func (s *Store) AggregatedStats(handID, heroID uint64, heroStyleKey, villainStyleKey string, seatsMin, seatsMax int) (map[uint64]StatRow, error) {
	sums := make([]string, 0, len(hudCacheCounters))
	for _, c := range hudCacheCounters {
		sums = append(sums, "SUM(hc."+c+") AS "+strings.ToLower(c))
	}
	q := "SELECT hc.playerId AS playerid, " + strings.Join(sums, ", ") + " " +
		"FROM HudCache hc " +
		"WHERE hc.playerId IN (SELECT hp.playerId FROM HandsPlayers hp WHERE hp.handId = ?) " +
		"AND ((hc.playerId = ? AND hc.styleKey >= ?) OR (hc.playerId <> ? AND hc.styleKey >= ?)) " +
		"AND hc.activeSeats BETWEEN ? AND ? " +
		"GROUP BY hc.playerId"
	rows, err := s.db.Queryx(s.db.Rebind(q),
		handID, heroID, heroStyleKey, heroID, villainStyleKey, seatsMin, seatsMax)
	if err != nil {
		return nil, errors.Wrap(err, "Aggregated stats query failed")
	}
	defer rows.Close()
	return scanStatRows(rows)
}

// SessionStats returns per-player sums straight from HandsPlayers for hands
// started after the cutoff, bypassing the cache. Used for the session display
// style.
func (s *Store) SessionStats(handID uint64, cutoff time.Time, seatsMin, seatsMax int) (map[uint64]StatRow, error) {
	sums := make([]string, 0, len(hudCacheCounters))
	for _, c := range hudCacheCounters {
		if c == "HDs" {
			sums = append(sums, "COUNT(1) AS hds")
			continue
		}
		sums = append(sums, "SUM(hp."+c+") AS "+strings.ToLower(c))
	}
	q := "SELECT hp.playerId AS playerid, " + strings.Join(sums, ", ") + " " +
		"FROM HandsPlayers hp INNER JOIN Hands h ON (h.id = hp.handId) " +
		"WHERE hp.playerId IN (SELECT hp2.playerId FROM HandsPlayers hp2 WHERE hp2.handId = ?) " +
		"AND h.handStart > ? AND h.seats BETWEEN ? AND ? " +
		"GROUP BY hp.playerId"
	rows, err := s.db.Queryx(s.db.Rebind(q), handID, cutoff, seatsMin, seatsMax)
	if err != nil {
		return nil, errors.Wrap(err, "Session stats query failed")
	}
	defer rows.Close()
	return scanStatRows(rows)
}

func scanStatRows(rows interface {
	Next() bool
	MapScan(map[string]interface{}) error
	Err() error
}) (map[uint64]StatRow, error) {
	out := make(map[uint64]StatRow)
	for rows.Next() {
		raw := make(map[string]interface{})
		if err := rows.MapScan(raw); err != nil {
			return nil, errors.Wrap(err, "Stats row scan failed")
		}
		stat := make(StatRow, len(raw))
		var playerID uint64
		for k, v := range raw {
			key := strings.ToLower(k)
			n, err := toInt64(v)
			if err != nil {
				return nil, errors.Wrapf(err, "Stats column %s has unexpected type", key)
			}
			if key == "playerid" {
				playerID = uint64(n)
				continue
			}
			stat[key] = n
		}
		out[playerID] = stat
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Stats row iteration failed")
	}
	return out, nil
}

// toInt64 normalizes driver-specific scan types. Postgres returns SUM over
// bigint columns as numeric, which arrives as a byte string.
func toInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.Errorf("cannot convert %T to int64", v)
	}
}
