package store

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/tracker/hand"
)

func bucket(position string) string {
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

// buttonStealHand is a three-handed hand with a flop continuation bet, enough
// action to populate most counter groups.
func buttonStealHand(siteHandNo string) *hand.Hand {
	gt := &hand.GameType{
		Type: "ring", Base: hand.BaseHold, Category: "holdem", Limit: "nl",
		HiLo: "h", SmallBlind: 50, BigBlind: 100,
	}
	h := hand.New(1, gt, "")
	h.SiteHandNo = siteHandNo
	h.TableName = "Table 2"
	h.StartTime = time.Date(2009, 2, 21, 11, 21, 57, 0, time.UTC)
	h.ButtonPos = 3
	h.AddPlayer(1, "sb", 10000)
	h.AddPlayer(2, "bb", 10000)
	h.AddPlayer(3, "btn", 10000)
	h.Streets = []hand.Street{{Name: hand.StreetPreflop}, {Name: hand.StreetFlop}}
	h.AddAction(hand.StreetPreflop, "sb", hand.ActionPostSmallBlind, 50)
	h.AddAction(hand.StreetPreflop, "bb", hand.ActionPostBigBlind, 100)
	h.AddAction(hand.StreetPreflop, "btn", hand.ActionRaise, 300)
	h.AddAction(hand.StreetPreflop, "sb", hand.ActionFold, 0)
	h.AddAction(hand.StreetPreflop, "bb", hand.ActionCall, 200)
	h.AddAction(hand.StreetFlop, "bb", hand.ActionCheck, 0)
	h.AddAction(hand.StreetFlop, "btn", hand.ActionBet, 400)
	h.AddAction(hand.StreetFlop, "bb", hand.ActionFold, 0)
	h.AddCollectPot("btn", 1000)
	return h
}

// importHand stores one hand the way the import loop does: hand row, player
// rows, then hud cache deltas, all in one transaction.
func importHand(t *testing.T, s *Store, h *hand.Hand) {
	t.Helper()
	gameTypeID, err := s.FindOrCreateGameType(s.DB(), h.SiteID, h.GameType)
	require.NoError(t, err)
	derived := hand.Derive(h)

	playerIDs := make(map[string]uint64, len(derived.Players))
	for name := range derived.Players {
		id, err := s.FindOrCreatePlayer(s.DB(), h.SiteID, name)
		require.NoError(t, err)
		playerIDs[name] = id
	}

	tx, err := s.Begin()
	require.NoError(t, err)
	handID, err := s.InsertHand(tx, NewHandRow(h, gameTypeID, derived))
	require.NoError(t, err)
	var rows []HandPlayerRow
	for name, ps := range derived.Players {
		playerID := playerIDs[name]
		rows = append(rows, NewHandPlayerRow(handID, playerID, ps))

		key := HudKey{
			GametypeID:  gameTypeID,
			PlayerID:    playerID,
			ActiveSeats: len(h.Players),
			Position:    bucket(ps.Position),
			StyleKey:    "A000000",
		}
		deltas := HudDeltas(ps)
		n, err := s.UpdateHudCache(tx, key, deltas)
		require.NoError(t, err)
		if n == 0 {
			require.NoError(t, s.InsertHudCache(tx, key, deltas))
		}
	}
	require.NoError(t, s.InsertHandPlayers(tx, rows))
	require.NoError(t, tx.Commit())
}

// hudSnapshot reads the whole HudCache keyed by player and position.
func hudSnapshot(t *testing.T, s *Store) map[string][]int64 {
	t.Helper()
	cols := strings.Join(hudCacheCounters, ", ")
	rows, err := s.DB().Queryx(
		"SELECT playerId, position, " + cols + " FROM HudCache ORDER BY playerId, position")
	require.NoError(t, err)
	defer rows.Close()

	out := make(map[string][]int64)
	for rows.Next() {
		raw, err := rows.SliceScan()
		require.NoError(t, err)
		key := fmt.Sprintf("%v|%v", raw[0], raw[1])
		counters := make([]int64, 0, len(raw)-2)
		for _, v := range raw[2:] {
			n, err := toInt64(v)
			require.NoError(t, err)
			counters = append(counters, n)
		}
		out[key] = counters
	}
	require.NoError(t, rows.Err())
	return out
}

func TestHudCacheRebuildMatchesIncrementalUpdates(t *testing.T) {
	s := newTestStore(t)
	importHand(t, s, buttonStealHand("1001"))
	importHand(t, s, buttonStealHand("1002"))

	incremental := hudSnapshot(t, s)
	require.NotEmpty(t, incremental)

	// Rebuilding from the stored hands must reproduce the incremental state.
	cutoff := time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.ClearHudCache())
	require.NoError(t, s.RebuildHudCache(false, nil, cutoff, cutoff))

	rebuilt := hudSnapshot(t, s)
	if diff := cmp.Diff(incremental, rebuilt); diff != "" {
		t.Errorf("rebuild mismatch (-incremental +rebuilt):\n%s", diff)
	}
}

func TestHudCacheRebuildHonorsCutoffs(t *testing.T) {
	s := newTestStore(t)
	importHand(t, s, buttonStealHand("1001"))

	// Villain cutoff after the hand start leaves only hero rows; no heroes
	// given means nothing qualifies.
	require.NoError(t, s.ClearHudCache())
	after := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RebuildHudCache(false, nil, after, after))
	assert.Empty(t, hudSnapshot(t, s))

	// With the hero's id and an early hero cutoff, only the hero's rows come
	// back.
	heroID, ok, err := s.FindPlayer(1, "btn")
	require.NoError(t, err)
	require.True(t, ok)
	early := time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.ClearHudCache())
	require.NoError(t, s.RebuildHudCache(false, []uint64{heroID}, early, after))

	snapshot := hudSnapshot(t, s)
	require.Len(t, snapshot, 1)
	for key := range snapshot {
		assert.Contains(t, key, fmt.Sprintf("%d|", heroID))
	}
}

func TestAggregatedStats(t *testing.T) {
	s := newTestStore(t)
	importHand(t, s, buttonStealHand("1001"))
	importHand(t, s, buttonStealHand("1002"))

	var handID uint64
	require.NoError(t, s.DB().Get(&handID, "SELECT id FROM Hands WHERE siteHandNo = '1001'"))
	heroID, _, err := s.FindPlayer(1, "btn")
	require.NoError(t, err)

	got, err := s.AggregatedStats(handID, heroID, "A000000", "A000000", 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	hero := got[heroID]
	require.NotNil(t, hero)
	assert.Equal(t, int64(2), hero["hds"])
	assert.Equal(t, int64(2), hero["street0vpi"])
	assert.Equal(t, int64(2), hero["street1cbdone"])
	assert.Equal(t, int64(600), hero["totalprofit"])
}

func TestSessionStats(t *testing.T) {
	s := newTestStore(t)
	importHand(t, s, buttonStealHand("1001"))

	var handID uint64
	require.NoError(t, s.DB().Get(&handID, "SELECT id FROM Hands WHERE siteHandNo = '1001'"))

	cutoff := time.Date(2009, 2, 21, 0, 0, 0, 0, time.UTC)
	got, err := s.SessionStats(handID, cutoff, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, row := range got {
		assert.Equal(t, int64(1), row["hds"])
	}

	// A cutoff after the hand leaves nothing in the session window.
	got, err = s.SessionStats(handID, time.Date(2009, 2, 22, 0, 0, 0, 0, time.UTC), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
