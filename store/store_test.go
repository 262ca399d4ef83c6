package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/tracker/hand"
	"voyager.com/tracker/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(storetest.Open(t))
}

func testGameType() *hand.GameType {
	return &hand.GameType{
		Type: "ring", Base: hand.BaseHold, Category: "holdem", Limit: "nl",
		HiLo: "h", SmallBlind: 50, BigBlind: 100,
	}
}

func TestFindOrCreatePlayer(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.FindOrCreatePlayer(s.DB(),1, "alice")
	require.NoError(t, err)
	assert.NotZero(t, id1)

	id2, err := s.FindOrCreatePlayer(s.DB(),1, "alice")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := s.FindOrCreatePlayer(s.DB(),2, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestFindPlayerDoesNotCreate(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.FindPlayer(1, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	created, err := s.FindOrCreatePlayer(s.DB(),1, "alice")
	require.NoError(t, err)
	found, ok, err := s.FindPlayer(1, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, found)
}

func TestFindOrCreateGameType(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.FindOrCreateGameType(s.DB(),1, testGameType())
	require.NoError(t, err)
	id2, err := s.FindOrCreateGameType(s.DB(),1, testGameType())
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	bigger := testGameType()
	bigger.BigBlind = 200
	id3, err := s.FindOrCreateGameType(s.DB(),1, bigger)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func insertTestHand(t *testing.T, s *Store, gameTypeID uint64, siteHandNo string) uint64 {
	t.Helper()
	tx, err := s.Begin()
	require.NoError(t, err)
	row := &HandRow{
		TableName:  "Table 2",
		GametypeID: gameTypeID,
		SiteHandNo: siteHandNo,
		HandStart:  time.Date(2009, 2, 21, 11, 21, 57, 0, time.UTC),
		ImportTime: time.Now().UTC(),
		Seats:      3,
		MaxSeats:   6,
	}
	handID, err := s.InsertHand(tx, row)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return handID
}

func TestInsertHandAndDuplicateCheck(t *testing.T) {
	s := newTestStore(t)
	gameTypeID, err := s.FindOrCreateGameType(s.DB(),1, testGameType())
	require.NoError(t, err)

	dup, err := s.IsDuplicate(s.DB(),gameTypeID, "1001")
	require.NoError(t, err)
	assert.False(t, dup)

	handID := insertTestHand(t, s, gameTypeID, "1001")
	assert.NotZero(t, handID)

	dup, err = s.IsDuplicate(s.DB(),gameTypeID, "1001")
	require.NoError(t, err)
	assert.True(t, dup)

	// Same hand number under a different game type is not a duplicate.
	dup, err = s.IsDuplicate(s.DB(),gameTypeID+1, "1001")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestInsertHandPlayers(t *testing.T) {
	s := newTestStore(t)
	gameTypeID, err := s.FindOrCreateGameType(s.DB(),1, testGameType())
	require.NoError(t, err)
	handID := insertTestHand(t, s, gameTypeID, "1002")
	playerID, err := s.FindOrCreatePlayer(s.DB(),1, "alice")
	require.NoError(t, err)

	tx, err := s.Begin()
	require.NoError(t, err)
	rows := []HandPlayerRow{{
		HandID: handID, PlayerID: playerID, SeatNo: 1, Position: "B",
		Street0VPI: 1, TotalProfit: -100,
	}}
	require.NoError(t, s.InsertHandPlayers(tx, rows))
	require.NoError(t, tx.Commit())

	var count int
	err = s.DB().Get(&count, "SELECT COUNT(1) FROM HandsPlayers WHERE handId = ?", handID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSavepointRollback(t *testing.T) {
	s := newTestStore(t)
	gameTypeID, err := s.FindOrCreateGameType(s.DB(),1, testGameType())
	require.NoError(t, err)

	tx, err := s.Begin()
	require.NoError(t, err)

	require.NoError(t, s.Savepoint(tx, "hand_sp"))
	_, err = s.InsertHand(tx, &HandRow{
		TableName: "t", GametypeID: gameTypeID, SiteHandNo: "2001",
		HandStart: time.Now(), ImportTime: time.Now(), Seats: 2, MaxSeats: 6,
	})
	require.NoError(t, err)
	require.NoError(t, s.RollbackTo(tx, "hand_sp"))

	require.NoError(t, s.Savepoint(tx, "hand_sp"))
	_, err = s.InsertHand(tx, &HandRow{
		TableName: "t", GametypeID: gameTypeID, SiteHandNo: "2002",
		HandStart: time.Now(), ImportTime: time.Now(), Seats: 2, MaxSeats: 6,
	})
	require.NoError(t, err)
	require.NoError(t, s.ReleaseSavepoint(tx, "hand_sp"))
	require.NoError(t, tx.Commit())

	dup, err := s.IsDuplicate(s.DB(),gameTypeID, "2001")
	require.NoError(t, err)
	assert.False(t, dup)
	dup, err = s.IsDuplicate(s.DB(),gameTypeID, "2002")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestHudCacheUpdateInsert(t *testing.T) {
	s := newTestStore(t)
	key := HudKey{GametypeID: 1, PlayerID: 7, ActiveSeats: 3, Position: "D", StyleKey: "A000000"}
	deltas := make([]int64, len(hudCacheCounters))
	deltas[0] = 1 // HDs
	deltas[1] = 1 // street0VPI

	tx, err := s.Begin()
	require.NoError(t, err)
	n, err := s.UpdateHudCache(tx, key, deltas)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, s.InsertHudCache(tx, key, deltas))
	require.NoError(t, tx.Commit())

	tx, err = s.Begin()
	require.NoError(t, err)
	n, err = s.UpdateHudCache(tx, key, deltas)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, tx.Commit())

	var hds, vpi int64
	require.NoError(t, s.DB().Get(&hds, "SELECT HDs FROM HudCache WHERE playerId = 7"))
	require.NoError(t, s.DB().Get(&vpi, "SELECT street0VPI FROM HudCache WHERE playerId = 7"))
	assert.Equal(t, int64(2), hds)
	assert.Equal(t, int64(2), vpi)
}

func TestIsTransientConflict(t *testing.T) {
	assert.False(t, IsTransientConflict(nil))
	assert.False(t, IsTransientConflict(assert.AnError))
	assert.True(t, IsTransientConflict(errDatabaseLocked{}))
}

type errDatabaseLocked struct{}

func (errDatabaseLocked) Error() string { return "database is locked (5) (SQLITE_BUSY)" }
