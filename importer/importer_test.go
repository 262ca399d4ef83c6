package importer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/tracker/hand"
	"voyager.com/tracker/internal/idcache"
	"voyager.com/tracker/notify"
	"voyager.com/tracker/stats"
	"voyager.com/tracker/store"
	"voyager.com/tracker/store/storetest"
	"voyager.com/tracker/util"
)

func newTestImporter(t *testing.T, config util.ImportConfig) (*Importer, *Queue, *store.Store) {
	t.Helper()
	st := store.New(storetest.Open(t))
	ids, err := idcache.NewCache(128, st)
	require.NoError(t, err)
	maintainer := stats.NewMaintainer(st, config.UseDateInHudCache)
	queue := NewQueue(config.QueueSize)
	imp := NewImporter(st, ids, maintainer, nil, config, queue)
	return imp, queue, st
}

func testConfig() util.ImportConfig {
	config := util.DefaultImportConfig()
	config.QueueSize = 8
	config.QueueTimeoutSec = 1
	return config
}

// testHand builds a minimal two-player hand that folds out preflop.
func testHand(siteHandNo string) *hand.Hand {
	return testHandBetween(siteHandNo, "alice", "bob")
}

func testHandBetween(siteHandNo, sb, bb string) *hand.Hand {
	gt := &hand.GameType{
		Type: "ring", Base: hand.BaseHold, Category: "holdem", Limit: "nl",
		HiLo: "h", SmallBlind: 50, BigBlind: 100,
	}
	h := hand.New(1, gt, "")
	h.SiteHandNo = siteHandNo
	h.TableName = "Table 2"
	h.StartTime = time.Date(2009, 2, 21, 11, 21, 57, 0, time.UTC)
	h.ButtonPos = 1
	h.AddPlayer(1, sb, 10000)
	h.AddPlayer(2, bb, 10000)
	h.Streets = []hand.Street{{Name: hand.StreetPreflop}}
	h.AddAction(hand.StreetPreflop, sb, hand.ActionPostSmallBlind, 50)
	h.AddAction(hand.StreetPreflop, bb, hand.ActionPostBigBlind, 100)
	h.AddAction(hand.StreetPreflop, sb, hand.ActionFold, 0)
	h.AddCollectPot(bb, 150)
	return h
}

func TestImportStoresHands(t *testing.T) {
	imp, queue, st := newTestImporter(t, testConfig())

	go func() {
		for i := 0; i < 3; i++ {
			queue.Enqueue(testHand(fmt.Sprintf("100%d", i)))
		}
		queue.Finish()
	}()

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Stored)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Failed)
	// Three hands plus the finish marker.
	assert.Equal(t, int64(4), queue.Acked())

	var hands, handsPlayers, hudRows int
	require.NoError(t, st.DB().Get(&hands, "SELECT COUNT(1) FROM Hands"))
	require.NoError(t, st.DB().Get(&handsPlayers, "SELECT COUNT(1) FROM HandsPlayers"))
	require.NoError(t, st.DB().Get(&hudRows, "SELECT COUNT(1) FROM HudCache"))
	assert.Equal(t, 3, hands)
	assert.Equal(t, 6, handsPlayers)
	// Two players, one position each, one game type, one style key.
	assert.Equal(t, 2, hudRows)
}

func TestImportSkipsDuplicates(t *testing.T) {
	imp, queue, st := newTestImporter(t, testConfig())

	go func() {
		queue.Enqueue(testHand("1001"))
		queue.Enqueue(testHand("1001"))
		queue.Enqueue(testHand("1002"))
		queue.Finish()
	}()

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Stored)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, int64(4), queue.Acked())

	var hands int
	require.NoError(t, st.DB().Get(&hands, "SELECT COUNT(1) FROM Hands"))
	assert.Equal(t, 2, hands)
}

func TestImportAcrossRunsSkipsStoredHands(t *testing.T) {
	config := testConfig()
	imp, queue, st := newTestImporter(t, config)

	go func() {
		queue.Enqueue(testHand("1001"))
		queue.Finish()
	}()
	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	// A second importer over the same database sees the stored hand.
	ids, err := idcache.NewCache(128, st)
	require.NoError(t, err)
	queue2 := NewQueue(config.QueueSize)
	imp2 := NewImporter(st, ids, stats.NewMaintainer(st, config.UseDateInHudCache), nil, config, queue2)
	go func() {
		queue2.Enqueue(testHand("1001"))
		queue2.Finish()
	}()
	summary, err := imp2.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Stored)
	assert.Equal(t, 1, summary.Duplicates)
}

func TestImportStopsOnIdleQueue(t *testing.T) {
	imp, queue, _ := newTestImporter(t, testConfig())

	// No hands and no finish signal: the consumer times out and stops.
	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Stored)
	assert.Equal(t, int64(0), queue.Acked())
}

func TestImportEmptyRunWithFinish(t *testing.T) {
	imp, queue, _ := newTestImporter(t, testConfig())

	go queue.Finish()
	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Stored)
	assert.Equal(t, 0, summary.Failed)
	// The finish marker itself is acked even when no hands preceded it.
	assert.Equal(t, int64(1), queue.Acked())
}

func TestImportBatchedCommit(t *testing.T) {
	config := testConfig()
	config.CommitEachHand = false
	config.CommitBatchSize = 2
	imp, queue, st := newTestImporter(t, config)

	go func() {
		for i := 0; i < 5; i++ {
			queue.Enqueue(testHand(fmt.Sprintf("200%d", i)))
		}
		queue.Finish()
	}()

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Stored)
	assert.Equal(t, 0, summary.Failed)

	var hands int
	require.NoError(t, st.DB().Get(&hands, "SELECT COUNT(1) FROM Hands"))
	assert.Equal(t, 5, hands)
}

func TestImportBatchedCommitSkipsDuplicateInsideBatch(t *testing.T) {
	config := testConfig()
	config.CommitEachHand = false
	config.CommitBatchSize = 50
	imp, queue, st := newTestImporter(t, config)

	go func() {
		queue.Enqueue(testHand("3001"))
		queue.Enqueue(testHand("3001"))
		queue.Finish()
	}()

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Stored)
	assert.Equal(t, 1, summary.Duplicates)

	var hands int
	require.NoError(t, st.DB().Get(&hands, "SELECT COUNT(1) FROM Hands"))
	assert.Equal(t, 1, hands)
}

func TestImportBatchedCommitResolvesNewPlayersMidBatch(t *testing.T) {
	config := testConfig()
	config.CommitEachHand = false
	config.CommitBatchSize = 50
	imp, queue, st := newTestImporter(t, config)

	// The second hand introduces players the batch transaction has never
	// seen; their resolution must run on that transaction, not on a second
	// connection that would block on its write lock.
	go func() {
		queue.Enqueue(testHandBetween("4001", "alice", "bob"))
		queue.Enqueue(testHandBetween("4002", "carol", "dave"))
		queue.Finish()
	}()

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Stored)
	assert.Equal(t, 0, summary.Failed)

	var hands, players int
	require.NoError(t, st.DB().Get(&hands, "SELECT COUNT(1) FROM Hands"))
	require.NoError(t, st.DB().Get(&players, "SELECT COUNT(1) FROM Players"))
	assert.Equal(t, 2, hands)
	assert.Equal(t, 4, players)
}

func TestImportRetriesTransientConflicts(t *testing.T) {
	imp, queue, st := newTestImporter(t, testConfig())

	// Fail the first attempts with a transient conflict, leaving a partial
	// write behind each time so the retry has to roll it back.
	attempts := 0
	persist := imp.persist
	imp.persist = func(tx *sqlx.Tx, h *hand.Hand) (notify.HandImported, error) {
		attempts++
		if attempts < maxTries {
			_, err := tx.Exec("INSERT INTO Players (name, siteId) VALUES ('ghost', 9)")
			require.NoError(t, err)
			return notify.HandImported{}, errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return persist(tx, h)
	}

	go func() {
		queue.Enqueue(testHand("5001"))
		queue.Finish()
	}()

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Stored)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, maxTries, attempts)
	assert.Equal(t, int64(2), queue.Acked())

	var hands, ghosts int
	require.NoError(t, st.DB().Get(&hands, "SELECT COUNT(1) FROM Hands"))
	require.NoError(t, st.DB().Get(&ghosts, "SELECT COUNT(1) FROM Players WHERE name = 'ghost'"))
	assert.Equal(t, 1, hands)
	assert.Zero(t, ghosts)
}

func TestQueueDequeueTimeout(t *testing.T) {
	queue := NewQueue(4)
	start := time.Now()
	_, ok := queue.dequeue(50 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	queue.Enqueue(testHand("1"))
	item, ok := queue.dequeue(50 * time.Millisecond)
	require.True(t, ok)
	assert.False(t, item.sentinel)
	assert.Equal(t, "1", item.hand.SiteHandNo)
}
