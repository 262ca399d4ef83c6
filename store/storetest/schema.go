// Package storetest provisions a throwaway sqlite schema mirroring the
// externally owned tracker tables, for use in package tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE Players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		siteId INTEGER NOT NULL,
		UNIQUE (siteId, name)
	)`,
	`CREATE TABLE Gametypes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		siteId INTEGER NOT NULL,
		type TEXT NOT NULL,
		base TEXT NOT NULL,
		category TEXT NOT NULL,
		limitType TEXT NOT NULL,
		hiLo TEXT NOT NULL DEFAULT 'h',
		smallBlind INTEGER NOT NULL DEFAULT 0,
		bigBlind INTEGER NOT NULL DEFAULT 0,
		smallBet INTEGER NOT NULL DEFAULT 0,
		bigBet INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE Hands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tableName TEXT NOT NULL,
		gametypeId INTEGER NOT NULL,
		siteHandNo TEXT NOT NULL,
		handStart TIMESTAMP NOT NULL,
		importTime TIMESTAMP NOT NULL,
		seats INTEGER NOT NULL,
		maxSeats INTEGER NOT NULL,
		playersVpi INTEGER NOT NULL DEFAULT 0,
		boardcard1 TEXT NOT NULL DEFAULT '',
		boardcard2 TEXT NOT NULL DEFAULT '',
		boardcard3 TEXT NOT NULL DEFAULT '',
		boardcard4 TEXT NOT NULL DEFAULT '',
		boardcard5 TEXT NOT NULL DEFAULT '',
		playersAtStreet1 INTEGER NOT NULL DEFAULT 0,
		playersAtStreet2 INTEGER NOT NULL DEFAULT 0,
		playersAtStreet3 INTEGER NOT NULL DEFAULT 0,
		playersAtStreet4 INTEGER NOT NULL DEFAULT 0,
		playersAtShowdown INTEGER NOT NULL DEFAULT 0,
		UNIQUE (gametypeId, siteHandNo)
	)`,
	`CREATE TABLE HandsPlayers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		handId INTEGER NOT NULL,
		playerId INTEGER NOT NULL,
		startCash INTEGER NOT NULL DEFAULT 0,
		seatNo INTEGER NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		tourneyTypeId INTEGER NOT NULL DEFAULT 0,
		card1 TEXT NOT NULL DEFAULT '',
		card2 TEXT NOT NULL DEFAULT '',
		card3 TEXT NOT NULL DEFAULT '',
		card4 TEXT NOT NULL DEFAULT '',
		card5 TEXT NOT NULL DEFAULT '',
		card6 TEXT NOT NULL DEFAULT '',
		card7 TEXT NOT NULL DEFAULT '',
		winnings INTEGER NOT NULL DEFAULT 0,
		rake INTEGER NOT NULL DEFAULT 0,
		totalProfit INTEGER NOT NULL DEFAULT 0,
		street0VPI INTEGER NOT NULL DEFAULT 0,
		street0Aggr INTEGER NOT NULL DEFAULT 0,
		street0_3BChance INTEGER NOT NULL DEFAULT 0,
		street0_3BDone INTEGER NOT NULL DEFAULT 0,
		street0Calls INTEGER NOT NULL DEFAULT 0,
		street0Bets INTEGER NOT NULL DEFAULT 0,
		street1Seen INTEGER NOT NULL DEFAULT 0,
		street2Seen INTEGER NOT NULL DEFAULT 0,
		street3Seen INTEGER NOT NULL DEFAULT 0,
		street4Seen INTEGER NOT NULL DEFAULT 0,
		sawShowdown INTEGER NOT NULL DEFAULT 0,
		wonAtSD INTEGER NOT NULL DEFAULT 0,
		wonWhenSeenStreet1 INTEGER NOT NULL DEFAULT 0,
		street1Aggr INTEGER NOT NULL DEFAULT 0,
		street2Aggr INTEGER NOT NULL DEFAULT 0,
		street3Aggr INTEGER NOT NULL DEFAULT 0,
		street4Aggr INTEGER NOT NULL DEFAULT 0,
		street1Calls INTEGER NOT NULL DEFAULT 0,
		street2Calls INTEGER NOT NULL DEFAULT 0,
		street3Calls INTEGER NOT NULL DEFAULT 0,
		street4Calls INTEGER NOT NULL DEFAULT 0,
		street1Bets INTEGER NOT NULL DEFAULT 0,
		street2Bets INTEGER NOT NULL DEFAULT 0,
		street3Bets INTEGER NOT NULL DEFAULT 0,
		street4Bets INTEGER NOT NULL DEFAULT 0,
		street1CBChance INTEGER NOT NULL DEFAULT 0,
		street2CBChance INTEGER NOT NULL DEFAULT 0,
		street3CBChance INTEGER NOT NULL DEFAULT 0,
		street4CBChance INTEGER NOT NULL DEFAULT 0,
		street1CBDone INTEGER NOT NULL DEFAULT 0,
		street2CBDone INTEGER NOT NULL DEFAULT 0,
		street3CBDone INTEGER NOT NULL DEFAULT 0,
		street4CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet1CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet2CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet3CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet4CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet1CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet2CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet3CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet4CBDone INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet1 INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet2 INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet3 INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet4 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet1 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet2 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet3 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet4 INTEGER NOT NULL DEFAULT 0,
		stealAttemptChance INTEGER NOT NULL DEFAULT 0,
		stealAttempted INTEGER NOT NULL DEFAULT 0,
		foldBbToStealChance INTEGER NOT NULL DEFAULT 0,
		foldedBbToSteal INTEGER NOT NULL DEFAULT 0,
		foldSbToStealChance INTEGER NOT NULL DEFAULT 0,
		foldedSbToSteal INTEGER NOT NULL DEFAULT 0,
		street1CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street2CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street3CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street4CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street1CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0,
		street2CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0,
		street3CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0,
		street4CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE HudCache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gametypeId INTEGER NOT NULL,
		playerId INTEGER NOT NULL,
		activeSeats INTEGER NOT NULL,
		position TEXT NOT NULL,
		tourneyTypeId INTEGER NOT NULL DEFAULT 0,
		styleKey TEXT NOT NULL,
		HDs INTEGER NOT NULL DEFAULT 0,
		street0VPI INTEGER NOT NULL DEFAULT 0,
		street0Aggr INTEGER NOT NULL DEFAULT 0,
		street0_3BChance INTEGER NOT NULL DEFAULT 0,
		street0_3BDone INTEGER NOT NULL DEFAULT 0,
		street1Seen INTEGER NOT NULL DEFAULT 0,
		street2Seen INTEGER NOT NULL DEFAULT 0,
		street3Seen INTEGER NOT NULL DEFAULT 0,
		street4Seen INTEGER NOT NULL DEFAULT 0,
		sawShowdown INTEGER NOT NULL DEFAULT 0,
		street1Aggr INTEGER NOT NULL DEFAULT 0,
		street2Aggr INTEGER NOT NULL DEFAULT 0,
		street3Aggr INTEGER NOT NULL DEFAULT 0,
		street4Aggr INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet1 INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet2 INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet3 INTEGER NOT NULL DEFAULT 0,
		otherRaisedStreet4 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet1 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet2 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet3 INTEGER NOT NULL DEFAULT 0,
		foldToOtherRaisedStreet4 INTEGER NOT NULL DEFAULT 0,
		wonWhenSeenStreet1 INTEGER NOT NULL DEFAULT 0,
		wonAtSD INTEGER NOT NULL DEFAULT 0,
		stealAttemptChance INTEGER NOT NULL DEFAULT 0,
		stealAttempted INTEGER NOT NULL DEFAULT 0,
		foldBbToStealChance INTEGER NOT NULL DEFAULT 0,
		foldedBbToSteal INTEGER NOT NULL DEFAULT 0,
		foldSbToStealChance INTEGER NOT NULL DEFAULT 0,
		foldedSbToSteal INTEGER NOT NULL DEFAULT 0,
		street1CBChance INTEGER NOT NULL DEFAULT 0,
		street2CBChance INTEGER NOT NULL DEFAULT 0,
		street3CBChance INTEGER NOT NULL DEFAULT 0,
		street4CBChance INTEGER NOT NULL DEFAULT 0,
		street1CBDone INTEGER NOT NULL DEFAULT 0,
		street2CBDone INTEGER NOT NULL DEFAULT 0,
		street3CBDone INTEGER NOT NULL DEFAULT 0,
		street4CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet1CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet2CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet3CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet4CBChance INTEGER NOT NULL DEFAULT 0,
		foldToStreet1CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet2CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet3CBDone INTEGER NOT NULL DEFAULT 0,
		foldToStreet4CBDone INTEGER NOT NULL DEFAULT 0,
		totalProfit INTEGER NOT NULL DEFAULT 0,
		street1CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street2CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street3CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street4CheckCallRaiseChance INTEGER NOT NULL DEFAULT 0,
		street1CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0,
		street2CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0,
		street3CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0,
		street4CheckCallRaiseDone INTEGER NOT NULL DEFAULT 0,
		UNIQUE (gametypeId, playerId, activeSeats, position, tourneyTypeId, styleKey)
	)`,
}

// Open creates a throwaway sqlite database with the tracker schema applied.
// A file-backed database is used because every pooled connection to an
// in-memory one would see its own empty database.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "tracker.db") + "?_pragma=busy_timeout(5000)"
	db, err := sqlx.Connect("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, CreateSchema(db))
	return db
}

// CreateSchema applies the tracker tables to an existing connection.
func CreateSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "Schema statement failed")
		}
	}
	return nil
}
