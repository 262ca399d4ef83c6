package store

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"voyager.com/tracker/hand"
)

// Store wraps the hand-history database. The schema itself is owned and
// provisioned externally; the store only reads and writes rows.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to connect to %s database", driver)
	}
	return New(db), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) isPostgres() bool { return s.db.DriverName() == "postgres" }

// Begin starts a transaction for the import loop.
func (s *Store) Begin() (*sqlx.Tx, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to begin transaction")
	}
	return tx, nil
}

// Savepoint helpers used by the batched-commit import mode; failing one hand
// rolls back to its savepoint without touching previously stored hands.
func (s *Store) Savepoint(tx *sqlx.Tx, name string) error {
	_, err := tx.Exec("SAVEPOINT " + name)
	return err
}

func (s *Store) RollbackTo(tx *sqlx.Tx, name string) error {
	_, err := tx.Exec("ROLLBACK TO SAVEPOINT " + name)
	return err
}

func (s *Store) ReleaseSavepoint(tx *sqlx.Tx, name string) error {
	_, err := tx.Exec("RELEASE SAVEPOINT " + name)
	return err
}

// IsDuplicate reports whether a hand with this (gameTypeID, siteHandNo) has
// already been stored. ext is the import transaction during a run, or the
// plain connection outside one; a separate connection would contend with the
// import transaction's write lock on sqlite.
func (s *Store) IsDuplicate(ext sqlx.Ext, gameTypeID uint64, siteHandNo string) (bool, error) {
	var count int
	q := ext.Rebind("SELECT COUNT(1) FROM Hands WHERE gametypeId = ? AND siteHandNo = ?")
	err := sqlx.Get(ext, &count, q, gameTypeID, siteHandNo)
	if err != nil {
		return false, errors.Wrap(err, "Duplicate check failed")
	}
	return count > 0, nil
}

// FindOrCreatePlayer returns the durable player id for (siteID, name),
// inserting a new Players row on first sight. Runs on ext so import-time
// resolution stays inside the import transaction.
func (s *Store) FindOrCreatePlayer(ext sqlx.Ext, siteID int, name string) (uint64, error) {
	var id uint64
	q := ext.Rebind("SELECT id FROM Players WHERE siteId = ? AND name = ?")
	err := sqlx.Get(ext, &id, q, siteID, name)
	if err == nil {
		return id, nil
	}
	if !isNoRows(err) {
		return 0, errors.Wrapf(err, "Player lookup failed for %s", name)
	}
	return s.insertReturningID(ext,
		"INSERT INTO Players (name, siteId) VALUES (?, ?)",
		name, siteID,
	)
}

// FindPlayer returns the player id for (siteID, name) without creating one.
// ok is false when the player has never been seen.
func (s *Store) FindPlayer(siteID int, name string) (uint64, bool, error) {
	var id uint64
	q := s.db.Rebind("SELECT id FROM Players WHERE siteId = ? AND name = ?")
	err := s.db.Get(&id, q, siteID, name)
	if err != nil {
		if isNoRows(err) {
			return 0, false, nil
		}
		return 0, false, errors.Wrapf(err, "Player lookup failed for %s", name)
	}
	return id, true, nil
}

// FindOrCreateGameType returns the durable game-type id for the given game
// parameters, inserting a new Gametypes row on first sight. Monetary values
// are already integer cents, so the natural key cannot drift.
func (s *Store) FindOrCreateGameType(ext sqlx.Ext, siteID int, gt *hand.GameType) (uint64, error) {
	var id uint64
	q := ext.Rebind(`SELECT id FROM Gametypes
		WHERE siteId = ? AND type = ? AND base = ? AND category = ? AND limitType = ?
		  AND smallBlind = ? AND bigBlind = ? AND smallBet = ? AND bigBet = ?`)
	err := sqlx.Get(ext, &id, q, siteID, gt.Type, gt.Base, gt.Category, gt.Limit,
		gt.SmallBlind, gt.BigBlind, gt.SmallBet, gt.BigBet)
	if err == nil {
		return id, nil
	}
	if !isNoRows(err) {
		return 0, errors.Wrap(err, "Game type lookup failed")
	}
	return s.insertReturningID(ext,
		`INSERT INTO Gametypes (siteId, type, base, category, limitType, hiLo,
			smallBlind, bigBlind, smallBet, bigBet)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		siteID, gt.Type, gt.Base, gt.Category, gt.Limit, gt.HiLo,
		gt.SmallBlind, gt.BigBlind, gt.SmallBet, gt.BigBet,
	)
}

// InsertHand writes the Hands row and returns the generated hand id.
func (s *Store) InsertHand(tx *sqlx.Tx, row *HandRow) (uint64, error) {
	cols := strings.Join(handsCols, ", ")
	binds := ":" + strings.Join(handsCols, ", :")
	if s.isPostgres() {
		q := "INSERT INTO Hands (" + cols + ") VALUES (" + binds + ") RETURNING id"
		rows, err := tx.NamedQuery(q, row)
		if err != nil {
			return 0, errors.Wrap(err, "Hand insert failed")
		}
		defer rows.Close()
		var id uint64
		if rows.Next() {
			if err := rows.Scan(&id); err != nil {
				return 0, errors.Wrap(err, "Hand insert returned no id")
			}
		}
		return id, rows.Err()
	}
	res, err := tx.NamedExec("INSERT INTO Hands ("+cols+") VALUES ("+binds+")", row)
	if err != nil {
		return 0, errors.Wrap(err, "Hand insert failed")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "Hand insert returned no id")
	}
	return uint64(id), nil
}

// InsertHandPlayers writes all per-player rows for one hand as a single
// multi-row insert.
func (s *Store) InsertHandPlayers(tx *sqlx.Tx, rows []HandPlayerRow) error {
	if len(rows) == 0 {
		return nil
	}
	cols := strings.Join(handsPlayersCols, ", ")
	binds := ":" + strings.Join(handsPlayersCols, ", :")
	_, err := tx.NamedExec("INSERT INTO HandsPlayers ("+cols+") VALUES ("+binds+")", rows)
	if err != nil {
		return errors.Wrap(err, "HandsPlayers batch insert failed")
	}
	return nil
}

func (s *Store) insertReturningID(ext sqlx.Ext, query string, args ...interface{}) (uint64, error) {
	if s.isPostgres() {
		var id uint64
		q := ext.Rebind(query + " RETURNING id")
		err := sqlx.Get(ext, &id, q, args...)
		if err != nil {
			return 0, errors.Wrap(err, "Insert failed")
		}
		return id, nil
	}
	res, err := ext.Exec(ext.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "Insert failed")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "Insert returned no id")
	}
	return uint64(id), nil
}

func isNoRows(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no rows in result set")
}

// IsTransientConflict classifies storage errors that are worth retrying:
// serialization failures and deadlocks on postgres, busy/locked errors on
// sqlite.
func IsTransientConflict(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	if pqErr, ok := cause.(*pq.Error); ok {
		return pqErr.Code == "40001" || pqErr.Code == "40P01" || pqErr.Code == "55P03"
	}
	msg := strings.ToLower(cause.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

// HandStartCutoff returns the start of the session window (24 hours before
// the given time), used by the session statistics path.
func HandStartCutoff(now time.Time) time.Time {
	return now.Add(-24 * time.Hour)
}
