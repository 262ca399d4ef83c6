// Package importer is the bulk import engine: a single consumer that drains
// the hand queue, resolves identifiers, derives statistics and stores each
// hand exactly once.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"voyager.com/tracker/hand"
	"voyager.com/tracker/internal/idcache"
	"voyager.com/tracker/notify"
	"voyager.com/tracker/stats"
	"voyager.com/tracker/store"
	"voyager.com/tracker/util"
)

var importerLogger = log.With().Str("logger_name", "importer::importer").Logger()

// Retry policy for transient storage conflicts.
const (
	maxTries  = 4
	firstWait = 100 * time.Millisecond
	maxWait   = 5 * time.Second
)

var errDuplicateHand = errors.New("duplicate hand")

// handSavepoint scopes one hand's writes inside the enclosing transaction.
// Callers of storeHandWithRetry establish it first; retries roll back to it.
const handSavepoint = "hand_sp"

// Summary is the end-of-run accounting.
type Summary struct {
	Stored     int
	Duplicates int
	Failed     int
	Elapsed    time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("stored %d, duplicates %d, failed %d in %v",
		s.Stored, s.Duplicates, s.Failed, s.Elapsed.Round(time.Millisecond))
}

// Importer consumes hands from the queue and stores them. Exactly one
// Importer runs per queue; single-consumer ordering is what lets the id cache
// and hud cache updates skip their own locking.
type Importer struct {
	store      *store.Store
	ids        *idcache.Cache
	maintainer *stats.Maintainer
	notifier   *notify.Notifier
	config     util.ImportConfig
	queue      *Queue

	seen    map[string]bool
	pending []notify.HandImported

	// persist writes one hand inside the current transaction; retries go
	// through it as well.
	persist func(tx *sqlx.Tx, h *hand.Hand) (notify.HandImported, error)
}

func NewImporter(st *store.Store, ids *idcache.Cache, maintainer *stats.Maintainer,
	notifier *notify.Notifier, config util.ImportConfig, queue *Queue) *Importer {
	imp := &Importer{
		store:      st,
		ids:        ids,
		maintainer: maintainer,
		notifier:   notifier,
		config:     config,
		queue:      queue,
		seen:       make(map[string]bool),
	}
	imp.persist = imp.storeHand
	return imp
}

// Run drains the queue until a finish signal arrives or the queue stays empty
// for the configured timeout. Every dequeued hand is acked exactly once,
// stored, skipped as a duplicate, or counted as failed.
func (imp *Importer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary
	timeout := time.Duration(imp.config.QueueTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var tx *sqlx.Tx
	var err error
	inBatch := 0
	if !imp.config.CommitEachHand {
		tx, err = imp.store.Begin()
		if err != nil {
			return summary, err
		}
	}

	for {
		util.Metrics.SetImportQueueDepth(imp.queue.Depth())
		item, ok := imp.queue.dequeue(timeout)
		if !ok {
			importerLogger.Info().Msg("Import queue idle, stopping")
			break
		}
		if item.sentinel {
			imp.queue.ack()
			break
		}

		if imp.config.CommitEachHand {
			tx, err = imp.store.Begin()
			if err != nil {
				imp.queue.ack()
				return summary, err
			}
			if err := imp.store.Savepoint(tx, handSavepoint); err != nil {
				imp.queue.ack()
				return summary, errors.Wrap(err, "Savepoint failed")
			}
			event, err := imp.storeHandWithRetry(tx, item.hand)
			if err == nil {
				err = errors.Wrap(tx.Commit(), "Commit failed")
			} else {
				tx.Rollback()
			}
			if err == nil {
				imp.pending = append(imp.pending, event)
				imp.flushNotifications(ctx)
			}
			imp.countResult(&summary, item.hand, err)
			imp.queue.ack()
			continue
		}

		// Batched mode: each hand runs inside a savepoint so one bad hand
		// does not take the batch down with it.
		if err := imp.store.Savepoint(tx, handSavepoint); err != nil {
			imp.queue.ack()
			return summary, errors.Wrap(err, "Savepoint failed")
		}
		event, err := imp.storeHandWithRetry(tx, item.hand)
		if err != nil {
			if rbErr := imp.store.RollbackTo(tx, handSavepoint); rbErr != nil {
				imp.queue.ack()
				return summary, errors.Wrap(rbErr, "Savepoint rollback failed")
			}
		} else {
			if relErr := imp.store.ReleaseSavepoint(tx, handSavepoint); relErr != nil {
				imp.queue.ack()
				return summary, errors.Wrap(relErr, "Savepoint release failed")
			}
			imp.pending = append(imp.pending, event)
			inBatch++
		}
		imp.countResult(&summary, item.hand, err)
		imp.queue.ack()

		if inBatch >= imp.config.CommitBatchSize {
			if err := tx.Commit(); err != nil {
				return summary, errors.Wrap(err, "Batch commit failed")
			}
			imp.flushNotifications(ctx)
			inBatch = 0
			tx, err = imp.store.Begin()
			if err != nil {
				return summary, err
			}
		}
	}

	if tx != nil && !imp.config.CommitEachHand {
		if err := tx.Commit(); err != nil {
			return summary, errors.Wrap(err, "Final commit failed")
		}
		imp.flushNotifications(ctx)
	}

	summary.Elapsed = time.Since(start)
	importerLogger.Info().
		Int("stored", summary.Stored).
		Int("duplicates", summary.Duplicates).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("Import run finished")
	return summary, nil
}

func (imp *Importer) countResult(summary *Summary, h *hand.Hand, err error) {
	switch {
	case err == nil:
		summary.Stored++
		util.Metrics.HandStored()
	case errors.Cause(err) == errDuplicateHand:
		summary.Duplicates++
		util.Metrics.HandDuplicate()
	default:
		summary.Failed++
		util.Metrics.HandFailed()
		importerLogger.Error().Err(err).
			Str(util.SiteHandNoKey, h.SiteHandNo).
			Msg("Unable to store hand")
	}
}

// storeHandWithRetry retries transient storage conflicts with a doubling
// backoff, starting at 100ms and never sleeping 5s or more. Each retry rolls
// back to the hand savepoint so a half-written attempt leaves nothing behind.
func (imp *Importer) storeHandWithRetry(tx *sqlx.Tx, h *hand.Hand) (notify.HandImported, error) {
	wait := firstWait
	var event notify.HandImported
	var err error
	for attempt := 1; attempt <= maxTries; attempt++ {
		event, err = imp.persist(tx, h)
		if err == nil || !store.IsTransientConflict(err) {
			return event, err
		}
		if attempt == maxTries {
			break
		}
		if rbErr := imp.store.RollbackTo(tx, handSavepoint); rbErr != nil {
			return event, errors.Wrap(rbErr, "Savepoint rollback before retry failed")
		}
		importerLogger.Warn().Err(err).
			Str(util.SiteHandNoKey, h.SiteHandNo).
			Int("attempt", attempt).
			Msg("Transient storage conflict, retrying")
		time.Sleep(wait)
		wait *= 2
		if wait >= maxWait {
			wait = maxWait - time.Millisecond
		}
	}
	return event, err
}

// storeHand resolves ids, derives statistics and writes one hand. All reads
// and writes run on tx so nothing contends with the transaction's own lock.
func (imp *Importer) storeHand(tx *sqlx.Tx, h *hand.Hand) (notify.HandImported, error) {
	var event notify.HandImported
	gameTypeID, err := imp.ids.GameTypeID(tx, h.SiteID, h.GameType)
	if err != nil {
		return event, err
	}

	dupKey := fmt.Sprintf("%d|%s", gameTypeID, h.SiteHandNo)
	if imp.seen[dupKey] {
		return event, errDuplicateHand
	}
	dup, err := imp.store.IsDuplicate(tx, gameTypeID, h.SiteHandNo)
	if err != nil {
		return event, err
	}
	if dup {
		imp.seen[dupKey] = true
		return event, errDuplicateHand
	}

	names := make([]string, 0, len(h.Players))
	for _, p := range h.Players {
		names = append(names, p.Name)
	}
	playerIDs, err := imp.ids.PlayerIDs(tx, h.SiteID, names)
	if err != nil {
		return event, err
	}

	derived := hand.Derive(h)

	handID, err := imp.store.InsertHand(tx, store.NewHandRow(h, gameTypeID, derived))
	if err != nil {
		return event, err
	}
	rows := make([]store.HandPlayerRow, 0, len(derived.Players))
	for name, ps := range derived.Players {
		rows = append(rows, store.NewHandPlayerRow(handID, playerIDs[name], ps))
	}
	if err := imp.store.InsertHandPlayers(tx, rows); err != nil {
		return event, err
	}
	if err := imp.maintainer.ApplyHand(tx, gameTypeID, len(h.Players), h.StartTime, playerIDs, derived); err != nil {
		return event, err
	}

	imp.seen[dupKey] = true
	event = notify.HandImported{
		HandID:     handID,
		SiteHandNo: h.SiteHandNo,
		TableName:  h.TableName,
		GametypeID: gameTypeID,
		Seats:      len(h.Players),
	}
	return event, nil
}

// flushNotifications publishes events for hands whose transaction has
// committed. Events for rolled-back hands never make it here.
func (imp *Importer) flushNotifications(ctx context.Context) {
	for _, event := range imp.pending {
		imp.notifier.HandImported(ctx, event)
	}
	imp.pending = imp.pending[:0]
}
