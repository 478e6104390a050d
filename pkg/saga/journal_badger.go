package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	runKeyPrefix         = "run:"
	runIndexStatusPrefix = "run:index:status:"
)

// BadgerJournal is a durable Journal backed by Badger. It keeps the run
// record at "run:{runID}" plus a status index entry for filtered listing.
type BadgerJournal struct {
	db *badger.DB
}

// NewBadgerJournal creates a Badger-backed journal.
func NewBadgerJournal(db *badger.DB) (*BadgerJournal, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db cannot be nil")
	}
	return &BadgerJournal{db: db}, nil
}

// Save persists one run snapshot and maintains its status index entry.
func (j *BadgerJournal) Save(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	key := []byte(runDataKey(run.ID))
	newIndexKey := []byte(runStatusIndexKey(run.Status.String(), run.ID))

	return j.db.Update(func(txn *badger.Txn) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var oldStatus string
		item, err := txn.Get(key)
		if err == nil {
			var previous Run
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &previous) }); err == nil {
				oldStatus = previous.Status.String()
			}
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(newIndexKey, []byte{}); err != nil {
			return err
		}
		if oldStatus != "" && oldStatus != run.Status.String() {
			_ = txn.Delete([]byte(runStatusIndexKey(oldStatus, run.ID)))
		}
		return nil
	})
}

// Get loads one run by id.
func (j *BadgerJournal) Get(ctx context.Context, runID string) (*Run, error) {
	var run Run
	err := j.db.View(func(txn *badger.Txn) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		item, err := txn.Get([]byte(runDataKey(runID)))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrRunNotFound
			}
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &run) })
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List queries runs by status with pagination, newest first.
func (j *BadgerJournal) List(ctx context.Context, filter RunListFilter) ([]*Run, int, error) {
	runs := make([]*Run, 0)

	err := j.db.View(func(txn *badger.Txn) error {
		if filter.Status != "" {
			prefix := []byte(runStatusIndexPrefix(filter.Status))
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				key := string(it.Item().Key())
				runID := strings.TrimPrefix(key, runStatusIndexPrefix(filter.Status))
				run, err := j.getInTxn(txn, runID)
				if err != nil {
					continue
				}
				runs = append(runs, run)
			}
			return nil
		}

		prefix := []byte(runKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			key := string(it.Item().Key())
			if strings.HasPrefix(key, runIndexStatusPrefix) {
				continue
			}
			var run Run
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &run) }); err != nil {
				continue
			}
			runs = append(runs, &run)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(runs, func(a, b int) bool {
		return runs[a].CreatedAt.After(runs[b].CreatedAt)
	})

	return paginateRuns(runs, filter)
}

func (j *BadgerJournal) getInTxn(txn *badger.Txn, runID string) (*Run, error) {
	item, err := txn.Get([]byte(runDataKey(runID)))
	if err != nil {
		return nil, err
	}
	var run Run
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &run) }); err != nil {
		return nil, err
	}
	return &run, nil
}

func runDataKey(runID string) string {
	return runKeyPrefix + runID
}

func runStatusIndexPrefix(status string) string {
	return runIndexStatusPrefix + status + ":"
}

func runStatusIndexKey(status, runID string) string {
	return runStatusIndexPrefix(status) + runID
}

var _ Journal = (*BadgerJournal)(nil)
