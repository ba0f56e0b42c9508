package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/apperrors"
	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/damon-houk/fx-rate-sync/internal/domain/repository"
	"github.com/dgraph-io/badger/v3"
)

// Keys are laid out as rate/{yyyy-MM}/{yyyy-MM-ddTHH:mm:ss-TARGET} so badger's
// ordered key space keeps partitions in chronological order.
const ratePrefix = "rate/"

// rateRecord is the stored form of an observation
type rateRecord struct {
	PartitionKey   string    `json:"partition_key"`
	RowKey         string    `json:"row_key"`
	BaseCurrency   string    `json:"base_currency"`
	TargetCurrency string    `json:"target_currency"`
	Rate           float64   `json:"rate"`
	ObservedAt     time.Time `json:"observed_at"`
	Source         string    `json:"source"`
	RateType       string    `json:"rate_type"`
}

func newRateRecord(obs entity.RateObservation) rateRecord {
	return rateRecord{
		PartitionKey:   obs.PartitionKey(),
		RowKey:         obs.RowKey(),
		BaseCurrency:   obs.BaseCurrency,
		TargetCurrency: obs.TargetCurrency,
		Rate:           obs.Rate,
		ObservedAt:     obs.ObservedAt,
		Source:         string(obs.Source),
		RateType:       obs.RateType,
	}
}

func (r rateRecord) observation() entity.RateObservation {
	return entity.RateObservation{
		BaseCurrency:   r.BaseCurrency,
		TargetCurrency: r.TargetCurrency,
		Rate:           r.Rate,
		ObservedAt:     r.ObservedAt.UTC(),
		Source:         entity.Source(r.Source),
		RateType:       r.RateType,
	}
}

func rateKey(partition, row string) []byte {
	return []byte(ratePrefix + partition + "/" + row)
}

func partitionPrefix(partition string) []byte {
	return []byte(ratePrefix + partition + "/")
}

// partitionOf extracts the partition segment of a rate key
func partitionOf(key []byte) string {
	rest := bytes.TrimPrefix(key, []byte(ratePrefix))
	if i := bytes.IndexByte(rest, '/'); i >= 0 {
		return string(rest[:i])
	}
	return string(rest)
}

// defaultDeleteChunk bounds how many keys one deletion transaction removes
const defaultDeleteChunk = 1000

// BadgerRateRepository implements the rate repository interface using BadgerDB
type BadgerRateRepository struct {
	db          *badger.DB
	deleteChunk int
}

// NewBadgerRateRepository creates a new BadgerDB rate repository
func NewBadgerRateRepository(db *badger.DB) *BadgerRateRepository {
	return &BadgerRateRepository{db: db, deleteChunk: defaultDeleteChunk}
}

var _ repository.RateRepository = (*BadgerRateRepository)(nil)

// Upsert writes or overwrites the observation at its partition/row key
func (r *BadgerRateRepository) Upsert(ctx context.Context, obs entity.RateObservation) error {
	partition, row := obs.PartitionKey(), obs.RowKey()
	fail := func(err error) error {
		return &apperrors.PersistenceError{PartitionKey: partition, RowKey: row, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if err := obs.Validate(); err != nil {
		return fail(err)
	}

	data, err := json.Marshal(newRateRecord(obs))
	if err != nil {
		return fail(fmt.Errorf("failed to marshal observation: %w", err))
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rateKey(partition, row), data)
	})
	if err != nil {
		return fail(err)
	}

	return nil
}

// DeleteOlderThan removes every observation whose partition sorts strictly before
// the partition of cutoff and returns how many were removed. Keys are deleted in
// chunks, one transaction each; on failure the count covers the committed chunks.
func (r *BadgerRateRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	cutoffPartition := entity.PartitionKey(cutoff)

	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(ratePrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().KeyCopy(nil)
			if partitionOf(key) >= cutoffPartition {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired observations: %w", err)
	}

	deleted := 0
	for start := 0; start < len(keys); start += r.deleteChunk {
		if start > 0 {
			if err := ctx.Err(); err != nil {
				return deleted, err
			}
		}

		end := start + r.deleteChunk
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		err := r.db.Update(func(txn *badger.Txn) error {
			for _, key := range chunk {
				if err := txn.Delete(key); err != nil {
					return fmt.Errorf("failed to delete observation %s: %w", key, err)
				}
			}
			return nil
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to commit deletions: %w", err)
		}
		deleted += len(chunk)
	}

	return deleted, nil
}

// QueryOlderThan opens a read-only cursor over observations in partitions before the partition of cutoff
func (r *BadgerRateRepository) QueryOlderThan(ctx context.Context, cutoff time.Time) (repository.ObservationCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := r.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(ratePrefix)

	return &badgerCursor{
		ctx:             ctx,
		txn:             txn,
		it:              txn.NewIterator(opts),
		cutoffPartition: entity.PartitionKey(cutoff),
	}, nil
}

// FindByPartition lists observations of a partition ordered by row key.
// An empty target returns every currency.
func (r *BadgerRateRepository) FindByPartition(ctx context.Context, partition, target string) ([]entity.RateObservation, error) {
	if _, err := time.Parse(entity.PartitionLayout, partition); err != nil {
		return nil, fmt.Errorf("invalid partition %q: %w", partition, err)
	}
	target = strings.ToUpper(target)

	observations := []entity.RateObservation{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = partitionPrefix(partition)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			if target != "" && !bytes.HasSuffix(item.Key(), []byte("-"+target)) {
				continue
			}

			var rec rateRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to decode observation %s: %w", item.Key(), err)
			}
			observations = append(observations, rec.observation())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read partition %s: %w", partition, err)
	}

	return observations, nil
}

// badgerCursor walks a read-only transaction once; it cannot be rewound
type badgerCursor struct {
	ctx             context.Context
	txn             *badger.Txn
	it              *badger.Iterator
	cutoffPartition string

	started bool
	done    bool
	current entity.RateObservation
	err     error
}

func (c *badgerCursor) Next() bool {
	if c.done {
		return false
	}

	if !c.started {
		c.it.Rewind()
		c.started = true
	} else {
		c.it.Next()
	}

	if err := c.ctx.Err(); err != nil {
		c.err = err
		c.done = true
		return false
	}

	if !c.it.Valid() {
		c.done = true
		return false
	}

	item := c.it.Item()
	if partitionOf(item.Key()) >= c.cutoffPartition {
		c.done = true
		return false
	}

	var rec rateRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		c.err = fmt.Errorf("failed to decode observation %s: %w", item.Key(), err)
		c.done = true
		return false
	}

	c.current = rec.observation()
	return true
}

func (c *badgerCursor) Observation() entity.RateObservation {
	return c.current
}

func (c *badgerCursor) Err() error {
	return c.err
}

// Close releases the iterator and its transaction; it is safe to call more than once
func (c *badgerCursor) Close() error {
	if c.it != nil {
		c.it.Close()
		c.it = nil
		c.txn.Discard()
	}
	c.done = true
	return nil
}
