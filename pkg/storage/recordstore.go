package storage

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/openperp/clearinghouse/pkg/clearing"
)

// RecordStore persists fill records and state snapshots in Pebble. Fill
// records form an append-only log under monotonically increasing sequence
// keys, with a per-market secondary index so feeds can page one market
// without scanning the whole log.
type RecordStore struct {
	db *pebble.DB

	mu      sync.Mutex
	nextSeq uint64
}

// keys: r:<8-byte-seq>, x:<8-byte-market><8-byte-seq>,
//        m:<8-byte-market>, u:<20-byte-address>
func kRecord(seq uint64) []byte { return append([]byte("r:"), seqKey(seq)...) }
func kRecordByMarket(marketIndex, seq uint64) []byte {
	k := append([]byte("x:"), seqKey(marketIndex)...)
	return append(k, seqKey(seq)...)
}
func kMarket(marketIndex uint64) []byte      { return append([]byte("m:"), seqKey(marketIndex)...) }
func kUser(addr common.Address) []byte       { return append([]byte("u:"), addr[:]...) }
func prefixRecords() []byte                  { return []byte("r:") }
func prefixMarketRecords(idx uint64) []byte  { return append([]byte("x:"), seqKey(idx)...) }

func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff
}

func NewRecordStore(path string) (*RecordStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	s := &RecordStore{db: db}
	s.nextSeq, err = s.recoverSeq()
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *RecordStore) Close() error { return s.db.Close() }

// recoverSeq finds the highest record key so appends continue after restart.
func (s *RecordStore) recoverSeq() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixRecords(),
		UpperBound: keyUpperBound(prefixRecords()),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, nil
	}
	var rec storedRecord
	if err := decodeGob(iter.Value(), &rec); err != nil {
		return 0, fmt.Errorf("decode last record: %w", err)
	}
	return rec.Seq + 1, nil
}

type storedRecord struct {
	Seq    uint64
	Record clearing.OrderRecord
}

// AppendRecords writes the fill records of one fulfillment in a single synced
// batch, assigning each a sequence number.
func (s *RecordStore) AppendRecords(records []clearing.OrderRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, rec := range records {
		seq := s.nextSeq
		val, err := encodeGob(storedRecord{Seq: seq, Record: rec})
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		if err := batch.Set(kRecord(seq), val, nil); err != nil {
			return err
		}
		// Secondary index carries no value; the primary key is derivable.
		if err := batch.Set(kRecordByMarket(rec.MarketIndex, seq), seqKey(seq), nil); err != nil {
			return err
		}
		s.nextSeq++
	}
	return batch.Commit(pebble.Sync)
}

// RecentRecords returns up to limit fill records, newest first.
func (s *RecordStore) RecentRecords(limit int) ([]clearing.OrderRecord, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixRecords(),
		UpperBound: keyUpperBound(prefixRecords()),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []clearing.OrderRecord
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var rec storedRecord
		if err := decodeGob(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec.Record)
	}
	return out, nil
}

// RecentRecordsByMarket returns up to limit fill records for one market,
// newest first, via the secondary index.
func (s *RecordStore) RecentRecordsByMarket(marketIndex uint64, limit int) ([]clearing.OrderRecord, error) {
	prefix := prefixMarketRecords(marketIndex)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []clearing.OrderRecord
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		val, closer, err := s.db.Get(append(prefixRecords(), iter.Value()...))
		if err != nil {
			return nil, fmt.Errorf("resolve indexed record: %w", err)
		}
		var rec storedRecord
		err = decodeGob(val, &rec)
		closer.Close()
		if err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec.Record)
	}
	return out, nil
}

// SaveMarket snapshots a market's full state.
func (s *RecordStore) SaveMarket(market *clearing.Market) error {
	val, err := encodeGob(market)
	if err != nil {
		return fmt.Errorf("encode market: %w", err)
	}
	return s.db.Set(kMarket(market.MarketIndex), val, pebble.Sync)
}

// LoadMarket returns the stored market snapshot, or false when absent.
func (s *RecordStore) LoadMarket(marketIndex uint64) (*clearing.Market, bool, error) {
	val, closer, err := s.db.Get(kMarket(marketIndex))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	var market clearing.Market
	if err := decodeGob(val, &market); err != nil {
		return nil, false, fmt.Errorf("decode market: %w", err)
	}
	return &market, true, nil
}

// SaveUser snapshots a user's orders, positions and balances.
func (s *RecordStore) SaveUser(addr common.Address, user *clearing.User) error {
	val, err := encodeGob(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.db.Set(kUser(addr), val, pebble.Sync)
}

// LoadUser returns the stored user snapshot, or false when absent.
func (s *RecordStore) LoadUser(addr common.Address) (*clearing.User, bool, error) {
	val, closer, err := s.db.Get(kUser(addr))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	var user clearing.User
	if err := decodeGob(val, &user); err != nil {
		return nil, false, fmt.Errorf("decode user: %w", err)
	}
	return &user, true, nil
}
