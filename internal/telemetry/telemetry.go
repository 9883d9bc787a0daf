package telemetry

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// SearchRecord captures the outcome of one completed search. It's written
// once the engine sends bestmove and never read back by the search itself
// — this is a log for offline analysis, not a learning signal.
type SearchRecord struct {
	FEN       string        `json:"fen"`
	BestMove  string        `json:"best_move"`
	ScoreCP   int           `json:"score_cp"`
	Mate      int           `json:"mate,omitempty"`
	Depth     int           `json:"depth"`
	Nodes     uint64        `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// Store wraps BadgerDB for append-only search telemetry. Keys are a
// big-endian counter so iteration order is insertion order.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

const seqBandwidth = 100

// Open opens (creating if necessary) the telemetry store in the platform
// data directory.
func Open() (*Store, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbDir)
}

// OpenAt opens the telemetry store at an explicit directory, useful for
// tests that don't want to touch the user's real data directory.
func OpenAt(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	seq, err := db.GetSequence([]byte("search_seq"), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if s.seq != nil {
		s.seq.Release()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends one completed search to the log.
func (s *Store) Record(rec SearchRecord) error {
	rec.Timestamp = time.Now()

	id, err := s.seq.Next()
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := searchKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Recent returns up to limit of the most recently recorded searches,
// newest first.
func (s *Store) Recent(limit int) ([]SearchRecord, error) {
	var records []SearchRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte("search:")

		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append([]byte("search:"), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix([]byte("search:")) && len(records) < limit; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec SearchRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return records, err
}

// Count returns the number of search records stored.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("search:")

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix([]byte("search:")); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func searchKey(id uint64) []byte {
	key := make([]byte, len("search:")+8)
	copy(key, "search:")
	binary.BigEndian.PutUint64(key[len("search:"):], id)
	return key
}
