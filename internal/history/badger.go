package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/sokinpui/revise/model"
)

// Badger is a Backend stored in an embedded Badger key-value store.
//
// Keys:
//
//	c\x00<file>                -> last sequence number (uint64, big endian)
//	v\x00<file>\x00<seq>       -> JSON encoded version node
//	i\x00<file>\x00<version>   -> seq of that version
type Badger struct {
	db *badger.DB
}

// OpenBadger opens the store in dir. An empty dir keeps the data in memory.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func counterKey(fileID string) []byte {
	return []byte("c\x00" + fileID)
}

func versionPrefix(fileID string) []byte {
	return []byte("v\x00" + fileID + "\x00")
}

func versionKey(fileID string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(versionPrefix(fileID), seq)
}

func indexKey(fileID, versionID string) []byte {
	return []byte("i\x00" + fileID + "\x00" + versionID)
}

func (b *Badger) Append(_ context.Context, node model.VersionNode) error {
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		item, err := txn.Get(counterKey(node.FileID))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				seq = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		}
		seq++

		if err := txn.Set(versionKey(node.FileID, seq), data); err != nil {
			return err
		}
		if err := txn.Set(indexKey(node.FileID, node.ID), binary.BigEndian.AppendUint64(nil, seq)); err != nil {
			return err
		}
		return txn.Set(counterKey(node.FileID), binary.BigEndian.AppendUint64(nil, seq))
	})
}

func (b *Badger) List(_ context.Context, fileID string, page Page) ([]model.VersionNode, error) {
	var out []model.VersionNode
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := versionPrefix(fileID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Seek(append(append([]byte(nil), prefix...), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if skipped < page.Offset {
				skipped++
				continue
			}
			if page.Limit > 0 && len(out) == page.Limit {
				break
			}
			var n model.VersionNode
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return err
			}
			out = append(out, n)
		}
		return nil
	})
	return out, err
}

func (b *Badger) Get(_ context.Context, fileID, versionID string) (model.VersionNode, error) {
	var n model.VersionNode
	err := b.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get(indexKey(fileID, versionID))
		if err != nil {
			return err
		}
		seqBytes, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(versionKey(fileID, binary.BigEndian.Uint64(seqBytes)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &n)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.VersionNode{}, model.ErrNotFound
	}
	return n, err
}
