// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang/snappy"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
	"gopkg.in/yaml.v3"
)

// BadgerConfig configures a badger-backed store.
type BadgerConfig struct {
	// Path is the database directory. It is created if needed and ignored
	// when InMemory is set.
	Path string `yaml:"path"`
	// InMemory keeps the database in memory only.
	InMemory bool `yaml:"in_memory"`
	// SyncWrites makes every commit durable before it returns.
	SyncWrites bool `yaml:"sync_writes"`
}

// DefaultBadgerConfig is the configuration used by the command line tool.
var DefaultBadgerConfig = BadgerConfig{SyncWrites: true}

// Key prefixes. Member keys are "m/<alignment>\x00<sequence>" so that one
// alignment's members form a contiguous key range.
const (
	alignmentPrefix = "a/"
	sequencePrefix  = "s/"
	memberPrefix    = "m/"
	keySep          = "\x00"
)

func alignmentKey(name string) []byte { return []byte(alignmentPrefix + name) }
func sequenceKey(id string) []byte    { return []byte(sequencePrefix + id) }
func memberRange(alignment string) []byte {
	return []byte(memberPrefix + alignment + keySep)
}
func memberKey(alignment, seq string) []byte {
	return append(memberRange(alignment), seq...)
}

// badgerLogger routes badger's messages to the grail logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{})   { log.Error.Printf("badger: "+format, args...) }
func (badgerLogger) Warningf(format string, args ...interface{}) { log.Printf("badger: "+format, args...) }
func (badgerLogger) Infof(format string, args ...interface{})    { log.Debug.Printf("badger: "+format, args...) }
func (badgerLogger) Debugf(format string, args ...interface{})   { log.Debug.Printf("badger: "+format, args...) }

// BadgerStore is a Store backed by a badger database. All writes between
// two commits share one read-write transaction.
type BadgerStore struct {
	db  *badger.DB
	txn *badger.Txn
}

// OpenBadger opens or creates a badger store.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.E(errors.Invalid, "badger store: path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.E(err, "badger store: create", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.E(err, "badger store: open", cfg.Path)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) txnFor() *badger.Txn {
	if b.txn == nil {
		b.txn = b.db.NewTransaction(true)
	}
	return b.txn
}

// set writes a key in the current transaction. A transaction that grows too
// large is committed early and a fresh one started.
func (b *BadgerStore) set(key, val []byte) error {
	err := b.txnFor().Set(key, val)
	if err == badger.ErrTxnTooBig {
		log.Printf("badger store: transaction too large, committing early")
		if err = b.txn.Commit(); err != nil {
			b.txn = nil
			return err
		}
		b.txn = nil
		err = b.txnFor().Set(key, val)
	}
	return err
}

func (b *BadgerStore) del(key []byte) error {
	err := b.txnFor().Delete(key)
	if err == badger.ErrTxnTooBig {
		log.Printf("badger store: transaction too large, committing early")
		if err = b.txn.Commit(); err != nil {
			b.txn = nil
			return err
		}
		b.txn = nil
		err = b.txnFor().Delete(key)
	}
	return err
}

// get returns the value of key, or nil, false if it is absent.
func (b *BadgerStore) get(key []byte) ([]byte, bool, error) {
	item, err := b.txnFor().Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	val, err := item.ValueCopy(nil)
	return val, err == nil, err
}

// scan calls fn for every key with the given prefix.
func (b *BadgerStore) scan(prefix []byte, values bool, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = values
	it := b.txnFor().NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var val []byte
		if values {
			var err error
			if val, err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		if err := fn(item.KeyCopy(nil), val); err != nil {
			return err
		}
	}
	return nil
}

// Alignments implements Store.
func (b *BadgerStore) Alignments(ctx context.Context) ([]alignment.Alignment, error) {
	var r []alignment.Alignment
	err := b.scan([]byte(alignmentPrefix), true, func(key, val []byte) error {
		var a alignment.Alignment
		if err := yaml.Unmarshal(val, &a); err != nil {
			return errors.E(errors.Integrity, err, fmt.Sprintf("alignment record %q", key))
		}
		r = append(r, a)
		return nil
	})
	return r, err
}

// PutAlignment implements Store.
func (b *BadgerStore) PutAlignment(ctx context.Context, a alignment.Alignment) error {
	if a.Name == "" {
		return errors.E(errors.Invalid, "alignment name is empty")
	}
	val, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	return b.set(alignmentKey(a.Name), val)
}

// DeleteAlignment implements Store.
func (b *BadgerStore) DeleteAlignment(ctx context.Context, name string) error {
	if _, ok, err := b.get(alignmentKey(name)); err != nil {
		return err
	} else if !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("no alignment named %s", name))
	}
	var keys [][]byte
	if err := b.scan(memberRange(name), false, func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return err
	}
	keys = append(keys, alignmentKey(name))
	for _, key := range keys {
		if err := b.del(key); err != nil {
			return err
		}
	}
	return nil
}

// Sequence implements Store.
func (b *BadgerStore) Sequence(ctx context.Context, id string) (Sequence, bool, error) {
	val, ok, err := b.get(sequenceKey(id))
	if !ok || err != nil {
		return Sequence{}, false, err
	}
	nts, err := snappy.Decode(nil, val)
	if err != nil {
		return Sequence{}, false, errors.E(errors.Integrity, err, "sequence", id)
	}
	return Sequence{ID: id, Nucleotides: string(nts)}, true, nil
}

// PutSequence implements Store.
func (b *BadgerStore) PutSequence(ctx context.Context, s Sequence) error {
	if s.ID == "" {
		return errors.E(errors.Invalid, "sequence ID is empty")
	}
	return b.set(sequenceKey(s.ID), snappy.Encode(nil, []byte(s.Nucleotides)))
}

// MemberSegments implements Store.
func (b *BadgerStore) MemberSegments(ctx context.Context, alignment, seq string) (segment.List, bool, error) {
	val, ok, err := b.get(memberKey(alignment, seq))
	if !ok || err != nil {
		return nil, false, err
	}
	l, err := segment.Decode(val)
	if err != nil {
		return nil, false, errors.E(err, fmt.Sprintf("member %s of %s", seq, alignment))
	}
	return l, true, nil
}

// ReplaceMemberSegments implements Store.
func (b *BadgerStore) ReplaceMemberSegments(ctx context.Context, alignment, seq string, l segment.List) error {
	if _, ok, err := b.get(alignmentKey(alignment)); err != nil {
		return err
	} else if !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("no alignment named %s", alignment))
	}
	return b.set(memberKey(alignment, seq), segment.Encode(l))
}

// DeleteMember implements Store.
func (b *BadgerStore) DeleteMember(ctx context.Context, alignment, seq string) error {
	key := memberKey(alignment, seq)
	if _, ok, err := b.get(key); err != nil {
		return err
	} else if !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("%s is not a member of %s", seq, alignment))
	}
	return b.del(key)
}

// Members implements Store.
func (b *BadgerStore) Members(ctx context.Context, alignment string, match func(seq string) bool) ([]string, error) {
	prefix := memberRange(alignment)
	var r []string
	err := b.scan(prefix, false, func(key, _ []byte) error {
		seq := string(bytes.TrimPrefix(key, prefix))
		if match == nil || match(seq) {
			r = append(r, seq)
		}
		return nil
	})
	return r, err
}

// Commit implements Store.
func (b *BadgerStore) Commit(ctx context.Context) error {
	if b.txn == nil {
		return nil
	}
	err := b.txn.Commit()
	b.txn = nil
	if err != nil {
		return errors.E(err, "badger store: commit")
	}
	return nil
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	if b.txn != nil {
		b.txn.Discard()
		b.txn = nil
	}
	return b.db.Close()
}
