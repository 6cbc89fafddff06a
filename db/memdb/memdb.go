// Copyright 2019 The go-ultiledger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package memdb

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ultiledger/go-ultimint/db"
)

func init() {
	db.Register("memdb", func(string) (db.Database, error) {
		return New(), nil
	})
}

type bucket map[string][]byte

type memdb struct {
	sync.RWMutex
	buckets map[string]bucket
}

// New creates an in-memory database, mostly for tests and the
// ephemeral sandbox.
func New() db.Database {
	return &memdb{buckets: make(map[string]bucket)}
}

func (m *memdb) NewBucket(name string) error {
	m.Lock()
	defer m.Unlock()

	if m.buckets == nil {
		return db.ErrClosed
	}
	if name == "" {
		return fmt.Errorf("database bucket name is empty")
	}
	if _, ok := m.buckets[name]; !ok {
		m.buckets[name] = make(bucket)
	}
	return nil
}

// lookup must be called with the lock held.
func (m *memdb) lookup(name string) (bucket, error) {
	if m.buckets == nil {
		return nil, db.ErrClosed
	}
	b, ok := m.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", db.ErrBucketNotExist, name)
	}
	return b, nil
}

func (m *memdb) Put(bucket string, key, value []byte) error {
	m.Lock()
	defer m.Unlock()

	b, err := m.lookup(bucket)
	if err != nil {
		return err
	}
	b[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memdb) Delete(bucket string, key []byte) error {
	m.Lock()
	defer m.Unlock()

	b, err := m.lookup(bucket)
	if err != nil {
		return err
	}
	delete(b, string(key))
	return nil
}

func (m *memdb) Get(bucket string, key []byte) ([]byte, error) {
	m.RLock()
	defer m.RUnlock()

	b, err := m.lookup(bucket)
	if err != nil {
		return nil, err
	}
	if val, ok := b[string(key)]; ok {
		return append([]byte(nil), val...), nil
	}
	return nil, nil
}

func (m *memdb) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	m.RLock()
	defer m.RUnlock()

	b, err := m.lookup(bucket)
	if err != nil {
		return nil, err
	}
	return scan(b, nil, string(keyPrefix)), nil
}

func (m *memdb) Close() error {
	m.Lock()
	defer m.Unlock()

	m.buckets = nil
	return nil
}

func (m *memdb) Begin() (db.Tx, error) {
	m.RLock()
	defer m.RUnlock()

	if m.buckets == nil {
		return nil, db.ErrClosed
	}
	return &memdbTx{db: m, writes: make(map[string]map[string][]byte)}, nil
}

// scan returns the values whose keys start with prefix in key
// order, with the pending writes laid over the base bucket. A nil
// pending value is a deletion.
func scan(base bucket, pending map[string][]byte, prefix string) [][]byte {
	merged := make(map[string][]byte)
	for k, v := range base {
		if strings.HasPrefix(k, prefix) {
			merged[k] = v
		}
	}
	for k, v := range pending {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var vals [][]byte
	for _, k := range keys {
		vals = append(vals, append([]byte(nil), merged[k]...))
	}
	return vals
}

// memdbTx buffers the writes until commit.
type memdbTx struct {
	db     *memdb
	writes map[string]map[string][]byte
	done   bool
}

func (m *memdbTx) Get(bucket string, key []byte) ([]byte, error) {
	if m.done {
		return nil, db.ErrTxDone
	}
	if w, ok := m.writes[bucket]; ok {
		if v, ok := w[string(key)]; ok {
			if v == nil {
				return nil, nil
			}
			return append([]byte(nil), v...), nil
		}
	}
	return m.db.Get(bucket, key)
}

func (m *memdbTx) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	if m.done {
		return nil, db.ErrTxDone
	}
	m.db.RLock()
	defer m.db.RUnlock()

	b, err := m.db.lookup(bucket)
	if err != nil {
		return nil, err
	}
	return scan(b, m.writes[bucket], string(keyPrefix)), nil
}

func (m *memdbTx) stage(bucket string, key, value []byte) error {
	if m.done {
		return db.ErrTxDone
	}
	m.db.RLock()
	_, err := m.db.lookup(bucket)
	m.db.RUnlock()
	if err != nil {
		return err
	}
	w, ok := m.writes[bucket]
	if !ok {
		w = make(map[string][]byte)
		m.writes[bucket] = w
	}
	w[string(key)] = value
	return nil
}

func (m *memdbTx) Put(bucket string, key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return m.stage(bucket, key, append([]byte{}, value...))
}

func (m *memdbTx) Delete(bucket string, key []byte) error {
	return m.stage(bucket, key, nil)
}

func (m *memdbTx) Rollback() error {
	if m.done {
		return db.ErrTxDone
	}
	m.done = true
	m.writes = nil
	return nil
}

func (m *memdbTx) Commit() error {
	if m.done {
		return db.ErrTxDone
	}
	m.done = true

	m.db.Lock()
	defer m.db.Unlock()

	for name, w := range m.writes {
		b, err := m.db.lookup(name)
		if err != nil {
			return err
		}
		for k, v := range w {
			if v == nil {
				delete(b, k)
				continue
			}
			b[k] = v
		}
	}
	m.writes = nil
	return nil
}
