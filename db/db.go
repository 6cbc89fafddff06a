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


package db

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrClosed         = errors.New("database is closed")
	ErrBucketNotExist = errors.New("bucket not exist")
	ErrTxDone         = errors.New("transaction already committed or rolled back")
)

// Getter reads values from a bucket. A missing key yields a nil
// value without error.
type Getter interface {
	Get(bucket string, key []byte) ([]byte, error)
	GetAll(bucket string, keyPrefix []byte) ([][]byte, error)
}

// Putter writes values into a bucket.
type Putter interface {
	Put(bucket string, key, value []byte) error
	Delete(bucket string, key []byte) error
}

// Tx is a read-write database transaction.
type Tx interface {
	Getter
	Putter
	Commit() error
	Rollback() error
}

// Database is the generic key/value storage used by the ledger.
type Database interface {
	Getter
	Putter
	NewBucket(name string) error
	Begin() (Tx, error)
	Close() error
}

// Ctor creates a database stored in the given path.
type Ctor func(path string) (Database, error)

var (
	mu           sync.RWMutex
	constructors = make(map[string]Ctor)
)

// Register is called by database backends to make themselves
// available by name.
func Register(name string, ctor Ctor) {
	mu.Lock()
	defer mu.Unlock()
	constructors[name] = ctor
}

// Open creates the database of the named backend.
func Open(name string, path string) (Database, error) {
	mu.RLock()
	ctor, ok := constructors[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database %s not registered", name)
	}
	return ctor(path)
}

// Backends returns the names of the registered backends.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	var names []string
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
