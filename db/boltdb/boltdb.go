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


package boltdb

import (
	"bytes"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/ultiledger/go-ultimint/db"
)

func init() {
	db.Register("boltdb", New)
}

type boltdb struct {
	db *bolt.DB
}

// New opens a bolt database in the specified path. BoltDB obtains
// a file lock on the data file so multiple processes cannot open
// the same database at the same time.
func New(path string) (db.Database, error) {
	bt, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open boltdb %s failed: %v", path, err)
	}
	return &boltdb{db: bt}, nil
}

func (bt *boltdb) NewBucket(name string) error {
	if name == "" {
		return fmt.Errorf("database bucket name is empty")
	}
	return bt.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
}

func (bt *boltdb) Put(bucket string, key, value []byte) error {
	return bt.db.Update(func(tx *bolt.Tx) error {
		return (&boltdbTx{tx: tx}).Put(bucket, key, value)
	})
}

func (bt *boltdb) Delete(bucket string, key []byte) error {
	return bt.db.Update(func(tx *bolt.Tx) error {
		return (&boltdbTx{tx: tx}).Delete(bucket, key)
	})
}

func (bt *boltdb) Get(bucket string, key []byte) ([]byte, error) {
	var val []byte
	err := bt.db.View(func(tx *bolt.Tx) error {
		v, err := (&boltdbTx{tx: tx}).Get(bucket, key)
		val = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (bt *boltdb) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	var vals [][]byte
	err := bt.db.View(func(tx *bolt.Tx) error {
		vs, err := (&boltdbTx{tx: tx}).GetAll(bucket, keyPrefix)
		vals = vs
		return err
	})
	if err != nil {
		return nil, err
	}
	return vals, nil
}

func (bt *boltdb) Close() error {
	return bt.db.Close()
}

func (bt *boltdb) Begin() (db.Tx, error) {
	tx, err := bt.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &boltdbTx{tx: tx}, nil
}

type boltdbTx struct {
	tx *bolt.Tx
}

func (btx *boltdbTx) bucket(name string) (*bolt.Bucket, error) {
	b := btx.tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", db.ErrBucketNotExist, name)
	}
	return b, nil
}

// Values returned by bolt are only valid during the tx, so they
// are copied out.
func (btx *boltdbTx) Get(bucket string, key []byte) ([]byte, error) {
	b, err := btx.bucket(bucket)
	if err != nil {
		return nil, err
	}
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (btx *boltdbTx) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	b, err := btx.bucket(bucket)
	if err != nil {
		return nil, err
	}
	var vals [][]byte
	c := b.Cursor()
	for k, v := c.Seek(keyPrefix); k != nil && bytes.HasPrefix(k, keyPrefix); k, v = c.Next() {
		vals = append(vals, append([]byte(nil), v...))
	}
	return vals, nil
}

func (btx *boltdbTx) Put(bucket string, key, value []byte) error {
	b, err := btx.bucket(bucket)
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

func (btx *boltdbTx) Delete(bucket string, key []byte) error {
	b, err := btx.bucket(bucket)
	if err != nil {
		return err
	}
	return b.Delete(key)
}

func (btx *boltdbTx) Rollback() error {
	return btx.tx.Rollback()
}

func (btx *boltdbTx) Commit() error {
	return btx.tx.Commit()
}
