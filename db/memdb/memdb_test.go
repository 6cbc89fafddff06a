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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultiledger/go-ultimint/db"
)

func TestMemDB(t *testing.T) {
	// open the database
	mdb, err := db.Open("memdb", "")
	require.Nil(t, err)
	require.Nil(t, mdb.NewBucket("TEST"))

	// test get nonexistance key
	val, err := mdb.Get("TEST", []byte("none"))
	assert.Nil(t, err)
	assert.Equal(t, []byte(nil), val)

	// test set key/value pair
	err = mdb.Put("TEST", []byte("testKey"), []byte("testValue"))
	assert.Equal(t, nil, err)

	// test get value of key
	val, err = mdb.Get("TEST", []byte("testKey"))
	assert.Equal(t, err, nil)
	assert.Equal(t, []byte("testValue"), val)

	// test missing bucket
	err = mdb.Put("NONE", []byte("testKey"), []byte("testValue"))
	assert.ErrorIs(t, err, db.ErrBucketNotExist)

	// test closed database
	assert.Nil(t, mdb.Close())
	_, err = mdb.Get("TEST", []byte("testKey"))
	assert.Equal(t, db.ErrClosed, err)
}

func TestMemDBTx(t *testing.T) {
	mdb := New()
	require.Nil(t, mdb.NewBucket("TEST"))
	require.Nil(t, mdb.Put("TEST", []byte("a1"), []byte("base")))
	require.Nil(t, mdb.Put("TEST", []byte("a2"), []byte("gone")))

	tx, err := mdb.Begin()
	require.Nil(t, err)
	assert.Nil(t, tx.Put("TEST", []byte("a3"), []byte("new")))
	assert.Nil(t, tx.Delete("TEST", []byte("a2")))

	// the tx sees its own writes
	vals, err := tx.GetAll("TEST", []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("base"), []byte("new")}, vals)

	// the database does not
	val, err := mdb.Get("TEST", []byte("a3"))
	assert.Nil(t, err)
	assert.Nil(t, val)

	assert.Nil(t, tx.Rollback())
	assert.Equal(t, db.ErrTxDone, tx.Commit())
	vals, err = mdb.GetAll("TEST", []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("base"), []byte("gone")}, vals)

	tx, err = mdb.Begin()
	require.Nil(t, err)
	assert.Nil(t, tx.Put("TEST", []byte("a3"), []byte("new")))
	assert.Nil(t, tx.Delete("TEST", []byte("a2")))
	assert.Nil(t, tx.Commit())

	vals, err = mdb.GetAll("TEST", []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("base"), []byte("new")}, vals)
}
