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


package mint

import (
	"context"
	"sync"
)

// AccountLocks serializes build-sign-submit cycles per source
// account. Entries are dropped once nobody holds or waits on them.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	ch   chan struct{}
	refs int
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*accountLock)}
}

// Lock acquires the lock of the account and returns its release
// function, or the context error if the wait is abandoned.
func (l *AccountLocks) Lock(ctx context.Context, accountID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	al, ok := l.locks[accountID]
	if !ok {
		al = &accountLock{ch: make(chan struct{}, 1)}
		l.locks[accountID] = al
	}
	al.refs++
	l.mu.Unlock()

	select {
	case al.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(accountID, al)
		return nil, ctx.Err()
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			<-al.ch
			l.release(accountID, al)
		})
	}
	return unlock, nil
}

func (l *AccountLocks) release(accountID string, al *accountLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	al.refs--
	if al.refs == 0 {
		delete(l.locks, accountID)
	}
}

// Len returns the number of accounts currently locked or awaited.
func (l *AccountLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
