// Package state は、全リクエストから参照されるプロセス共有の状態を提供します。
//
// Store はサーバー起動時に一度だけ作成され、ハンドラへ参照で渡されます。
// カウンタへの読み書きはすべてロックを保持した状態で行われ、
// ロック保持中にI/Oは行いません。
package state

import (
	"errors"
	"sync"
)

// ErrPoisoned は以前の更新処理がpanicしたためストアが使用できないことを表す
var ErrPoisoned = errors.New("state: store poisoned by a panic during update")

// Store は名前（不変）と変更可能なカウンタを保持する共有状態
type Store struct {
	name string

	mu       sync.Mutex
	counter  int
	poisoned bool
}

// New は初期カウンタ0のStoreを作成する
func New(name string) *Store {
	return &Store{name: name}
}

// NewWithCounter は初期カウンタを指定してStoreを作成する
func NewWithCounter(name string, initial int) *Store {
	return &Store{name: name, counter: initial}
}

// Name は作成時に設定されたアプリ名を返す
func (s *Store) Name() string {
	return s.name
}

// Increment はカウンタを1増やし、新しい値を返す
func (s *Store) Increment() (int, error) {
	return s.Update(func(n int) int { return n + 1 })
}

// Update はロックを保持したままfnで新しいカウンタ値を計算して書き戻す
// fn がpanicした場合、値は書き戻されずストアは使用不能になり、panicは呼び出し元へ伝播する
func (s *Store) Update(fn func(n int) int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return 0, ErrPoisoned
	}

	completed := false
	defer func() {
		if !completed {
			s.poisoned = true
		}
	}()

	next := fn(s.counter)
	s.counter = next
	completed = true
	return next, nil
}

// Load は現在のカウンタ値を返す
func (s *Store) Load() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return 0, ErrPoisoned
	}
	return s.counter, nil
}
