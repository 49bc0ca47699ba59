// Package game — locks.go: взаимное исключение по ключу (чат, год).
// Все мутации игры одного чата сериализуются: два одновременных /pidor
// не создадут два результата на один день, два /pidorfinalclose не
// раздадут пропущенные дни дважды. Чтения замок не берут.
package game

import "sync"

type lockKey struct {
	chatID int64
	year   int
}

// keyedLocks — набор мьютексов, создаваемых лениво по ключу.
// Ключей мало (чатов единицы, год один), поэтому записи не удаляются.
type keyedLocks struct {
	mu sync.Mutex
	m  map[lockKey]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{m: make(map[lockKey]*sync.Mutex)}
}

// lock захватывает мьютекс ключа и возвращает функцию освобождения.
// Использование: defer l.lock(chatID, year)()
func (l *keyedLocks) lock(chatID int64, year int) func() {
	l.mu.Lock()
	key := lockKey{chatID: chatID, year: year}
	m, ok := l.m[key]
	if !ok {
		m = &sync.Mutex{}
		l.m[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
