package feed

import "time"

type queuedWin struct {
	at  time.Time
	win Win
}

// DelayedQueue — очередь отложенных выигрышей одного типа, упорядоченная по времени.
// Используется и для микро-всплесков, и для «хвоста» мелких выигрышей после крупного.
type DelayedQueue struct {
	kind  Kind
	items []queuedWin
}

// NewDelayedQueue создаёт пустую очередь. Все извлечённые выигрыши получают тип kind.
func NewDelayedQueue(kind Kind) *DelayedQueue {
	return &DelayedQueue{kind: kind}
}

// Kind возвращает тип очереди.
func (q *DelayedQueue) Kind() Kind { return q.kind }

// Len — количество ожидающих выигрышей.
func (q *DelayedQueue) Len() int { return len(q.items) }

// Push добавляет выигрыш на время at, сохраняя порядок по времени.
func (q *DelayedQueue) Push(at time.Time, w Win) {
	w.Kind = q.kind
	i := len(q.items)
	for i > 0 && q.items[i-1].at.After(at) {
		i--
	}
	q.items = append(q.items, queuedWin{})
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = queuedWin{at: at, win: w}
}

// Next смотрит на голову очереди.
//
//   - ok == false: очередь пуста;
//   - wait > 0: голова ещё не наступила, очередь не меняется;
//   - wait == 0: голова извлечена и возвращена в win.
func (q *DelayedQueue) Next(now time.Time) (win Win, wait time.Duration, ok bool) {
	if len(q.items) == 0 {
		return Win{}, 0, false
	}
	head := q.items[0]
	if now.Before(head.at) {
		return Win{}, head.at.Sub(now), true
	}
	q.items[0] = queuedWin{}
	q.items = q.items[1:]
	return head.win, 0, true
}

// Times возвращает запланированные времена (для диагностики и тестов).
func (q *DelayedQueue) Times() []time.Time {
	out := make([]time.Time, len(q.items))
	for i, it := range q.items {
		out[i] = it.at
	}
	return out
}
