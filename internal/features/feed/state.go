package feed

import "time"

// State — состояние ритма ленты. Живёт только в памяти и принадлежит одному Scheduler;
// после рестарта ритм начинается заново.
type State struct {
	LastBigWinAt    time.Time // последний mega-выигрыш
	LastMediumWinAt time.Time // последний large-выигрыш (гейт для large)

	SmallWins   *DelayedQueue // хвост мелких выигрышей после крупного
	MicroBursts *DelayedQueue

	UsedNames map[string]time.Time

	LastMicroBurstAt time.Time
	LastLullAt       time.Time
	InLull           bool
	LullEndsAt       time.Time

	NextWinAt time.Time
}

// NewState создаёт состояние на момент старта. Всплески и затишья отсчитываются от now,
// первая проверка выполняется сразу.
func NewState(now time.Time) *State {
	return &State{
		SmallWins:        NewDelayedQueue(KindSmallBurst),
		MicroBursts:      NewDelayedQueue(KindMicroBurst),
		UsedNames:        make(map[string]time.Time),
		LastMicroBurstAt: now,
		LastLullAt:       now,
		NextWinAt:        now,
	}
}
