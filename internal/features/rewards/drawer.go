package rewards

import (
	"math/rand"
	"sync"
	"time"
)

// Drawer разыгрывает награду за открытие сундука.
// Безопасен для одновременного вызова из нескольких обработчиков.
type Drawer struct {
	mu     sync.Mutex
	tables Tables
	rnd    Rand
}

// NewDrawer создаёт розыгрыш. Если rnd == nil, используется math/rand с сидом от времени.
// Таблицы должны быть проверены заранее (Tables.Validate).
func NewDrawer(tables Tables, rnd Rand) *Drawer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Drawer{tables: tables, rnd: rnd}
}

// Draw возвращает награду в центах.
func (d *Drawer) Draw(isFirstOpen bool) int64 {
	table := d.tables.Standard
	if isFirstOpen {
		table = d.tables.First
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return table.Sample(d.rnd)
}

// Tables возвращает используемые таблицы.
func (d *Drawer) Tables() Tables {
	return d.tables
}
