// Package rewards реализует розыгрыш награды при открытии сундука.
// models.go описывает таблицы наград: список взвешенных корзин,
// каждая корзина задаёт фиксированную сумму или диапазон в центах.
package rewards

import (
	"fmt"
	"math"
)

// weightEpsilon — допустимая погрешность суммы весов.
const weightEpsilon = 1e-6

// Rand — источник случайности. *math/rand.Rand удовлетворяет интерфейсу,
// в тестах подставляется детерминированная последовательность.
type Rand interface {
	Float64() float64
	Int63n(n int64) int64
	Intn(n int) int
}

// Bucket — одна корзина таблицы.
// Min == Max означает фиксированную сумму, иначе сумма берётся равномерно из [Min, Max].
type Bucket struct {
	Min    int64   // Нижняя граница (центы, включительно)
	Max    int64   // Верхняя граница (центы, включительно)
	Weight float64 // Вероятность выбора корзины
}

// Fixed создаёт корзину с фиксированной суммой.
func Fixed(cents int64, weight float64) Bucket {
	return Bucket{Min: cents, Max: cents, Weight: weight}
}

// Range создаёт корзину-диапазон.
func Range(min, max int64, weight float64) Bucket {
	return Bucket{Min: min, Max: max, Weight: weight}
}

// Table — упорядоченный список корзин. Порядок важен: по нему идёт накопление весов.
type Table []Bucket

// Validate проверяет таблицу: непустая, веса неотрицательны и в сумме дают 1.0,
// границы корзин корректны.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("таблица пуста")
	}
	var sum float64
	for i, b := range t {
		if b.Weight < 0 || math.IsNaN(b.Weight) {
			return fmt.Errorf("корзина %d: отрицательный вес %v", i, b.Weight)
		}
		if b.Min < 0 {
			return fmt.Errorf("корзина %d: отрицательная сумма %d", i, b.Min)
		}
		if b.Max < b.Min {
			return fmt.Errorf("корзина %d: max %d < min %d", i, b.Max, b.Min)
		}
		sum += b.Weight
	}
	if math.Abs(sum-1) > weightEpsilon {
		return fmt.Errorf("сумма весов %.6f, ожидается 1.0", sum)
	}
	return nil
}

// Bounds возвращает минимальную и максимальную сумму, которую может выдать таблица.
func (t Table) Bounds() (min, max int64) {
	for i, b := range t {
		if i == 0 || b.Min < min {
			min = b.Min
		}
		if i == 0 || b.Max > max {
			max = b.Max
		}
	}
	return min, max
}

// Pick выбирает корзину по накопленным весам.
// x — случайное число из [0, 1). Выбирается первая корзина, у которой
// накопленный вес >= x; если из-за погрешности сумма не дотянула, последняя.
func (t Table) Pick(x float64) int {
	var acc float64
	for i, b := range t {
		acc += b.Weight
		if x <= acc {
			return i
		}
	}
	return len(t) - 1
}

// Sample разыгрывает сумму: выбор корзины, затем равномерная сумма внутри неё.
func (t Table) Sample(r Rand) int64 {
	b := t[t.Pick(r.Float64())]
	if b.Max == b.Min {
		return b.Min
	}
	return b.Min + r.Int63n(b.Max-b.Min+1)
}

// Tables — пара таблиц: для первого открытия и для всех последующих.
type Tables struct {
	First    Table
	Standard Table
}

// Validate проверяет обе таблицы.
func (t Tables) Validate() error {
	if err := t.First.Validate(); err != nil {
		return fmt.Errorf("таблица first: %w", err)
	}
	if err := t.Standard.Validate(); err != nil {
		return fmt.Errorf("таблица standard: %w", err)
	}
	return nil
}
