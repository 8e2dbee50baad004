package rewards

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTables возвращает таблицы наград по умолчанию (центы).
//
// Первое открытие: $0.10 (70%) или $0.20 (30%).
// Обычное открытие: ожидание ~9.5 центов, чтобы выплаты оставались маленькими.
func DefaultTables() Tables {
	return Tables{
		First: Table{
			Fixed(10, 0.7),
			Fixed(20, 0.3),
		},
		Standard: Table{
			Fixed(0, 0.25),
			Fixed(10, 0.6),
			Fixed(20, 0.05),
			Fixed(50, 0.05),
			Fixed(100, 0.05),
		},
	}
}

// yamlBucket — корзина в YAML-файле.
// Фиксированная сумма задаётся через cents, диапазон через min/max.
type yamlBucket struct {
	Cents  *int64  `yaml:"cents"`
	Min    *int64  `yaml:"min"`
	Max    *int64  `yaml:"max"`
	Weight float64 `yaml:"weight"`
}

type yamlTables struct {
	First    []yamlBucket `yaml:"first"`
	Standard []yamlBucket `yaml:"standard"`
}

// LoadTables читает таблицы из YAML-файла. Пустой путь означает таблицы по умолчанию.
// Таблица, отсутствующая в файле, берётся из значений по умолчанию.
//
// Пример файла:
//
//	first:
//	  - {cents: 10, weight: 0.7}
//	  - {min: 15, max: 30, weight: 0.3}
//	standard:
//	  - {cents: 0, weight: 1.0}
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("ошибка чтения таблиц наград: %w", err)
	}
	parsed, err := ParseTables(data)
	if err != nil {
		return Tables{}, err
	}
	if parsed.First != nil {
		tables.First = parsed.First
	}
	if parsed.Standard != nil {
		tables.Standard = parsed.Standard
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, fmt.Errorf("некорректные таблицы наград в %s: %w", path, err)
	}
	return tables, nil
}

// ParseTables разбирает YAML без валидации весов. Отсутствующая таблица остаётся nil.
func ParseTables(data []byte) (Tables, error) {
	var raw yamlTables
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Tables{}, fmt.Errorf("ошибка разбора YAML: %w", err)
	}

	first, err := convertBuckets(raw.First)
	if err != nil {
		return Tables{}, fmt.Errorf("таблица first: %w", err)
	}
	standard, err := convertBuckets(raw.Standard)
	if err != nil {
		return Tables{}, fmt.Errorf("таблица standard: %w", err)
	}
	return Tables{First: first, Standard: standard}, nil
}

func convertBuckets(raw []yamlBucket) (Table, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	table := make(Table, 0, len(raw))
	for i, b := range raw {
		switch {
		case b.Cents != nil && b.Min == nil && b.Max == nil:
			table = append(table, Fixed(*b.Cents, b.Weight))
		case b.Cents == nil && b.Min != nil && b.Max != nil:
			table = append(table, Range(*b.Min, *b.Max, b.Weight))
		default:
			return nil, fmt.Errorf("корзина %d: нужно указать либо cents, либо min и max", i)
		}
	}
	return table, nil
}
