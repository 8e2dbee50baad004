// Package feed реализует ленту «последних выигрышей»: фоновый планировщик,
// который с человекоподобным ритмом пишет синтетические выигрыши в ограниченную
// по размеру таблицу, и чтение последних N записей для публичного API.
package feed

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind — тип решения планировщика.
type Kind string

const (
	KindMega       Kind = "mega"
	KindLarge      Kind = "large"
	KindMedium     Kind = "medium"
	KindSmall      Kind = "small"
	KindMicroBurst Kind = "micro-burst"
	KindSmallBurst Kind = "small-burst"
	KindLull       Kind = "lull"
	KindWaiting    Kind = "waiting"
)

// Country — страна выигравшего.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// Win — выигрыш, готовый к записи.
type Win struct {
	Kind        Kind
	Username    string
	Avatar      string
	Country     Country
	AmountCents int64
}

// Amount возвращает сумму в долларах.
func (w Win) Amount() decimal.Decimal {
	return decimal.New(w.AmountCents, -2)
}

// Event — запись ленты в базе.
type Event struct {
	ID        int64           `json:"-"`
	Username  string          `json:"username"`
	Amount    decimal.Decimal `json:"amount"`
	Avatar    string          `json:"avatar"`
	Country   Country         `json:"country"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent превращает выигрыш в запись ленты.
func NewEvent(w Win, at time.Time) Event {
	return Event{
		Username:  w.Username,
		Amount:    w.Amount(),
		Avatar:    w.Avatar,
		Country:   w.Country,
		CreatedAt: at,
	}
}

// Decision — результат одного шага планировщика.
// Win == nil означает «ничего не писать», Delay задаёт, через сколько проверить снова.
type Decision struct {
	Kind  Kind
	Win   *Win
	Delay time.Duration
}
