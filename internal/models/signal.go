package models

import "time"

// Side направление сделки: "BUY"/"SELL".
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradingSignal: нормализованный сигнал из сообщения канала.
// Создаётся парсером, используется один раз для построения ордеров.
type TradingSignal struct {
	Symbol     string
	Action     Side
	EntryPrice *float64 // худшая граница диапазона (или единственная цена)
	BestPrice  *float64 // лучшая граница, под отложенный ордер
	TPLevels   []float64
	SLLevel    *float64

	ChannelID   int64
	MagicNumber int64
	Comment     string
}

// Message: событие из мессенджера.
type Message struct {
	ChannelID  int64
	Text       string
	ReceivedAt time.Time
}

// Price возвращает указатель на значение, удобно для опциональных полей.
func Price(v float64) *float64 { return &v }

// Has true, если цена задана и не нулевая.
func Has(p *float64) bool { return p != nil && *p != 0 }
