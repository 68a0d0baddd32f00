package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoResult: терминал вернул null вместо результата.
var ErrNoResult = errors.New("venue returned no result")

type TradeAction int

const (
	TradeActionDeal    TradeAction = 1
	TradeActionPending TradeAction = 5
)

type OrderType int

const (
	OrderTypeBuy       OrderType = 0
	OrderTypeSell      OrderType = 1
	OrderTypeBuyLimit  OrderType = 2
	OrderTypeSellLimit OrderType = 3
	OrderTypeBuyStop   OrderType = 4
	OrderTypeSellStop  OrderType = 5
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeBuy:
		return "BUY"
	case OrderTypeSell:
		return "SELL"
	case OrderTypeBuyLimit:
		return "BUY_LIMIT"
	case OrderTypeSellLimit:
		return "SELL_LIMIT"
	case OrderTypeBuyStop:
		return "BUY_STOP"
	case OrderTypeSellStop:
		return "SELL_STOP"
	}
	return fmt.Sprintf("ORDER_TYPE(%d)", int(t))
}

type OrderTime int

const (
	OrderTimeGTC       OrderTime = 0
	OrderTimeSpecified OrderTime = 2
)

type OrderFilling int

const (
	OrderFillingFOK    OrderFilling = 0
	OrderFillingIOC    OrderFilling = 1
	OrderFillingReturn OrderFilling = 2
)

// RetcodeDone: заявка исполнена.
const RetcodeDone = 10009

// TradeRequest: запрос order_send, поля как в протоколе терминала.
type TradeRequest struct {
	Action      TradeAction  `json:"action"`
	Symbol      string       `json:"symbol"`
	Volume      float64      `json:"volume"`
	Type        OrderType    `json:"type"`
	Price       float64      `json:"price"`
	Magic       int64        `json:"magic"`
	Comment     string       `json:"comment"`
	TypeTime    OrderTime    `json:"type_time"`
	TypeFilling OrderFilling `json:"type_filling"`
	Expiration  int64        `json:"expiration,omitempty"`
	SL          float64      `json:"sl"`
	TP          float64      `json:"tp"`
}

type TradeResult struct {
	Retcode   int     `json:"retcode"`
	Deal      uint64  `json:"deal"`
	Order     uint64  `json:"order"`
	Volume    float64 `json:"volume"`
	Price     float64 `json:"price"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Comment   string  `json:"comment"`
	RequestID uint64  `json:"request_id"`
}

// SymbolInfo: снимок параметров инструмента, берётся заново на каждое исполнение.
type SymbolInfo struct {
	Digits     int
	Point      float64
	VolumeMin  float64
	VolumeMax  float64
	VolumeStep float64
	TickSize   float64
	TickValue  float64
}

type Tick struct {
	Bid  float64
	Ask  float64
	Last float64
	Time time.Time
}

type AccountInfo struct {
	Login    int64
	Server   string
	Currency string
	Balance  float64
}

// VenueError: last_error терминала.
type VenueError struct {
	Code    int
	Message string
}

func (e VenueError) String() string {
	return fmt.Sprintf("(%d, %q)", e.Code, e.Message)
}
