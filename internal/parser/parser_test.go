package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
)

func newTestParser() *Parser {
	return New(Config{
		SymbolMap: []SymbolMapping{
			{Key: "gold", Symbol: "XAUUSD"},
			{Key: "EURUSD", Symbol: "EURUSD.r"},
		},
		Buy:  []string{"BUY", "compro"},
		Sell: []string{"SELL", "vendo"},
		TP:   []string{"TP"},
		SL:   []string{"SL"},
	})
}

func TestParseFullSignal(t *testing.T) {
	sig := newTestParser().Parse("BUY EURUSD 1.2000/1.1950 TP:1.2100 SL:1.1900", 123456789)
	require.NotNil(t, sig)

	assert.Equal(t, "EURUSD.r", sig.Symbol)
	assert.Equal(t, models.SideBuy, sig.Action)
	require.NotNil(t, sig.EntryPrice)
	require.NotNil(t, sig.BestPrice)
	assert.Equal(t, 1.2, *sig.EntryPrice)
	assert.Equal(t, 1.195, *sig.BestPrice)
	assert.Equal(t, []float64{1.21}, sig.TPLevels)
	require.NotNil(t, sig.SLLevel)
	assert.Equal(t, 1.19, *sig.SLLevel)
	assert.Equal(t, int64(123456789), sig.ChannelID)
	assert.Equal(t, int64(123456789), sig.MagicNumber)
	assert.Equal(t, "123456789", sig.Comment)
}

func TestParsePriceRangeBySide(t *testing.T) {
	testCases := []struct {
		desc  string
		text  string
		entry float64
		best  float64
	}{
		{"buy slash", "BUY EURUSD 1.2000/1.1950", 1.2, 1.195},
		{"sell slash", "SELL EURUSD 1.2000/1.1950", 1.195, 1.2},
		{"buy dash", "buy eurusd 1.1950 - 1.2000", 1.2, 1.195},
		{"sell en dash", "sell gold 2350–2355", 2350, 2355},
	}

	p := newTestParser()
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			sig := p.Parse(tc.text, 1)
			require.NotNil(t, sig)
			require.NotNil(t, sig.EntryPrice)
			require.NotNil(t, sig.BestPrice)
			assert.Equal(t, tc.entry, *sig.EntryPrice)
			assert.Equal(t, tc.best, *sig.BestPrice)
		})
	}
}

func TestParseDirection(t *testing.T) {
	testCases := []struct {
		desc   string
		text   string
		action models.Side
	}{
		{"sell only", "SELL EURUSD 1.1", models.SideSell},
		{"localized sell", "vendo gold 2350", models.SideSell},
		{"localized buy", "Compro GOLD", models.SideBuy},
		{"buy wins over sell", "BUY or SELL EURUSD", models.SideBuy},
	}

	p := newTestParser()
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			sig := p.Parse(tc.text, 1)
			require.NotNil(t, sig)
			assert.Equal(t, tc.action, sig.Action)
		})
	}
}

func TestParseDiscards(t *testing.T) {
	testCases := []struct {
		desc string
		text string
	}{
		{"no direction", "EURUSD 1.2000/1.1950 TP 1.21"},
		{"no symbol", "BUY USDJPY 150.10 TP 151 SL 149"},
		{"empty", "   "},
	}

	p := newTestParser()
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Nil(t, p.Parse(tc.text, 1))
		})
	}
}

func TestParseWithoutPrice(t *testing.T) {
	sig := newTestParser().Parse("BUY EURUSD now", 1)
	require.NotNil(t, sig)

	assert.Nil(t, sig.EntryPrice)
	assert.Nil(t, sig.BestPrice)
	assert.Nil(t, sig.SLLevel)
	assert.NotNil(t, sig.TPLevels)
	assert.Empty(t, sig.TPLevels)
}

func TestParseSingleEntryFallback(t *testing.T) {
	sig := newTestParser().Parse("SELL EURUSD 1.1000 TP² 1.0950 SL 1.1050", 1)
	require.NotNil(t, sig)

	require.NotNil(t, sig.EntryPrice)
	assert.Equal(t, 1.1, *sig.EntryPrice)
	assert.Nil(t, sig.BestPrice)
	// оба TP-шаблона находят одно и то же значение
	assert.Equal(t, []float64{1.095, 1.095}, sig.TPLevels)
	require.NotNil(t, sig.SLLevel)
	assert.Equal(t, 1.105, *sig.SLLevel)
}

func TestParsePips(t *testing.T) {
	p := newTestParser()

	sig := p.Parse("BUY GOLD 2350 TP1 2360 (100 pips)", 1)
	require.NotNil(t, sig)
	assert.Equal(t, []float64{2360, 2360, 2351}, sig.TPLevels)

	sig = p.Parse("SELL GOLD 2350 (30 pips)", 1)
	require.NotNil(t, sig)
	require.Len(t, sig.TPLevels, 1)
	assert.InDelta(t, 2349.7, sig.TPLevels[0], 1e-9)

	// нулевой вход: пипсы не пересчитываются
	sig = p.Parse("BUY GOLD 0 (30 PIPS)", 1)
	require.NotNil(t, sig)
	assert.Empty(t, sig.TPLevels)
}

func TestParseFirstSymbolKeyWins(t *testing.T) {
	p := New(Config{
		SymbolMap: []SymbolMapping{
			{Key: "EUR", Symbol: "EURX"},
			{Key: "EURUSD", Symbol: "EURUSD.r"},
		},
		Buy:  []string{"BUY"},
		Sell: []string{"SELL"},
	})

	sig := p.Parse("BUY EURUSD", 1)
	require.NotNil(t, sig)
	assert.Equal(t, "EURX", sig.Symbol)
}

func TestParseCustomLabels(t *testing.T) {
	p := New(Config{
		SymbolMap: []SymbolMapping{{Key: "EURUSD", Symbol: "EURUSD"}},
		Buy:       []string{"kaufen"},
		Sell:      []string{"verkaufen"},
		TP:        []string{"ziel"},
		SL:        []string{"stopp"},
	})

	sig := p.Parse("kaufen eurusd 1.1 ziel: 1.2 stopp 1.05", 1)
	require.NotNil(t, sig)
	assert.Equal(t, models.SideBuy, sig.Action)
	assert.Equal(t, []float64{1.2}, sig.TPLevels)
	require.NotNil(t, sig.SLLevel)
	assert.Equal(t, 1.05, *sig.SLLevel)
}
