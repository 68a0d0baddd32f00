package executor

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"signal_bridge/internal/models"
)

const (
	maxCommentLen  = 30
	channelTagSize = 6

	fallbackLot = 0.01
)

// resolveTP: отсутствующий TP или TP дальше порога заменяется на entry*(1±threshold).
// Проверяется только модуль расстояния, сторона относительно входа не проверяется.
func resolveTP(side models.Side, entry float64, candidate *float64, threshold float64) (float64, bool) {
	if models.Has(candidate) && math.Abs(*candidate-entry)/entry <= threshold {
		return *candidate, false
	}
	if side == models.SideBuy {
		return entry * (1 + threshold), true
	}
	return entry * (1 - threshold), true
}

// resolveSL зеркально resolveTP.
func resolveSL(side models.Side, entry float64, candidate *float64, threshold float64) (float64, bool) {
	if models.Has(candidate) && math.Abs(*candidate-entry)/entry <= threshold {
		return *candidate, false
	}
	if side == models.SideBuy {
		return entry * (1 - threshold), true
	}
	return entry * (1 + threshold), true
}

func roundPrice(v float64, digits int) float64 {
	if digits < 0 {
		return v
	}
	return decimal.NewFromFloat(v).Round(int32(digits)).InexactFloat64()
}

// LotSize всегда минимальный допустимый лот, riskAmount на размер не влияет.
func LotSize(info *models.SymbolInfo, minLot, riskAmount float64) float64 {
	if minLot <= 0 {
		minLot = fallbackLot
	}
	if info == nil {
		return minLot
	}
	lot := math.Max(info.VolumeMin, minLot)
	if info.VolumeMax > 0 {
		lot = math.Min(lot, info.VolumeMax)
	}
	return lot
}

// ChannelTag последние 6 цифр |channelID|.
func ChannelTag(channelID int64) string {
	abs := uint64(channelID)
	if channelID < 0 {
		abs = uint64(-channelID)
	}
	s := strconv.FormatUint(abs, 10)
	if len(s) > channelTagSize {
		s = s[len(s)-channelTagSize:]
	}
	return s
}

// MagicNumber тег стратегии для терминала.
func MagicNumber(channelID int64) int64 {
	n, _ := strconv.ParseInt(ChannelTag(channelID), 10, 64)
	return n
}

var unsafeComment = regexp.MustCompile(`[^A-Za-z0-9 ]`)

// SanitizeComment терминал принимает только буквы, цифры и пробелы, до 30 символов.
func SanitizeComment(c string) string {
	safe := strings.TrimSpace(unsafeComment.ReplaceAllString(c, ""))
	return truncate(safe, maxCommentLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
