package parser

import (
	"regexp"
	"strconv"
	"strings"

	"signal_bridge/internal/models"
	"signal_bridge/pkg/logger"
)

// pipSize: цена одного пипа для "N pips)"; одинаковая для всех инструментов.
const pipSize = 0.01

// SymbolMapping ключ из текста -> символ терминала.
type SymbolMapping struct {
	Key    string
	Symbol string
}

// Config ключевые слова и таблица символов. Сравнение регистронезависимое.
type Config struct {
	SymbolMap []SymbolMapping
	Buy       []string
	Sell      []string
	TP        []string
	SL        []string
}

// Parser без состояния, безопасен для конкурентного использования.
type Parser struct {
	symbols []SymbolMapping
	buy     []string
	sell    []string

	pricePatterns []*regexp.Regexp
	firstNumber   *regexp.Regexp
	tpPatterns    []*regexp.Regexp
	pipsPattern   *regexp.Regexp
	slPattern     *regexp.Regexp
}

const num = `(\d+\.?\d*)`

func New(cfg Config) *Parser {
	symbols := make([]SymbolMapping, 0, len(cfg.SymbolMap))
	for _, m := range cfg.SymbolMap {
		symbols = append(symbols, SymbolMapping{Key: strings.ToUpper(m.Key), Symbol: m.Symbol})
	}

	tp := labels(cfg.TP, "TP")
	sl := labels(cfg.SL, "SL")

	return &Parser{
		symbols: symbols,
		buy:     upper(cfg.Buy),
		sell:    upper(cfg.Sell),

		pricePatterns: []*regexp.Regexp{
			regexp.MustCompile(num + `\s*/\s*` + num),
			regexp.MustCompile(num + `\s*-\s*` + num),
			regexp.MustCompile(num + `\s*–\s*` + num),
		},
		firstNumber: regexp.MustCompile(num),
		tpPatterns: []*regexp.Regexp{
			regexp.MustCompile(tp + `\s*[¹²³⁴1234]?\s*:??\s*` + num),
			regexp.MustCompile(tp + `\s*[¹²³⁴1234]?\s*` + num),
		},
		pipsPattern: regexp.MustCompile(`(\d+)\s*PIPS?\)`),
		slPattern:   regexp.MustCompile(sl + `\s*:??\s*` + num),
	}
}

// Parse возвращает nil, если в тексте нет направления или известного символа.
func (p *Parser) Parse(messageText string, channelID int64) *models.TradingSignal {
	text := strings.ToUpper(strings.TrimSpace(messageText))

	// BUY проверяется первым и побеждает, даже если в тексте есть и SELL
	var action models.Side
	switch {
	case containsAny(text, p.buy):
		action = models.SideBuy
	case containsAny(text, p.sell):
		action = models.SideSell
	default:
		return nil
	}

	symbol, ok := p.resolveSymbol(text)
	if !ok {
		logger.Warn("[PARSER] no valid symbol found in message: %s", head(text, 100))
		return nil
	}

	entry, best := p.extractPrices(text, action)

	return &models.TradingSignal{
		Symbol:      symbol,
		Action:      action,
		EntryPrice:  entry,
		BestPrice:   best,
		TPLevels:    p.extractTP(text, action, entry),
		SLLevel:     p.extractSL(text),
		ChannelID:   channelID,
		MagicNumber: channelID,
		Comment:     strconv.FormatInt(channelID, 10),
	}
}

func (p *Parser) resolveSymbol(text string) (string, bool) {
	for _, m := range p.symbols {
		if m.Key != "" && strings.Contains(text, m.Key) {
			return m.Symbol, true
		}
	}
	return "", false
}

// extractPrices: для BUY вход по худшей (большей) цене, лучшая держится лимиткой.
// Для SELL наоборот.
func (p *Parser) extractPrices(text string, action models.Side) (entry, best *float64) {
	for _, re := range p.pricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		p1, err1 := strconv.ParseFloat(m[1], 64)
		p2, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		hi, lo := max(p1, p2), min(p1, p2)
		if action == models.SideBuy {
			return models.Price(hi), models.Price(lo)
		}
		return models.Price(lo), models.Price(hi)
	}

	if m := p.firstNumber.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return models.Price(v), nil
		}
	}
	return nil, nil
}

// extractTP собирает кандидатов всех шаблонов по порядку, дубли не убираются.
func (p *Parser) extractTP(text string, action models.Side, entry *float64) []float64 {
	levels := []float64{}

	for _, re := range p.tpPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				levels = append(levels, v)
			}
		}
	}

	for _, m := range p.pipsPattern.FindAllStringSubmatch(text, -1) {
		if !models.Has(entry) {
			continue
		}
		pips, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if action == models.SideBuy {
			levels = append(levels, *entry+float64(pips)*pipSize)
		} else {
			levels = append(levels, *entry-float64(pips)*pipSize)
		}
	}

	return levels
}

func (p *Parser) extractSL(text string) *float64 {
	m := p.slPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return models.Price(v)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func upper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// labels собирает альтернативу из ключевых слов: (?:TP|ТП).
func labels(keywords []string, def string) string {
	kws := upper(keywords)
	if len(kws) == 0 {
		kws = []string{def}
	}
	quoted := make([]string, 0, len(kws))
	for _, kw := range kws {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	return `(?:` + strings.Join(quoted, "|") + `)`
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
