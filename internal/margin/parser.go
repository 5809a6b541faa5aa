package margin

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// ErrNoMatch is returned when none of the three figure categories appear in
// the text. Callers must distinguish this from a legitimately all-zero parse.
var ErrNoMatch = errors.New("margin: no recognizable figure in text")

// SellDefault names the sign applied to a bare 売残 mention that carries no
// 増/減 qualifier. The broker screens this text is pasted from have disagreed
// on the default direction over time, so it is an explicit policy choice.
type SellDefault string

const (
	SellDefaultIncrease SellDefault = "increase"
	SellDefaultDecrease SellDefault = "decrease"
)

// Deltas is the signed share-count triple extracted from one ticker's pasted
// supply/demand text. Absent categories stay zero.
type Deltas struct {
	Spot       int64
	MarginBuy  int64
	MarginSell int64
}

// Parser extracts margin figures from hand-pasted broker text. The text is
// not machine generated: whitespace, punctuation and line breaks around each
// figure are unreliable, but each fact follows the shape
// <digits with separators><株><category and direction keyword>.
type Parser struct {
	SellDefault SellDefault
}

// NewParser returns a parser with the given bare-sell-residual policy.
// An empty policy defaults to treating a bare mention as an increase.
func NewParser(sellDefault SellDefault) *Parser {
	if sellDefault == "" {
		sellDefault = SellDefaultIncrease
	}
	return &Parser{SellDefault: sellDefault}
}

var (
	reSpot = regexp.MustCompile(`([0-9][0-9,.]*)\s*株?\s*の?\s*(買|売)[いり]?越`)
	reBuy  = regexp.MustCompile(`([0-9][0-9,.]*)\s*株?\s*の?\s*(?:信用)?買い?残[^0-9増減]{0,6}(増|減)?`)
	reSell = regexp.MustCompile(`([0-9][0-9,.]*)\s*株?\s*の?\s*(?:信用)?売り?残[^0-9増減]{0,6}(増|減)?`)
)

// Parse extracts the spot / buy-margin / sell-margin deltas from text. Each
// category is optional and matched independently; the first number-then-keyword
// pair wins per category. Returns ErrNoMatch only when no category matches.
func (p *Parser) Parse(text string) (Deltas, error) {
	// Pasted broker text mixes full-width and half-width digits and commas.
	t := width.Narrow.String(text)

	var d Deltas
	matched := false

	if m := reSpot.FindStringSubmatch(t); m != nil {
		n, err := parseShares(m[1])
		if err == nil {
			if m[2] == "売" {
				n = -n
			}
			d.Spot = n
			matched = true
		}
	}
	if m := reBuy.FindStringSubmatch(t); m != nil {
		n, err := parseShares(m[1])
		if err == nil {
			if m[2] == "減" {
				n = -n
			}
			d.MarginBuy = n
			matched = true
		}
	}
	if m := reSell.FindStringSubmatch(t); m != nil {
		n, err := parseShares(m[1])
		if err == nil {
			switch {
			case m[2] == "減":
				n = -n
			case m[2] == "" && p.SellDefault == SellDefaultDecrease:
				n = -n
			}
			d.MarginSell = n
			matched = true
		}
	}

	if !matched {
		return Deltas{}, ErrNoMatch
	}
	return d, nil
}

// parseShares strips every non-digit rune from a numeric token and converts
// the remainder to a share count.
func parseShares(token string) (int64, error) {
	var b strings.Builder
	for _, r := range token {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, errors.New("no digits in token")
	}
	return strconv.ParseInt(b.String(), 10, 64)
}
