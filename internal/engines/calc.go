package engines

import (
	"fmt"
	"html"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/ambit-search/ambit/internal/provider"
)

// calcProvider evaluates simple arithmetic expressions instantly, with no
// outbound I/O. It understands +, -, *, /, ^, parentheses and unary minus;
// unlike a full units-and-dates calculator it has no notion of conversions,
// so "5 to hex" or date math isn't recognized and simply falls through to
// the normal search results.
type calcProvider struct{}

func NewCalc() provider.Provider { return calcProvider{} }

func (calcProvider) ID() provider.ID { return "calc" }

func (calcProvider) Capabilities() provider.Capability {
	return provider.Search | provider.Autocomplete
}

func (calcProvider) BuildRequest(query *provider.SearchQuery) provider.RequestPlan {
	cleaned := cleanCalcQuery(query.Query)
	result, ok := evaluateExpression(cleaned)
	if !ok {
		return provider.NoPlan()
	}
	answerHTML := fmt.Sprintf(
		`<p class="answer-calc-query">%s =</p><h3><b>%s</b></h3>`,
		html.EscapeString(cleaned), html.EscapeString(formatCalcResult(result)),
	)
	return provider.InstantPlan(provider.EngineResponse{AnswerHTML: answerHTML})
}

func (calcProvider) ParseResponse(_ *http.Response, _ []byte, _ provider.ConfigView) provider.EngineResponse {
	return provider.EngineResponse{}
}

func (calcProvider) BuildAutocompleteRequest(query *provider.SearchQuery) provider.AutocompletePlan {
	cleaned := cleanCalcQuery(query.Query)
	result, ok := evaluateExpression(cleaned)
	if !ok {
		return provider.NoAutocompletePlan()
	}
	return provider.InstantAutocompletePlan([]string{"= " + formatCalcResult(result)})
}

func (calcProvider) ParseAutocompleteResponse(_ []byte) []string { return nil }

func cleanCalcQuery(query string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), "="))
}

func formatCalcResult(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// evaluateExpression parses and evaluates a simple arithmetic expression,
// returning ok=false for anything that isn't recognizably arithmetic so the
// provider can decline rather than misfire on plain search queries.
func evaluateExpression(expr string) (result float64, ok bool) {
	if expr == "" {
		return 0, false
	}
	if !looksArithmetic(expr) {
		return 0, false
	}

	p := &calcParser{input: []rune(expr)}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	value := p.parseExpr()
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, false
	}
	return value, true
}

// looksArithmetic rejects queries that don't contain at least one digit and
// one operator/paren, so ordinary text queries never get claimed.
func looksArithmetic(expr string) bool {
	hasDigit, hasOperator := false, false
	for _, r := range expr {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("+-*/^()", r):
			hasOperator = true
		case unicode.IsSpace(r) || r == '.':
			// allowed, neither signal
		default:
			return false
		}
	}
	return hasDigit && hasOperator
}

type calcParser struct {
	input []rune
	pos   int
}

func (p *calcParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *calcParser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *calcParser) parseExpr() float64 {
	value := p.parseTerm()
	for {
		switch p.peek() {
		case '+':
			p.pos++
			value += p.parseTerm()
		case '-':
			p.pos++
			value -= p.parseTerm()
		default:
			return value
		}
	}
}

func (p *calcParser) parseTerm() float64 {
	value := p.parsePower()
	for {
		switch p.peek() {
		case '*':
			p.pos++
			value *= p.parsePower()
		case '/':
			p.pos++
			divisor := p.parsePower()
			if divisor == 0 {
				panic("division by zero")
			}
			value /= divisor
		default:
			return value
		}
	}
}

func (p *calcParser) parsePower() float64 {
	base := p.parseUnary()
	if p.peek() == '^' {
		p.pos++
		exponent := p.parsePower()
		return pow(base, exponent)
	}
	return base
}

func (p *calcParser) parseUnary() float64 {
	if p.peek() == '-' {
		p.pos++
		return -p.parseUnary()
	}
	if p.peek() == '+' {
		p.pos++
		return p.parseUnary()
	}
	return p.parseAtom()
}

func (p *calcParser) parseAtom() float64 {
	if p.peek() == '(' {
		p.pos++
		value := p.parseExpr()
		if p.peek() != ')' {
			panic("unbalanced parens")
		}
		p.pos++
		return value
	}
	return p.parseNumber()
}

func (p *calcParser) parseNumber() float64 {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		panic("expected number")
	}
	value, err := strconv.ParseFloat(string(p.input[start:p.pos]), 64)
	if err != nil {
		panic(err)
	}
	return value
}

func pow(base, exponent float64) float64 {
	if exponent == 0 {
		return 1
	}
	result := 1.0
	neg := exponent < 0
	n := int(exponent)
	if float64(n) != exponent {
		return math.Pow(base, exponent)
	}
	if neg {
		n = -n
	}
	for i := 0; i < n; i++ {
		result *= base
	}
	if neg {
		if result == 0 {
			panic("division by zero")
		}
		return 1 / result
	}
	return result
}
