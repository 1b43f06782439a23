package config

import (
	"strings"
)

// ModelPricing holds per-million-token list prices for a model.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// DefaultPricing maps model base names to their list prices. Session logs
// carry only input and output counts per message, so cache tiers are not
// priced.
var DefaultPricing = map[string]ModelPricing{
	"claude-opus-4-6":   {InputPerMTok: 5.00, OutputPerMTok: 25.00},
	"claude-opus-4-5":   {InputPerMTok: 5.00, OutputPerMTok: 25.00},
	"claude-opus-4-1":   {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-opus-4":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-sonnet-4-6": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-sonnet-4-5": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-sonnet-4":   {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-haiku-4-5":  {InputPerMTok: 1.00, OutputPerMTok: 5.00},
	"claude-haiku-3-5":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
}

// NormalizeModelName strips a date suffix from a model identifier when the
// remainder is a priced model, e.g. "claude-opus-4-5-20251101" becomes
// "claude-opus-4-5".
func NormalizeModelName(raw string) string {
	if _, ok := DefaultPricing[raw]; ok {
		return raw
	}

	i := strings.LastIndexByte(raw, '-')
	if i < 0 {
		return raw
	}
	if last := raw[i+1:]; len(last) >= 8 && isAllDigits(last) {
		if _, ok := DefaultPricing[raw[:i]]; ok {
			return raw[:i]
		}
	}
	return raw
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// LookupPricing returns the pricing for a model, normalizing the name first.
// Returns zero pricing and false if the model is unknown.
func LookupPricing(model string) (ModelPricing, bool) {
	p, ok := DefaultPricing[NormalizeModelName(model)]
	return p, ok
}

// EstimateCost returns the list-price cost in USD of the given token counts.
// ok is false for unpriced models.
func EstimateCost(model string, inputTokens, outputTokens int64) (cost float64, ok bool) {
	p, ok := LookupPricing(model)
	if !ok {
		return 0, false
	}
	cost = float64(inputTokens) * p.InputPerMTok / 1_000_000
	cost += float64(outputTokens) * p.OutputPerMTok / 1_000_000
	return cost, true
}
