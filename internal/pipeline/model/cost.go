package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Pricing is the USD price of one million input and output text tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// Cost is the USD cost of one model call.
type Cost struct {
	Input  float64
	Output float64
}

// Total returns the summed cost.
func (c Cost) Total() float64 {
	return c.Input + c.Output
}

var priceTable = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-1.5-pro":        {InputPerM: 1.25, OutputPerM: 5.00},
	"gpt-4o-mini":           {InputPerM: 0.15, OutputPerM: 0.60},
	"gpt-4o":                {InputPerM: 2.50, OutputPerM: 10.00},
}

// PricingFor looks a model up in the price table. Provider prefixes such as
// "openai/" are ignored; unknown models are free.
func PricingFor(modelName string) Pricing {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return priceTable[name]
}

// Of prices usage; nil usage costs nothing.
func (p Pricing) Of(usage *schema.TokenUsage) Cost {
	if usage == nil {
		return Cost{}
	}
	return Cost{
		Input:  p.InputPerM * float64(usage.PromptTokens) / 1e6,
		Output: p.OutputPerM * float64(usage.CompletionTokens) / 1e6,
	}
}

// CostOf prices usage of modelName.
func CostOf(modelName string, usage *schema.TokenUsage) Cost {
	return PricingFor(modelName).Of(usage)
}
