package chat

import (
	"fmt"

	"elifsite/internal/model"
	"elifsite/internal/pricing"
)

const (
	Greeting = "Hi! I'm the ELiF Course Advisor. Ask me about prices, levels, or which course is right for your child!"

	FallbackEmpty = "I'm sorry, I couldn't generate a response at this time."
	FallbackError = "Oops! I'm having trouble connecting to the school database right now. Please try again later."
)

const systemInstructionTemplate = `
You are a helpful and friendly academic advisor for %[1]s School.
Your goal is to assist parents in understanding the school's tuition and fees.

Here is the official Price List Data:
%[2]s

Key Rules:
1. Tone: Cheerful, professional, and encouraging. Suitable for a school environment.
2. Facts: ONLY use the provided JSON data for prices. Do not make up prices.
3. Specifics: %[3]s
4. Formatting: When listing prices, use a clean format.
5. If asked about "Term length", mention it is %[4]d hours per term.
6. Keep answers concise (under 100 words) unless detailed breakdown is requested.
`

// SystemInstruction builds the fixed preamble sent with every generation request.
func SystemInstruction(c model.Catalog) (string, error) {
	data, err := pricing.PromptJSON(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(systemInstructionTemplate, pricing.SchoolName, data, deviceFeeRule(c), pricing.TermHours), nil
}

// deviceFeeRule spells out which levels carry a tablet fee so the model
// does not generalize it to every course.
func deviceFeeRule(c model.Catalog) string {
	var withFee []model.CategoryLevel
	for _, cl := range c.Levels() {
		if cl.DeviceFee > 0 {
			withFee = append(withFee, cl)
		}
	}
	switch len(withFee) {
	case 0:
		return "No course has a Tablet fee."
	case 1:
		cl := withFee[0]
		return fmt.Sprintf(`Note that "%s Level %d" is the only course with a %s Tablet fee. All other courses have a $0 tablet fee.`,
			cl.Category, cl.Number, pricing.Dollars(cl.DeviceFee))
	default:
		return "Tablet fees differ per course; read the tablets field of each level."
	}
}
