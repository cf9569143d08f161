package pricing

import (
	"encoding/json"
	"fmt"

	"elifsite/internal/model"
)

// The prompt keeps the field names parents see on the printed price list.
type promptCategory struct {
	Name        string        `json:"name"`
	ThemeColor  string        `json:"themeColor"`
	TextColor   string        `json:"textColor"`
	BorderColor string        `json:"borderColor"`
	BgGradient  string        `json:"bgGradient"`
	Levels      []promptLevel `json:"levels"`
}

type promptLevel struct {
	Level        int `json:"level"`
	PricePerTerm int `json:"pricePerTerm"`
	Tablets      int `json:"tablets"`
	Software     int `json:"software"`
	Total        int `json:"total"`
}

// PromptJSON serializes the catalog as 2-space indented JSON for the system instruction.
func PromptJSON(c model.Catalog) (string, error) {
	out := make([]promptCategory, 0, len(c.Categories))
	for _, cat := range c.Categories {
		pc := promptCategory{
			Name:        cat.Name,
			ThemeColor:  cat.Theme.ThemeColor,
			TextColor:   cat.Theme.TextColor,
			BorderColor: cat.Theme.BorderColor,
			BgGradient:  cat.Theme.BgGradient,
			Levels:      make([]promptLevel, 0, len(cat.Levels)),
		}
		for _, lvl := range cat.Levels {
			pc.Levels = append(pc.Levels, promptLevel{
				Level:        lvl.Number,
				PricePerTerm: lvl.Tuition,
				Tablets:      lvl.DeviceFee,
				Software:     lvl.SoftwareFee,
				Total:        lvl.Total(),
			})
		}
		out = append(out, pc)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal catalog: %w", err)
	}
	return string(b), nil
}

// Dollars formats a whole amount as "$45".
func Dollars(amount int) string {
	return fmt.Sprintf("$%d", amount)
}

// DollarsCents formats a whole amount as "$185.00".
func DollarsCents(amount int) string {
	return fmt.Sprintf("$%d.00", amount)
}
