package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elifsite/internal/model"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, Validate(c))
	require.Len(t, c.Categories, 6)
	assert.Len(t, c.Levels(), 24)

	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	assert.Equal(t, []string{"Starter", "Jumper", "Basic", "Intermediate", "Advanced", "Elite"}, names)
}

func TestTotalsAddUp(t *testing.T) {
	for _, cl := range Default().Levels() {
		assert.Equal(t, cl.Tuition+cl.DeviceFee+cl.SoftwareFee, cl.Total(), "%s level %d", cl.Category, cl.Number)
	}

	levels := Default().Levels()
	require.Len(t, levels, 24)

	starter := levels[0]
	assert.Equal(t, "Starter", starter.Category)
	assert.Equal(t, 1, starter.Number)
	assert.Equal(t, 45, starter.Tuition)
	assert.Equal(t, 130, starter.DeviceFee)
	assert.Equal(t, 10, starter.SoftwareFee)
	assert.Equal(t, 185, starter.Total())

	elite := levels[len(levels)-1]
	assert.Equal(t, "Elite", elite.Category)
	assert.Equal(t, 4, elite.Number)
	assert.Equal(t, 80, elite.Total())
}

func TestOnlyStarterLevelOneHasDeviceFee(t *testing.T) {
	var withFee []model.CategoryLevel
	zero := 0
	for _, cl := range Default().Levels() {
		if cl.DeviceFee != 0 {
			withFee = append(withFee, cl)
		} else {
			zero++
		}
	}
	require.Len(t, withFee, 1)
	assert.Equal(t, "Starter", withFee[0].Category)
	assert.Equal(t, 1, withFee[0].Number)
	assert.Equal(t, 130, withFee[0].DeviceFee)
	assert.Equal(t, 23, zero)
}

func TestDefaultReturnsCopies(t *testing.T) {
	a := Default()
	a.Categories[0].Levels[0].Tuition = 1
	assert.Equal(t, 45, Default().Categories[0].Levels[0].Tuition)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *model.Catalog){
		"empty":        func(c *model.Catalog) { c.Categories = nil },
		"no name":      func(c *model.Catalog) { c.Categories[1].Name = "" },
		"duplicate":    func(c *model.Catalog) { c.Categories[1].Name = "Starter" },
		"three levels": func(c *model.Catalog) { c.Categories[2].Levels = c.Categories[2].Levels[:3] },
		"out of order": func(c *model.Catalog) {
			c.Categories[0].Levels[0], c.Categories[0].Levels[1] = c.Categories[0].Levels[1], c.Categories[0].Levels[0]
		},
		"negative": func(c *model.Catalog) { c.Categories[3].Levels[2].SoftwareFee = -10 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			assert.ErrorIs(t, Validate(c), ErrInvalidCatalog)
		})
	}
}

func TestPromptJSON(t *testing.T) {
	raw, err := PromptJSON(Default())
	require.NoError(t, err)

	assert.Contains(t, raw, "\n  {\n    \"name\": \"Starter\",")

	var decoded []struct {
		Name       string `json:"name"`
		ThemeColor string `json:"themeColor"`
		Levels     []struct {
			Level        int `json:"level"`
			PricePerTerm int `json:"pricePerTerm"`
			Tablets      int `json:"tablets"`
			Software     int `json:"software"`
			Total        int `json:"total"`
		} `json:"levels"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded, 6)
	assert.Equal(t, "bg-pink-400", decoded[0].ThemeColor)
	assert.Equal(t, 1, decoded[0].Levels[0].Level)
	assert.Equal(t, 130, decoded[0].Levels[0].Tablets)
	assert.Equal(t, 185, decoded[0].Levels[0].Total)
	assert.Equal(t, 55, decoded[0].Levels[1].Total)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$45", Dollars(45))
	assert.Equal(t, "$185.00", DollarsCents(185))
}
