package model

// Theme carries the display classes of a category card. It has no pricing meaning.
type Theme struct {
	ThemeColor  string
	TextColor   string
	BorderColor string
	BgGradient  string
}

// Level is one pricing tier, billed per term. Amounts are whole dollars.
type Level struct {
	Number      int
	Tuition     int
	DeviceFee   int // one-time tablet fee
	SoftwareFee int
}

// Total is derived so it cannot drift from its parts.
func (l Level) Total() int {
	return l.Tuition + l.DeviceFee + l.SoftwareFee
}

type Category struct {
	Name   string
	Theme  Theme
	Levels []Level
}

// Catalog is the ordered price list. Built once at startup and never mutated.
type Catalog struct {
	Categories []Category
}

// Levels returns every level in catalog order, paired with its category name.
func (c Catalog) Levels() []CategoryLevel {
	var out []CategoryLevel
	for _, cat := range c.Categories {
		for _, lvl := range cat.Levels {
			out = append(out, CategoryLevel{Category: cat.Name, Level: lvl})
		}
	}
	return out
}

type CategoryLevel struct {
	Category string
	Level
}
