package pricing

import (
	"errors"
	"fmt"

	"elifsite/internal/model"
)

const (
	SchoolName = "ELiF"

	// TermHours is the length of one billed term.
	TermHours = 45

	LevelsPerCategory = 4
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Default returns the built-in price list. Every call returns a fresh copy.
func Default() model.Catalog {
	return model.Catalog{Categories: []model.Category{
		category("Starter", "pink", 45, 130),
		category("Jumper", "orange", 50, 0),
		category("Basic", "yellow", 55, 0),
		category("Intermediate", "green", 60, 0),
		category("Advanced", "blue", 65, 0),
		category("Elite", "purple", 70, 0),
	}}
}

// category builds four levels at the same tuition. The device fee only
// applies to the first level.
func category(name, color string, tuition, firstLevelDeviceFee int) model.Category {
	c := model.Category{
		Name: name,
		Theme: model.Theme{
			ThemeColor:  "bg-" + color + "-400",
			TextColor:   "text-" + color + "-600",
			BorderColor: "border-" + color + "-200",
			BgGradient:  "from-" + color + "-50 to-" + color + "-100",
		},
	}
	for n := 1; n <= LevelsPerCategory; n++ {
		lvl := model.Level{Number: n, Tuition: tuition, SoftwareFee: 10}
		if n == 1 {
			lvl.DeviceFee = firstLevelDeviceFee
		}
		c.Levels = append(c.Levels, lvl)
	}
	return c
}

// Validate checks the structural rules of a catalog: unique category names,
// exactly four levels numbered 1..4 in order, no negative amounts.
func Validate(c model.Catalog) error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: category without name", ErrInvalidCatalog)
		}
		if seen[cat.Name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, cat.Name)
		}
		seen[cat.Name] = true

		if len(cat.Levels) != LevelsPerCategory {
			return fmt.Errorf("%w: %s has %d levels, want %d", ErrInvalidCatalog, cat.Name, len(cat.Levels), LevelsPerCategory)
		}
		for i, lvl := range cat.Levels {
			if lvl.Number != i+1 {
				return fmt.Errorf("%w: %s level %d out of order", ErrInvalidCatalog, cat.Name, lvl.Number)
			}
			if lvl.Tuition < 0 || lvl.DeviceFee < 0 || lvl.SoftwareFee < 0 {
				return fmt.Errorf("%w: %s level %d has a negative amount", ErrInvalidCatalog, cat.Name, lvl.Number)
			}
		}
	}
	return nil
}
