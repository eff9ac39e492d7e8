// Package types provides the domain types shared across the test generation pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
)

// Category is the closed set of acceptance-criterion categories.
type Category int

// Category values in declaration order. The order is significant: the
// classifier breaks score ties in favour of the earlier category.
const (
	CategoryAvailability Category = iota
	CategoryLogging
	CategoryOrdering
	CategoryLimit
	CategoryRestrictions
	CategoryDynamicRefresh
	CategoryReset
	CategoryScrolling
	CategoryAccessibility
	CategoryOther
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryAvailability,
	CategoryLogging,
	CategoryOrdering,
	CategoryLimit,
	CategoryRestrictions,
	CategoryDynamicRefresh,
	CategoryReset,
	CategoryScrolling,
	CategoryAccessibility,
	CategoryOther,
}

var categoryNames = map[Category]string{
	CategoryAvailability:   "Availability/Entry Points",
	CategoryLogging:        "Logging/Tracking",
	CategoryOrdering:       "Ordering",
	CategoryLimit:          "Limit/Retention",
	CategoryRestrictions:   "Restrictions/Scope",
	CategoryDynamicRefresh: "Dynamic Refresh",
	CategoryReset:          "Reset Conditions",
	CategoryScrolling:      "Scrolling",
	CategoryAccessibility:  "Accessibility",
	CategoryOther:          "Other/General",
}

// String returns the display name used in titles and reports.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory resolves a display name (case-sensitive) back to a Category.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories {
		if categoryNames[c] == name {
			return c, nil
		}
	}
	return CategoryOther, fmt.Errorf("unknown category %q", name)
}

// MarshalJSON encodes the category by display name.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a category from its display name.
func (c *Category) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseCategory(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// UnmarshalYAML decodes a category from its display name.
func (c *Category) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseCategory(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
