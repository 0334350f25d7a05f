package core

import (
	"fmt"
	"strings"
)

// Category groups knowledge entries by area of law.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryCriminal
	CategoryFamily
	CategoryProperty
	CategoryEmployment
	CategoryConsumer
	CategoryConstitutional
	CategoryMotorVehicle
	CategoryAdministrative
	CategoryTax
	CategoryCorporate
	CategoryCyber
)

var categoryNames = map[Category]string{
	CategoryGeneral:        "general",
	CategoryCriminal:       "criminal",
	CategoryFamily:         "family",
	CategoryProperty:       "property",
	CategoryEmployment:     "employment",
	CategoryConsumer:       "consumer",
	CategoryConstitutional: "constitutional",
	CategoryMotorVehicle:   "motor_vehicle",
	CategoryAdministrative: "administrative",
	CategoryTax:            "tax",
	CategoryCorporate:      "corporate",
	CategoryCyber:          "cyber",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory converts a category name into a Category.
// Names are matched case-insensitively and spaces are treated as underscores.
func ParseCategory(name string) (Category, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if name == "" {
		return CategoryGeneral, nil
	}
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return CategoryGeneral, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
