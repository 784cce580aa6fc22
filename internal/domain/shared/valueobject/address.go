package valueobject

import "strings"

// Address is a postal address. All fields are optional.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Normalize trims every field
func (a Address) Normalize() Address {
	return Address{
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

// IsEmpty returns true when no field is set
func (a Address) IsEmpty() bool {
	return a.Normalize() == Address{}
}

// Lines renders the address as display lines, skipping empty parts.
func (a Address) Lines() []string {
	a = a.Normalize()
	lines := make([]string, 0, 3)
	if a.Street != "" {
		lines = append(lines, a.Street)
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.PostalCode, a.City, a.State), " "))
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return lines
}

// String joins the display lines with ", "
func (a Address) String() string {
	return strings.Join(a.Lines(), ", ")
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
