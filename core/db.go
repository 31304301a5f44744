package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses a `field,-other` list into orderings.
// Fields that are not in `allowed` are dropped; they would otherwise end up in raw SQL.
func ParseOrdering(raw string, allowed ...string) []DBOrdering {
	if raw == "" {
		return nil
	}
	var orderings []DBOrdering
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !contains(allowed, field) {
			continue
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
