package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is a 1-based limit/page pair as accepted from query strings.
type Page struct {
	Limit int
	Page  int
}

// Normalize clamps the page into a usable range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}
