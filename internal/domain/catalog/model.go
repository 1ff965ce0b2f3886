package catalog

import "time"

// Category groups inventory items (paper, card stock, vinyl, ink...).
type Category struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}
