package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Course is a catalog entry as served by the API.
type Course struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Educator    string    `json:"educator,omitempty"`
	Price       string    `json:"price,omitempty"`
	Modules     []Module  `json:"modules,omitempty"`
	Languages   []string  `json:"languages,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsFree reports whether the course has no price or a zero price.
func (c Course) IsFree() bool {
	cents, err := c.PriceCents()
	return err == nil && cents == 0
}

// maxPrice keeps the cent amount inside int64.
const maxPrice = math.MaxInt64 / 100

// PriceCents parses the display price ("49.99", "$49.99", "") into cents.
func (c Course) PriceCents() (int64, error) {
	p := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.Price), "$"))
	if p == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > maxPrice {
		return 0, fmt.Errorf("course %s: invalid price %q", c.ID, c.Price)
	}
	return int64(math.Round(f * 100)), nil
}
