// Package report renders tours for people and for the JSON API.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/copyleftdev/tourclimb/internal/tsp"
)

// Leg is one directed edge of a tour.
type Leg struct {
	FromID   int     `json:"from_id"`
	ToID     int     `json:"to_id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Distance float64 `json:"distance"`
}

// Route is a tour expanded into its legs, closing edge included.
type Route struct {
	Tour  tsp.Tour `json:"tour"`
	Legs  []Leg    `json:"legs"`
	Total float64  `json:"total"`
}

// Build expands t into legs. Cities without a name are labelled by id.
func Build(t tsp.Tour, names []string, d *tsp.Distances) Route {
	r := Route{Tour: t.Clone(), Legs: make([]Leg, 0, len(t))}
	for i, from := range t {
		to := t[(i+1)%len(t)]
		leg := Leg{
			FromID:   from,
			ToID:     to,
			From:     label(names, from),
			To:       label(names, to),
			Distance: d.At(from, to),
		}
		r.Legs = append(r.Legs, leg)
		r.Total += leg.Distance
	}
	return r
}

// Write prints one "From -> To: d km" line per leg followed by the total.
func Write(w io.Writer, r Route) error {
	for _, leg := range r.Legs {
		if _, err := fmt.Fprintf(w, "%s -> %s: %s km\n", leg.From, leg.To, formatKM(leg.Distance)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total distance: %s km\n\n", formatKM(r.Total))
	return err
}

func label(names []string, id int) string {
	if id < len(names) && names[id] != "" {
		return names[id]
	}
	return strconv.Itoa(id)
}

func formatKM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
