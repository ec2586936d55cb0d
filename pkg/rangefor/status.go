package rangefor

import (
	"fmt"
	"time"
)

// Status fill colors and shapes.
const (
	FillGreen = "green"
	FillGrey  = "grey"
	FillRed   = "red"

	ShapeRing = "ring"
	ShapeDot  = "dot"
)

// stampLayout renders status times, e.g. "Mar 4, 09:15".
const stampLayout = "Jan 2, 15:04"

// Status is a short human-readable node state.
type Status struct {
	Fill  string `json:"fill,omitempty"`
	Shape string `json:"shape,omitempty"`
	Text  string `json:"text,omitempty"`
}

// StatusSink displays node status.
type StatusSink interface {
	SetStatus(nodeID string, status Status)
}

// StatusFunc adapts a function to the StatusSink interface.
type StatusFunc func(nodeID string, status Status)

// SetStatus calls f(nodeID, status).
func (f StatusFunc) SetStatus(nodeID string, status Status) {
	f(nodeID, status)
}

func valueText(v *float64) string {
	if v == nil {
		return ""
	}
	return formatValue(*v)
}

// armedStatus shows when the value was last seen in range.
func armedStatus(v *float64, at time.Time) Status {
	return Status{
		Fill:  FillGreen,
		Shape: ShapeRing,
		Text:  fmt.Sprintf("%s at: %s", valueText(v), at.Format(stampLayout)),
	}
}

// firedStatus shows when the last emission happened.
func firedStatus(v *float64, at time.Time) Status {
	return Status{
		Fill:  FillGreen,
		Shape: ShapeDot,
		Text:  fmt.Sprintf("%s since: %s", valueText(v), at.Format(stampLayout)),
	}
}

func idleStatus(v *float64) Status {
	return Status{Fill: FillGrey, Shape: ShapeRing, Text: valueText(v)}
}
