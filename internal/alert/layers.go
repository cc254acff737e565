package alert

import "strings"

// Layers splits alerts between the map's plain marker layer and its
// clustering layer.
type Layers struct {
	Plain     []Alert `json:"plain"`
	Clustered []Alert `json:"clustered"`
}

// Partition routes GREEN alerts to the clustered layer and every other alert
// to the plain layer, preserving input order within each.
func Partition(alerts []Alert) Layers {
	l := Layers{Plain: make([]Alert, 0), Clustered: make([]Alert, 0)}
	for _, a := range alerts {
		if strings.EqualFold(string(a.Color), string(ColorGreen)) {
			l.Clustered = append(l.Clustered, a)
			continue
		}
		l.Plain = append(l.Plain, a)
	}
	return l
}

// Marker shapes.
const (
	ShapeDot   = "dot"
	ShapeRadar = "radar"
)

// Marker is how an alert is drawn on the map.
type Marker struct {
	Shape string `json:"shape"`
	Fill  string `json:"fill"`
}

// MarkerFor picks the marker for an alert: a radar sweep for tsunamis, a dot
// otherwise, filled by warning color. Unknown colors draw as green.
func MarkerFor(a Alert) Marker {
	m := Marker{Shape: ShapeDot, Fill: "#2ecc71"}
	if strings.EqualFold(strings.TrimSpace(a.Type), TypeTsunami) {
		m.Shape = ShapeRadar
	}
	switch Color(strings.ToUpper(string(a.Color))) {
	case ColorRed:
		m.Fill = "#e74c3c"
	case ColorOrange:
		m.Fill = "#e67e22"
	case ColorYellow:
		m.Fill = "#f1c40f"
	}
	return m
}
