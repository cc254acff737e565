package alert

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// District is a coastal district alerts can be issued for.
type District struct {
	Name  string
	State string
	Lat   float64
	Lon   float64
}

// CoastalDistricts lists the districts the generator issues alerts for.
var CoastalDistricts = []District{
	{"Visakhapatnam", "Andhra Pradesh", 17.6868, 83.2185},
	{"Nellore", "Andhra Pradesh", 14.4426, 79.9865},
	{"Kakinada", "Andhra Pradesh", 16.9891, 82.2475},
	{"North Goa", "Goa", 15.5937, 73.8142},
	{"South Goa", "Goa", 15.1747, 73.9444},
	{"Porbandar", "Gujarat", 21.6417, 69.6293},
	{"Jamnagar", "Gujarat", 22.4707, 70.0577},
	{"Kutch", "Gujarat", 23.7337, 69.8597},
	{"Mangalore", "Karnataka", 12.9141, 74.8560},
	{"Udupi", "Karnataka", 13.3409, 74.7421},
	{"Karwar", "Karnataka", 14.8136, 74.1294},
	{"Kochi", "Kerala", 9.9312, 76.2673},
	{"Kozhikode", "Kerala", 11.2588, 75.7804},
	{"Thiruvananthapuram", "Kerala", 8.5241, 76.9366},
	{"Mumbai", "Maharashtra", 19.0760, 72.8777},
	{"Raigad", "Maharashtra", 18.5158, 73.1822},
	{"Ratnagiri", "Maharashtra", 16.9902, 73.3120},
	{"Puri", "Odisha", 19.8135, 85.8312},
	{"Balasore", "Odisha", 21.4934, 86.9135},
	{"Ganjam", "Odisha", 19.3870, 85.0508},
	{"Puducherry", "Puducherry", 11.9416, 79.8083},
	{"Chennai", "Tamil Nadu", 13.0827, 80.2707},
	{"Kanyakumari", "Tamil Nadu", 8.0883, 77.5385},
	{"Ramanathapuram", "Tamil Nadu", 9.3639, 78.8395},
	{"Kolkata", "West Bengal", 22.5726, 88.3639},
	{"South 24 Parganas", "West Bengal", 22.1352, 88.4016},
}

// SourceGenerated marks alerts produced by Generator in Details["source"].
const SourceGenerated = "generated"

// TsunamiColor grades a tsunami advisory by earthquake magnitude.
func TsunamiColor(magnitude float64) Color {
	if magnitude > 7 {
		return ColorRed
	}
	return ColorOrange
}

// SurgeColor grades a storm surge advisory by surge height in metres.
func SurgeColor(height float64) Color {
	if height > 2.5 {
		return ColorOrange
	}
	return ColorYellow
}

// Generator produces plausible tsunami and storm surge advisories for the
// early-warning map. It is not safe for concurrent use.
type Generator struct {
	rng   *rand.Rand
	clock clockwork.Clock
}

// NewGenerator creates a Generator. A zero seed picks a time-based one.
func NewGenerator(seed int64, clock clockwork.Clock) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), clock: clock} //nolint:gosec // mock data
}

// Generate returns one to three tsunami advisories followed by one or two
// storm surge advisories.
func (g *Generator) Generate() []Alert {
	tsunamis := g.rng.Intn(3) + 1
	surges := g.rng.Intn(2) + 1

	out := make([]Alert, 0, tsunamis+surges)
	for range tsunamis {
		out = append(out, g.tsunami())
	}
	for range surges {
		out = append(out, g.stormSurge())
	}
	return out
}

func (g *Generator) tsunami() Alert {
	d := g.district()
	magnitude := 5 + g.rng.Float64()*3
	a := g.base(TypeTsunami, d, 12)
	a.Color = TsunamiColor(magnitude)
	a.Message = fmt.Sprintf("Tsunami advisory for %s, %s", d.Name, d.State)
	a.Details["magnitude"] = fmt.Sprintf("%.1f", magnitude)
	return a
}

func (g *Generator) stormSurge() Alert {
	d := g.district()
	height := 1 + g.rng.Float64()*3
	a := g.base(TypeStormSurge, d, 24)
	a.Color = SurgeColor(height)
	a.Message = fmt.Sprintf("Storm surge advisory for %s, %s", d.Name, d.State)
	a.Details["surge_height"] = fmt.Sprintf("%.2f", height)
	return a
}

// base fills the fields shared by every advisory. The issue date falls up to
// maxAgeHours whole hours before now.
func (g *Generator) base(typ string, d District, maxAgeHours int) Alert {
	issued := g.clock.Now().UTC().Truncate(time.Second).Add(-time.Duration(g.rng.Intn(maxAgeHours)) * time.Hour)
	return Alert{
		ID:        g.id(),
		Type:      typ,
		District:  strings.ToUpper(d.Name),
		State:     strings.ToUpper(d.State),
		Latitude:  d.Lat,
		Longitude: d.Lon,
		IssueDate: issued,
		Details:   map[string]string{"source": SourceGenerated},
	}
}

func (g *Generator) district() District {
	return CoastalDistricts[g.rng.Intn(len(CoastalDistricts))]
}

func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
