package metrics

import (
	"math"

	"github.com/san-kum/cascadedrop/internal/physics"
)

// MaxPenetration is the deepest interpenetration seen over the run.
type MaxPenetration struct {
	name  string
	worst float64
}

func NewMaxPenetration() *MaxPenetration {
	return &MaxPenetration{name: "max_penetration"}
}

func (m *MaxPenetration) Name() string { return m.name }

func (m *MaxPenetration) Observe(w *physics.World) {
	m.worst = math.Max(m.worst, w.Stats().MaxPenetration)
}

func (m *MaxPenetration) Value() float64 { return m.worst }

func (m *MaxPenetration) Reset() { m.worst = 0 }

// ContactCount averages the number of active contacts per step.
type ContactCount struct {
	name    string
	sum     int
	last    int
	samples int
}

func NewContactCount() *ContactCount {
	return &ContactCount{name: "contacts"}
}

func (c *ContactCount) Name() string { return c.name }

func (c *ContactCount) Observe(w *physics.World) {
	c.last = len(w.Contacts())
	c.sum += c.last
	c.samples++
}

func (c *ContactCount) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *ContactCount) Last() int { return c.last }

func (c *ContactCount) Reset() {
	c.sum = 0
	c.last = 0
	c.samples = 0
}
