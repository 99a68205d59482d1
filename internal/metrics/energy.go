package metrics

import (
	"github.com/san-kum/cascadedrop/internal/physics"
)

// KineticEnergy reports the total kinetic energy after the last step.
type KineticEnergy struct {
	name    string
	current float64
	peak    float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(w *physics.World) {
	e.current = 0
	for _, b := range w.Bodies() {
		e.current += b.KineticEnergy()
	}
	if e.current > e.peak {
		e.peak = e.current
	}
}

func (e *KineticEnergy) Value() float64 { return e.current }

// Peak is the largest total seen since the last reset.
func (e *KineticEnergy) Peak() float64 { return e.peak }

func (e *KineticEnergy) Reset() {
	e.current = 0
	e.peak = 0
}
