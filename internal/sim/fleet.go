package sim

import (
	"fmt"
	"math/rand"

	"github.com/blckassembly/brelth-AES/internal/config"
	"github.com/blckassembly/brelth-AES/internal/geo"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

var emergencyKinds = []string{"general", "communication", "hijack"}

// Fleet owns all simulated aircraft. Aircraft are created at construction and
// live until shutdown; every mutation happens on the tick goroutine.
type Fleet struct {
	aircraft []*Aircraft
	rng      *rand.Rand
	logger   *logger.Logger
}

// Stats are the fleet-level counters reported by the heartbeat
type Stats struct {
	Aircraft    int `json:"aircraft"`
	Emergencies int `json:"emergencies"`
	Conflicts   int `json:"conflicts"`
}

// NewFleet builds a fleet of simCfg.NumAircraft aircraft. Category is drawn
// per slot with probability jetRatio; each aircraft gets a child RNG derived
// from the fleet RNG. ICAO addresses are resampled on collision.
func NewFleet(simCfg config.SimulationConfig, typesCfg config.AircraftTypesConfig, rng *rand.Rand, log *logger.Logger) *Fleet {
	f := &Fleet{
		aircraft: make([]*Aircraft, 0, simCfg.NumAircraft),
		rng:      rng,
		logger:   log.Named("fleet"),
	}

	seen := make(map[string]bool, simCfg.NumAircraft)
	jets := 0
	for i := 0; i < simCfg.NumAircraft; i++ {
		icao := f.randomICAO(seen)
		seen[icao] = true

		category := CategoryProp
		if rng.Float64() < typesCfg.JetRatio {
			category = CategoryJet
			jets++
		}

		child := rand.New(rand.NewSource(rng.Int63()))
		f.aircraft = append(f.aircraft, NewAircraft(icao, category, child))
	}

	f.logger.Info("Generated aircraft fleet",
		logger.Int("aircraft", len(f.aircraft)),
		logger.Int("jets", jets),
		logger.Int("props", len(f.aircraft)-jets),
	)

	return f
}

// randomICAO draws a random 24-bit address, resampling until it does not
// collide with an address already in the fleet.
func (f *Fleet) randomICAO(seen map[string]bool) string {
	for {
		icao := fmt.Sprintf("%06X", f.rng.Intn(0x1000000))
		if !seen[icao] {
			return icao
		}
	}
}

// AdvanceAll advances every aircraft by dt seconds
func (f *Fleet) AdvanceAll(dt float64) {
	for _, a := range f.aircraft {
		a.Advance(dt)
	}
}

// SeparationScan checks every aircraft pair against the separation minima
// (5 nm horizontal, 1000 ft vertical) and returns the number of conflicting
// pairs. Conflict flags are recomputed from scratch each scan so aircraft that
// left conflict this tick are cleared.
func (f *Fleet) SeparationScan() int {
	for _, a := range f.aircraft {
		a.SetConflict(false)
	}

	pairs := 0
	for i := 0; i < len(f.aircraft); i++ {
		for j := i + 1; j < len(f.aircraft); j++ {
			a1, a2 := f.aircraft[i], f.aircraft[j]

			horizontalNM := geo.DistanceNM(a1.Position(), a2.Position())
			verticalFt := a1.Altitude() - a2.Altitude()
			if verticalFt < 0 {
				verticalFt = -verticalFt
			}

			if horizontalNM < 5 && verticalFt < 1000 {
				a1.SetConflict(true)
				a2.SetConflict(true)
				pairs++
				f.logger.Warn("Separation conflict",
					logger.String("callsign_1", a1.Callsign()),
					logger.String("callsign_2", a2.Callsign()),
					logger.Float64("distance_nm", horizontalNM),
					logger.Float64("vertical_ft", verticalFt),
				)
			}
		}
	}
	return pairs
}

// SampleEmergencies triggers an emergency of a uniformly drawn kind on each
// non-emergency aircraft with independent probability freq.
func (f *Fleet) SampleEmergencies(freq float64) {
	for _, a := range f.aircraft {
		if a.InEmergency() || f.rng.Float64() >= freq {
			continue
		}
		kind := emergencyKinds[f.rng.Intn(len(emergencyKinds))]
		a.TriggerEmergency(kind)
		f.logger.Warn("Emergency triggered",
			logger.String("callsign", a.Callsign()),
			logger.String("kind", kind),
			logger.String("squawk", a.Squawk()),
		)
	}
}

// Stats returns the current fleet counters
func (f *Fleet) Stats() Stats {
	s := Stats{Aircraft: len(f.aircraft)}
	for _, a := range f.aircraft {
		if a.InEmergency() {
			s.Emergencies++
		}
		if a.InConflict() {
			s.Conflicts++
		}
	}
	return s
}

// Aircraft returns the fleet's aircraft in construction order
func (f *Fleet) Aircraft() []*Aircraft {
	return f.aircraft
}

// Snapshot returns value copies of every aircraft for readers outside the tick
// goroutine
func (f *Fleet) Snapshot() []AircraftSnapshot {
	out := make([]AircraftSnapshot, 0, len(f.aircraft))
	for _, a := range f.aircraft {
		out = append(out, a.Snapshot())
	}
	return out
}
