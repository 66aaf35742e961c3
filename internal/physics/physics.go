package physics

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// ISA constants
const (
	R     = 287.058 // Specific gas constant for dry air (J/(kg·K))
	G     = 9.80665 // Gravity (m/s^2)
	T0    = 288.15  // Standard Sea Level Temperature (K)
	P0    = 1013.25 // Standard Sea Level Pressure (hPa)
	L     = 0.0065  // Temperature Lapse Rate (K/m) in Troposphere
	FtToM = 0.3048

	// ISA Layer Boundaries
	TropopauseAltM    = 11000.0
	StratosphereTempK = 216.65 // Constant temperature in Stratosphere
	TropopausePress   = 226.32 // Pressure at Tropopause (hPa)
)

// AltitudeToPressure converts pressure altitude in feet to pressure in hPa
// using the Standard Atmosphere model, valid through the lower Stratosphere.
func AltitudeToPressure(altFt float64) float64 {
	altM := altFt * FtToM
	if altM < 0 {
		altM = 0
	}

	if altM <= TropopauseAltM {
		// Troposphere: P = P0 * (1 - L*h/T0)^(g/RL)
		exponent := G / (R * L)
		base := 1 - (L * altM / T0)
		return P0 * math.Pow(base, exponent)
	}
	// Stratosphere: P = P_trop * exp(-g*(h - h_trop) / (R * T_strat))
	relAlt := altM - TropopauseAltM
	exponent := -(G * relAlt) / (R * StratosphereTempK)
	return TropopausePress * math.Exp(exponent)
}

// MagneticVariation calculates the magnetic declination for a position and
// time. Returns declination in degrees (+East, -West); 0 if the model cannot
// evaluate the field there.
func MagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, altFt*FtToM)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}

	return mag.D()
}

// MagneticHeading converts a true heading to magnetic using the declination
// at the given position, normalized to [0, 360).
func MagneticHeading(trueHeading, lat, lon, altFt float64, date time.Time) float64 {
	h := trueHeading - MagneticVariation(lat, lon, altFt, date)
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
