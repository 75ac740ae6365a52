package face

import "math"

const (
	// TrigMaxAngle is one full revolution in fixed-point angle units.
	TrigMaxAngle = 0x10000
	// TrigMaxRatio is the fixed-point value of sin(90°).
	TrigMaxRatio = 0xffff

	// UnitsPerRevolution is the tick-unit resolution of the clock circle.
	UnitsPerRevolution = 3600
)

// TickUnits is an angle on the 3600-unit clock circle, clockwise from 12:00.
//
// Values outside [0, 3600) wrap: the trig lookup reduces modulo one revolution.
type TickUnits int32

// Degrees returns the angle normalized to [0, 360).
func (u TickUnits) Degrees() float64 {
	v := int32(u) % UnitsPerRevolution
	if v < 0 {
		v += UnitsPerRevolution
	}
	return float64(v) * 360 / UnitsPerRevolution
}

const (
	quarterTurn  = TrigMaxAngle / 4
	quarterSteps = 1024
	quarterShift = 4 // quarterTurn / quarterSteps == 1<<quarterShift
)

var quarterSine = func() (tbl [quarterSteps + 1]uint16) {
	for i := range tbl {
		v := math.Sin(float64(i) * (math.Pi / 2) / quarterSteps)
		tbl[i] = uint16(math.Round(v * TrigMaxRatio))
	}
	return tbl
}()

func quarter(off uint32) int32 {
	idx := off >> quarterShift
	frac := int32(off & (1<<quarterShift - 1))
	v0 := int32(quarterSine[idx])
	if frac == 0 {
		return v0
	}
	v1 := int32(quarterSine[idx+1])
	return v0 + (v1-v0)*frac>>quarterShift
}

// SinLookup returns sin(angle) scaled to TrigMaxRatio, angle in TrigMaxAngle units.
func SinLookup(angle int32) int32 {
	a := uint32(angle) & (TrigMaxAngle - 1)
	off := a & (quarterTurn - 1)
	switch a / quarterTurn {
	case 0:
		return quarter(off)
	case 1:
		return quarter(quarterTurn - off)
	case 2:
		return -quarter(off)
	default:
		return -quarter(quarterTurn - off)
	}
}

// CosLookup returns cos(angle) scaled to TrigMaxRatio, angle in TrigMaxAngle units.
func CosLookup(angle int32) int32 {
	return SinLookup(angle + quarterTurn)
}

// AngleToSinCos maps tick units to a fixed-point angle and returns its sine and cosine.
func AngleToSinCos(units TickUnits) (sin, cos int32) {
	angle := int32(int64(units) * TrigMaxAngle / UnitsPerRevolution)
	return SinLookup(angle), CosLookup(angle)
}
