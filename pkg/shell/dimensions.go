package shell

import (
	"fmt"

	"github.com/matzehuels/brickshell/pkg/errors"
)

// DefaultThicknessMM is the default wall thickness.
const DefaultThicknessMM = 200

// Dimensions are the outer dimensions of a shell plus its wall thickness,
// all in millimeters.
type Dimensions struct {
	LengthMM    int `json:"length_mm"`
	WidthMM     int `json:"width_mm"`
	HeightMM    int `json:"height_mm"`
	ThicknessMM int `json:"thickness_mm"`
}

// Length returns the outer length in meters.
func (d Dimensions) Length() float64 { return mmToM(d.LengthMM) }

// Width returns the outer width in meters.
func (d Dimensions) Width() float64 { return mmToM(d.WidthMM) }

// Height returns the height in meters.
func (d Dimensions) Height() float64 { return mmToM(d.HeightMM) }

// Thickness returns the wall thickness in meters.
func (d Dimensions) Thickness() float64 { return mmToM(d.ThicknessMM) }

// InteriorLengthMM is the length left after subtracting both walls.
func (d Dimensions) InteriorLengthMM() int { return d.LengthMM - 2*d.ThicknessMM }

// InteriorWidthMM is the width left after subtracting both walls.
func (d Dimensions) InteriorWidthMM() int { return d.WidthMM - 2*d.ThicknessMM }

// InteriorVolumeMM3 returns the interior volume in cubic millimeters.
// Non-positive interiors yield 0.
func (d Dimensions) InteriorVolumeMM3() int64 {
	li, wi := d.InteriorLengthMM(), d.InteriorWidthMM()
	if li <= 0 || wi <= 0 || d.HeightMM <= 0 {
		return 0
	}
	return int64(li) * int64(wi) * int64(d.HeightMM)
}

// InteriorVolume returns the interior volume in cubic meters.
func (d Dimensions) InteriorVolume() float64 {
	return float64(d.InteriorVolumeMM3()) / 1e9
}

// Validate checks that the interior is non-empty and the height positive.
func (d Dimensions) Validate() error {
	if d.ThicknessMM <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "wall thickness must be positive, got %d mm", d.ThicknessMM)
	}
	if d.InteriorLengthMM() <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "length %d mm must exceed twice the wall thickness", d.LengthMM)
	}
	if d.InteriorWidthMM() <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width %d mm must exceed twice the wall thickness", d.WidthMM)
	}
	if d.HeightMM <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "height must be positive, got %d mm", d.HeightMM)
	}
	return nil
}

// String formats the outer dimensions like "6.4 × 6.4 × 2.5 m".
func (d Dimensions) String() string {
	return fmt.Sprintf("%.1f × %.1f × %.1f m", d.Length(), d.Width(), d.Height())
}

func mmToM(mm int) float64 { return float64(mm) / 1000 }
