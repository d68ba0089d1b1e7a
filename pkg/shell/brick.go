package shell

// Region is the structural zone a brick belongs to. It is assigned when the
// brick is generated and never changes.
type Region string

const (
	RegionFront Region = "front"
	RegionBack  Region = "back"
	RegionLeft  Region = "left"
	RegionRight Region = "right"
	RegionFloor Region = "floor"
	RegionRoof  Region = "roof"
)

// Regions lists every region in generation order.
var Regions = []Region{RegionFront, RegionBack, RegionLeft, RegionRight, RegionFloor, RegionRoof}

// ParseRegion maps a region name to a Region.
func ParseRegion(s string) (Region, bool) {
	switch r := Region(s); r {
	case RegionFront, RegionBack, RegionLeft, RegionRight, RegionFloor, RegionRoof:
		return r, true
	}
	return "", false
}

// Wall identifies one of the four walls an opening can be cut into.
// The zero value is WallUnknown.
type Wall uint8

const (
	WallUnknown Wall = iota
	WallFront
	WallBack
	WallLeft
	WallRight
)

// Walls lists the four recognized walls.
var Walls = []Wall{WallFront, WallBack, WallLeft, WallRight}

// ParseWall maps a wall identifier to a Wall. Unrecognized identifiers return
// WallUnknown and false.
func ParseWall(s string) (Wall, bool) {
	switch s {
	case "front":
		return WallFront, true
	case "back":
		return WallBack, true
	case "left":
		return WallLeft, true
	case "right":
		return WallRight, true
	}
	return WallUnknown, false
}

// Region returns the brick region of the wall, or "" for WallUnknown.
func (w Wall) Region() Region {
	switch w {
	case WallFront:
		return RegionFront
	case WallBack:
		return RegionBack
	case WallLeft:
		return RegionLeft
	case WallRight:
		return RegionRight
	}
	return ""
}

func (w Wall) String() string {
	if r := w.Region(); r != "" {
		return string(r)
	}
	return "unknown"
}

// Orientation is a unit-axis indicator: (1,0,0) for walls running along X,
// (0,1,0) for walls running along Y and (0,0,1) for flat floor and roof bricks.
type Orientation struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
	DZ int `json:"dz"`
}

var (
	AlongX = Orientation{DX: 1}
	AlongY = Orientation{DY: 1}
	Flat   = Orientation{DZ: 1}
)

// Brick is one cell of the shell lattice. X, Y and Z are the brick center in
// meters.
type Brick struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	Orientation
	Active bool   `json:"active"`
	Region Region `json:"region"`
}
