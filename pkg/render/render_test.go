package render

import (
	"bytes"
	"math"
	"testing"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/shell"
)

func testBricks(t *testing.T) []shell.Brick {
	t.Helper()
	c := shell.Generate(shell.Dimensions{LengthMM: 2000, WidthMM: 2000, HeightMM: 2000, ThicknessMM: 200})
	if _, err := c.CarveDoor(shell.WallFront, 500, 1000, 1000); err != nil {
		t.Fatal(err)
	}
	return c.Bricks()
}

func TestProjectElevations(t *testing.T) {
	bricks := testBricks(t)
	tests := []struct {
		view     View
		active   int
		carved   int
		wantMaxX float64
		wantMaxY float64
	}{
		{ViewFront, 279, 121, 1.9, 1.9},
		{ViewBack, 400, 0, 1.9, 1.9},
		{ViewLeft, 400, 0, 1.9, 1.9},
		{ViewRight, 400, 0, 1.9, 1.9},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			active, carved, err := Project(bricks, tt.view)
			if err != nil {
				t.Fatal(err)
			}
			if len(active) != tt.active || len(carved) != tt.carved {
				t.Errorf("got %d active, %d carved; want %d, %d", len(active), len(carved), tt.active, tt.carved)
			}
			var maxX, maxY float64
			for _, p := range append(active, carved...) {
				maxX = math.Max(maxX, p.X)
				maxY = math.Max(maxY, p.Y)
			}
			if math.Abs(maxX-tt.wantMaxX) > 1e-9 || math.Abs(maxY-tt.wantMaxY) > 1e-9 {
				t.Errorf("extent = (%v, %v), want (%v, %v)", maxX, maxY, tt.wantMaxX, tt.wantMaxY)
			}
		})
	}
}

func TestProjectFrontCarvedPositions(t *testing.T) {
	_, carved, err := Project(testBricks(t), ViewFront)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range carved {
		if p.X < 0.5-shell.Tolerance || p.X > 1.5+shell.Tolerance || p.Y > 1.0+shell.Tolerance {
			t.Errorf("carved point %v outside the door", p)
		}
	}
}

func TestProjectPlan(t *testing.T) {
	active, carved, err := Project(testBricks(t), ViewPlan)
	if err != nil {
		t.Fatal(err)
	}
	// 128 floor bricks plus the bottom course of four walls (4 × 20);
	// the door removes 11 bricks from the front course.
	if len(active) != 128+80-11 || len(carved) != 11 {
		t.Errorf("got %d active, %d carved; want 197, 11", len(active), len(carved))
	}
}

func TestProjectIso(t *testing.T) {
	bricks := testBricks(t)
	active, carved, err := Project(bricks, ViewIso)
	if err != nil {
		t.Fatal(err)
	}
	if len(active)+len(carved) != len(bricks) {
		t.Errorf("iso shows %d bricks, want %d", len(active)+len(carved), len(bricks))
	}
	p := isometric(shell.Brick{X: 1, Y: 1, Z: 2})
	if math.Abs(p.X) > 1e-12 || math.Abs(p.Y-1) > 1e-12 {
		t.Errorf("isometric(1,1,2) = %v, want (0, 1)", p)
	}
}

func TestProjectUnknownView(t *testing.T) {
	if _, _, err := Project(nil, View("top")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestParseView(t *testing.T) {
	for _, v := range Views {
		got, err := ParseView(string(v))
		if err != nil || got != v {
			t.Errorf("ParseView(%q) = %q, %v", v, got, err)
		}
	}
	if _, err := ParseView("side"); err == nil {
		t.Error("ParseView(side) should fail")
	}
}

func TestRenderFormats(t *testing.T) {
	bricks := testBricks(t)
	tests := []struct {
		format string
		magic  []byte
	}{
		{"png", []byte("\x89PNG")},
		{"svg", []byte("<svg")},
		{"pdf", []byte("%PDF")},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := Render(bricks, ViewFront, WithFormat(tt.format), WithSize(200, 150))
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			head := data[:min(len(data), 256)]
			if !bytes.Contains(head, tt.magic) {
				t.Errorf("output header %q does not contain %q", head, tt.magic)
			}
		})
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	_, err := Render(testBricks(t), ViewIso, WithFormat("bmp"))
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("error = %v, want UNSUPPORTED", err)
	}
}

func TestPlotTitle(t *testing.T) {
	p, err := Plot(testBricks(t), ViewFront)
	if err != nil {
		t.Fatal(err)
	}
	if want := "front view: 279 active, 121 carved"; p.Title.Text != want {
		t.Errorf("title = %q, want %q", p.Title.Text, want)
	}
	p, err = Plot(nil, ViewPlan, WithTitle("empty"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title.Text != "empty" {
		t.Errorf("title = %q, want empty", p.Title.Text)
	}
}
