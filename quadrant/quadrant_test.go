package quadrant

import (
	"errors"
	"math"
	"testing"
)

func mustBuild(t *testing.T, size float64, sources ...Source) *System {
	t.Helper()
	s, err := Build(sources, Config{Size: size})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func contains(buckets [8][]ProbeRecord, pos Vec3) bool {
	for _, b := range buckets {
		for _, rec := range b {
			if rec.Position == pos {
				return true
			}
		}
	}
	return false
}

func TestKeySameCell(t *testing.T) {
	const size = 25.0
	anchors := []Vec3{{0, 0, 0}, {-25, 50, -75}, {9975, -9975, 9950}}
	offsets := []Vec3{{0, 0, 0}, {24.999, 0, 0}, {0, 24.999, 0}, {0, 0, 24.999}, {12.5, 3, 20}}
	for _, a := range anchors {
		want := KeyOf(a, size)
		for _, o := range offsets {
			p := V3Add(a, o)
			if got := KeyOf(p, size); got != want {
				t.Errorf("KeyOf(%v) = %d, want %d (same cell as %v)", p, got, want, a)
			}
		}
	}
}

func TestKeyAdjacentCellsDiffer(t *testing.T) {
	const size = 25.0
	steps := []Vec3{{size, 0, 0}, {0, size, 0}, {0, 0, size}}
	for x := -10000.0; x < 10000; x += 975 {
		for y := -10000.0; y < 10000; y += 1275 {
			for z := -10000.0; z < 10000; z += 1525 {
				p := Vec3{x, y, z}
				k := KeyOf(p, size)
				for _, d := range steps {
					if KeyOf(V3Add(p, d), size) == k {
						t.Fatalf("adjacent cells share key %d at %v + %v", k, p, d)
					}
					if KeyOf(V3Sub(p, d), size) == k {
						t.Fatalf("adjacent cells share key %d at %v - %v", k, p, d)
					}
				}
			}
		}
	}
}

func TestKeyFormula(t *testing.T) {
	tests := []struct {
		p    Vec3
		want Key
	}{
		{Vec3{0, 0, 0}, 0},
		{Vec3{30, 0, 0}, 1},
		{Vec3{0, 30, 0}, 1000},
		{Vec3{0, 0, 30}, 1000000},
		{Vec3{-0.1, 0, 0}, -1},
		{Vec3{-30, -30, -30}, -2 - 2000 - 2000000},
	}
	for _, tt := range tests {
		if got := KeyOf(tt.p, 25); got != tt.want {
			t.Errorf("KeyOf(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestBuildBuckets(t *testing.T) {
	s := mustBuild(t, 25,
		Source{Vec3{1, 1, 1}, Red},
		Source{Vec3{2, 2, 2}, Blue},
		Source{Vec3{30, 1, 1}, Green},
	)
	if s.Len() != 3 || s.BucketCount() != 2 {
		t.Fatalf("Len=%d BucketCount=%d, want 3 and 2", s.Len(), s.BucketCount())
	}
	b := s.GetProbesAt(Vec3{10, 10, 10})
	if len(b) != 2 || b[0].Color != Red || b[1].Color != Blue {
		t.Errorf("bucket = %+v, want red then blue", b)
	}
	for _, rec := range b {
		if rec.Amount != 1 {
			t.Errorf("amount = %v, want 1", rec.Amount)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(nil, Config{Size: -1}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("negative size: got %v", err)
	}
	if _, err := Build(nil, Config{Size: math.Inf(1)}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("infinite size: got %v", err)
	}
	if _, err := Build([]Source{{Vec3{math.NaN(), 0, 0}, Red}}, Config{}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("NaN position: got %v", err)
	}
	if _, err := Build([]Source{{Vec3{}, Color(9)}}, Config{}); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("bad color: got %v", err)
	}
	s, err := Build(nil, Config{})
	if err != nil || s.Size() != DefaultQuadrantSize {
		t.Errorf("default size: %v, %v", s, err)
	}
}

func TestGetProbesAtEmpty(t *testing.T) {
	s := mustBuild(t, 25, Source{Vec3{}, Red})
	b := s.GetProbesAt(Vec3{500, 500, 500})
	if b == nil || len(b) != 0 {
		t.Errorf("empty cell: got %#v, want empty non-nil slice", b)
	}
}

func TestGetQuadrantCenter(t *testing.T) {
	s := mustBuild(t, 25)
	tests := []struct{ p, want Vec3 }{
		{Vec3{1, 2, 3}, Vec3{12.5, 12.5, 12.5}},
		{Vec3{26, 0, 49}, Vec3{37.5, 12.5, 37.5}},
		{Vec3{-1, -26, 0}, Vec3{-12.5, -37.5, 12.5}},
	}
	for _, tt := range tests {
		if got := s.GetQuadrantCenter(tt.p); got != tt.want {
			t.Errorf("GetQuadrantCenter(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestAdjacentCellsOctant(t *testing.T) {
	s := mustBuild(t, 25)
	cells := s.AdjacentCells(Vec3{1, 20, 12.5})
	if cells[0] != (Cell{0, 0, 0}) {
		t.Errorf("cells[0] = %v, want current cell", cells[0])
	}
	want := map[Cell]bool{}
	for _, x := range []int64{0, -1} {
		for _, y := range []int64{0, 1} {
			for _, z := range []int64{0, 1} {
				want[Cell{x, y, z}] = true
			}
		}
	}
	for _, c := range cells {
		if !want[c] {
			t.Errorf("unexpected cell %v", c)
		}
		delete(want, c)
	}
	if len(want) != 0 {
		t.Errorf("missing cells %v", want)
	}
}

func TestCurrentAndAdjacentQuery(t *testing.T) {
	s := mustBuild(t, 25,
		Source{Vec3{0, 0, 0}, Red},
		Source{Vec3{24, 0, 0}, Green},
		Source{Vec3{-1, 0, 0}, Blue},
		Source{Vec3{26, 0, 0}, Violet},
	)
	got := s.GetCurrentAndAdjacentQuadrants(Vec3{1, 0, 0})
	for _, p := range []Vec3{{0, 0, 0}, {24, 0, 0}, {-1, 0, 0}} {
		if !contains(got, p) {
			t.Errorf("query from (1,0,0) missing probe at %v", p)
		}
	}
	// (26,0,0) lies on the far side of the cell centre.
	if contains(got, Vec3{26, 0, 0}) {
		t.Error("query from (1,0,0) should not reach the +x neighbour")
	}
	if len(got[0]) != 2 {
		t.Errorf("current bucket has %d records, want 2", len(got[0]))
	}
	for i, b := range got {
		if b == nil {
			t.Errorf("bucket %d is nil", i)
		}
	}
}

func TestProbeAtCellCentre(t *testing.T) {
	s := mustBuild(t, 25, Source{Vec3{12.5, 12.5, 12.5}, Yellow})
	got := s.GetCurrentAndAdjacentQuadrants(Vec3{12.5, 12.5, 12.5})
	if !contains(got, Vec3{12.5, 12.5, 12.5}) {
		t.Error("query from cell centre missed probe at cell centre")
	}
}

func TestProbesInRadius(t *testing.T) {
	s := mustBuild(t, 10,
		Source{Vec3{9, 5, 5}, Red},
		Source{Vec3{11, 5, 5}, Blue},
		Source{Vec3{14, 5, 5}, Green},
	)
	refs, err := s.ProbesInRadius(Vec3{10, 5, 5}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	if _, err := s.ProbesInRadius(Vec3{}, 6); !errors.Is(err, ErrRadiusTooLarge) {
		t.Errorf("radius 6 with size 10: got %v", err)
	}
	if _, err := s.ProbesInRadius(Vec3{}, -1); err == nil {
		t.Error("negative radius should fail")
	}
}

func TestSetAmountKeepsMembership(t *testing.T) {
	s := mustBuild(t, 25, Source{Vec3{1, 1, 1}, Orange})
	ref := s.Refs(Vec3{1, 1, 1})[0]
	if err := s.SetAmount(ref, 1.7); err != nil {
		t.Fatal(err)
	}
	rec, _ := s.Record(ref)
	if rec.Amount != 1 {
		t.Errorf("amount = %v, want clamp to 1", rec.Amount)
	}
	s.SetAmount(ref, -3)
	if got := s.GetProbesAt(Vec3{1, 1, 1})[0].Amount; got != 0 {
		t.Errorf("amount = %v, want clamp to 0", got)
	}
	if s.BucketCount() != 1 || s.Len() != 1 {
		t.Error("SetAmount changed bucket structure")
	}
	if err := s.SetAmount(Ref{Key: ref.Key, Index: 5}, 0.5); !errors.Is(err, ErrBadRef) {
		t.Errorf("bad index: got %v", err)
	}
	if _, err := s.Record(Ref{Key: 12345}); !errors.Is(err, ErrBadRef) {
		t.Errorf("bad key: got %v", err)
	}
}

func TestAbsorbAndRecover(t *testing.T) {
	s := mustBuild(t, 25,
		Source{Vec3{10, 10, 10}, Red},
		Source{Vec3{11, 10, 10}, Red},
		Source{Vec3{10, 11, 10}, Blue},
		Source{Vec3{40, 40, 40}, Green},
	)
	totals, err := s.Absorb(Vec3{10, 10, 10}, 5, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(totals[Red]-0.8) > 1e-9 || math.Abs(totals[Blue]-0.4) > 1e-9 || totals[Green] != 0 {
		t.Errorf("totals = %v", totals)
	}
	if math.Abs(totals.Sum()-1.2) > 1e-9 {
		t.Errorf("sum = %v, want 1.2", totals.Sum())
	}

	// Drain the rest; amounts never go negative.
	s.Absorb(Vec3{10, 10, 10}, 5, 1)
	s.Absorb(Vec3{10, 10, 10}, 5, 1)
	if s.Depleted() != 3 {
		t.Errorf("depleted = %d, want 3", s.Depleted())
	}

	if n := s.Recover(1, 0.5); n != 3 {
		t.Errorf("recovered %d records, want 3", n)
	}
	for _, rec := range s.GetProbesAt(Vec3{10, 10, 10}) {
		if rec.Amount != 0.5 {
			t.Errorf("amount = %v, want 0.5", rec.Amount)
		}
	}
	s.Recover(10, 1)
	if n := s.Recover(1, 1); n != 0 {
		t.Errorf("full records changed: %d", n)
	}
}

func TestColorNames(t *testing.T) {
	for c := Red; c < ColorCount; c++ {
		got, err := ParseColor(c.String())
		if err != nil || got != c {
			t.Errorf("ParseColor(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseColor("magenta"); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("magenta: got %v", err)
	}
	if Color(7).Valid() {
		t.Error("Color(7) should be invalid")
	}
}
