// Package quadrant partitions static colour probes into fixed-size cubic
// cells keyed by a spatial hash and answers nearby-probe queries.
//
// The map is built once from the full probe set and its bucket structure is
// immutable afterwards; only record amounts change. It is not safe for
// concurrent mutation.
package quadrant

import (
	"errors"
	"fmt"
	"math"
)

// DefaultQuadrantSize is the cell edge length used when Config.Size is zero.
const DefaultQuadrantSize = 25.0

// Key multipliers for folding a cell into one integer. Distinct cells can
// collide once a cell index reaches ±500 on x or y.
const (
	keyStrideY = 1000
	keyStrideZ = 1000000
)

var (
	ErrInvalidSize    = errors.New("quadrant size must be positive and finite")
	ErrNonFinite      = errors.New("probe position is not finite")
	ErrInvalidColor   = errors.New("invalid probe color")
	ErrRadiusTooLarge = errors.New("query diameter exceeds quadrant size")
	ErrBadRef         = errors.New("probe reference out of range")
)

// Key is the spatial hash of a cell.
type Key int64

// Cell holds the integer cell indices of a position.
type Cell struct {
	X, Y, Z int64
}

// Key folds the cell indices into x + y*1000 + z*1000000.
func (c Cell) Key() Key {
	return Key(c.X + c.Y*keyStrideY + c.Z*keyStrideZ)
}

// ProbeRecord is the snapshot of one probe. Amount is in [0,1].
type ProbeRecord struct {
	Position Vec3
	Color    Color
	Amount   float64
}

// Source is a probe placement read from the scene at build time.
type Source struct {
	Position Vec3
	Color    Color
}

// Ref addresses one record inside a bucket.
type Ref struct {
	Key   Key
	Index int
}

// Config configures a System.
type Config struct {
	Size float64 `json:"size" yaml:"size"`
}

// System is the built quadrant map.
type System struct {
	size    float64
	buckets map[Key][]ProbeRecord
	count   int
}

// Build snapshots every source into its cell bucket with Amount 1. Bucket
// order is first-seen order. The sources slice is not retained.
func Build(sources []Source, cfg Config) (*System, error) {
	size := cfg.Size
	if size == 0 {
		size = DefaultQuadrantSize
	}
	if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}

	s := &System{
		size:    size,
		buckets: make(map[Key][]ProbeRecord),
	}
	for i, src := range sources {
		if !src.Position.finite() {
			return nil, fmt.Errorf("probe %d at %v: %w", i, src.Position, ErrNonFinite)
		}
		if !src.Color.Valid() {
			return nil, fmt.Errorf("probe %d: %w: %d", i, ErrInvalidColor, src.Color)
		}
		k := s.KeyOf(src.Position)
		s.buckets[k] = append(s.buckets[k], ProbeRecord{
			Position: src.Position,
			Color:    src.Color,
			Amount:   1,
		})
		s.count++
	}
	return s, nil
}

// Size returns the cell edge length.
func (s *System) Size() float64 {
	return s.size
}

// Len returns the number of probe records.
func (s *System) Len() int {
	return s.count
}

// BucketCount returns the number of populated cells.
func (s *System) BucketCount() int {
	return len(s.buckets)
}

// CellOf returns the indices of the cell containing p.
func (s *System) CellOf(p Vec3) Cell {
	return CellOf(p, s.size)
}

// KeyOf returns the hash of the cell containing p.
func (s *System) KeyOf(p Vec3) Key {
	return CellOf(p, s.size).Key()
}

// CellOf floors each coordinate divided by size.
func CellOf(p Vec3, size float64) Cell {
	return Cell{
		X: int64(math.Floor(p.X / size)),
		Y: int64(math.Floor(p.Y / size)),
		Z: int64(math.Floor(p.Z / size)),
	}
}

// KeyOf hashes the cell containing p for the given cell size.
func KeyOf(p Vec3, size float64) Key {
	return CellOf(p, size).Key()
}

// GetQuadrantCenter returns the world-space centre of the cell containing p.
func (s *System) GetQuadrantCenter(p Vec3) Vec3 {
	return s.cellCenter(s.CellOf(p))
}

func (s *System) cellCenter(c Cell) Vec3 {
	half := s.size / 2
	return Vec3{
		X: float64(c.X)*s.size + half,
		Y: float64(c.Y)*s.size + half,
		Z: float64(c.Z)*s.size + half,
	}
}

// GetProbesAt returns the bucket of the cell containing p, or an empty slice.
// The returned slice aliases the map; change amounts through SetAmount.
func (s *System) GetProbesAt(p Vec3) []ProbeRecord {
	return s.bucket(s.KeyOf(p))
}

func (s *System) bucket(k Key) []ProbeRecord {
	if b, ok := s.buckets[k]; ok {
		return b
	}
	return []ProbeRecord{}
}

// AdjacentCells returns the cell containing p followed by the seven cells of
// the 2x2x2 block that p's octant faces. Per axis the neighbour lies on the
// side of the cell centre that p is on; p exactly on the centre counts as
// the positive side.
func (s *System) AdjacentCells(p Vec3) [8]Cell {
	c := s.CellOf(p)
	center := s.cellCenter(c)
	dx, dy, dz := side(p.X, center.X), side(p.Y, center.Y), side(p.Z, center.Z)

	var cells [8]Cell
	i := 0
	for _, ox := range [2]int64{0, dx} {
		for _, oy := range [2]int64{0, dy} {
			for _, oz := range [2]int64{0, dz} {
				cells[i] = Cell{c.X + ox, c.Y + oy, c.Z + oz}
				i++
			}
		}
	}
	return cells
}

func side(v, center float64) int64 {
	if v < center {
		return -1
	}
	return 1
}

// GetCurrentAndAdjacentQuadrants returns the buckets of the eight cells from
// AdjacentCells; index 0 is the cell containing p. Empty cells give empty
// slices.
//
// The eight cells cover every point within half a cell of p. Queries whose
// radius exceeds Size()/2 can miss probes; ProbesInRadius enforces this.
func (s *System) GetCurrentAndAdjacentQuadrants(p Vec3) [8][]ProbeRecord {
	var out [8][]ProbeRecord
	for i, c := range s.AdjacentCells(p) {
		out[i] = s.bucket(c.Key())
	}
	return out
}

// Refs returns references to every record in the eight cells around p.
func (s *System) Refs(p Vec3) []Ref {
	var refs []Ref
	for _, c := range s.AdjacentCells(p) {
		k := c.Key()
		for i := range s.buckets[k] {
			refs = append(refs, Ref{Key: k, Index: i})
		}
	}
	return refs
}

// ProbesInRadius returns references to the records within radius of center.
func (s *System) ProbesInRadius(center Vec3, radius float64) ([]Ref, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("negative radius %g", radius)
	}
	if 2*radius > s.size {
		return nil, fmt.Errorf("%w: radius %g, size %g", ErrRadiusTooLarge, radius, s.size)
	}
	r2 := radius * radius
	var refs []Ref
	for _, ref := range s.Refs(center) {
		if V3DistSq(s.buckets[ref.Key][ref.Index].Position, center) <= r2 {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// Record returns a copy of the referenced record.
func (s *System) Record(ref Ref) (ProbeRecord, error) {
	b := s.buckets[ref.Key]
	if ref.Index < 0 || ref.Index >= len(b) {
		return ProbeRecord{}, fmt.Errorf("%w: %+v", ErrBadRef, ref)
	}
	return b[ref.Index], nil
}

// SetAmount overwrites the referenced record's amount, clamped to [0,1].
// Bucket membership never changes.
func (s *System) SetAmount(ref Ref, amount float64) error {
	b := s.buckets[ref.Key]
	if ref.Index < 0 || ref.Index >= len(b) {
		return fmt.Errorf("%w: %+v", ErrBadRef, ref)
	}
	b[ref.Index].Amount = clamp01(amount)
	return nil
}

// Buckets calls fn for every populated cell. Iteration order is unspecified.
func (s *System) Buckets(fn func(k Key, records []ProbeRecord) bool) {
	for k, b := range s.buckets {
		if !fn(k, b) {
			return
		}
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
