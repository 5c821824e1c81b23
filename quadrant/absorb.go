package quadrant

import "math"

// Totals is the amount drained per colour.
type Totals [ColorCount]float64

// Sum adds every colour.
func (t Totals) Sum() float64 {
	var sum float64
	for _, v := range t {
		sum += v
	}
	return sum
}

// Absorb drains up to rate from every record within radius of center and
// returns what was taken per colour. The radius is bound by the same limit
// as ProbesInRadius.
func (s *System) Absorb(center Vec3, radius, rate float64) (Totals, error) {
	var totals Totals
	refs, err := s.ProbesInRadius(center, radius)
	if err != nil {
		return totals, err
	}
	if rate <= 0 {
		return totals, nil
	}
	for _, ref := range refs {
		rec := &s.buckets[ref.Key][ref.Index]
		take := math.Min(rec.Amount, rate)
		rec.Amount -= take
		totals[rec.Color] += take
	}
	return totals, nil
}

// Recover refills every record toward 1 by rate*dt and returns how many
// records changed.
func (s *System) Recover(dt, rate float64) int {
	step := dt * rate
	if step <= 0 {
		return 0
	}
	changed := 0
	for _, b := range s.buckets {
		for i := range b {
			if b[i].Amount >= 1 {
				continue
			}
			b[i].Amount = clamp01(b[i].Amount + step)
			changed++
		}
	}
	return changed
}

// Depleted counts records whose amount is zero.
func (s *System) Depleted() int {
	n := 0
	for _, b := range s.buckets {
		for _, rec := range b {
			if rec.Amount == 0 {
				n++
			}
		}
	}
	return n
}
