package quadrant

import "fmt"

// Color is the categorical colour carried by a probe.
type Color uint8

const (
	Red Color = iota
	Orange
	Yellow
	Green
	Blue
	Violet

	ColorCount = 6
)

var colorNames = [ColorCount]string{"red", "orange", "yellow", "green", "blue", "violet"}

func (c Color) String() string {
	if int(c) >= ColorCount {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// Valid reports whether c is one of the six colours.
func (c Color) Valid() bool {
	return int(c) < ColorCount
}

// ParseColor maps a lowercase colour name to its Color.
func ParseColor(s string) (Color, error) {
	for i, name := range colorNames {
		if name == s {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}
