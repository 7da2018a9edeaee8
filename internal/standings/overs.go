package standings

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BallsPerOver is the number of legal deliveries in an over.
const BallsPerOver = 6

// Overs counts legal deliveries. It reads and prints in cricket notation
// X.Y (X whole overs and Y balls, 0 <= Y <= 5) and converts to decimal
// overs (X + Y/6) for arithmetic.
type Overs int

// NewOvers returns whole overs plus balls.
func NewOvers(whole, balls int) Overs {
	return Overs(whole*BallsPerOver + balls)
}

// ParseOvers parses "19.3", "20" or "20.0".
func ParseOvers(s string) (Overs, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	whole, balls, hasBalls := strings.Cut(s, ".")
	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid overs %q", s)
	}
	b := 0
	if hasBalls {
		b, err = strconv.Atoi(balls)
		if err != nil || len(balls) != 1 || b < 0 || b >= BallsPerOver {
			return 0, fmt.Errorf("invalid overs %q: balls must be 0-5", s)
		}
	}
	return NewOvers(w, b), nil
}

// Whole returns the completed overs.
func (o Overs) Whole() int { return int(o) / BallsPerOver }

// Balls returns the deliveries bowled in the current over.
func (o Overs) Balls() int { return int(o) % BallsPerOver }

// Decimal returns the overs as a fraction, 19.3 -> 19.5.
func (o Overs) Decimal() float64 {
	return float64(o) / BallsPerOver
}

func (o Overs) String() string {
	return fmt.Sprintf("%d.%d", o.Whole(), o.Balls())
}

func (o *Overs) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseOvers(value.Value)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (o Overs) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}
