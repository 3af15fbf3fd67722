package model

// Signal is the held pair position for a date.
// Keep these values stable; they are intended for CSV output.
type Signal int8

const (
	ShortSpread Signal = -1 // short leg1, long leg2
	Flat        Signal = 0
	LongSpread  Signal = 1 // long leg1, short leg2
)

func (s Signal) String() string {
	switch s {
	case ShortSpread:
		return "SHORT_SPREAD"
	case LongSpread:
		return "LONG_SPREAD"
	default:
		return "FLAT"
	}
}

// IsTrade reports whether the signal holds a position.
func (s Signal) IsTrade() bool { return s == ShortSpread || s == LongSpread }
