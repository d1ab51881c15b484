package tile

import (
	"strconv"
	"strings"
)

// LockedRatio is the width:height ratio used when the ratio is locked.
const LockedRatio = 2

const errNotIntegers = "grid sizes and target sizes must be integers"

// HeightForWidth derives the locked-ratio height for a target width.
func HeightForWidth(width int) int {
	return width / LockedRatio
}

// IsDigits reports whether s is empty or consists only of ASCII digits.
func IsDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseParams turns raw user input into Params. Every field must be a
// non-negative decimal integer. With lockRatio set, height is derived from
// width and the height argument is ignored. No file is touched.
func ParseParams(cols, rows, width, height string, lockRatio bool) (Params, error) {
	var p Params
	var err error

	if p.Grid.Cols, err = parseInt(cols); err != nil {
		return Params{}, err
	}
	if p.Grid.Rows, err = parseInt(rows); err != nil {
		return Params{}, err
	}
	if p.Target.Width, err = parseInt(width); err != nil {
		return Params{}, err
	}

	if lockRatio {
		p.Target.Height = HeightForWidth(p.Target.Width)
		p.LockRatio = true
	} else if p.Target.Height, err = parseInt(height); err != nil {
		return Params{}, err
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || !IsDigits(s) {
		return 0, NewError(ErrCodeInvalidParameter, errNotIntegers)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, WrapError(ErrCodeInvalidParameter, err, errNotIntegers)
	}
	return n, nil
}
