package parse

import (
	"strings"
)

// MaxInt is the largest integer part a literal can hold.
const MaxInt = 214747

// Fixed converts a decimal literal into fixed-point form, 1.5 => 15000.
// Extra fractional digits are dropped, the integer part is cut to six
// digits and clamped to MaxInt. exact is false if any of that happened.
func Fixed(lit string) (v int, exact bool) {
	exact = true

	ip, fp, _ := strings.Cut(lit, ".")

	if len(fp) > 4 {
		fp = fp[:4]
		exact = false
	}

	if len(ip) > 6 {
		ip = ip[:6]
		exact = false
	}

	n := 0
	for _, c := range []byte(ip) {
		n = n*10 + int(c-'0')
	}

	if n > MaxInt {
		n = MaxInt
		exact = false
	}

	f := 0
	for i := 0; i < 4; i++ {
		f *= 10

		if i < len(fp) {
			f += int(fp[i] - '0')
		}
	}

	return n*10000 + f, exact
}
