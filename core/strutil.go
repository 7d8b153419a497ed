package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Add space for negative sign
	if negative {
		digits++
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	if negative {
		buf[0] = '-'
	}

	return string(buf)
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	return string(buf)
}

// ftoa converts a float to a string with the given number of decimal
// places, for debug output on targets without fmt.
func ftoa(v float64, decimals int) string {
	negative := v < 0
	if negative {
		v = -v
	}

	scale := 1
	for i := 0; i < decimals; i++ {
		scale *= 10
	}

	scaled := int(v*float64(scale) + 0.5)
	whole := scaled / scale
	frac := scaled % scale

	s := itoa(whole)
	if decimals > 0 {
		fracStr := itoa(frac)
		for len(fracStr) < decimals {
			fracStr = "0" + fracStr
		}
		s += "." + fracStr
	}
	if negative {
		s = "-" + s
	}
	return s
}
