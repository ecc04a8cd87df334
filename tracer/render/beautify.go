package render

import (
	"fmt"
	"strings"
)

// BeautifyFuncName shortens a function signature for display:
// "void ns::foo(int, float)" becomes "ns::foo(int, float)". It scans
// backwards from the last ')', skipping balanced parens and angle
// brackets, and stops at a space or after two "::" separators.
func BeautifyFuncName(name string) string {
	p := strings.LastIndexByte(name, ')')
	if p < 0 { // no (..)
		p = strings.LastIndexByte(name, ' ')
		if p < 0 { // no space
			return name
		}
		return name[p+1:] // "void foo" -> "foo"
	}

	i := p
	db := 0
	da := 0
	cc := 0
	for i >= 0 {
		switch name[i] {
		case ')':
			db++
		case '>':
			da++
		case '<':
			da--
		case '(':
			db--
		}

		if name[i] == ':' && da == 0 && db == 0 {
			cc++
			if cc > 2 {
				break
			}
		}
		if name[i] == ' ' && da == 0 && db == 0 {
			break
		}
		i--
	}

	if i < 0 {
		return name
	}
	return name[i+1:]
}

// TimeString renders seconds with an automatic unit suffix and four
// significant digits.
func TimeString(s float64) string {
	switch {
	case s < 1999e-9:
		return fmt.Sprintf("%.4g ns", s*1e9)
	case s < 1999e-6:
		return fmt.Sprintf("%.4g us", s*1e6)
	case s < 1999e-3:
		return fmt.Sprintf("%.4g ms", s*1e3)
	default:
		return fmt.Sprintf("%.4g sec", s)
	}
}
