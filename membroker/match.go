package membroker

// Match reports whether name matches a Redis-style glob pattern:
// '*' matches any sequence, '?' matches one character, '[...]' matches a
// character class (with '-' ranges and a leading '^' for negation), and
// '\' escapes the next character.
func Match(pattern, name string) bool {
	return matchGlob(pattern, name)
}

func matchGlob(pattern, name string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse consecutive stars
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if matchGlob(pattern[1:], name[i:]) {
					return true
				}
			}
			return false

		case '?':
			if len(name) == 0 {
				return false
			}
			name = name[1:]

		case '[':
			if len(name) == 0 {
				return false
			}
			rest, ok := matchClass(pattern, name[0])
			if !ok {
				return false
			}
			pattern = rest
			name = name[1:]
			continue

		case '\\':
			if len(pattern) > 1 {
				pattern = pattern[1:]
			}
			fallthrough

		default:
			if len(name) == 0 || pattern[0] != name[0] {
				return false
			}
			name = name[1:]
		}
		pattern = pattern[1:]
	}
	return len(name) == 0
}

// matchClass matches c against the class starting at pattern[0] == '['.
// It returns the pattern remainder after the closing ']' and whether c
// matched. An unterminated class never matches.
func matchClass(pattern string, c byte) (string, bool) {
	i := 1
	negate := false
	if i < len(pattern) && pattern[i] == '^' {
		negate = true
		i++
	}

	matched := false
	for i < len(pattern) && pattern[i] != ']' {
		lo := pattern[i]
		if lo == '\\' && i+1 < len(pattern) {
			i++
			lo = pattern[i]
		}
		hi := lo
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			hi = pattern[i+2]
			i += 2
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if c >= lo && c <= hi {
			matched = true
		}
		i++
	}
	if i >= len(pattern) {
		return "", false
	}
	if negate {
		matched = !matched
	}
	return pattern[i+1:], matched
}
