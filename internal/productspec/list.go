package productspec

import (
	"fmt"
	"strings"
)

// ParseList parses a serialized list literal such as ["a", "b"], ['a','b'],
// ("a",) or []. Elements may be single- or double-quoted; bare elements are
// taken verbatim. Order is preserved.
func ParseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return nil, fmt.Errorf("not a list literal: %q", s)
	}
	open, closing := s[0], s[len(s)-1]
	if !(open == '[' && closing == ']') && !(open == '(' && closing == ')') {
		return nil, fmt.Errorf("not a list literal: %q", s)
	}

	body := s[1 : len(s)-1]
	items := []string{}
	i := 0
	skipSpace := func() {
		for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
	}

	for {
		skipSpace()
		if i >= len(body) {
			break
		}

		var item string
		if q := body[i]; q == '"' || q == '\'' {
			end := strings.IndexByte(body[i+1:], q)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string in %q", s)
			}
			item = body[i+1 : i+1+end]
			i += end + 2
		} else {
			end := strings.IndexByte(body[i:], ',')
			if end < 0 {
				end = len(body) - i
			}
			item = strings.TrimSpace(body[i : i+end])
			if item == "" || strings.ContainsAny(item, `'"`) {
				return nil, fmt.Errorf("malformed element in %q", s)
			}
			i += end
		}
		items = append(items, item)

		skipSpace()
		if i >= len(body) {
			break
		}
		if body[i] != ',' {
			return nil, fmt.Errorf("unexpected %q in %q", body[i], s)
		}
		i++
	}
	return items, nil
}
