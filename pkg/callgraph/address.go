package callgraph

import (
	"strconv"
	"strings"

	"github.com/SebastianScherer88/graphit/pkg/errors"
)

// Address is the path of 1-based dependency positions from a graph's root to
// a node. The root has the empty address. Its text form is dotted decimal:
// "", "1", "1.2", "1.2.10".
type Address []int

// ParseAddress parses the dotted-decimal form produced by [Address.String].
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, nil
	}
	parts := strings.Split(s, ".")
	a := make(Address, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid graph address %q", s)
		}
		a[i] = n
	}
	return a, nil
}

// String returns the dotted-decimal form.
func (a Address) String() string {
	if len(a) == 0 {
		return ""
	}
	var b strings.Builder
	for i, n := range a {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Child returns the address of the child at 0-based dependency index j.
func (a Address) Child(j int) Address {
	c := make(Address, len(a)+1)
	copy(c, a)
	c[len(a)] = j + 1
	return c
}

// Parent returns the address of a's parent. The root is its own parent.
func (a Address) Parent() Address {
	if len(a) == 0 {
		return a
	}
	return a[: len(a)-1 : len(a)-1]
}

// Sibling returns the address of the next sibling of a. The root has none.
func (a Address) Sibling() (Address, bool) {
	if len(a) == 0 {
		return nil, false
	}
	s := make(Address, len(a))
	copy(s, a)
	s[len(s)-1]++
	return s, true
}

// Depth returns the number of segments, which equals the generation.
func (a Address) Depth() int { return len(a) }

// Compare orders addresses segment by segment numerically. A prefix sorts
// before any extension of it, so "1" < "1.1" < "1.2" < "2" < "10".
func Compare(a, b Address) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Less reports whether a sorts before b.
func (a Address) Less(b Address) bool { return Compare(a, b) < 0 }

// MarshalText encodes the dotted-decimal form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes the dotted-decimal form.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
