package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type (
	// V is structured semantic version representation
	V struct {
		Major, Minor, Patch uint
		PreRelease          string
		BuildMetadata       []string
	}
)

// ErrInvalidVersion - returns when string does not follow MAJOR.MINOR.PATCH[-PRE][+BUILD] form.
var ErrInvalidVersion = errors.New("semver: invalid version")

// Parse - builds V from its string form. Leading "v" is allowed.
func Parse(s string) (V, error) {
	v := V{}
	rest := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexByte(rest, '+'); i > -1 {
		if i == len(rest)-1 {
			return V{}, fmt.Errorf("%w: empty build metadata in %q", ErrInvalidVersion, s)
		}
		v.BuildMetadata = strings.Split(rest[i+1:], ".")
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i > -1 {
		if i == len(rest)-1 {
			return V{}, fmt.Errorf("%w: empty pre-release in %q", ErrInvalidVersion, s)
		}
		v.PreRelease = rest[i+1:]
		rest = rest[:i]
	}

	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return V{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	nums := [3]*uint{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return V{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		*nums[i] = uint(n)
	}

	return v, nil
}

// MustParse - like Parse but panics on error. Intended for package-level version vars.
func MustParse(s string) V {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v V) String() string {
	buf := strings.Builder{}
	buf.WriteString(strconv.FormatUint(uint64(v.Major), 10))
	buf.WriteByte('.')
	buf.WriteString(strconv.FormatUint(uint64(v.Minor), 10))
	buf.WriteByte('.')
	buf.WriteString(strconv.FormatUint(uint64(v.Patch), 10))
	if v.PreRelease != "" {
		buf.WriteByte('-')
		buf.WriteString(v.PreRelease)
	}
	if len(v.BuildMetadata) > 0 {
		buf.WriteByte('+')
		buf.WriteString(strings.Join(v.BuildMetadata, "."))
	}

	return buf.String()
}
