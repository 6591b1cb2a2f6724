package versioning

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// AddToken marks a collection segment whose indexed element is inserted.
	AddToken = "_ADD_"

	// DeleteToken marks a collection segment whose indexed element is removed.
	DeleteToken = "_DELETE_"

	fieldSeparator = '.'
	indexStart     = '['
	indexEnd       = ']'
)

// Op is the kind of mutation a Version performs on its terminal segment.
type Op int

const (
	// OpSet overwrites a field, a positional list member or a map value.
	OpSet Op = iota
	// OpAdd inserts an element into a List, Set or Map.
	OpAdd
	// OpDelete removes an element from a List, Set or Map.
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

func (o Op) token() string {
	switch o {
	case OpAdd:
		return AddToken
	case OpDelete:
		return DeleteToken
	default:
		return ""
	}
}

// Segment is one nesting level of a Path: a field (or map key) name with an
// optional index. The index is a list position, a set identity or a map key
// depending on the container it is applied to.
type Segment struct {
	Name     string
	Index    string
	HasIndex bool
}

func (s Segment) String() string {
	if !s.HasIndex {
		return EscapeKey(s.Name)
	}
	return EscapeKey(s.Name) + string(indexStart) + EscapeKey(s.Index) + string(indexEnd)
}

// Path is the structured form of a FieldPath.
type Path []Segment

// Field returns a new path with a plain segment appended. p is not modified.
func (p Path) Field(name string) Path {
	return p.append(Segment{Name: name})
}

// Indexed returns a new path with an indexed segment appended. p is not
// modified.
func (p Path) Indexed(name, index string) Path {
	return p.append(Segment{Name: name, Index: index, HasIndex: true})
}

func (p Path) append(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// String renders the path using the dotted FieldPath grammar, without any
// mutation marker.
func (p Path) String() string {
	return FormatPath(OpSet, p)
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if prefix[i] != p[i] {
			return false
		}
	}
	return true
}

// FormatPath renders p with the marker for op wrapped around the name of the
// terminal segment.
func FormatPath(op Op, p Path) string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(fieldSeparator)
		}
		if i == len(p)-1 {
			b.WriteString(op.token())
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// ParsePath parses a FieldPath string. A mutation marker is only accepted on
// the terminal segment and requires an index.
func ParsePath(s string) (Path, Op, error) {
	if s == "" {
		return nil, OpSet, errors.WithStack(&PathResolutionError{Reason: "empty path"})
	}

	raw := strings.Split(s, string(fieldSeparator))
	path := make(Path, 0, len(raw))
	op := OpSet
	for i, r := range raw {
		if marker, ok := DecodeMutationMarker(r); ok {
			if i != len(raw)-1 {
				return nil, OpSet, errors.WithStack(&PathResolutionError{Path: s, Segment: r,
					Reason: "mutation marker on a non-terminal segment"})
			}
			op = marker.Op
			path = append(path, Segment{Name: marker.Field, Index: marker.Index, HasIndex: true})
			continue
		}

		seg, err := parseSegment(r)
		if err != nil {
			return nil, OpSet, errors.WithStack(&PathResolutionError{Path: s, Segment: r, Reason: err.Error()})
		}
		path = append(path, seg)
	}

	return path, op, nil
}

func parseSegment(s string) (Segment, error) {
	if s == "" {
		return Segment{}, errors.New("empty segment")
	}

	start := strings.IndexByte(s, indexStart)
	if start < 0 {
		if strings.IndexByte(s, indexEnd) >= 0 {
			return Segment{}, errors.New("unbalanced index brackets")
		}
		return Segment{Name: UnescapeKey(s)}, nil
	}
	if start == 0 {
		return Segment{}, errors.New("index without field name")
	}
	if s[len(s)-1] != indexEnd || strings.IndexByte(s[start+1:len(s)-1], indexStart) >= 0 {
		return Segment{}, errors.New("malformed index")
	}

	return Segment{
		Name:     UnescapeKey(s[:start]),
		Index:    UnescapeKey(s[start+1 : len(s)-1]),
		HasIndex: true,
	}, nil
}

// Marker is a decoded ADD/DELETE collection mutation marker.
type Marker struct {
	Op    Op
	Field string
	Index string
}

// DecodeMutationMarker detects and strips the _ADD_/_DELETE_ convention from a
// single segment. Anything before the token is ignored. The segment must carry
// an index. The leftmost token followed by a well-formed indexed segment
// wins, so a raw token inside the index does not hide the marker.
func DecodeMutationMarker(segment string) (Marker, bool) {
	for i := 0; i < len(segment); i++ {
		if segment[i] != '_' {
			continue
		}
		for _, op := range []Op{OpAdd, OpDelete} {
			token := op.token()
			if !strings.HasPrefix(segment[i:], token) {
				continue
			}
			seg, err := parseSegment(segment[i+len(token):])
			if err != nil || !seg.HasIndex {
				continue
			}
			return Marker{Op: op, Field: seg.Name, Index: seg.Index}, true
		}
	}
	return Marker{}, false
}

// emptyKey stands for the empty string, which would otherwise render as an
// empty segment.
const emptyKey = "~6"

var keyEscaper = strings.NewReplacer("~", "~0", ".", "~1", "[", "~2", "]", "~3", AddToken, "~4", DeleteToken, "~5")
var keyUnescaper = strings.NewReplacer("~1", ".", "~2", "[", "~3", "]", "~4", AddToken, "~5", DeleteToken, "~0", "~")

// EscapeKey escapes the parts of a map key or field name that are meaningful
// in the path grammar: separators, brackets, the mutation tokens and the
// empty key.
func EscapeKey(key string) string {
	if key == "" {
		return emptyKey
	}
	return keyEscaper.Replace(key)
}

// UnescapeKey reverses EscapeKey.
func UnescapeKey(key string) string {
	if key == emptyKey {
		return ""
	}
	return keyUnescaper.Replace(key)
}
