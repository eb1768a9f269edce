package songini

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrMalformedEffectSection is returned when an effect section has no integer id.
var ErrMalformedEffectSection = errors.New("malformed effect section")

// EffectSectionError reports the effect section that could not be checked.
type EffectSectionError struct {
	Section string
	Err     error
}

func (e *EffectSectionError) Error() string {
	return fmt.Sprintf("effect section [%s]: %v", e.Section, e.Err)
}

func (e *EffectSectionError) Unwrap() error {
	return e.Err
}

// effectPrefix marks effect sections, compared case-insensitively.
const effectPrefix = "eff"

// EffectSet is a set of effect ids the player understands.
type EffectSet map[int]struct{}

// DefaultEffects are the effect ids kept by default:
// 1 vertical text, 2 classic karaoke, 21 sprites, 51 background,
// 53 Milkdrop, 61 CDG, 62 video.
var DefaultEffects = NewEffectSet(1, 2, 21, 51, 53, 61, 62)

// NewEffectSet returns a set containing ids.
func NewEffectSet(ids ...int) EffectSet {
	s := make(EffectSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s EffectSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// With returns a new set holding s and ids.
func (s EffectSet) With(ids ...int) EffectSet {
	out := make(EffectSet, len(s)+len(ids))
	for id := range s {
		out[id] = struct{}{}
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the set's ids in ascending order.
func (s EffectSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsEffect reports whether the section describes an effect.
func IsEffect(s *Section) bool {
	return strings.HasPrefix(strings.ToLower(s.Name), effectPrefix)
}

// EffectID returns the integer id of an effect section.
func EffectID(s *Section) (int, error) {
	raw, ok := s.Get("id")
	if !ok {
		return 0, &EffectSectionError{Section: s.Name, Err: fmt.Errorf("%w: missing id", ErrMalformedEffectSection)}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &EffectSectionError{Section: s.Name, Err: fmt.Errorf("%w: id %q is not an integer", ErrMalformedEffectSection, raw)}
	}
	return id, nil
}

// FilterEffects removes effect sections whose id is not in valid and returns
// their names. Other sections are left untouched.
func FilterEffects(doc *Document, valid EffectSet) ([]string, error) {
	return doc.RemoveFunc(func(s *Section) (bool, error) {
		if !IsEffect(s) {
			return false, nil
		}
		id, err := EffectID(s)
		if err != nil {
			return false, err
		}
		return !valid.Contains(id), nil
	})
}

// Rewrite decodes a song script, removes unknown effects and re-encodes it.
// Scripts without unknown effects are returned unchanged.
func Rewrite(data []byte, valid EffectSet) ([]byte, []string, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	removed, err := FilterEffects(doc, valid)
	if err != nil {
		return nil, nil, err
	}
	if len(removed) == 0 {
		return data, nil, nil
	}
	out, err := doc.Bytes()
	if err != nil {
		return nil, nil, err
	}
	return out, removed, nil
}
