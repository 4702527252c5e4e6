package version

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

var libraryComponent = regexp.MustCompile(`^[a-z]([a-z0-9_]*[a-z0-9])?$`)

const unversionedName = "unversioned"

// Platform names a product whose declarations carry independent timelines.
type Platform struct {
	name string
}

// ParsePlatform validates a platform name.
func ParsePlatform(name string) (Platform, bool) {
	if !IsValidLibraryComponent(name) {
		return Platform{}, false
	}
	return Platform{name: name}, true
}

// Unversioned is the reserved platform of libraries without @available.
func Unversioned() Platform { return Platform{name: unversionedName} }

// IsValidLibraryComponent reports whether s is a valid library name component.
func IsValidLibraryComponent(s string) bool {
	return libraryComponent.MatchString(s)
}

// Name returns the platform name.
func (p Platform) Name() string { return p.name }

// IsUnversioned reports whether p is the reserved unversioned platform.
func (p Platform) IsUnversioned() bool { return p.name == unversionedName }

// IsZero reports whether p was never set.
func (p Platform) IsZero() bool { return p.name == "" }

func (p Platform) String() string { return p.name }

var (
	// ErrEmptySelection is returned when a platform is given no versions.
	ErrEmptySelection = errors.New("cannot select an empty set of versions")
	// ErrLegacyTarget is returned when LEGACY is selected directly.
	ErrLegacyTarget = errors.New("targeting LEGACY is not allowed")
	// ErrMissingHead is returned when several levels are selected without HEAD.
	ErrMissingHead = errors.New("HEAD must be included when targeting multiple levels")
	// ErrUnversionedSelection is returned for the reserved platform.
	ErrUnversionedSelection = errors.New("version selection cannot contain 'unversioned'")
	// ErrDuplicatePlatform is returned when a platform is selected twice.
	ErrDuplicatePlatform = errors.New("platform already selected")
)

// Selection maps platforms to the versions targeted by a build.
type Selection struct {
	byPlatform map[string][]Version
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{byPlatform: make(map[string][]Version)}
}

// Insert selects versions for a platform.
func (s *Selection) Insert(platform Platform, versions []Version) error {
	if platform.IsUnversioned() {
		return ErrUnversionedSelection
	}
	if len(versions) == 0 {
		return fmt.Errorf("platform %s: %w", platform, ErrEmptySelection)
	}
	sorted := slices.Clone(versions)
	slices.SortFunc(sorted, Version.Compare)
	sorted = slices.Compact(sorted)
	if slices.Contains(sorted, Legacy) {
		return fmt.Errorf("platform %s: %w", platform, ErrLegacyTarget)
	}
	if len(sorted) > 1 && !slices.Contains(sorted, Head) {
		return fmt.Errorf("platform %s: %w", platform, ErrMissingHead)
	}
	if _, ok := s.byPlatform[platform.name]; ok {
		return fmt.Errorf("platform %s: %w", platform, ErrDuplicatePlatform)
	}
	s.byPlatform[platform.name] = sorted
	return nil
}

// Contains reports whether versions were selected for platform.
func (s *Selection) Contains(platform Platform) bool {
	if platform.IsUnversioned() {
		panic("version: selection cannot contain 'unversioned'")
	}
	_, ok := s.byPlatform[platform.name]
	return ok
}

// Lookup returns the single version used for filtering. Multi-level builds
// resolve to LEGACY so that legacy elements are kept.
func (s *Selection) Lookup(platform Platform) Version {
	if platform.IsUnversioned() {
		return Head
	}
	versions, ok := s.byPlatform[platform.name]
	if !ok {
		panic(fmt.Sprintf("version: no version was inserted for platform '%s'", platform.name))
	}
	if len(versions) == 1 {
		return versions[0]
	}
	return Legacy
}

// LookupSet returns every selected version for platform, sorted.
func (s *Selection) LookupSet(platform Platform) []Version {
	if platform.IsUnversioned() {
		return []Version{Head}
	}
	versions, ok := s.byPlatform[platform.name]
	if !ok {
		panic(fmt.Sprintf("version: no version was inserted for platform '%s'", platform.name))
	}
	return slices.Clone(versions)
}

// Platforms returns the selected platforms sorted by name.
func (s *Selection) Platforms() []Platform {
	out := make([]Platform, 0, len(s.byPlatform))
	for name := range s.byPlatform {
		out = append(out, Platform{name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ParseSelection parses "platform:v1,v2,..." and inserts it.
func (s *Selection) ParseSelection(text string) error {
	name, levels, ok := strings.Cut(text, ":")
	if !ok {
		return fmt.Errorf("invalid selection %q: expected platform:versions", text)
	}
	platform, ok := ParsePlatform(name)
	if !ok {
		return fmt.Errorf("invalid selection %q: invalid platform %q", text, name)
	}
	var versions []Version
	for _, level := range strings.Split(levels, ",") {
		if level == "" {
			continue
		}
		v, ok := Parse(level)
		if !ok {
			return fmt.Errorf("invalid selection %q: invalid version %q", text, level)
		}
		versions = append(versions, v)
	}
	return s.Insert(platform, versions)
}
