package roster

import (
	"fmt"
	"regexp"
	"strings"
)

// Employee is a roster member. ID is the slug derived from the display name;
// ServerID, when the backend supplies one, is the stable identity and the
// slug becomes display-level only.
type Employee struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ServerID int64  `json:"server_id,omitempty"`
	Active   bool   `json:"active"`
}

// ErrSlugCollision is returned when two distinct display names normalize to
// the same slug. The dashboard silently merged these; here the caller must
// resolve the conflict.
type ErrSlugCollision struct {
	Slug            string
	ExistingName    string
	ConflictingName string
}

// Error implements the error interface
func (e *ErrSlugCollision) Error() string {
	return fmt.Sprintf("employee names %q and %q both normalize to %q", e.ExistingName, e.ConflictingName, e.Slug)
}

var slugStripper = regexp.MustCompile(`[^a-z0-9_]`)

// Slugify derives the deterministic employee id from a display name:
// lowercase, whitespace to underscores, everything else dropped. Idempotent:
// Slugify(Slugify(name)) == Slugify(name).
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "_")
	slug = slugStripper.ReplaceAllString(slug, "")
	return slug
}

// BuildRoster converts a backend name list into employees keyed by slug,
// rejecting silent slug collisions between distinct names.
func BuildRoster(names []string) (map[string]Employee, error) {
	employees := make(map[string]Employee, len(names))
	for _, name := range names {
		slug := Slugify(name)
		if slug == "" {
			return nil, fmt.Errorf("employee name %q produces an empty id", name)
		}
		if existing, ok := employees[slug]; ok {
			if existing.Name == name {
				continue
			}
			return nil, &ErrSlugCollision{
				Slug:            slug,
				ExistingName:    existing.Name,
				ConflictingName: name,
			}
		}
		employees[slug] = Employee{
			ID:     slug,
			Name:   name,
			Active: true,
		}
	}
	return employees, nil
}
