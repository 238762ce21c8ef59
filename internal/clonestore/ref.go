package clonestore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"siteclone/internal/domain"
)

// Ref is the opaque, validated reference to one stored clone. Its string form
// doubles as the clone's directory name; callers never build paths from it
// themselves.
type Ref string

const refPrefix = "c-"

var refPattern = regexp.MustCompile(`^c-[0-9a-f]{12}$`)

// ParseRef validates an inbound identifier, typically taken from a URL.
func ParseRef(s string) (Ref, error) {
	if !refPattern.MatchString(s) {
		return "", fmt.Errorf("%w: malformed clone reference %q", domain.ErrNotFound, s)
	}
	return Ref(s), nil
}

func (r Ref) String() string { return string(r) }

// newRef derives a fresh reference from a random uuid. Collisions are handled
// by the store's exclusive directory creation, not here.
func newRef() Ref {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return Ref(refPrefix + hex[:12])
}
