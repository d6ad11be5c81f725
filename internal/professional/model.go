package professional

import (
	"errors"
	"hash/fnv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrUsernameTaken        = errors.New("username already in use")
)

type Role string

const (
	RolePsychologist Role = "psicologo"
	RoleIntern       Role = "estagiario"
	RoleCoordinator  Role = "coordinator"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePsychologist, RoleIntern, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// Elevated roles may read every professional's availability and create profiles.
func (r Role) Elevated() bool {
	return r == RoleCoordinator || r == RoleAdmin
}

type Professional struct {
	ID                   uuid.UUID `json:"id"`
	Username             string    `json:"username"`
	FullName             string    `json:"fullName"`
	Email                string    `json:"email"`
	Role                 Role      `json:"role"`
	Color                string    `json:"color"`
	AcceptsPublicBooking bool      `json:"acceptsPublicBooking"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// NormalizeUsername folds accents and case, and joins words with dots:
// "  João  da Silva " -> "joao.da.silva".
func NormalizeUsername(raw string) string {
	var folded []rune
	for _, r := range norm.NFD.String(strings.ToLower(raw)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		folded = append(folded, r)
	}

	var b strings.Builder
	for _, word := range strings.Fields(string(folded)) {
		var w strings.Builder
		for _, r := range word {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-') {
				w.WriteRune(r)
			}
		}
		if w.Len() == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(w.String())
	}
	return b.String()
}

var palette = []string{"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F", "#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC"}

// DefaultColor picks a stable palette entry for a username.
func DefaultColor(username string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return palette[h.Sum32()%uint32(len(palette))]
}
