package workflow

import (
	"strings"

	"github.com/ojtetr/tracker/internal/app/models"
)

// Author is how a comment or announcement writer is displayed
type Author struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Avatar string      `json:"avatar"`
	Role   models.Role `json:"role"`
}

// fallbackName is shown when nothing else identifies the writer
const fallbackName = "User"

// ResolveAuthor picks the display name and avatar for a user.
// profile may be nil for staff accounts.
func ResolveAuthor(u *models.User, profile *models.StudentProfile) Author {
	if u == nil {
		return Author{Name: fallbackName, Avatar: models.DefaultAvatar}
	}
	return Author{
		ID:     u.ID,
		Name:   DisplayName(u, profile),
		Avatar: AvatarURL(u, profile),
		Role:   u.Role,
	}
}

// DisplayName resolves: account name, then the personal data name parts, then email
func DisplayName(u *models.User, profile *models.StudentProfile) string {
	if u != nil {
		if name := strings.TrimSpace(u.Name); name != "" {
			return name
		}
	}

	if profile != nil {
		d := profile.PersonalData
		var parts []string
		for _, p := range []string{
			firstNonEmpty(d.GivenName, d.FirstName),
			d.MiddleName,
			firstNonEmpty(d.Surname, d.LastName),
		} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}

	if u != nil && u.Email != "" {
		return u.Email
	}
	return fallbackName
}

// AvatarURL resolves: account picture, then the profile picture, then the placeholder
func AvatarURL(u *models.User, profile *models.StudentProfile) string {
	if u != nil && u.ProfilePicture != "" {
		return u.ProfilePicture
	}
	if profile != nil && profile.PersonalData.ProfilePicture != "" {
		return profile.PersonalData.ProfilePicture
	}
	return models.DefaultAvatar
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
