package workflow

import (
	"testing"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	student := &models.User{ID: 1, Email: "ana@school.edu", Role: models.RoleStudent}

	tests := []struct {
		name    string
		user    *models.User
		profile *models.StudentProfile
		want    string
	}{
		{
			name:    "account name wins",
			user:    &models.User{Name: "Coordinator Reyes", Email: "c@x.edu"},
			profile: &models.StudentProfile{PersonalData: models.PersonalData{FirstName: "Ignored"}},
			want:    "Coordinator Reyes",
		},
		{
			name:    "first and last name",
			user:    student,
			profile: &models.StudentProfile{PersonalData: models.PersonalData{FirstName: "Ana", LastName: "Cruz"}},
			want:    "Ana Cruz",
		},
		{
			name: "given and surname take precedence, middle name included",
			user: student,
			profile: &models.StudentProfile{PersonalData: models.PersonalData{
				GivenName: "Ana Maria", FirstName: "Ana", MiddleName: "Lopez", Surname: "dela Cruz", LastName: "Cruz",
			}},
			want: "Ana Maria Lopez dela Cruz",
		},
		{
			name:    "only last name",
			user:    student,
			profile: &models.StudentProfile{PersonalData: models.PersonalData{LastName: "Cruz"}},
			want:    "Cruz",
		},
		{
			name:    "email fallback",
			user:    student,
			profile: &models.StudentProfile{},
			want:    "ana@school.edu",
		},
		{
			name: "generic fallback",
			want: "User",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.user, tt.profile))
			assert.Equal(t, tt.want, DisplayName(tt.user, tt.profile), "resolution is deterministic")
		})
	}
}

func TestAvatarURL(t *testing.T) {
	withProfilePic := &models.StudentProfile{PersonalData: models.PersonalData{ProfilePicture: "/uploads/p.png"}}

	assert.Equal(t, "/uploads/u.png", AvatarURL(&models.User{ProfilePicture: "/uploads/u.png"}, withProfilePic))
	assert.Equal(t, "/uploads/p.png", AvatarURL(&models.User{}, withProfilePic))
	assert.Equal(t, models.DefaultAvatar, AvatarURL(&models.User{}, nil))
}

func TestResolveAuthor(t *testing.T) {
	a := ResolveAuthor(&models.User{ID: 5, Email: "d@x.edu", Role: models.RoleDirector}, nil)
	assert.Equal(t, Author{ID: 5, Name: "d@x.edu", Avatar: models.DefaultAvatar, Role: models.RoleDirector}, a)

	assert.Equal(t, "User", ResolveAuthor(nil, nil).Name)
}
