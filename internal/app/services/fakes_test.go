package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/repositories"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/ojtetr/tracker/internal/pkg/templates"
	"github.com/ojtetr/tracker/internal/pkg/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
	// profiles receives the profile created alongside a student
	profiles *fakeProfiles
}

func newFakeUsers(profiles *fakeProfiles) *fakeUsers {
	u := &fakeUsers{byID: map[int64]*models.User{}, profiles: profiles}
	profiles.users = u
	return u
}

func (f *fakeUsers) add(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = &u
	cp := u
	return &cp
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			f.mu.Unlock()
			return apperrors.ErrEmailAlreadyExists
		}
	}
	f.mu.Unlock()
	user.ID = f.add(*user).ID
	return nil
}

func (f *fakeUsers) CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	if err := f.CreateUser(ctx, user); err != nil {
		return err
	}
	profile.UserID = user.ID
	f.profiles.put(profile)
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) UpdateStatus(_ context.Context, id int64, status models.AccountStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeUsers) UpdateStaffProfile(_ context.Context, id int64, name, picture string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Name = name
	u.ProfilePicture = picture
	return nil
}

type fakeProfiles struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.StudentProfile
	users  *fakeUsers

	// conflicts makes the next N updates fail as if another writer won
	conflicts int
	// beforeConflict runs when an injected conflict fires
	beforeConflict func()
	updates        int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: map[int64]models.StudentProfile{}}
}

func (f *fakeProfiles) put(p *models.StudentProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	p.Version = 1
	if p.Documents == nil {
		p.Documents = []models.Document{}
	}
	f.byID[p.ID] = p.Clone()
}

func (f *fakeProfiles) get(id int64) models.StudentProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].Clone()
}

func (f *fakeProfiles) GetByID(_ context.Context, id int64) (*models.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	cp := p.Clone()
	return &cp, nil
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID int64) (*models.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.UserID == userID {
			cp := p.Clone()
			return &cp, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

func (f *fakeProfiles) FindByDocumentID(_ context.Context, docID uuid.UUID) (*models.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.DocumentByID(docID) >= 0 {
			cp := p.Clone()
			return &cp, nil
		}
	}
	return nil, apperrors.ErrDocumentNotFound
}

func (f *fakeProfiles) Update(_ context.Context, p *models.StudentProfile) error {
	f.mu.Lock()
	f.updates++
	if f.conflicts > 0 {
		f.conflicts--
		hook := f.beforeConflict
		f.mu.Unlock()
		if hook != nil {
			hook()
		}
		return apperrors.ErrVersionConflict
	}
	defer f.mu.Unlock()

	current, ok := f.byID[p.ID]
	if !ok {
		return apperrors.ErrProfileNotFound
	}
	if current.Version != p.Version {
		return apperrors.ErrVersionConflict
	}
	p.Version++
	f.byID[p.ID] = p.Clone()
	return nil
}

func (f *fakeProfiles) ListSummaries(_ context.Context, filter repositories.ProfileFilter) ([]models.StudentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.StudentSummary
	for _, p := range f.byID {
		u := f.users.byID[p.UserID]
		if filter.AccountStatus != "" && u.Status != filter.AccountStatus {
			continue
		}
		hasRevision := false
		for _, d := range p.Documents {
			hasRevision = hasRevision || d.Status == models.DocumentForRevision
		}
		status := models.DeriveOverallStatus(p.OverallStatus, hasRevision)
		if filter.Status != "" && status != filter.Status {
			continue
		}
		out = append(out, models.StudentSummary{
			ProfileID:     p.ID,
			UserID:        p.UserID,
			Email:         u.Email,
			Status:        u.Status,
			PersonalData:  p.PersonalData,
			OverallStatus: status,
			DocumentCount: len(p.Documents),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProfileID < out[j].ProfileID })
	return out, nil
}

type fakeAnnouncements struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Announcement
}

func newFakeAnnouncements() *fakeAnnouncements {
	return &fakeAnnouncements{byID: map[int64]*models.Announcement{}}
}

func (f *fakeAnnouncements) Create(_ context.Context, a *models.Announcement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeAnnouncements) GetByID(_ context.Context, id int64) (*models.Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrAnnouncementNotFound
	}
	cp := *a
	cp.Comments = append([]models.Comment(nil), a.Comments...)
	return &cp, nil
}

func (f *fakeAnnouncements) List(_ context.Context) ([]models.Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Announcement, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeAnnouncements) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperrors.ErrAnnouncementNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAnnouncements) AddComment(_ context.Context, id int64, c models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return apperrors.ErrAnnouncementNotFound
	}
	a.Comments = append(a.Comments, c)
	return nil
}

func (f *fakeAnnouncements) DeleteComment(_ context.Context, id int64, commentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return apperrors.ErrAnnouncementNotFound
	}
	for i, c := range a.Comments {
		if c.ID == commentID {
			a.Comments = append(a.Comments[:i], a.Comments[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrCommentNotFound
}

// memStore is a BlobStore kept in memory
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Save(_ context.Context, r io.Reader, _ int64, originalName, contentType, prefix string) (filestorage.Object, error) {
	if m.failErr != nil {
		return filestorage.Object{}, m.failErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return filestorage.Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s/%s-%s", prefix, uuid.NewString(), originalName)
	m.objects[key] = data
	return filestorage.Object{Key: key, URL: filestorage.PublicPath + "/" + key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memStore) Open(_ context.Context, key string) (io.ReadCloser, *filestorage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, nil, filestorage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), &filestorage.Object{Key: key, Size: int64(len(data))}, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeTemplates struct {
	available []models.DocType
}

func (f fakeTemplates) Lookup(docType models.DocType) (templates.Template, error) {
	for _, t := range f.available {
		if t == docType {
			return templates.Template{DocType: t, Path: "templates/" + string(t) + ".docx", DownloadName: t.TemplateFileName()}, nil
		}
	}
	return templates.Template{}, apperrors.ErrTemplateNotFound
}

func (f fakeTemplates) Available() []models.DocType {
	return f.available
}

type fakeMailer struct {
	approved []string
	rejected []string
	err      error
}

func (f *fakeMailer) SendAccountApproved(toEmail, _ string) error {
	f.approved = append(f.approved, toEmail)
	return f.err
}

func (f *fakeMailer) SendAccountRejected(toEmail, _ string) error {
	f.rejected = append(f.rejected, toEmail)
	return f.err
}

type fakeFeed struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (f *fakeFeed) Broadcast(msg websocket.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeFeed) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.Type)
	}
	return out
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(user *models.User) (string, int, error) {
	return fmt.Sprintf("token-%d", user.ID), 3600, nil
}

// fixture wires every store fake together
type fixture struct {
	users         *fakeUsers
	profiles      *fakeProfiles
	announcements *fakeAnnouncements
	store         *memStore
}

func newFixture() *fixture {
	profiles := newFakeProfiles()
	return &fixture{
		users:         newFakeUsers(profiles),
		profiles:      profiles,
		announcements: newFakeAnnouncements(),
		store:         newMemStore(),
	}
}

// student creates an active student with a profile and returns the actor for it
func (f *fixture) student(t *testing.T, email string) *appauth.Actor {
	t.Helper()
	user := &models.User{Email: email, Role: models.RoleStudent, Status: models.AccountActive}
	profile := &models.StudentProfile{
		PersonalData:  models.PersonalData{FirstName: "Ana", LastName: "Cruz"},
		OverallStatus: models.OverallSubmitting,
	}
	require.NoError(t, f.users.CreateStudent(context.Background(), user, profile))
	return &appauth.Actor{User: user, ProfileID: profile.ID}
}

func (f *fixture) staff(t *testing.T, role models.Role, name string) *appauth.Actor {
	t.Helper()
	user := &models.User{Email: name + "@school.edu", Role: role, Status: models.AccountActive, Name: name}
	require.NoError(t, f.users.CreateUser(context.Background(), user))
	return &appauth.Actor{User: user}
}

func cheapHash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func pdfUpload(name string) Upload {
	body := []byte("%PDF-1.4 test content")
	return Upload{Reader: bytes.NewReader(body), Size: int64(len(body)), Name: name, ContentType: "application/pdf"}
}

func pngUpload(t *testing.T) Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Upload{Reader: bytes.NewReader(buf.Bytes()), Size: int64(buf.Len()), Name: "me.png", ContentType: "image/png"}
}

var testLimits = UploadLimits{MaxDocumentSize: 5 << 20, MaxAvatarSize: 10 << 20, AvatarDimension: 64}
