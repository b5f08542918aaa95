package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tissuesalts/internal/common"
	"github.com/dmitrijs2005/tissuesalts/internal/dbx"
	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
	assessmentsrepo "github.com/dmitrijs2005/tissuesalts/internal/server/repositories/assessments"
	sessionsrepo "github.com/dmitrijs2005/tissuesalts/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/tissuesalts/internal/server/repositories/users"
)

// --- helpers ---

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	nextID    int64
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	u.ID = f.nextID
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeSessionsRepo struct {
	users     *fakeUsersRepo
	byToken   map[string]int64
	createErr error
	findErr   error
	deleteErr error
}

func newFakeSessionsRepo(u *fakeUsersRepo) *fakeSessionsRepo {
	return &fakeSessionsRepo{users: u, byToken: map[string]int64{}}
}

func (f *fakeSessionsRepo) Create(_ context.Context, userID int64, token string) (*models.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.byToken[token] = userID
	return &models.Session{ID: int64(len(f.byToken)), UserID: userID, Token: token}, nil
}

func (f *fakeSessionsRepo) FindUser(_ context.Context, token string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	id, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, u := range f.users.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSessionsRepo) Delete(_ context.Context, token string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byToken, token)
	return nil
}

type fakeAssessmentsRepo struct {
	saved     []models.Assessment
	createErr error
	listErr   error
}

func (f *fakeAssessmentsRepo) Create(_ context.Context, a *models.Assessment) (*models.Assessment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	a.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, *a)
	return a, nil
}

func (f *fakeAssessmentsRepo) ListByUser(_ context.Context, userID int64) ([]models.Assessment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Assessment{}
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].UserID == userID {
			out = append(out, f.saved[i])
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	a *fakeAssessmentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	u := newFakeUsersRepo()
	return &fakeRepoManager{u: u, s: newFakeSessionsRepo(u), a: &fakeAssessmentsRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository             { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessionsrepo.Repository       { return m.s }
func (m *fakeRepoManager) Assessments(dbx.DBTX) assessmentsrepo.Repository { return m.a }

// addUser seeds a user and a session token directly in the fakes.
func (m *fakeRepoManager) addUser(email, token string) *models.User {
	u, _ := m.u.Create(context.Background(), &models.User{Email: email, PasswordHash: "x"})
	if token != "" {
		m.s.byToken[token] = u.ID
	}
	return u
}

func cheapHash(password string) (string, error) { return "h:" + password, nil }

func cheapVerify(password, encoded string) (bool, error) { return encoded == "h:"+password, nil }
