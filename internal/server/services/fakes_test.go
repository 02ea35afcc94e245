package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/dbx"
	"github.com/dmitrijs2005/giftauth/internal/server/models"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/gifts"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/verifications"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// --- users ---

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	getErr  error

	createErr error
	created   []*models.User

	profile    *models.PublicProfile
	profileErr error
	phoneArg   string

	failureLocked bool
	failureErr    error
	failures      []time.Time

	successErr error
	successes  []string

	updateErr error
	updated   map[string]string
}

func newFakeUsersRepo(us ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}, updated: map[string]string{}}
	for _, u := range us {
		f.byEmail[u.Email] = u
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := *u
	f.created = append(f.created, &c)
	return &c, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetPublicProfileByPhone(ctx context.Context, phone string) (*models.PublicProfile, error) {
	f.phoneArg = phone
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, common.ErrorNotFound
	}
	return f.profile, nil
}

func (f *fakeUsersRepo) RegisterLoginFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (bool, error) {
	f.failures = append(f.failures, lockUntil)
	return f.failureLocked, f.failureErr
}

func (f *fakeUsersRepo) RegisterLoginSuccess(ctx context.Context, id string, at time.Time) error {
	f.successes = append(f.successes, id)
	return f.successErr
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[id] = hash
	return nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu        sync.Mutex
	byToken   map[string]*models.RefreshToken
	findErr   error
	createErr error
	deleteErr error
	created   []*models.RefreshToken
	deletedID []string
	revokedBy map[string]int64
}

func newFakeRefreshRepo(ts ...*models.RefreshToken) *fakeRefreshRepo {
	f := &fakeRefreshRepo{byToken: map[string]*models.RefreshToken{}, revokedBy: map[string]int64{}}
	for _, t := range ts {
		f.byToken[t.Token] = t
	}
	return f
}

func (f *fakeRefreshRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	c := *t
	f.created = append(f.created, &c)
	f.byToken[t.Token] = &c
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if t, ok := f.byToken[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) DeleteByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for k, t := range f.byToken {
		if t.ID == id {
			delete(f.byToken, k)
			f.deletedID = append(f.deletedID, id)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byToken[token]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byToken, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for k, t := range f.byToken {
		if t.UserID == userID {
			delete(f.byToken, k)
			n++
		}
	}
	f.revokedBy[userID] = n
	return n, nil
}

// --- password resets ---

type fakeResetsRepo struct {
	byToken    map[string]*models.PasswordReset
	findErr    error
	createErr  error
	created    []*models.PasswordReset
	markErr    error
	marked     []string
	staleN     int64
	staleErr   error
	staleNow   time.Time
	staleMaxAg time.Duration
}

func newFakeResetsRepo(rs ...*models.PasswordReset) *fakeResetsRepo {
	f := &fakeResetsRepo{byToken: map[string]*models.PasswordReset{}}
	for _, r := range rs {
		f.byToken[r.Token] = r
	}
	return f
}

func (f *fakeResetsRepo) Create(ctx context.Context, r *models.PasswordReset) error {
	if f.createErr != nil {
		return f.createErr
	}
	c := *r
	f.created = append(f.created, &c)
	return nil
}

func (f *fakeResetsRepo) Find(ctx context.Context, token string) (*models.PasswordReset, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if r, ok := f.byToken[token]; ok {
		return r, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeResetsRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeResetsRepo) DeleteStale(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error) {
	f.staleNow, f.staleMaxAg = now, maxAge
	return f.staleN, f.staleErr
}

// --- verifications ---

type fakeVerificationsRepo struct {
	err      error
	upserted []*models.EmailVerification
}

func (f *fakeVerificationsRepo) Upsert(ctx context.Context, v *models.EmailVerification) error {
	if f.err != nil {
		return f.err
	}
	c := *v
	f.upserted = append(f.upserted, &c)
	return nil
}

// --- gifts ---

type fakeGiftsRepo struct {
	byID      map[string]*models.GiftWithParties
	findErr   error
	dup       bool
	dupErr    error
	dupArgs   []any
	createID  string
	createErr error
	created   []*models.Gift
	totals    *models.DashboardTotals
	totalsErr error
}

func (f *fakeGiftsRepo) Create(ctx context.Context, g *models.Gift) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	c := *g
	f.created = append(f.created, &c)
	return f.createID, nil
}

func (f *fakeGiftsRepo) Find(ctx context.Context, id string) (*models.GiftWithParties, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if g, ok := f.byID[id]; ok {
		return g, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeGiftsRepo) HasRecentDuplicate(ctx context.Context, senderEmail, recipientID string, amount float64, since time.Time) (bool, error) {
	f.dupArgs = []any{senderEmail, recipientID, amount, since}
	return f.dup, f.dupErr
}

func (f *fakeGiftsRepo) Totals(ctx context.Context, userID string) (*models.DashboardTotals, error) {
	if f.totalsErr != nil {
		return nil, f.totalsErr
	}
	return f.totals, nil
}

// --- manager ---

type fakeRepoManager struct {
	u  *fakeUsersRepo
	rt *fakeRefreshRepo
	pr *fakeResetsRepo
	v  *fakeVerificationsRepo
	g  *fakeGiftsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error          { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                   { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository   { return m.rt }
func (m *fakeRepoManager) PasswordResets(db dbx.DBTX) passwordresets.Repository { return m.pr }
func (m *fakeRepoManager) Verifications(db dbx.DBTX) verifications.Repository   { return m.v }
func (m *fakeRepoManager) Gifts(db dbx.DBTX) gifts.Repository                   { return m.g }

// --- background / mail / audit ---

// inlineBackground runs tasks synchronously and records failures.
type inlineBackground struct {
	names  []string
	errors map[string]error
}

func (b *inlineBackground) Go(name string, fn func(ctx context.Context) error) bool {
	b.names = append(b.names, name)
	if err := fn(context.Background()); err != nil {
		if b.errors == nil {
			b.errors = map[string]error{}
		}
		b.errors[name] = err
	}
	return true
}

type sentMail struct {
	Kind, To, Secret, Name string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerificationEmail(ctx context.Context, to, code, name string) error {
	m.sent = append(m.sent, sentMail{"verification", to, code, name})
	return m.err
}

func (m *fakeMailer) SendForgotPasswordEmail(ctx context.Context, to, token, name string) error {
	m.sent = append(m.sent, sentMail{"forgot", to, token, name})
	return m.err
}

func (m *fakeMailer) SendPasswordResetConfirmationEmail(ctx context.Context, to, name string) error {
	m.sent = append(m.sent, sentMail{"confirmation", to, "", name})
	return m.err
}

