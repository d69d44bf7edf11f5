package accounts_test

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"sync"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockIdentity implements accounts.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) EmailConfirmed() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockLogger implements accounts.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// fakeUsers is an in-memory Users store. The embedded interface covers the
// repository methods the tests never touch.
type fakeUsers struct {
	accounts.Users

	mu      sync.Mutex
	records map[uuid.UUID]*accounts.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		records: map[uuid.UUID]*accounts.User{},
	}
}

func (f *fakeUsers) add(user *accounts.User) *accounts.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = accounts.RoleMember
	}

	clone := *user
	f.records[user.ID] = &clone
	return user
}

func (f *fakeUsers) snapshot(id uuid.UUID) (*accounts.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[id]
	if !ok {
		return nil, false
	}
	clone := *record
	return &clone, true
}

func (f *fakeUsers) findByEmail(email string) (*accounts.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		if record.Email == email {
			clone := *record
			return &clone, true
		}
	}
	return nil, false
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	if user, ok := f.findByEmail(email); ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.User, error) {
	return f.GetByEmail(ctx, email)
}

func (f *fakeUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		if user, ok := f.snapshot(id); ok {
			return user, nil
		}
	}
	if user, ok := f.findByEmail(identifier); ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	return f.GetByIdentifier(ctx, identifier)
}

func (f *fakeUsers) Create(ctx context.Context, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	return f.CreateTx(ctx, nil, record, criteria...)
}

func (f *fakeUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	if _, taken := f.findByEmail(record.Email); taken {
		return nil, accounts.ErrDuplicateEmail
	}
	return f.add(record), nil
}

func (f *fakeUsers) Update(ctx context.Context, record *accounts.User, criteria ...repository.UpdateCriteria) (*accounts.User, error) {
	return f.UpdateTx(ctx, nil, record, criteria...)
}

func (f *fakeUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.UpdateCriteria) (*accounts.User, error) {
	if existing, ok := f.findByEmail(record.Email); ok && existing.ID != record.ID {
		return nil, accounts.ErrDuplicateEmail
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[record.ID]; !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *record
	f.records[record.ID] = &clone
	return record, nil
}

func (f *fakeUsers) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	return f.ConfirmEmailTx(ctx, nil, id)
}

func (f *fakeUsers) ConfirmEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	record.EmailConfirmed = true
	return nil
}

func (f *fakeUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return f.ResetPasswordTx(ctx, nil, id, passwordHash)
}

func (f *fakeUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	record.PasswordHash = passwordHash
	record.EmailConfirmed = true
	return nil
}

func (f *fakeUsers) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	return f.TrackAttemptedLoginTx(ctx, nil, user)
}

func (f *fakeUsers) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *accounts.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[user.ID]
	if !ok {
		return repository.NewRecordNotFound()
	}
	record.LoginAttempts++
	now := time.Now()
	record.LoginAttemptAt = &now
	return nil
}

func (f *fakeUsers) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	return f.TrackSuccessfulLoginTx(ctx, nil, user)
}

func (f *fakeUsers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *accounts.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[user.ID]
	if !ok {
		return repository.NewRecordNotFound()
	}
	record.LoginAttempts = 0
	record.LoginAttemptAt = nil
	now := time.Now()
	record.LoggedInAt = &now
	return nil
}

func (f *fakeUsers) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*accounts.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*accounts.User, 0, len(f.records))
	for _, record := range f.records {
		clone := *record
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (f *fakeUsers) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records = map[uuid.UUID]*accounts.User{}
	return nil
}

// fakeRepoManager satisfies accounts.RepositoryManager over fakeUsers.
// Transactions are a passthrough since the store is already serialized.
type fakeRepoManager struct {
	users *fakeUsers
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{users: newFakeUsers()}
}

func (m *fakeRepoManager) Validate() error { return nil }
func (m *fakeRepoManager) MustValidate()   {}

func (m *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

func (m *fakeRepoManager) Users() accounts.Users {
	return m.users
}

// recordingNotifier captures dispatched tokens synchronously.
type recordingNotifier struct {
	mu            sync.Mutex
	confirmTokens []string
	resetTokens   []string
}

func (n *recordingNotifier) SendEmailConfirmation(ctx context.Context, user *accounts.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmTokens = append(n.confirmTokens, token)
	return nil
}

func (n *recordingNotifier) SendPasswordReset(ctx context.Context, user *accounts.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetTokens = append(n.resetTokens, token)
	return nil
}

func (n *recordingNotifier) lastConfirmToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.confirmTokens) == 0 {
		return ""
	}
	return n.confirmTokens[len(n.confirmTokens)-1]
}

func (n *recordingNotifier) lastResetToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.resetTokens) == 0 {
		return ""
	}
	return n.resetTokens[len(n.resetTokens)-1]
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) eventTypes() []accounts.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]accounts.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

// trackerAdapter narrows fakeUsers to the provider's UserTracker interface,
// dropping the variadic criteria parameter.
type trackerAdapter struct {
	users *fakeUsers
}

func tracker(users *fakeUsers) trackerAdapter {
	return trackerAdapter{users: users}
}

func (a trackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a trackerAdapter) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a trackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

// stubHTTPAuth satisfies accounts.HTTPAuthenticator with pass-through
// middleware, counting Logout calls.
type stubHTTPAuth struct {
	mu          sync.Mutex
	logoutCount int
}

func (s *stubHTTPAuth) Login(ctx router.Context, payload accounts.LoginPayload) error { return nil }

func (s *stubHTTPAuth) Logout(ctx router.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutCount++
}

func (s *stubHTTPAuth) logouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutCount
}

func (s *stubHTTPAuth) Impersonate(c router.Context, identifier string) error { return nil }

func (s *stubHTTPAuth) ProtectedRoute(cfg accounts.Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc { return hf }
}

func (s *stubHTTPAuth) OptionalSession(cfg accounts.Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc { return hf }
}

func (s *stubHTTPAuth) GetRedirect(ctx router.Context, def ...string) string {
	if len(def) > 0 {
		return def[0]
	}
	return "/"
}

func (s *stubHTTPAuth) GetRedirectOrDefault(ctx router.Context) string { return "/" }

func (s *stubHTTPAuth) SetRedirect(ctx router.Context) {}

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	v, _ := args.Get(0).([]string)
	return v
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	v, _ := args.Get(0).(map[string]any)
	return v
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	v, _ := args.Get(0).(map[string]string)
	return v
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
