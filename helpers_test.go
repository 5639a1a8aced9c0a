package auth_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-otp-auth"
	"github.com/goliatone/go-otp-auth/persistence"
)

const (
	testSecret = "test-signing-secret"
	testIssuer = "auth-test"
	fixedOTP   = "123456"
)

type testConfig struct {
	key        string
	issuer     string
	sessionTTL time.Duration
	pendingTTL time.Duration
	cookie     string
	secure     bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		key:        testSecret,
		issuer:     testIssuer,
		sessionTTL: auth.DefaultSessionTTL,
		pendingTTL: auth.DefaultPendingTTL,
		cookie:     auth.DefaultCookieName,
	}
}

func (c *testConfig) GetSigningKey() string        { return c.key }
func (c *testConfig) GetIssuer() string            { return c.issuer }
func (c *testConfig) GetSessionTTL() time.Duration { return c.sessionTTL }
func (c *testConfig) GetPendingTTL() time.Duration { return c.pendingTTL }
func (c *testConfig) GetCookieName() string        { return c.cookie }
func (c *testConfig) GetSecureCookies() bool       { return c.secure }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type sentCode struct {
	To   string
	Code string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (m *captureMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentCode{To: to, Code: code})
	return nil
}

func (m *captureMailer) Sent() []sentCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentCode(nil), m.sent...)
}

type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *captureSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func fixedOTPGenerator() (string, error) {
	return fixedOTP, nil
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := persistence.Open(context.Background(), persistence.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()
	repo := auth.NewRepositoryManager(newTestDB(t))
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func newTestTokens(t *testing.T, opts ...auth.TokenServiceOption) *auth.TokenServiceImpl {
	t.Helper()
	opts = append([]auth.TokenServiceOption{auth.WithTokenLogger(nopLogger{})}, opts...)
	tokens, err := auth.NewTokenService(newTestConfig(), opts...)
	require.NoError(t, err)
	return tokens
}

// seedUser stores a verified user with the given password
func seedUser(t *testing.T, repo auth.RepositoryManager, email, username, password string, role auth.UserRole) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := auth.PendingUser{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}.ToUser()
	require.NoError(t, err)

	_, err = repo.Users().Register(context.Background(), user)
	require.NoError(t, err)
	return user
}

func mustUUID(t *testing.T, email string) uuid.UUID {
	t.Helper()
	id, err := hashid.NewUUID(email)
	require.NoError(t, err)
	return id
}

func newErrorApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: auth.NewErrorHandler(nopLogger{})})
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type MockUsers struct {
	mock.Mock
}

var _ auth.Users = (*MockUsers)(nil)

func (m *MockUsers) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ListAll(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) ListByRole(ctx context.Context, role auth.UserRole) ([]*auth.User, error) {
	args := m.Called(ctx, role)
	if u := args.Get(0); u != nil {
		return u.([]*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}
