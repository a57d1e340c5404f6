package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cvboard/admin/internal/adapters/memstore"
	"github.com/cvboard/admin/internal/credentials"
	domainauth "github.com/cvboard/admin/internal/domain/auth"
	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/mocks"
	mockauth "github.com/cvboard/admin/internal/mocks/auth"
	"github.com/cvboard/admin/internal/testutil"
)

// backendErr mimics a transport error carrying a backend message.
type backendErr string

func (e backendErr) Error() string          { return string(e) }
func (e backendErr) BackendMessage() string { return string(e) }

type fixture struct {
	api     *mocks.MockAuthAPI
	store   *memstore.Store
	clock   *mockauth.Clock
	jar     *mockauth.MemoryJar
	nav     *mockauth.RecordingNavigator
	metrics *mockauth.RecordingMetrics
	svc     *AuthService
	guard   *Guard
}

func newFixture(t *testing.T, mutate ...func(*AuthServiceOptions)) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		api:     mocks.NewMockAuthAPI(ctrl),
		clock:   mockauth.NewClock(testutil.TestTime()),
		nav:     &mockauth.RecordingNavigator{},
		metrics: &mockauth.RecordingMetrics{},
	}
	f.store = memstore.New(f.clock.Now)
	f.jar = mockauth.NewMemoryJar(f.clock.Now)

	opts := AuthServiceOptions{
		API:        f.api,
		Sessions:   f.store,
		Notifier:   f.store,
		Translator: mockauth.StaticTranslator{"errors.UNAUTHORIZED_ERROR": "Unauthorized"},
		Metrics:    f.metrics,
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.svc = NewAuthService(opts)
	f.guard = f.svc.Guard(Scope{
		SessionID:   "sid-1",
		Credentials: credentials.NewStore(credentials.Options{Jar: f.jar, Now: f.clock.Now}),
		Navigator:   f.nav,
		Locale:      "en",
	})
	return f
}

func (f *fixture) issue(t *testing.T, subject int64, ttl time.Duration) string {
	t.Helper()
	now := f.clock.Now()
	return mockauth.IssueToken(subject, domainauth.RoleEmployee, now, now.Add(ttl))
}

func (f *fixture) seed(t *testing.T, access, refresh time.Duration) (string, string) {
	t.Helper()
	creds := f.guard.scope.Credentials
	a := f.issue(t, 3, access)
	r := f.issue(t, 3, refresh)
	require.NoError(t, creds.Set(domainauth.TokenAccess, a))
	require.NoError(t, creds.Set(domainauth.TokenRefresh, r))
	return a, r
}

func (f *fixture) drain(t *testing.T) []domainauth.Notification {
	t.Helper()
	out, err := f.guard.Notifications(context.Background())
	require.NoError(t, err)
	return out
}

func TestNewAuthService_Defaults(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{})

	assert.Equal(t, DefaultSignInPath, svc.SignInPath())
	assert.Equal(t, DefaultSessionTTL, svc.sessionTTL)
	assert.False(t, svc.coalesce)
	assert.NotNil(t, svc.metrics)
	assert.NotNil(t, svc.logger)
}

func TestGuard_EnsureAccessToken_ValidAccess(t *testing.T) {
	f := newFixture(t)
	access, _ := f.seed(t, 15*time.Minute, time.Hour)

	got, err := f.guard.EnsureAccessToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, access, got)
	assert.Zero(t, f.metrics.Get(MetricRefresh))
}

func TestGuard_EnsureAccessToken_RefreshesOnce(t *testing.T) {
	f := newFixture(t)
	_, refresh := f.seed(t, time.Minute, time.Hour)
	f.clock.Advance(2 * time.Minute)
	minted := f.issue(t, 3, 15*time.Minute)

	f.api.EXPECT().UpdateToken(gomock.Any(), refresh).Return(minted, nil).Times(1)

	got, err := f.guard.EnsureAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, minted, got)

	value, expires, ok := f.jar.Raw("accessToken")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+minted, value)
	assert.True(t, f.clock.Now().Add(15*time.Minute-5*time.Second).Equal(expires))

	again, err := f.guard.EnsureAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, minted, again)
	assert.Equal(t, int64(1), f.metrics.Get(MetricRefresh))
}

func TestGuard_EnsureAccessToken_BothExpired(t *testing.T) {
	f := newFixture(t)
	f.seed(t, time.Minute, 2*time.Minute)
	f.clock.Advance(3 * time.Minute)

	// No UpdateToken expectation: any call fails the test.
	_, err := f.guard.EnsureAccessToken(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestGuard_EnsureAccessToken_RefreshRejected(t *testing.T) {
	f := newFixture(t)
	_, refresh := f.seed(t, time.Minute, time.Hour)
	f.clock.Advance(2 * time.Minute)

	f.api.EXPECT().UpdateToken(gomock.Any(), refresh).Return("", backendErr("Unauthorized"))

	_, err := f.guard.EnsureAccessToken(context.Background())

	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, int64(1), f.metrics.Get(MetricRefreshFailed))
	_, ok := f.jar.Load("accessToken")
	assert.False(t, ok)
}

func TestGuard_EnsureAccessToken_MalformedMintedToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, time.Minute, time.Hour)
	f.clock.Advance(2 * time.Minute)

	f.api.EXPECT().UpdateToken(gomock.Any(), gomock.Any()).Return("garbage", nil)

	_, err := f.guard.EnsureAccessToken(context.Background())
	assert.Equal(t, apperrors.KindUnexpected, apperrors.KindOf(err))
}

func TestGuard_EnsureAccessToken_CoalescedRefresh(t *testing.T) {
	f := newFixture(t, func(o *AuthServiceOptions) { o.CoalesceRefresh = true })
	_, refresh := f.seed(t, time.Minute, time.Hour)
	f.clock.Advance(2 * time.Minute)
	minted := f.issue(t, 3, 15*time.Minute)

	release := make(chan struct{})
	f.api.EXPECT().UpdateToken(gomock.Any(), refresh).DoAndReturn(
		func(context.Context, string) (string, error) {
			<-release
			return minted, nil
		}).Times(1)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := f.guard.EnsureAccessToken(context.Background())
			assert.NoError(t, err)
			results[i] = tok
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, minted, r)
	}
}

func TestGuard_IsAuthenticated(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.guard.IsAuthenticated())

	f.seed(t, time.Minute, time.Hour)
	assert.True(t, f.guard.IsAuthenticated())

	f.clock.Advance(30 * time.Minute)
	assert.True(t, f.guard.IsAuthenticated(), "refresh token alone still authenticates")

	f.clock.Advance(time.Hour)
	assert.False(t, f.guard.IsAuthenticated())
}

func TestGuard_IsAuthenticated_CachedUserIsNotProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveUser(ctx, "sid-1", testutil.NewUser().Build(), 0))

	assert.False(t, f.guard.IsAuthenticated())
	assert.Equal(t, domainauth.StateUnauthenticated, f.guard.State(ctx).Kind)
}

func TestGuard_State(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.NewUser().Build()

	f.seed(t, time.Minute, time.Hour)
	state := f.guard.State(ctx)
	assert.Equal(t, domainauth.StateAuthenticated, state.Kind)
	assert.Nil(t, state.User)

	require.NoError(t, f.store.SaveUser(ctx, "sid-1", user, time.Hour))
	state = f.guard.State(ctx)
	require.NotNil(t, state.User)
	assert.Equal(t, user, *state.User)

	f.clock.Advance(2 * time.Minute)
	state = f.guard.State(ctx)
	assert.Equal(t, domainauth.StateRefreshing, state.Kind)
	assert.True(t, state.IsAuthenticated())
}

func TestGuard_Login_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.NewUser().WithID("3").Build()
	access := f.issue(t, 3, 15*time.Minute)
	refresh := f.issue(t, 3, 24*time.Hour)

	// A previous episode left the flag set.
	_, err := f.store.MarkUnauthorized(ctx, "sid-1", time.Hour)
	require.NoError(t, err)

	f.api.EXPECT().Login(gomock.Any(), "ada@example.com", "secret").
		Return(domainauth.AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil)

	got, err := f.guard.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	pair := f.guard.scope.Credentials.Pair()
	assert.Equal(t, access, pair.Access)
	assert.Equal(t, refresh, pair.Refresh)

	cached, err := f.store.User(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, user, cached)

	first, err := f.store.MarkUnauthorized(ctx, "sid-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first, "login resets the one-shot flag")
	assert.Equal(t, int64(1), f.metrics.Get(MetricLogin))
}

func TestGuard_Login_Rejected(t *testing.T) {
	f := newFixture(t)

	f.api.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domainauth.AuthResult{}, backendErr("Invalid credentials"))

	_, err := f.guard.Login(context.Background(), "ada@example.com", "wrong")

	assert.Equal(t, apperrors.KindInvalidCredentials, apperrors.KindOf(err))
	assert.True(t, f.guard.scope.Credentials.Pair().Empty())
}

func TestGuard_Login_MissingInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.guard.Login(context.Background(), "  ", "secret")
	assert.Equal(t, apperrors.KindBadInputData, apperrors.KindOf(err))
}

func TestGuard_Login_MalformedTokens(t *testing.T) {
	f := newFixture(t)
	access := f.issue(t, 3, 15*time.Minute)

	f.api.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domainauth.AuthResult{AccessToken: access, RefreshToken: "garbage"}, nil)

	_, err := f.guard.Login(context.Background(), "ada@example.com", "secret")

	assert.Equal(t, apperrors.KindUnexpected, apperrors.KindOf(err))
	assert.True(t, f.guard.scope.Credentials.Pair().Empty())
}

func TestGuard_Register(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewUser().Build()

	f.api.EXPECT().Register(gomock.Any(), "new@example.com", "secret").Return(domainauth.AuthResult{
		User:         user,
		AccessToken:  f.issue(t, 1, 15*time.Minute),
		RefreshToken: f.issue(t, 1, time.Hour),
	}, nil)

	got, err := f.guard.Register(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.True(t, f.guard.IsAuthenticated())
}

func TestGuard_Register_Duplicate(t *testing.T) {
	f := newFixture(t)

	f.api.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domainauth.AuthResult{}, backendErr("User already exists"))

	_, err := f.guard.Register(context.Background(), "ada@example.com", "secret")
	assert.Equal(t, apperrors.KindEmailDuplicate, apperrors.KindOf(err))
}

func TestGuard_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, 15*time.Minute, time.Hour)
	require.NoError(t, f.store.SaveUser(ctx, "sid-1", testutil.NewUser().Build(), time.Hour))

	require.NoError(t, f.guard.Logout(ctx))

	assert.False(t, f.guard.IsAuthenticated())
	_, err := f.store.User(ctx, "sid-1")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, []string{"/sign-in"}, f.nav.Paths())

	require.NoError(t, f.guard.Logout(ctx))
	assert.False(t, f.guard.IsAuthenticated())
	assert.Equal(t, []string{"/sign-in", "/sign-in"}, f.nav.Paths())
}

func TestGuard_HandleUnauthorized_Burst(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 15*time.Minute, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	handled := 0
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := f.guard.HandleUnauthorized(context.Background())
			assert.NoError(t, err)
			if first {
				mu.Lock()
				handled++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, handled)
	assert.Equal(t, []string{"/sign-in"}, f.nav.Paths())
	assert.Equal(t, []domainauth.Notification{{Level: domainauth.LevelError, Message: "Unauthorized"}}, f.drain(t))
	assert.Equal(t, int64(1), f.metrics.Get(MetricLogout))
	assert.False(t, f.guard.IsAuthenticated())
}

func TestGuard_HandleUnauthorized_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.sessions = failingFlagStore{Store: f.store}

	handled, err := f.guard.HandleUnauthorized(context.Background())

	assert.False(t, handled)
	assert.Error(t, err)
	assert.Empty(t, f.nav.Paths())
}

type failingFlagStore struct {
	*memstore.Store
}

func (failingFlagStore) MarkUnauthorized(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestGuard_CurrentUser_FetchesAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	access, _ := f.seed(t, 15*time.Minute, time.Hour)
	user := testutil.NewUser().WithID("3").Build()

	f.api.EXPECT().UserAuthData(gomock.Any(), access, int32(3)).Return(user, nil).Times(1)

	got, err := f.guard.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, *got)

	again, err := f.guard.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, *again)
}

func TestGuard_CurrentUser_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	u, err := f.guard.CurrentUser(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestGuard_CurrentUser_UnauthorizedLogsOut(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 15*time.Minute, time.Hour)

	f.api.EXPECT().UserAuthData(gomock.Any(), gomock.Any(), int32(3)).
		Return(domainauth.User{}, backendErr("Unauthorized"))

	_, err := f.guard.CurrentUser(context.Background())

	assert.True(t, apperrors.IsUnauthorized(err))
	assert.False(t, f.guard.IsAuthenticated())
	assert.Equal(t, []string{"/sign-in"}, f.nav.Paths())
	assert.Len(t, f.drain(t), 1)
}

func TestGuard_CurrentUser_RefreshesFirst(t *testing.T) {
	f := newFixture(t)
	_, refresh := f.seed(t, time.Minute, time.Hour)
	f.clock.Advance(2 * time.Minute)
	minted := f.issue(t, 3, 15*time.Minute)
	user := testutil.NewUser().WithID("3").Build()

	gomock.InOrder(
		f.api.EXPECT().UpdateToken(gomock.Any(), refresh).Return(minted, nil),
		f.api.EXPECT().UserAuthData(gomock.Any(), minted, int32(3)).Return(user, nil),
	)

	got, err := f.guard.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", got.ID)
}
