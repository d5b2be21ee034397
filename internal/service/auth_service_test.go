package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/security"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/session"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/testutil"
)

var fastArgon2 = security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type countingHasher struct {
	*security.PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(password string, encodedHash []byte) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(password, encodedHash)
}

type failingBinder struct {
	bindErr   error
	unbindErr error
}

func (b failingBinder) Bind(context.Context, *models.Session, models.Identity) error {
	return b.bindErr
}

func (b failingBinder) Unbind(context.Context, *models.Session) error {
	return b.unbindErr
}

type authFixture struct {
	svc       *AuthService
	directory *testutil.MemoryDirectory
	hasher    *countingHasher
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	directory := testutil.NewMemoryDirectory()
	store, _ := testutil.NewSessionRepository(t)
	hasher := &countingHasher{PasswordHasher: security.NewPasswordHasher(fastArgon2)}
	binder := session.NewBinder(store, time.Hour, 24*time.Hour)

	svc := NewAuthService(directory, hasher, security.NewPasswordPolicy(8, security.DefaultSpecialChars), binder, zerolog.New(io.Discard))
	return authFixture{svc: svc, directory: directory, hasher: hasher}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	var sess models.Session

	user, err := f.svc.Register(ctx, &sess, RegisterInput{
		Email:       "  a@example.com ",
		Password:    "Secret1!",
		DisplayName: "Ada",
		FirstName:   "Ada",
		LastName:    "Lovelace",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, "Ada", user.DisplayName)
	assert.False(t, user.IsAdmin)

	current, err := f.svc.CurrentUser(&sess)
	require.NoError(t, err)
	assert.Equal(t, user, current)

	stored, err := f.directory.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", string(stored.PasswordHash))
	assert.True(t, f.hasher.Verify("Secret1!", stored.PasswordHash))
	assert.Equal(t, "Lovelace", stored.LastName)
}

func TestAuthService_Register_ValidationBeforeDirectory(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{name: "missing email", input: RegisterInput{Password: "Secret1!"}, wantErr: ErrInvalidInput},
		{name: "malformed email", input: RegisterInput{Email: "nope", Password: "Secret1!"}, wantErr: ErrInvalidInput},
		{name: "missing password", input: RegisterInput{Email: "a@example.com"}, wantErr: ErrInvalidInput},
		{name: "no special character", input: RegisterInput{Email: "a@example.com", Password: "Aa1aaaaa"}, wantErr: ErrWeakPassword},
		{name: "too short", input: RegisterInput{Email: "a@example.com", Password: "Aa1!aaa"}, wantErr: ErrWeakPassword},
		{
			name: "display name too long",
			input: RegisterInput{
				Email:       "a@example.com",
				Password:    "Secret1!",
				DisplayName: string(make([]rune, maxProfileFieldLen+1)),
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			f.directory.FindErr = errors.New("directory must not be called")
			var sess models.Session

			_, err := f.svc.Register(context.Background(), &sess, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, sess.Bound())
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	var first models.Session
	original, err := f.svc.Register(ctx, &first, RegisterInput{Email: "a@example.com", Password: "Secret1!", DisplayName: "First"})
	require.NoError(t, err)

	var second models.Session
	_, err = f.svc.Register(ctx, &second, RegisterInput{Email: "a@example.com", Password: "Other22#", DisplayName: "Second"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.False(t, second.Bound())

	stored, err := f.directory.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, original.ID, stored.ID)
	assert.Equal(t, "First", stored.DisplayName)
	assert.True(t, f.hasher.Verify("Secret1!", stored.PasswordHash))
}

func TestAuthService_Register_ConstraintIsAuthoritative(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// Another request inserts the same email between the pre-check and ours.
	f.directory.BeforeInsert = func(in models.NewIdentity) {
		f.directory.BeforeInsert = nil
		f.directory.Put(models.Identity{ID: "winner", Email: in.Email, PasswordHash: []byte("x")})
	}

	var sess models.Session
	_, err := f.svc.Register(ctx, &sess, RegisterInput{Email: "race@example.com", Password: "Secret1!"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.False(t, sess.Bound())

	stored, err := f.directory.FindByEmail(ctx, "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, "winner", stored.ID)
}

func TestAuthService_Register_ConcurrentSameEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	const callers = 8
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var sess models.Session
			_, err := f.svc.Register(ctx, &sess, RegisterInput{Email: "same@example.com", Password: "Secret1!"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrEmailExists)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.directory.Len())
}

func TestAuthService_Register_InfrastructureFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.directory.FindErr = errors.New("dial tcp 10.0.0.5:5432: connection refused")

	var sess models.Session
	_, err := f.svc.Register(context.Background(), &sess, RegisterInput{Email: "a@example.com", Password: "Secret1!"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotContains(t, err.Error(), "10.0.0.5")
}

func TestAuthService_Register_BindFailure(t *testing.T) {
	directory := testutil.NewMemoryDirectory()
	svc := NewAuthService(directory, security.NewPasswordHasher(fastArgon2), security.NewPasswordPolicy(8, ""),
		failingBinder{bindErr: errors.New("redis down")}, zerolog.New(io.Discard))

	var sess models.Session
	_, err := svc.Register(context.Background(), &sess, RegisterInput{Email: "a@example.com", Password: "Secret1!"})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	var regSession models.Session
	registered, err := f.svc.Register(ctx, &regSession, RegisterInput{Email: "a@example.com", Password: "Secret1!"})
	require.NoError(t, err)

	var sess models.Session
	user, err := f.svc.Login(ctx, &sess, LoginInput{Email: "a@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Equal(t, registered, user)

	current, err := f.svc.CurrentUser(&sess)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, current.ID)
	assert.Equal(t, registered.Email, current.Email)
}

func TestAuthService_Login_ReloginReplacesBinding(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	var seed models.Session
	_, err := f.svc.Register(ctx, &seed, RegisterInput{Email: "a@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, &seed, RegisterInput{Email: "b@example.com", Password: "Secret1!"})
	require.NoError(t, err)

	var sess models.Session
	_, err = f.svc.Login(ctx, &sess, LoginInput{Email: "a@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	firstID := sess.ID

	user, err := f.svc.Login(ctx, &sess, LoginInput{Email: "b@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	assert.NotEqual(t, firstID, sess.ID)
	assert.Equal(t, "b@example.com", user.Email)
	assert.Equal(t, "b@example.com", sess.Identity.Email)
}

func TestAuthService_Login_MissingCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.directory.FindErr = errors.New("directory must not be called")

	for _, input := range []LoginInput{
		{},
		{Email: "a@example.com"},
		{Password: "Secret1!"},
		{Email: "   ", Password: "Secret1!"},
	} {
		var sess models.Session
		_, err := f.svc.Login(context.Background(), &sess, input)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	}
}

func TestAuthService_Login_DoesNotRevealWhichCredentialFailed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	var seed models.Session
	_, err := f.svc.Register(ctx, &seed, RegisterInput{Email: "a@example.com", Password: "Secret1!"})
	require.NoError(t, err)

	var sess models.Session
	f.hasher.verifies = 0
	_, wrongPassword := f.svc.Login(ctx, &sess, LoginInput{Email: "a@example.com", Password: "Wrong1!"})
	_, unknownEmail := f.svc.Login(ctx, &sess, LoginInput{Email: "ghost@example.com", Password: "Secret1!"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, 2, f.hasher.verifies, "unknown email must still cost one verification")
	assert.False(t, sess.Bound())
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	var sess models.Session
	_, err := f.svc.Register(ctx, &sess, RegisterInput{Email: "a@example.com", Password: "Secret1!"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, &sess))
	require.NoError(t, f.svc.Logout(ctx, &sess))

	_, err = f.svc.CurrentUser(&sess)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAuthService_Logout_StoreFailure(t *testing.T) {
	svc := NewAuthService(testutil.NewMemoryDirectory(), security.NewPasswordHasher(fastArgon2), security.NewPasswordPolicy(8, ""),
		failingBinder{unbindErr: session.ErrSessionDestroyFailed}, zerolog.New(io.Discard))

	err := svc.Logout(context.Background(), &models.Session{ID: "s1", Identity: &models.Projection{ID: "u1"}})
	assert.ErrorIs(t, err, ErrLogoutFailed)
}

func TestAuthService_CurrentUser_Unbound(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.CurrentUser(&models.Session{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = f.svc.CurrentUser(nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
