package services

import (
	"context"
	"testing"
	"time"

	"pickem-go/database"
	"pickem-go/models"

	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) DeleteUser(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func newTestAuth(repo UserRepository) (*AuthService, *clock.Mock) {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 4, 18, 16, 0, 0, 0, time.UTC))
	return NewAuthService(repo, "test-secret", time.Hour, []string{"mario"}, clk), clk
}

func TestAuthService_SignupMakesConfiguredAdmins(t *testing.T) {
	ctx := context.Background()
	repo := &mockUserRepository{}
	auth, _ := newTestAuth(repo)

	repo.On("GetUserByUsername", ctx, "mario").Return(nil, nil)
	repo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "mario" && u.IsAdmin && u.CheckPassword("99coins")
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 7
	}).Return(nil)

	resp, err := auth.Signup(ctx, models.SignupRequest{Username: "mario", Password: "99coins"})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.User.ID)
	assert.Empty(t, resp.User.Password)
	assert.NotEmpty(t, resp.Token)
	repo.AssertExpectations(t)
}

func TestAuthService_SignupRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	repo := &mockUserRepository{}
	auth, _ := newTestAuth(repo)

	repo.On("GetUserByUsername", ctx, "luigi").Return(&models.User{ID: 2, Username: "luigi"}, nil).Once()
	_, err := auth.Signup(ctx, models.SignupRequest{Username: "luigi", Password: "mansion5"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// lost a race with another signup
	repo.On("GetUserByUsername", ctx, "luigi").Return(nil, nil).Once()
	repo.On("CreateUser", ctx, mock.Anything).Return(database.ErrDuplicate).Once()
	_, err = auth.Signup(ctx, models.SignupRequest{Username: "luigi", Password: "mansion5"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	repo := &mockUserRepository{}
	auth, _ := newTestAuth(repo)

	user := &models.User{ID: 3, Username: "peach"}
	require.NoError(t, user.HashPassword("castle"))
	repo.On("GetUserByUsername", ctx, "peach").Return(user, nil)
	repo.On("GetUserByUsername", ctx, "bowser").Return(nil, nil)

	resp, err := auth.Login(ctx, models.LoginRequest{Username: "peach", Password: "castle"})
	require.NoError(t, err)
	assert.Equal(t, "peach", resp.User.Username)

	_, err = auth.Login(ctx, models.LoginRequest{Username: "peach", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, models.LoginRequest{Username: "bowser", Password: "castle"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := &mockUserRepository{}
	auth, clk := newTestAuth(repo)

	user := &models.User{ID: 3, Username: "peach"}
	repo.On("GetUserByID", ctx, 3).Return(user, nil)

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.UserID)
	assert.Equal(t, "pickem-go", claims.Issuer)

	got, err := auth.GetUserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	clk.Add(2 * time.Hour)
	_, err = auth.ValidateToken(token)
	assert.Error(t, err, "expired")

	other := NewAuthService(repo, "another-secret", time.Hour, nil, clk)
	forged, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, err = auth.ValidateToken(forged)
	assert.Error(t, err)
}

func TestAuthService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	repo := &mockUserRepository{}
	auth, _ := newTestAuth(repo)

	repo.On("GetUserByID", ctx, 3).Return(&models.User{ID: 3, Username: "peach"}, nil)
	repo.On("DeleteUser", ctx, 3).Return(nil)
	repo.On("GetUserByID", ctx, 99).Return(nil, nil)

	require.NoError(t, auth.DeleteAccount(ctx, 3))
	assert.ErrorIs(t, auth.DeleteAccount(ctx, 99), ErrNotFound)
	repo.AssertCalled(t, "DeleteUser", ctx, 3)
	repo.AssertNotCalled(t, "DeleteUser", ctx, 99)
}

func TestUserSeeder_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	seeder := NewUserSeeder(store)

	require.NoError(t, seeder.SeedUsers(ctx, DefaultDevUsers))
	require.NoError(t, seeder.SeedUsers(ctx, DefaultDevUsers))

	users, err := store.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "luigi", users[0].Username)
	assert.True(t, users[1].IsAdmin)
	assert.True(t, users[1].CheckPassword("99coins"))
}
