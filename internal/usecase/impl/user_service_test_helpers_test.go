package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"planp/config"
	"planp/internal/domain/entity"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/repository"
	"planp/internal/domain/service"
	"planp/internal/infra/auth"
	"planp/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(maxActiveSessions int) *config.Config {
	cfg := &config.Config{
		JWT: &config.JWTConfig{
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Auth: &config.AuthConfig{
			BcryptCost:        bcrypt.MinCost,
			MaxActiveSessions: maxActiveSessions,
			MinPasswordScore:  40,
		},
	}
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"

	return cfg
}

// memoryStore backs the in-memory repositories; one store plays the role of the database.
type memoryStore struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	auths  map[string]*entity.Authentication
	tokens map[string]*entity.RefreshToken
	// failCreate makes the next user insert fail with the given error.
	failCreate error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:  make(map[string]*entity.User),
		auths:  make(map[string]*entity.Authentication),
		tokens: make(map[string]*entity.RefreshToken),
	}
}

type memoryUserRepo struct{ s *memoryStore }

func (r *memoryUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failCreate; err != nil {
		r.s.failCreate = nil

		return err
	}
	if _, ok := r.s.users[user.UserID]; ok {
		return domainerrors.ErrUserIDAlreadyExists.WrapMessage("user id already exists")
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domainerrors.ErrEmailAlreadyExists.WrapMessage("email already exists")
		}
	}
	user.CreatedAt = time.Now()
	stored := *user
	r.s.users[user.UserID] = &stored

	return nil
}

func (r *memoryUserRepo) FindByUserID(_ context.Context, userID string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[userID]; ok {
		found := *u

		return &found, nil
	}

	return nil, repository.ErrUserNotFound
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			found := *u

			return &found, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memoryUserRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	_, err := r.FindByUserID(ctx, userID)

	return err == nil, nil
}

func (r *memoryUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)

	return err == nil, nil
}

func (r *memoryUserRepo) AcquireSessionMutex(ctx context.Context, userID string) error {
	_, err := r.FindByUserID(ctx, userID)

	return err
}

func (r *memoryUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash

	return nil
}

func (r *memoryUserRepo) Count(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return int64(len(r.s.users)), nil
}

func (r *memoryUserRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.s.users, userID)
	for hash, token := range r.s.tokens {
		if token.UserID == userID {
			delete(r.s.tokens, hash)
		}
	}
	for key, link := range r.s.auths {
		if link.UserID == userID {
			delete(r.s.auths, key)
		}
	}

	return nil
}

func (r *memoryUserRepo) DeleteAll(context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.users = make(map[string]*entity.User)

	return nil
}

type memoryAuthRepo struct{ s *memoryStore }

func authKey(provider entity.ProviderType, providerUserID string) string {
	return provider.String() + ":" + providerUserID
}

func (r *memoryAuthRepo) CreateAuthentication(_ context.Context, link *entity.Authentication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	link.ID = uuid.New()
	stored := *link
	r.s.auths[authKey(link.Provider, link.ProviderUserID)] = &stored

	return nil
}

func (r *memoryAuthRepo) FindAuthentication(_ context.Context, provider entity.ProviderType, providerUserID string) (*entity.Authentication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if link, ok := r.s.auths[authKey(provider, providerUserID)]; ok {
		found := *link

		return &found, nil
	}

	return nil, repository.ErrAuthNotFound
}

func (r *memoryAuthRepo) ListAuthenticationsByUserID(_ context.Context, userID string) ([]*entity.Authentication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var links []*entity.Authentication
	for _, link := range r.s.auths {
		if link.UserID == userID {
			found := *link
			links = append(links, &found)
		}
	}

	return links, nil
}

type memoryRefreshTokenRepo struct{ s *memoryStore }

func (r *memoryRefreshTokenRepo) CreateRefreshToken(_ context.Context, token *entity.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token.ID = uuid.New()
	stored := *token
	r.s.tokens[token.TokenHash] = &stored

	return nil
}

func (r *memoryRefreshTokenRepo) FindRefreshTokenByHash(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if token, ok := r.s.tokens[tokenHash]; ok {
		found := *token

		return &found, nil
	}

	return nil, repository.ErrRefreshTokenNotFound
}

func (r *memoryRefreshTokenRepo) DeleteRefreshTokenByHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[tokenHash]; !ok {
		return repository.ErrRefreshTokenNotFound
	}
	delete(r.s.tokens, tokenHash)

	return nil
}

func (r *memoryRefreshTokenRepo) DeleteRefreshTokensByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for hash, token := range r.s.tokens {
		if token.UserID == userID {
			delete(r.s.tokens, hash)
		}
	}

	return nil
}

func (r *memoryRefreshTokenRepo) DeleteExpiredRefreshTokens(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	now := time.Now()
	for hash, token := range r.s.tokens {
		if token.IsExpired(now) {
			delete(r.s.tokens, hash)
			deleted++
		}
	}

	return deleted, nil
}

func (r *memoryRefreshTokenRepo) CountActiveSessionsByUserID(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	now := time.Now()
	for _, token := range r.s.tokens {
		if token.UserID == userID && !token.IsExpired(now) {
			count++
		}
	}

	return count, nil
}

// memoryTxManager runs fn against the shared store; no rollback is simulated.
type memoryTxManager struct{ s *memoryStore }

func (tm *memoryTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(tm)
}

func (tm *memoryTxManager) NewUserRepository() repository.UserRepository {
	return &memoryUserRepo{s: tm.s}
}

func (tm *memoryTxManager) NewAuthRepository() repository.AuthRepository {
	return &memoryAuthRepo{s: tm.s}
}

func (tm *memoryTxManager) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return &memoryRefreshTokenRepo{s: tm.s}
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishUserEvent(ctx context.Context, event *entity.UserEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventPublisher) Close() error {
	return m.Called().Error(0)
}

type fakeOAuthService struct {
	user *service.OAuthUser
	err  error
}

func (f *fakeOAuthService) VerifyIDToken(context.Context, string) (*service.OAuthUser, error) {
	return f.user, f.err
}

func (f *fakeOAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

// countingHasher records how many password comparisons were made.
type countingHasher struct {
	service.PasswordHasher
	checks atomic.Int32
}

func (h *countingHasher) Check(password, hash string) bool {
	h.checks.Add(1)

	return h.PasswordHasher.Check(password, hash)
}

type testEnv struct {
	store     *memoryStore
	svc       usecase.UserUsecase
	hasher    *countingHasher
	tokens    service.TokenService
	oauth     *fakeOAuthService
	publisher *mockEventPublisher
}

func newTestEnv(maxActiveSessions int) *testEnv {
	cfg := newTestConfig(maxActiveSessions)
	store := newMemoryStore()
	tokens, err := auth.NewJWTService(cfg)
	if err != nil {
		panic(err)
	}

	publisher := &mockEventPublisher{}
	publisher.On("PublishUserEvent", mock.Anything, mock.Anything).Return(nil).Maybe()

	env := &testEnv{
		store:     store,
		hasher:    &countingHasher{PasswordHasher: auth.NewBcryptHasher(cfg)},
		tokens:    tokens,
		oauth:     &fakeOAuthService{},
		publisher: publisher,
	}
	env.svc = NewUserService(UserServiceParams{
		TxManager:         &memoryTxManager{s: store},
		UserRepo:          &memoryUserRepo{s: store},
		RefreshTokenRepo:  &memoryRefreshTokenRepo{s: store},
		Hasher:            env.hasher,
		TokenService:      tokens,
		GoogleAuthService: env.oauth,
		Publisher:         publisher,
		Config:            cfg,
		Logger:            newDiscardLogger(),
	})

	return env
}

func (env *testEnv) publishedTypes() []entity.UserEventType {
	var types []entity.UserEventType
	for _, call := range env.publisher.Calls {
		if call.Method == "PublishUserEvent" {
			types = append(types, call.Arguments.Get(1).(*entity.UserEvent).Type)
		}
	}

	return types
}
