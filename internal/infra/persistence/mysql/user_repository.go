package mysql

import (
	"context"

	"planp/internal/domain/entity"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/repository"
	"planp/internal/errors"
	"planp/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements repository.UserRepository using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row. Unique-key violations are mapped to the
// matching duplicate error so a lost race still yields a specific message.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if key, ok := duplicateKey(err); ok {
			switch key {
			case usersEmailUniqueKey:
				return domainerrors.ErrEmailAlreadyExists.WrapMessage("email already exists")
			case primaryKeyName, "":
				return domainerrors.ErrUserIDAlreadyExists.WrapMessage("user id already exists")
			}
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt

	return nil
}

// FindByUserID retrieves a single user by login ID.
func (repo *userRepository) FindByUserID(ctx context.Context, userID string) (*entity.User, error) {
	return repo.findOne(ctx, "user_id = ?", userID)
}

// FindByEmail retrieves a single user by email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "email = ?", email)
}

func (repo *userRepository) findOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where(query, arg).Take(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return toUserDomain(&userM), nil
}

// ExistsByUserID reports whether a user with the login ID exists.
func (repo *userRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	return repo.exists(ctx, "user_id = ?", userID)
}

// ExistsByEmail reports whether a user with the email exists.
func (repo *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return repo.exists(ctx, "email = ?", email)
}

func (repo *userRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.UserModel{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check user existence")
	}

	return count > 0, nil
}

// AcquireSessionMutex takes a row lock (SELECT ... FOR UPDATE) on the user.
func (repo *userRepository) AcquireSessionMutex(ctx context.Context, userID string) error {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("user_id").
		Where("user_id = ?", userID).
		Take(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to lock user row")
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (repo *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("user_id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update password")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// Count returns the number of stored users.
func (repo *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.UserModel{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}

	return count, nil
}

// DeleteByUserID removes a single user; sessions and provider links go with it through ON DELETE CASCADE.
func (repo *userRepository) DeleteByUserID(ctx context.Context, userID string) error {
	result := repo.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// DeleteAll removes every user.
func (repo *userRepository) DeleteAll(ctx context.Context) error {
	err := repo.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.UserModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete users")
	}

	return nil
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		UserID:       data.UserID,
		PasswordHash: data.PasswordHash,
		Name:         data.Name,
		Email:        data.Email,
		Active:       data.Active,
		CreatedAt:    data.CreatedAt,
	}
}

func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		UserID:       data.UserID,
		PasswordHash: data.PasswordHash,
		Name:         data.Name,
		Email:        data.Email,
		Active:       data.Active,
		CreatedAt:    data.CreatedAt,
	}
}
