package repository

import (
	"context"

	"github.com/abhijithm34/od-latest/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByIDs(ctx context.Context, userIDs []string) ([]model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	// FindHOD 返回系主任账户，不存在时返回 gorm.ErrRecordNotFound
	FindHOD(ctx context.Context) (*model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	var users []model.User
	if len(userIDs) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&users).Error
	return users, err
}

func (r *userRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("name ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) FindHOD(ctx context.Context) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("role = ?", model.RoleHOD).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
