package repository

import (
	"context"

	"github.com/abhijithm34/od-latest/internal/model"
	"gorm.io/gorm"
)

// StudentRepository 学生档案数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, studentID string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID string) (*model.Student, error)
	GetByRegisterNo(ctx context.Context, registerNo string) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	// CountByYearOfJoin 按入学年份统计学生人数
	CountByYearOfJoin(ctx context.Context) (map[int]int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, studentID string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("FacultyAdvisor").
		Where("student_id = ?", studentID).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("FacultyAdvisor").
		Where("user_id = ?", userID).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByRegisterNo(ctx context.Context, registerNo string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("FacultyAdvisor").
		Where("register_no = ?", registerNo).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Preload("FacultyAdvisor").
		Order("register_no ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) CountByYearOfJoin(ctx context.Context) (map[int]int64, error) {
	type row struct {
		YearOfJoin int
		Total      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Select("year_of_join, COUNT(*) AS total").
		Group("year_of_join").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(rows))
	for _, v := range rows {
		counts[v.YearOfJoin] = v.Total
	}
	return counts, nil
}
