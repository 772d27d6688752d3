package model

import (
	"fmt"
	"time"
)

// Student 学生档案表 — 对应 students
// 与 users 表分离：OD 申请引用学生档案而非登录账号
type Student struct {
	StudentID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	UserID           string `gorm:"type:uuid;not null"                             json:"user_id"`
	Name             string `gorm:"type:varchar(100);not null"                     json:"name"`
	RegisterNo       string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"register_no"`
	YearOfJoin       int    `gorm:"not null"                                       json:"year_of_join"`
	Department       string `gorm:"type:varchar(50);not null;default:'CSE'"        json:"department"`
	FacultyAdvisorID string `gorm:"type:uuid;not null"                             json:"faculty_advisor_id"`
	BaseModel

	// 关联
	User           *User `gorm:"foreignKey:UserID;references:UserID"           json:"user,omitempty"`
	FacultyAdvisor *User `gorm:"foreignKey:FacultyAdvisorID;references:UserID" json:"faculty_advisor,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// CurrentYear 按入学年份推算当前年级（"1st" ~ "4th"）
// 学年以 7 月为界：7 月前仍算上一学年
func (s *Student) CurrentYear(now time.Time) string {
	return CurrentYearOf(s.YearOfJoin, now)
}

// CurrentYearOf 年级推算的独立入口，供统计聚合复用
func CurrentYearOf(yearOfJoin int, now time.Time) string {
	years := now.Year() - yearOfJoin
	if int(now.Month()) < 7 {
		years--
	}

	year := years + 1
	if year < 1 {
		year = 1
	}
	if year > 4 {
		year = 4
	}

	suffixes := []string{"", "st", "nd", "rd", "th"}
	return fmt.Sprintf("%d%s", year, suffixes[year])
}
