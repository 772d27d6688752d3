package dto

// ── 学生模块 DTO ──

// CreateStudentRequest 管理员创建学生档案（连带登录账号）
type CreateStudentRequest struct {
	Name             string `json:"name"               binding:"required,min=2,max=100"`
	Email            string `json:"email"              binding:"required,email"`
	Password         string `json:"password"           binding:"required,min=6,max=64"`
	RegisterNo       string `json:"register_no"        binding:"required,max=20"`
	YearOfJoin       int    `json:"year_of_join"       binding:"required,min=2000,max=2100"`
	Department       string `json:"department"         binding:"omitempty,max=50"`
	FacultyAdvisorID string `json:"faculty_advisor_id" binding:"required,uuid"`
}

// StudentResponse 学生档案
type StudentResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	RegisterNo         string `json:"register_no"`
	YearOfJoin         int    `json:"year_of_join"`
	CurrentYear        string `json:"current_year"`
	Department         string `json:"department"`
	FacultyAdvisorID   string `json:"faculty_advisor_id"`
	FacultyAdvisorName string `json:"faculty_advisor_name,omitempty"`
}

// StudentYearStat 按年级聚合的学生数
type StudentYearStat struct {
	Year  string `json:"year"`
	Count int64  `json:"count"`
}
