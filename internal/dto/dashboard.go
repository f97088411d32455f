package dto

import (
	"time"

	"github.com/noah-isme/sipal-api/internal/models"
)

// StatusCount is the number of alumni whose current career has Status.
type StatusCount struct {
	Status models.CareerStatus `json:"status"`
	Label  string              `json:"label"`
	Count  int                 `json:"count"`
}

// IndustryCount groups working alumni by industry sector.
type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int    `json:"count"`
}

// YearTrend is the per-graduation-year status breakdown.
type YearTrend struct {
	Year     int                         `json:"year"`
	Total    int                         `json:"total"`
	ByStatus map[models.CareerStatus]int `json:"byStatus"`
}

// ProgramCount groups alumni by study program.
type ProgramCount struct {
	Program string `json:"program"`
	Count   int    `json:"count"`
}

// AdminDashboardResponse is the admin overview.
type AdminDashboardResponse struct {
	Filter        models.AlumniFilter     `json:"filter"`
	TotalAlumni   int                     `json:"totalAlumni"`
	Responded     int                     `json:"responded"`
	ResponseRate  float64                 `json:"responseRate"`
	ByStatus      []StatusCount           `json:"byStatus"`
	TopIndustries []IndustryCount         `json:"topIndustries"`
	TrendByYear   []YearTrend             `json:"trendByYear"`
	ByProgram     []ProgramCount          `json:"byProgram"`
	Achievements  models.AchievementStats `json:"achievements"`
	GeneratedAt   time.Time               `json:"generatedAt"`
}

// AlumniDashboardResponse is the personal dashboard of the selected alumnus.
type AlumniDashboardResponse struct {
	Master            models.MasterRecord        `json:"master"`
	CurrentCareer     *models.CareerRecord       `json:"currentCareer"`
	Careers           []models.CareerRecord      `json:"careers"`
	AchievementStats  models.AchievementStats    `json:"achievementStats"`
	TotalAchievements int                        `json:"totalAchievements"`
	Featured          []models.AchievementRecord `json:"featured"`
}
