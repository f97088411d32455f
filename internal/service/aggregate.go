package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
)

// AlumniExportHeaders is the fixed column order of the alumni export.
var AlumniExportHeaders = []string{"Nama", "NIM", "Jurusan", "Prodi", "Tahun Lulus", "Status", "Email", "No HP"}

const (
	unknownIndustry = "Lainnya"
	notResponded    = "Belum Mengisi"
)

// CurrentCareers picks the current career of every master that has one.
func CurrentCareers(careers []models.CareerRecord) map[string]*models.CareerRecord {
	byMaster := make(map[string][]models.CareerRecord)
	for _, c := range careers {
		byMaster[c.MasterID] = append(byMaster[c.MasterID], c)
	}
	out := make(map[string]*models.CareerRecord, len(byMaster))
	for id, records := range byMaster {
		out[id] = models.CurrentCareer(records)
	}
	return out
}

// CountByStatus counts masters by the status of their current career. Every
// status is present, in display order.
func CountByStatus(masters []models.MasterRecord, current map[string]*models.CareerRecord) []dto.StatusCount {
	counts := make(map[models.CareerStatus]int, len(models.CareerStatuses))
	for _, m := range masters {
		if c, ok := current[m.ID]; ok {
			counts[c.Status]++
		}
	}
	out := make([]dto.StatusCount, 0, len(models.CareerStatuses))
	for _, s := range models.CareerStatuses {
		out = append(out, dto.StatusCount{Status: s, Label: s.Label(), Count: counts[s]})
	}
	return out
}

// TopIndustries returns the n most common industries among working masters,
// ties broken by name. n <= 0 returns every industry.
func TopIndustries(masters []models.MasterRecord, current map[string]*models.CareerRecord, n int) []dto.IndustryCount {
	counts := make(map[string]int)
	labels := make(map[string]string)
	for _, m := range masters {
		c, ok := current[m.ID]
		if !ok || c.Status != models.CareerWorking {
			continue
		}
		industry := c.Industry()
		if industry == "" {
			industry = unknownIndustry
		}
		key := strings.ToLower(industry)
		if _, seen := labels[key]; !seen {
			labels[key] = industry
		}
		counts[key]++
	}
	out := make([]dto.IndustryCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, dto.IndustryCount{Industry: labels[key], Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Industry < out[j].Industry
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TrendByYear groups masters by graduation year, ascending. Masters without
// a graduation year are skipped.
func TrendByYear(masters []models.MasterRecord, current map[string]*models.CareerRecord) []dto.YearTrend {
	byYear := make(map[int]*dto.YearTrend)
	for _, m := range masters {
		if m.GraduationYear == nil {
			continue
		}
		year := *m.GraduationYear
		trend, ok := byYear[year]
		if !ok {
			trend = &dto.YearTrend{Year: year, ByStatus: make(map[models.CareerStatus]int)}
			byYear[year] = trend
		}
		trend.Total++
		if c, ok := current[m.ID]; ok {
			trend.ByStatus[c.Status]++
		}
	}
	out := make([]dto.YearTrend, 0, len(byYear))
	for _, t := range byYear {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// CountByProgram groups masters by study program, largest first.
func CountByProgram(masters []models.MasterRecord) []dto.ProgramCount {
	counts := make(map[string]int)
	for _, m := range masters {
		counts[m.Program]++
	}
	out := make([]dto.ProgramCount, 0, len(counts))
	for program, count := range counts {
		out = append(out, dto.ProgramCount{Program: program, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Program < out[j].Program
	})
	return out
}

// AlumniRows projects masters onto the export columns.
func AlumniRows(masters []models.MasterRecord, current map[string]*models.CareerRecord) [][]string {
	rows := make([][]string, 0, len(masters))
	for _, m := range masters {
		year := ""
		if m.GraduationYear != nil {
			year = strconv.Itoa(*m.GraduationYear)
		}
		status := notResponded
		if c, ok := current[m.ID]; ok {
			status = c.Status.Label()
		}
		rows = append(rows, []string{m.FullName, m.NIM, m.Department, m.Program, year, status, m.Email, m.Phone})
	}
	return rows
}
