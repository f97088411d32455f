// Package seed loads demo and migration fixtures from YAML into the stores.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sipal-api/internal/models"
)

// File is the YAML document layout. Careers and achievements nest under
// their master; evaluations reference a master by NIM.
type File struct {
	Masters     []Master     `yaml:"masters"`
	Evaluations []Evaluation `yaml:"evaluations"`
}

type Master struct {
	FullName       string        `yaml:"fullName"`
	NIM            string        `yaml:"nim"`
	Department     string        `yaml:"department"`
	Program        string        `yaml:"program"`
	EntryYear      int           `yaml:"entryYear"`
	GraduationYear *int          `yaml:"graduationYear"`
	Status         string        `yaml:"status"`
	Email          string        `yaml:"email"`
	Phone          string        `yaml:"phone"`
	Careers        []Career      `yaml:"careers"`
	Achievements   []Achievement `yaml:"achievements"`
}

type Career struct {
	Status     string                 `yaml:"status"`
	RecordYear int                    `yaml:"recordYear"`
	IsCurrent  bool                   `yaml:"isCurrent"`
	Detail     map[string]interface{} `yaml:"detail"`
}

type Achievement struct {
	Category string                 `yaml:"category"`
	Featured bool                   `yaml:"featured"`
	Detail   map[string]interface{} `yaml:"detail"`
}

type Evaluation struct {
	StudentNIM        string         `yaml:"studentNim"`
	EvaluatorName     string         `yaml:"evaluatorName"`
	EvaluatorPosition string         `yaml:"evaluatorPosition"`
	EvaluatorEmail    string         `yaml:"evaluatorEmail"`
	CompanyName       string         `yaml:"companyName"`
	Ratings           models.Ratings `yaml:"ratings"`
	Feedback          string         `yaml:"feedback"`
}

// Problem is one invalid value in a seed file.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string { return p.Path + ": " + p.Message }

// ValidationError lists every problem found in a seed file.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.String()
	}
	return fmt.Sprintf("seed has %d problem(s): %s", len(e.Problems), strings.Join(lines, "; "))
}

// Entry is a validated master with its dependents. Dependents carry an empty
// MasterID until Apply assigns one.
type Entry struct {
	Master       models.MasterRecord
	Careers      []models.CareerRecord
	Achievements []models.AchievementRecord
}

// Dataset is a validated seed ready to apply.
type Dataset struct {
	Entries     []Entry
	Evaluations []PendingEvaluation
}

// PendingEvaluation waits for its master to be stored.
type PendingEvaluation struct {
	StudentNIM string
	Submission models.EvaluationSubmission
}

// Load reads and validates the seed at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML from r. Unknown keys are rejected.
func Parse(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return file.Build()
}

// Build converts the document into models and validates it with the same
// rules the services apply.
func (f File) Build() (*Dataset, error) {
	var problems []Problem
	report := func(path string, errs models.FieldErrors) {
		for _, field := range errs.Fields() {
			problems = append(problems, Problem{Path: path + "." + field, Message: errs[field]})
		}
	}

	ds := &Dataset{}
	byNIM := make(map[string]string, len(f.Masters))
	for i, m := range f.Masters {
		path := fmt.Sprintf("masters[%d]", i)
		entry := Entry{Master: models.MasterRecord{
			FullName:       strings.TrimSpace(m.FullName),
			NIM:            strings.TrimSpace(m.NIM),
			Department:     strings.TrimSpace(m.Department),
			Program:        strings.TrimSpace(m.Program),
			EntryYear:      m.EntryYear,
			GraduationYear: m.GraduationYear,
			Status:         models.MasterStatus(m.Status),
			Email:          strings.TrimSpace(m.Email),
			Phone:          strings.TrimSpace(m.Phone),
		}}
		report(path, entry.Master.Validate())
		if first, dup := byNIM[entry.Master.NIM]; dup && entry.Master.NIM != "" {
			problems = append(problems, Problem{Path: path + ".nim", Message: "duplicate nim, first used by " + first})
		} else {
			byNIM[entry.Master.NIM] = path
		}

		current := 0
		for j, c := range m.Careers {
			cpath := fmt.Sprintf("%s.careers[%d]", path, j)
			record, err := buildCareer(c)
			if err != nil {
				problems = append(problems, Problem{Path: cpath + ".detail", Message: err.Error()})
				continue
			}
			record.MasterID = entry.Master.NIM
			report(cpath, record.Validate())
			record.MasterID = ""
			if record.IsCurrent {
				current++
			}
			entry.Careers = append(entry.Careers, *record)
		}
		if current > 1 {
			problems = append(problems, Problem{Path: path + ".careers", Message: "at most one career may be current"})
		}

		for j, a := range m.Achievements {
			apath := fmt.Sprintf("%s.achievements[%d]", path, j)
			record, err := buildAchievement(a)
			if err != nil {
				problems = append(problems, Problem{Path: apath + ".detail", Message: err.Error()})
				continue
			}
			record.MasterID = entry.Master.NIM
			report(apath, record.Validate())
			record.MasterID = ""
			entry.Achievements = append(entry.Achievements, *record)
		}
		ds.Entries = append(ds.Entries, entry)
	}

	for i, e := range f.Evaluations {
		path := fmt.Sprintf("evaluations[%d]", i)
		if _, ok := byNIM[e.StudentNIM]; !ok {
			problems = append(problems, Problem{Path: path + ".studentNim", Message: "no master with nim " + e.StudentNIM})
		}
		report(path, validateEvaluation(e))
		ds.Evaluations = append(ds.Evaluations, PendingEvaluation{
			StudentNIM: e.StudentNIM,
			Submission: models.EvaluationSubmission{
				EvaluatorName:     e.EvaluatorName,
				EvaluatorPosition: e.EvaluatorPosition,
				EvaluatorEmail:    strings.ToLower(strings.TrimSpace(e.EvaluatorEmail)),
				CompanyName:       e.CompanyName,
				Ratings:           e.Ratings,
				Feedback:          e.Feedback,
			},
		})
	}

	if len(problems) > 0 {
		sort.SliceStable(problems, func(i, j int) bool { return problems[i].Path < problems[j].Path })
		return nil, &ValidationError{Problems: problems}
	}
	return ds, nil
}

func buildCareer(c Career) (*models.CareerRecord, error) {
	status := models.CareerStatus(c.Status)
	record := &models.CareerRecord{Status: status, RecordYear: c.RecordYear, IsCurrent: c.IsCurrent}
	if !status.Valid() {
		return record, nil
	}
	raw, err := json.Marshal(c.Detail)
	if err != nil {
		return nil, err
	}
	detail, err := models.DecodeCareerDetail(status, raw)
	if err != nil {
		return nil, err
	}
	record.Detail = detail
	return record, nil
}

func buildAchievement(a Achievement) (*models.AchievementRecord, error) {
	category := models.AchievementCategory(a.Category)
	record := &models.AchievementRecord{Category: category, Featured: a.Featured, Attachments: models.Attachments{}}
	if !category.Valid() {
		return record, nil
	}
	raw, err := json.Marshal(a.Detail)
	if err != nil {
		return nil, err
	}
	detail, err := models.DecodeAchievementDetail(category, raw)
	if err != nil {
		return nil, err
	}
	record.Detail = detail
	return record, nil
}

func validateEvaluation(e Evaluation) models.FieldErrors {
	errs := models.FieldErrors{}
	for field, value := range map[string]string{
		"evaluatorName":     e.EvaluatorName,
		"evaluatorPosition": e.EvaluatorPosition,
		"companyName":       e.CompanyName,
	} {
		if strings.TrimSpace(value) == "" {
			errs.Add(field, field+" is required")
		}
	}
	if !models.ValidEmail(e.EvaluatorEmail) {
		errs.Add("evaluatorEmail", "evaluatorEmail is not valid")
	}
	for field, score := range map[string]int{
		"technicalCompetence": e.Ratings.TechnicalCompetence,
		"workEthic":           e.Ratings.WorkEthic,
		"communication":       e.Ratings.Communication,
		"initiative":          e.Ratings.Initiative,
		"overall":             e.Ratings.Overall,
	} {
		if score < 1 || score > 5 {
			errs.Add("ratings."+field, "rating must be between 1 and 5")
		}
	}
	return errs
}

// Stores are the write paths Apply needs.
type Stores struct {
	Masters interface {
		ExistsByNIM(ctx context.Context, nim, excludeID string) (bool, error)
		Create(ctx context.Context, record *models.MasterRecord) error
		FindByID(ctx context.Context, id string) (*models.MasterRecord, error)
	}
	Careers interface {
		Create(ctx context.Context, record *models.CareerRecord) error
	}
	Achievements interface {
		Create(ctx context.Context, record *models.AchievementRecord) error
	}
	Evaluations interface {
		Create(ctx context.Context, e *models.EvaluationSubmission) error
	}
}

// Summary counts what Apply wrote.
type Summary struct {
	Masters      int `json:"masters"`
	Skipped      int `json:"skipped"`
	Careers      int `json:"careers"`
	Achievements int `json:"achievements"`
	Evaluations  int `json:"evaluations"`
}

// Apply writes ds through the stores. Masters whose NIM already exists are
// skipped with their dependents so reapplying a seed is harmless.
func Apply(ctx context.Context, ds *Dataset, stores Stores, logger *zap.Logger) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var sum Summary
	created := make(map[string]string, len(ds.Entries))
	for _, entry := range ds.Entries {
		exists, err := stores.Masters.ExistsByNIM(ctx, entry.Master.NIM, "")
		if err != nil {
			return sum, fmt.Errorf("check nim %s: %w", entry.Master.NIM, err)
		}
		if exists {
			sum.Skipped++
			continue
		}
		master := entry.Master
		if err := stores.Masters.Create(ctx, &master); err != nil {
			return sum, fmt.Errorf("create master %s: %w", master.NIM, err)
		}
		created[master.NIM] = master.ID
		sum.Masters++

		for _, c := range entry.Careers {
			career := c
			career.MasterID = master.ID
			if err := stores.Careers.Create(ctx, &career); err != nil {
				return sum, fmt.Errorf("create career for %s: %w", master.NIM, err)
			}
			sum.Careers++
		}
		for _, a := range entry.Achievements {
			achievement := a
			achievement.MasterID = master.ID
			if err := stores.Achievements.Create(ctx, &achievement); err != nil {
				return sum, fmt.Errorf("create achievement for %s: %w", master.NIM, err)
			}
			sum.Achievements++
		}
	}

	if stores.Evaluations != nil {
		for _, pending := range ds.Evaluations {
			masterID, ok := created[pending.StudentNIM]
			if !ok {
				continue
			}
			master, err := stores.Masters.FindByID(ctx, masterID)
			if err != nil {
				return sum, fmt.Errorf("load master %s: %w", pending.StudentNIM, err)
			}
			submission := pending.Submission
			submission.Student = master.Snapshot()
			if err := stores.Evaluations.Create(ctx, &submission); err != nil {
				return sum, fmt.Errorf("create evaluation for %s: %w", pending.StudentNIM, err)
			}
			sum.Evaluations++
		}
	}

	logger.Info("seed applied",
		zap.Int("masters", sum.Masters),
		zap.Int("skipped", sum.Skipped),
		zap.Int("careers", sum.Careers),
		zap.Int("achievements", sum.Achievements),
		zap.Int("evaluations", sum.Evaluations),
	)
	return sum, nil
}
