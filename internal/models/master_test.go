package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMasterValidate(t *testing.T) {
	grad := 2019
	record := MasterRecord{
		FullName:       "Siti Amalia",
		NIM:            "2021001",
		Department:     "Teknik",
		Program:        "Informatika",
		EntryYear:      2020,
		GraduationYear: &grad,
		Status:         MasterStatusAlumni,
		Email:          "siti@",
	}

	errs := record.Validate()

	assert.Equal(t, []string{"email", "graduationYear", "nim"}, errs.Fields())
}

func TestMasterValidateAlumniNeedsGraduationYear(t *testing.T) {
	record := MasterRecord{FullName: "A", NIM: "20210001", Department: "D", Program: "P", EntryYear: 2020, Status: MasterStatusAlumni}
	assert.Contains(t, record.Validate(), "graduationYear")

	record.Status = MasterStatusActive
	assert.True(t, record.Validate().Empty())
}

func TestMatchesIdentity(t *testing.T) {
	grad := 2023
	record := MasterRecord{FullName: "Siti Amalia", GraduationYear: &grad}

	assert.True(t, record.MatchesIdentity("siti", 2023))
	assert.True(t, record.MatchesIdentity("  AMALIA ", 2023))
	assert.False(t, record.MatchesIdentity("Siti Amalia", 2022))
	assert.False(t, record.MatchesIdentity("", 2023))
}

func TestSnapshotCopiesGraduationYear(t *testing.T) {
	grad := 2023
	record := MasterRecord{ID: "m1", FullName: "Siti", NIM: "20210001", Program: "Informatika", GraduationYear: &grad}
	snap := record.Snapshot()
	*record.GraduationYear = 2031
	assert.Equal(t, 2023, *snap.GraduationYear)
}
