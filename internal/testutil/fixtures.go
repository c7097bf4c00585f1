// internal/testutil/fixtures.go
//
// Package testutil holds applicant fixtures shared by engine and worker tests.
package testutil

import (
	"time"

	"migration-assessment/internal/models"
)

// Now is the instant every engine test evaluates at.
var Now = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// BaseProfile returns a fresh profile that is eligible for subclass 189
// under the builtin policy and carries a single Medium risk factor.
func BaseProfile() *models.ApplicantProfile {
	return &models.ApplicantProfile{
		ID:             "profile-001",
		TenantID:       "tenant-001",
		ProfileVersion: 1,
		CollectedAt:    "2024-12-15T09:30:00Z",
		Data: models.ProfileData{
			Person: &models.Person{
				DateOfBirth:   models.NewDate(1990, time.January, 1),
				Nationality:   "AUS",
				MaritalStatus: "married",
			},
			Location: &models.Location{
				CurrentCountry:   "AUS",
				CurrentState:     "NSW",
				RegionalPostcode: "2000",
			},
			VisaHistory: &models.VisaHistory{
				CurrentVisaSubclass: "500",
				VisaExpiryDate:      models.NewDate(2025, time.December, 1),
			},
			Occupation: &models.Occupation{
				ANZSCOCode:      "261313",
				OccupationTitle: "Software Engineer",
				SkillsAssessment: &models.SkillsAssessment{
					Status:             models.SkillsAssessmentPositive,
					AssessingAuthority: "ACS",
					IssueDate:          models.NewDate(2024, time.January, 1),
					ExpiryDate:         models.NewDate(2027, time.January, 1),
				},
			},
			English: &models.EnglishTest{
				TestType:  models.TestIELTS,
				Overall:   7.5,
				Listening: 7.5,
				Reading:   7.5,
				Writing:   7.0,
				Speaking:  7.5,
				TestDate:  models.NewDate(2024, time.June, 1),
			},
			Education: []models.Education{
				{Level: "bachelor", Field: "Computer Science", Country: "AUS", CompletedDate: models.NewDate(2015, time.December, 1)},
			},
			Employment: []models.Employment{
				{
					Employer:         "ABC Pty Ltd",
					Country:          "AUS",
					StartDate:        models.NewDate(2018, time.January, 1),
					HoursPerWeek:     38,
					EmploymentType:   "full_time",
					RoleTitle:        "Engineer",
					DutiesAlignment:  models.AlignmentHigh,
					EvidenceStrength: models.EvidenceStrong,
				},
			},
			PointsClaim: &models.PointsClaim{
				TotalPointsClaimed:         80,
				AgePoints:                  30,
				EnglishPoints:              10,
				EducationPoints:            15,
				AustralianExperiencePoints: 10,
			},
			StateNomination: &models.StateNomination{
				SeekingNomination:    false,
				State:                "NSW",
				OccupationListStatus: models.ListStatusOnList,
			},
			Documents: &models.Documents{
				Passport:                   true,
				SkillsAssessment:           true,
				EnglishTest:                true,
				EmploymentReferenceLetters: true,
				EmploymentContracts:        true,
				Payslips:                   true,
				BankStatements:             true,
				CV:                         true,
			},
		},
	}
}

// BaseProfileJSON is BaseProfile as the document a collaborator submits.
const BaseProfileJSON = `{
  "id": "profile-001",
  "tenant_id": "tenant-001",
  "profile_version": 1,
  "collected_at": "2024-12-15T09:30:00Z",
  "data": {
    "person": {"date_of_birth": "1990-01-01", "nationality": "AUS", "marital_status": "married"},
    "location": {"current_country": "AUS", "current_state": "NSW", "regional_postcode": "2000"},
    "visa_history": {
      "current_visa_subclass": "500",
      "visa_expiry_date": "2025-12-01",
      "previous_refusals": false,
      "previous_cancellations": false,
      "compliance_issues": false,
      "notes": ""
    },
    "occupation": {
      "anzsco_code": "261313",
      "occupation_title": "Software Engineer",
      "skills_assessment": {
        "status": "positive",
        "assessing_authority": "ACS",
        "issue_date": "2024-01-01",
        "expiry_date": "2027-01-01",
        "notes": ""
      }
    },
    "english": {
      "test_type": "IELTS",
      "overall": 7.5,
      "listening": 7.5,
      "reading": 7.5,
      "writing": 7.0,
      "speaking": 7.5,
      "test_date": "2024-06-01"
    },
    "education": [
      {"level": "bachelor", "field": "Computer Science", "country": "AUS", "completed_date": "2015-12-01"}
    ],
    "employment": [
      {
        "employer": "ABC Pty Ltd",
        "country": "AUS",
        "start_date": "2018-01-01",
        "end_date": null,
        "hours_per_week": 38,
        "employment_type": "full_time",
        "role_title": "Engineer",
        "duties_alignment": "high",
        "evidence_strength": "strong"
      }
    ],
    "points_claim": {
      "total_points_claimed": 80,
      "age_points": 30,
      "english_points": 10,
      "education_points": 15,
      "australian_experience_points": 10,
      "overseas_experience_points": 0,
      "partner_points": 0,
      "naati_points": 0,
      "professional_year_points": 0,
      "regional_study_points": 0,
      "state_nomination_points": 0
    },
    "state_nomination": {"seeking_nomination": false, "state": "NSW", "occupation_list_status": "on_list", "notes": ""},
    "documents": {
      "passport": true,
      "skills_assessment": true,
      "english_test": true,
      "employment_reference_letters": true,
      "employment_contracts": true,
      "payslips": true,
      "bank_statements": true,
      "cv": true
    }
  }
}`
