// internal/models/profile.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedProfile marks applicant data the engine refuses to assess.
var ErrMalformedProfile = errors.New("MALFORMED_PROFILE")

type SkillsAssessmentStatus string

const (
	SkillsAssessmentPositive SkillsAssessmentStatus = "positive"
	SkillsAssessmentPending  SkillsAssessmentStatus = "pending"
	SkillsAssessmentNotHeld  SkillsAssessmentStatus = "not_held"
	SkillsAssessmentExpired  SkillsAssessmentStatus = "expired"
)

type EnglishTestType string

const (
	TestIELTS     EnglishTestType = "IELTS"
	TestPTE       EnglishTestType = "PTE"
	TestTOEFL     EnglishTestType = "TOEFL"
	TestOET       EnglishTestType = "OET"
	TestCambridge EnglishTestType = "Cambridge"
	TestNA        EnglishTestType = "NA"
)

type DutiesAlignment string

const (
	AlignmentHigh    DutiesAlignment = "high"
	AlignmentMedium  DutiesAlignment = "medium"
	AlignmentLow     DutiesAlignment = "low"
	AlignmentUnknown DutiesAlignment = "unknown"
)

type EvidenceStrength string

const (
	EvidenceStrong  EvidenceStrength = "strong"
	EvidenceMedium  EvidenceStrength = "medium"
	EvidenceWeak    EvidenceStrength = "weak"
	EvidenceUnknown EvidenceStrength = "unknown"
)

type OccupationListStatus string

const (
	ListStatusUnknown OccupationListStatus = "unknown"
	ListStatusOnList  OccupationListStatus = "on_list"
	ListStatusOffList OccupationListStatus = "off_list"
)

// ApplicantProfile is one immutable snapshot of an applicant collected at
// intake. A changed applicant is a new profile version.
type ApplicantProfile struct {
	ID             string      `json:"id"`
	TenantID       string      `json:"tenant_id"`
	ProfileVersion int         `json:"profile_version"`
	CollectedAt    string      `json:"collected_at,omitempty"`
	Data           ProfileData `json:"data"`

	// RawData is the data section exactly as submitted, including fields
	// the engine does not read. Empty for profiles built in code.
	RawData json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the profile and keeps a copy of the raw data
// section for the audit checksum.
func (p *ApplicantProfile) UnmarshalJSON(b []byte) error {
	type plain ApplicantProfile
	var doc struct {
		plain
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}

	*p = ApplicantProfile(doc.plain)
	p.Data = ProfileData{}
	p.RawData = nil
	if len(doc.Data) == 0 || bytes.Equal(bytes.TrimSpace(doc.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(doc.Data, &p.Data); err != nil {
		return err
	}
	p.RawData = append(json.RawMessage(nil), doc.Data...)
	return nil
}

type ProfileData struct {
	Person          *Person          `json:"person"`
	Location        *Location        `json:"location"`
	VisaHistory     *VisaHistory     `json:"visa_history"`
	Occupation      *Occupation      `json:"occupation"`
	English         *EnglishTest     `json:"english"`
	Education       []Education      `json:"education"`
	Employment      []Employment     `json:"employment"`
	PointsClaim     *PointsClaim     `json:"points_claim"`
	StateNomination *StateNomination `json:"state_nomination"`
	Documents       *Documents       `json:"documents"`
}

type Person struct {
	DateOfBirth   Date   `json:"date_of_birth"`
	Nationality   string `json:"nationality"`
	MaritalStatus string `json:"marital_status"`
}

type Location struct {
	CurrentCountry   string `json:"current_country"`
	CurrentState     string `json:"current_state"`
	RegionalPostcode string `json:"regional_postcode"`
}

type VisaHistory struct {
	CurrentVisaSubclass   string `json:"current_visa_subclass"`
	VisaExpiryDate        Date   `json:"visa_expiry_date"`
	PreviousRefusals      bool   `json:"previous_refusals"`
	PreviousCancellations bool   `json:"previous_cancellations"`
	ComplianceIssues      bool   `json:"compliance_issues"`
	Notes                 string `json:"notes"`
}

type Occupation struct {
	ANZSCOCode       string            `json:"anzsco_code"`
	OccupationTitle  string            `json:"occupation_title"`
	SkillsAssessment *SkillsAssessment `json:"skills_assessment"`
}

type SkillsAssessment struct {
	Status             SkillsAssessmentStatus `json:"status"`
	AssessingAuthority string                 `json:"assessing_authority"`
	IssueDate          Date                   `json:"issue_date"`
	ExpiryDate         Date                   `json:"expiry_date"`
	Notes              string                 `json:"notes"`
}

type EnglishTest struct {
	TestType  EnglishTestType `json:"test_type"`
	Overall   float64         `json:"overall"`
	Listening float64         `json:"listening"`
	Reading   float64         `json:"reading"`
	Writing   float64         `json:"writing"`
	Speaking  float64         `json:"speaking"`
	TestDate  Date            `json:"test_date"`
}

// Components returns the four skill scores in listening, reading, writing,
// speaking order.
func (e *EnglishTest) Components() [4]float64 {
	return [4]float64{e.Listening, e.Reading, e.Writing, e.Speaking}
}

type Education struct {
	Level         string `json:"level"`
	Field         string `json:"field"`
	Country       string `json:"country"`
	CompletedDate Date   `json:"completed_date"`
}

type Employment struct {
	Employer         string           `json:"employer"`
	Country          string           `json:"country"`
	StartDate        Date             `json:"start_date"`
	EndDate          Date             `json:"end_date"`
	HoursPerWeek     float64          `json:"hours_per_week"`
	EmploymentType   string           `json:"employment_type"`
	RoleTitle        string           `json:"role_title"`
	DutiesAlignment  DutiesAlignment  `json:"duties_alignment"`
	EvidenceStrength EvidenceStrength `json:"evidence_strength"`
}

type PointsClaim struct {
	TotalPointsClaimed         int `json:"total_points_claimed"`
	AgePoints                  int `json:"age_points"`
	EnglishPoints              int `json:"english_points"`
	EducationPoints            int `json:"education_points"`
	AustralianExperiencePoints int `json:"australian_experience_points"`
	OverseasExperiencePoints   int `json:"overseas_experience_points"`
	PartnerPoints              int `json:"partner_points"`
	NAATIPoints                int `json:"naati_points"`
	ProfessionalYearPoints     int `json:"professional_year_points"`
	RegionalStudyPoints        int `json:"regional_study_points"`
	StateNominationPoints      int `json:"state_nomination_points"`
}

type StateNomination struct {
	SeekingNomination    bool                 `json:"seeking_nomination"`
	State                string               `json:"state"`
	OccupationListStatus OccupationListStatus `json:"occupation_list_status"`
	Notes                string               `json:"notes"`
}

type Documents struct {
	Passport                   bool `json:"passport"`
	SkillsAssessment           bool `json:"skills_assessment"`
	EnglishTest                bool `json:"english_test"`
	EmploymentReferenceLetters bool `json:"employment_reference_letters"`
	EmploymentContracts        bool `json:"employment_contracts"`
	Payslips                   bool `json:"payslips"`
	BankStatements             bool `json:"bank_statements"`
	CV                         bool `json:"cv"`
}

// Validate rejects profiles missing a section the engine reads. It never
// fills in defaults.
func (p *ApplicantProfile) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrMalformedProfile)
	}

	d := p.Data
	var missing []string
	if d.Person == nil {
		missing = append(missing, "person")
	}
	if d.Location == nil {
		missing = append(missing, "location")
	}
	if d.VisaHistory == nil {
		missing = append(missing, "visa_history")
	}
	if d.Occupation == nil {
		missing = append(missing, "occupation")
	} else if d.Occupation.SkillsAssessment == nil {
		missing = append(missing, "occupation.skills_assessment")
	}
	if d.English == nil {
		missing = append(missing, "english")
	}
	if d.PointsClaim == nil {
		missing = append(missing, "points_claim")
	}
	if d.StateNomination == nil {
		missing = append(missing, "state_nomination")
	}
	if d.Documents == nil {
		missing = append(missing, "documents")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing sections: %s", ErrMalformedProfile, strings.Join(missing, ", "))
	}

	if d.Person.DateOfBirth.IsZero() {
		return fmt.Errorf("%w: person.date_of_birth is required", ErrMalformedProfile)
	}
	return nil
}

// AgeAt returns completed years between the date of birth and now. A year
// is not counted until the birthday's month and day have been reached.
func (p *Person) AgeAt(now time.Time) int {
	dob := p.DateOfBirth
	ny, nm, nd := now.Date()
	age := ny - dob.Year()
	if nm < dob.Month() || (nm == dob.Month() && nd < dob.Day()) {
		age--
	}
	return age
}
