// internal/workers/assessment/record-reviewer-signoff/models.go
package recordreviewersignoff

type Input struct {
	AssessmentID  string `json:"assessmentId" validate:"required,max=128"`
	ReviewerName  string `json:"reviewerName" validate:"required,max=256"`
	LicenseNumber string `json:"licenseNumber" validate:"required,max=64"`
	Comments      string `json:"comments,omitempty" validate:"max=4000"`
	SignedAt      string `json:"signedAt,omitempty"` // RFC 3339, defaults to now
}

type Output struct {
	AssessmentID    string `json:"assessmentId"`
	ReviewerName    string `json:"reviewerName"`
	LicenseNumber   string `json:"licenseNumber"`
	SignedAt        string `json:"signedAt"`
	ProfileChecksum string `json:"profileChecksum"`
}
