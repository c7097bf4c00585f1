// internal/workers/assessment/attach-report-paths/models.go
package attachreportpaths

type Input struct {
	AssessmentID string `json:"assessmentId" validate:"required,max=128"`
	HTMLPath     string `json:"htmlPath,omitempty" validate:"required_without=PDFPath,max=1024"`
	PDFPath      string `json:"pdfPath,omitempty" validate:"required_without=HTMLPath,max=1024"`
}

type Output struct {
	AssessmentID string `json:"assessmentId"`
	HTMLPath     string `json:"htmlPath,omitempty"`
	PDFPath      string `json:"pdfPath,omitempty"`
	UpdatedAt    string `json:"updatedAt"` // ISO 8601
}
