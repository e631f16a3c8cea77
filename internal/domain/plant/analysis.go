package plant

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// AnalysisRequest is the descriptive payload sent to the insight generator
type AnalysisRequest struct {
	PlantName      string   `json:"plantName" validate:"required,max=200"`
	ScientificName string   `json:"scientificName" validate:"max=200"`
	Description    string   `json:"description" validate:"max=4000"`
	MedicalUses    []string `json:"medicalUses" validate:"max=50,dive,max=200"`
}

// NewAnalysisRequest builds the request from a catalog plant
func NewAnalysisRequest(p *Plant) AnalysisRequest {
	return AnalysisRequest{
		PlantName:      p.Name,
		ScientificName: p.ScientificName,
		Description:    p.Description,
		MedicalUses:    append([]string(nil), p.MedicalUses...),
	}
}

// Validate checks the request has something to analyze
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.PlantName) == "" {
		return ErrNameRequired
	}
	return nil
}

// Fingerprint identifies the request content for caching
func (r AnalysisRequest) Fingerprint() string {
	h := sha256.New()
	for _, part := range append([]string{r.PlantName, r.ScientificName, r.Description}, r.MedicalUses...) {
		h.Write([]byte(strings.TrimSpace(part)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
