package ai

import (
	"fmt"
	"strings"

	"github.com/medihort/medihort-ai/internal/domain/plant"
)

const analysisSystemPrompt = `You are an expert in medical horticulture and phytotherapy.
Given a medicinal plant, write a concise analysis covering:
- Therapeutic potential and the evidence behind its main medical uses
- Cultivation requirements (climate, soil, light, water, propagation)
- Harvesting and preparation of the medicinal parts
- Safety notes: contraindications, interactions and dosage cautions
Use short paragraphs or bullet points. Do not invent studies or citations.`

const consultantSystemPrompt = `You are the MediHort AI horticultural consultant.
Answer questions about medicinal plants, their therapeutic applications and how to grow them.
Be practical and accurate. When a question concerns treatment of a medical condition,
remind the user to consult a qualified healthcare professional.`

// buildAnalysisPrompt renders the plant as the single user turn of an analysis
func buildAnalysisPrompt(req plant.AnalysisRequest) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Plant: %s\n", strings.TrimSpace(req.PlantName)))
	if s := strings.TrimSpace(req.ScientificName); s != "" {
		prompt.WriteString(fmt.Sprintf("Scientific name: %s\n", s))
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		prompt.WriteString(fmt.Sprintf("Description: %s\n", d))
	}

	if len(req.MedicalUses) > 0 {
		prompt.WriteString("Known medical uses:\n")
		for _, use := range req.MedicalUses {
			if use = strings.TrimSpace(use); use != "" {
				prompt.WriteString(fmt.Sprintf("- %s\n", use))
			}
		}
	}

	prompt.WriteString("\nProvide AI-generated insights for this plant.")
	return prompt.String()
}
