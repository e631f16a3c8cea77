package plant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validates(t *testing.T) {
	p, err := New(" Chamomile ", "Matricaria chamomilla", "Calming", "Daisy-like flowers")
	require.NoError(t, err)
	assert.Equal(t, "Chamomile", p.Name)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Empty(t, p.MedicalUses)

	_, err = New("", "Matricaria chamomilla", "", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = New("Chamomile", " ", "", "")
	assert.ErrorIs(t, err, ErrScientificNameRequired)
}

func TestCardUses_ShowsFirstThree(t *testing.T) {
	p := &Plant{MedicalUses: []string{"Anxiety", "Insomnia", "Digestion", "Skin irritation"}}
	assert.Equal(t, []string{"Anxiety", "Insomnia", "Digestion"}, p.CardUses())

	short := &Plant{MedicalUses: []string{"Burns"}}
	assert.Equal(t, []string{"Burns"}, short.CardUses())
}

func TestWithInsights_DoesNotMutateOriginal(t *testing.T) {
	p := &Plant{Name: "Aloe Vera"}

	analyzed := p.WithInsights("Soothes minor burns.")

	assert.True(t, analyzed.HasInsights())
	assert.False(t, p.HasInsights())
}

func TestSortByName(t *testing.T) {
	plants := []*Plant{
		{ID: uuid.New(), Name: "valerian"},
		{ID: uuid.New(), Name: "Aloe Vera"},
		{ID: uuid.New(), Name: "Echinacea"},
	}

	SortByName(plants)

	assert.Equal(t, "Aloe Vera", plants[0].Name)
	assert.Equal(t, "Echinacea", plants[1].Name)
	assert.Equal(t, "valerian", plants[2].Name)
}

func TestAnalysisRequest(t *testing.T) {
	p := &Plant{Name: "Ginger", ScientificName: "Zingiber officinale", Description: "Rhizome", MedicalUses: []string{"Nausea"}}

	req := NewAnalysisRequest(p)
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ginger", req.PlantName)

	p.MedicalUses[0] = "changed"
	assert.Equal(t, "Nausea", req.MedicalUses[0])

	same := NewAnalysisRequest(&Plant{Name: "Ginger", ScientificName: "Zingiber officinale", Description: "Rhizome", MedicalUses: []string{"Nausea"}})
	assert.Equal(t, req.Fingerprint(), same.Fingerprint())
	assert.NotEqual(t, req.Fingerprint(), NewAnalysisRequest(p).Fingerprint())

	assert.ErrorIs(t, AnalysisRequest{PlantName: "  "}.Validate(), ErrNameRequired)
}
