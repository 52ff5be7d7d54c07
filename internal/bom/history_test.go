package bom_test

import (
	"testing"
	"time"

	"bom-tracker/internal/bom"
	"bom-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedHistory(t *testing.T) models.BomList {
	t.Helper()
	v1, err := bom.BuildVersion(zipperDraft(2, 1.5), 0, time.Now())
	require.NoError(t, err)
	return models.BomList{v1}
}

// echo turns a stored version into what a client sends back.
func echo(v models.BomVersion) models.BomSnapshot {
	created := v.CreatedAt
	snap := models.BomSnapshot{
		Version:     v.Version,
		StyleNumber: v.StyleNumber,
		ProductName: v.ProductName,
		Designer:    v.Designer,
		ImageURL:    v.ImageURL,
		CreatedAt:   &created,
		TotalCost:   models.FlexFloat(v.TotalCost),
	}
	for _, m := range v.Materials {
		snap.Materials = append(snap.Materials, models.MaterialInput{
			Name: m.Name, Supplier: m.Supplier, Color: m.Color,
			Quantity: models.FlexFloat(m.Quantity), Unit: m.Unit, UnitPrice: models.FlexFloat(m.UnitPrice),
			Cost: models.FlexFloat(m.Cost()),
		})
	}
	return snap
}

func TestDraftFromHistory_AppendsTrailingVersion(t *testing.T) {
	stored := storedHistory(t)
	next := models.BomSnapshot{StyleNumber: "S-2", Materials: []models.MaterialInput{{Name: "Button", Quantity: 4, UnitPrice: 0.25}}}

	draft, err := bom.DraftFromHistory(stored, []models.BomSnapshot{echo(stored[0]), next})
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "S-2", draft.StyleNumber)
	assert.Equal(t, "Button", draft.Materials[0].Name)

	next.Version = 2
	_, err = bom.DraftFromHistory(stored, []models.BomSnapshot{echo(stored[0]), next})
	assert.NoError(t, err)
}

func TestDraftFromHistory_UnchangedAddsNothing(t *testing.T) {
	stored := storedHistory(t)

	draft, err := bom.DraftFromHistory(stored, []models.BomSnapshot{echo(stored[0])})
	require.NoError(t, err)
	assert.Nil(t, draft)

	draft, err = bom.DraftFromHistory(models.BomList{}, []models.BomSnapshot{})
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestDraftFromHistory_StoredVersionsAreImmutable(t *testing.T) {
	stored := storedHistory(t)
	next := models.BomSnapshot{Materials: []models.MaterialInput{{Name: "Button"}}}

	edited := echo(stored[0])
	edited.Materials[0].Quantity = 5
	_, err := bom.DraftFromHistory(stored, []models.BomSnapshot{edited, next})
	assert.ErrorIs(t, err, models.ErrConflict)

	renamed := echo(stored[0])
	renamed.Designer = "Someone else"
	_, err = bom.DraftFromHistory(stored, []models.BomSnapshot{renamed})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = bom.DraftFromHistory(stored, []models.BomSnapshot{})
	assert.ErrorIs(t, err, models.ErrConflict)

	next.Version = 3
	_, err = bom.DraftFromHistory(stored, []models.BomSnapshot{echo(stored[0]), next})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestDraftFromHistory_OneVersionPerUpdate(t *testing.T) {
	next := models.BomSnapshot{Materials: []models.MaterialInput{{Name: "Button"}}}

	_, err := bom.DraftFromHistory(models.BomList{}, []models.BomSnapshot{next, next})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
