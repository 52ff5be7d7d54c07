package bom

import (
	"fmt"
	"strings"

	"bom-tracker/internal/models"
)

// DraftFromHistory reconciles a full history sent by a client with the stored
// one. Stored versions are immutable: sent must repeat them unchanged and may
// add exactly one version at the end, which is returned as a draft. A nil
// draft means sent adds nothing.
func DraftFromHistory(stored models.BomList, sent []models.BomSnapshot) (*models.BomDraft, error) {
	switch {
	case len(sent) < len(stored):
		return nil, fmt.Errorf("%w: history has %d versions, order has %d", models.ErrConflict, len(sent), len(stored))
	case len(sent) > len(stored)+1:
		return nil, fmt.Errorf("%w: only one version can be added per update", models.ErrInvalidInput)
	}

	for i := range stored {
		if !sameVersion(stored[i], sent[i]) {
			return nil, fmt.Errorf("%w: version %d differs from the stored one", models.ErrConflict, stored[i].Version)
		}
	}
	if len(sent) == len(stored) {
		return nil, nil
	}

	next := sent[len(sent)-1]
	if next.Version != 0 && next.Version != len(stored)+1 {
		return nil, fmt.Errorf("%w: new version is %d, next is %d", models.ErrConflict, next.Version, len(stored)+1)
	}
	return &models.BomDraft{
		StyleNumber: next.StyleNumber,
		ProductName: next.ProductName,
		Designer:    next.Designer,
		ImageURL:    next.ImageURL,
		Materials:   next.Materials,
	}, nil
}

// sameVersion compares the user-entered content of a version after the same
// normalisation a new version goes through.
func sameVersion(stored models.BomVersion, sent models.BomSnapshot) bool {
	if sent.Version != stored.Version ||
		orDefault(sent.StyleNumber, UnfilledText) != stored.StyleNumber ||
		orDefault(sent.ProductName, UnfilledText) != stored.ProductName ||
		orDefault(sent.Designer, UnfilledText) != stored.Designer ||
		strings.TrimSpace(sent.ImageURL) != stored.ImageURL {
		return false
	}

	lines := NormalizeMaterials(sent.Materials)
	if len(lines) != len(stored.Materials) {
		return false
	}
	for i := range lines {
		if lines[i] != stored.Materials[i] {
			return false
		}
	}
	return true
}
