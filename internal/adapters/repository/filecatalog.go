package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
)

// CatalogSnapshot holds the raw catalog documents read in one pass.
type CatalogSnapshot struct {
	SpeciesJSON []byte
	BonusJSON   []byte
	// Fingerprint changes whenever either document changes.
	Fingerprint uint64
}

// CatalogSource yields catalog snapshots.
type CatalogSource interface {
	Read(ctx context.Context) (CatalogSnapshot, error)
}

// FileCatalog reads the species and bonus catalogs from disk on every call.
type FileCatalog struct {
	speciesPath string
	bonusPath   string
}

// NewFileCatalog returns a FileCatalog for the two paths. An empty bonus
// path means there is no bonus catalog.
func NewFileCatalog(speciesPath, bonusPath string) *FileCatalog {
	return &FileCatalog{speciesPath: speciesPath, bonusPath: bonusPath}
}

// Read implements CatalogSource.
func (f *FileCatalog) Read(ctx context.Context) (CatalogSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return CatalogSnapshot{}, err
	}
	species, err := os.ReadFile(f.speciesPath)
	if err != nil {
		return CatalogSnapshot{}, fmt.Errorf("%w: species: %w", ErrCatalogSource, err)
	}
	var bonuses []byte
	if f.bonusPath != "" {
		bonuses, err = os.ReadFile(f.bonusPath)
		if err != nil {
			return CatalogSnapshot{}, fmt.Errorf("%w: bonuses: %w", ErrCatalogSource, err)
		}
	}
	return NewSnapshot(species, bonuses), nil
}

// StaticCatalog serves fixed documents. Useful in tests and for catalogs
// compiled into a binary.
type StaticCatalog struct {
	snapshot CatalogSnapshot
}

// NewStaticCatalog returns a StaticCatalog for the given documents.
func NewStaticCatalog(speciesJSON, bonusJSON []byte) *StaticCatalog {
	return &StaticCatalog{snapshot: NewSnapshot(speciesJSON, bonusJSON)}
}

// Read implements CatalogSource.
func (s *StaticCatalog) Read(ctx context.Context) (CatalogSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return CatalogSnapshot{}, err
	}
	return s.snapshot, nil
}

// NewSnapshot builds a snapshot and computes its fingerprint.
func NewSnapshot(speciesJSON, bonusJSON []byte) CatalogSnapshot {
	d := xxhash.New()
	_, _ = d.Write(speciesJSON)
	// Separator so moving bytes between documents changes the hash.
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(bonusJSON)
	return CatalogSnapshot{
		SpeciesJSON: speciesJSON,
		BonusJSON:   bonusJSON,
		Fingerprint: d.Sum64(),
	}
}
