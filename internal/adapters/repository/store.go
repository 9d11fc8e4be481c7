// Package repository stores claims and diver profiles and reads catalog files.
//
// Stores hand out snapshots: every read returns a fresh copy the caller may
// score and aggregate without holding any lock.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/remoterob/fish-bingo/internal/domain/model"
)

// Store provides read/write access to claims and profiles.
type Store interface {
	// Claims returns every stored claim ordered by creation time.
	Claims(ctx context.Context) ([]model.Claim, error)
	// Profiles returns every stored profile.
	Profiles(ctx context.Context) ([]model.Profile, error)
	// InsertClaim stores c, filling in the id and creation time when absent,
	// and returns the stored claim.
	InsertClaim(ctx context.Context, c model.Claim) (model.Claim, error)
	// UpsertProfile creates or replaces the profile for p.UserID.
	UpsertProfile(ctx context.Context, p model.Profile) error
	// Close releases underlying resources.
	Close() error
}

// Option applies a configuration option to a store.
type Option func(*settings)

type settings struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the time source used to stamp new claims.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how claim ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *settings) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func applyOptions(opts []Option) settings {
	s := settings{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// prepareClaim validates c and fills in defaults.
func (s settings) prepareClaim(c model.Claim) (model.Claim, error) {
	c.UserID = strings.TrimSpace(c.UserID)
	c.Identifier = strings.TrimSpace(c.Identifier)
	if c.UserID == "" {
		return c, fmt.Errorf("%w: user id is required", ErrInvalidClaim)
	}
	if c.Identifier == "" {
		return c, fmt.Errorf("%w: species slug is required", ErrInvalidClaim)
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.CreatedAt = c.CreatedAt.UTC().Truncate(time.Millisecond)
	return c, nil
}

func prepareProfile(p model.Profile) (model.Profile, error) {
	p.UserID = strings.TrimSpace(p.UserID)
	if p.UserID == "" {
		return p, fmt.Errorf("%w: user id is required", ErrInvalidProfile)
	}
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.Gender = strings.TrimSpace(p.Gender)
	p.Club = strings.TrimSpace(p.Club)
	p.AgeGroup = strings.TrimSpace(p.AgeGroup)
	return p, nil
}
