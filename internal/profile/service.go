// Package profile stores the caller's preferred state, which drives the
// region used for price suggestions.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/region"
)

// Profile is the caller's profile.
type Profile struct {
	PreferredUF string `json:"preferredUf,omitempty"`
	MacroRegion string `json:"macroRegion,omitempty"`
}

// Queries is the persistence surface the service needs.
type Queries interface {
	GetProfile(ctx context.Context, id pgtype.UUID) (db.Profile, error)
	UpsertProfileUF(ctx context.Context, arg db.UpsertProfileUFParams) (db.Profile, error)
}

// Service reads and updates profiles.
type Service struct {
	q Queries
}

// NewService constructs a profile service.
func NewService(q Queries) *Service {
	return &Service{q: q}
}

// Get returns the profile; a user without a row gets an empty profile.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return Profile{}, common.AuthRequired()
	}
	row, err := s.q.GetProfile(ctx, uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return convert(row), nil
}

// SetPreferredUF stores the preferred state. A blank value clears it.
func (s *Service) SetPreferredUF(ctx context.Context, userID, uf string) (Profile, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return Profile{}, common.AuthRequired()
	}
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if uf != "" && !region.IsKnownState(uf) {
		return Profile{}, common.Validation("unknown state code")
	}
	row, err := s.q.UpsertProfileUF(ctx, db.UpsertProfileUFParams{ID: uid, PreferredUF: db.Text(uf)})
	if err != nil {
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return convert(row), nil
}

// RegionContext builds the region context for userID from the profile.
func (s *Service) RegionContext(ctx context.Context, userID string) (region.Context, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return region.Context{}, err
	}
	return region.NewContext(p.PreferredUF), nil
}

func convert(row db.Profile) Profile {
	rc := region.NewContext(db.TextString(row.PreferredUF))
	return Profile{PreferredUF: rc.UF, MacroRegion: rc.MacroRegion}
}
