package repository

import (
	"context"
	"time"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

const versionNotFoundMsg = "version not found"

// memoryVersions is the VersionRepository view over a MemoryStore.
type memoryVersions struct {
	s *MemoryStore
}

// Append stores a new snapshot. Sequence numbers are assigned here so the
// store stays the single authority for ordering.
func (m *memoryVersions) Append(_ context.Context, orgID uuid.UUID, version *domain.Version) (*domain.Version, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if owner, ok := m.s.offers[version.OfferID]; !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}

	existing := m.s.versions[version.OfferID]
	stored := cloneVersion(version)
	stored.ID = uuid.New()
	stored.Sequence = int64(len(existing)) + 1
	stored.CreatedAt = time.Now()
	m.s.versions[version.OfferID] = append(existing, stored)
	return cloneVersion(stored), nil
}

// ListByOfferID returns all versions of the offer in sequence order.
func (m *memoryVersions) ListByOfferID(_ context.Context, orgID, offerID uuid.UUID) ([]*domain.Version, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if owner, ok := m.s.offers[offerID]; !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}

	stored := m.s.versions[offerID]
	out := make([]*domain.Version, len(stored))
	for i, v := range stored {
		out[i] = cloneVersion(v)
	}
	return out, nil
}

// GetBySequence returns one snapshot by its sequence number.
func (m *memoryVersions) GetBySequence(_ context.Context, orgID, offerID uuid.UUID, sequence int64) (*domain.Version, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if owner, ok := m.s.offers[offerID]; !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}
	for _, v := range m.s.versions[offerID] {
		if v.Sequence == sequence {
			return cloneVersion(v), nil
		}
	}
	return nil, apperr.NotFound(versionNotFoundMsg)
}

// LatestSequence returns the highest stored sequence, zero when none exist.
func (m *memoryVersions) LatestSequence(_ context.Context, orgID, offerID uuid.UUID) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if owner, ok := m.s.offers[offerID]; !ok || owner.OrganizationID != orgID {
		return 0, apperr.NotFound(offerNotFoundMsg)
	}
	return int64(len(m.s.versions[offerID])), nil
}

func cloneVersion(v *domain.Version) *domain.Version {
	cp := *v
	cp.Snapshot = v.Snapshot.Clone()
	cp.ChangedFields = append([]string(nil), v.ChangedFields...)
	return &cp
}

// Compile-time check.
var _ VersionRepository = (*memoryVersions)(nil)
