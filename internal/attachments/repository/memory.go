package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

// Memory is an in-memory attachment repository for tests.
type Memory struct {
	mu          sync.RWMutex
	attachments map[uuid.UUID]Attachment
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{attachments: make(map[uuid.UUID]Attachment)}
}

var _ Repository = (*Memory)(nil)

func (m *Memory) Create(_ context.Context, att *Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	att.CreatedAt = time.Now().UTC()
	m.attachments[att.ID] = *att
	return nil
}

func (m *Memory) GetByID(_ context.Context, orgID, offerID, id uuid.UUID) (*Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	att, ok := m.attachments[id]
	if !ok || att.OrganizationID != orgID || att.OfferID != offerID {
		return nil, apperr.NotFound(attachmentNotFoundMessage)
	}
	copied := att
	return &copied, nil
}

func (m *Memory) ListByOffer(_ context.Context, orgID, offerID uuid.UUID) ([]Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]Attachment, 0)
	for _, att := range m.attachments {
		if att.OrganizationID == orgID && att.OfferID == offerID {
			matched = append(matched, att)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	return matched, nil
}

func (m *Memory) Delete(_ context.Context, orgID, offerID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	att, ok := m.attachments[id]
	if !ok || att.OrganizationID != orgID || att.OfferID != offerID {
		return apperr.NotFound(attachmentNotFoundMessage)
	}
	delete(m.attachments, id)
	return nil
}
