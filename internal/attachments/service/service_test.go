package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"offerbuilder_backend/internal/attachments/repository"
	"offerbuilder_backend/internal/attachments/transport"
	offerdomain "offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/logger"
	"offerbuilder_backend/platform/storage"

	"github.com/google/uuid"
)

type fakeOffers struct {
	offer *offerdomain.Offer
}

func (f *fakeOffers) GetByID(_ context.Context, orgID, id uuid.UUID) (*offerdomain.Offer, error) {
	if f.offer == nil || f.offer.OrganizationID != orgID || f.offer.ID != id {
		return nil, apperr.NotFound("offer not found")
	}
	return f.offer, nil
}

type fakeAdjustments struct {
	adj *offerdomain.Adjustment
}

func (f *fakeAdjustments) GetByID(_ context.Context, orgID, id uuid.UUID) (*offerdomain.Adjustment, error) {
	if f.adj == nil || f.adj.ID != id {
		return nil, apperr.NotFound("adjustment not found")
	}
	return f.adj, nil
}

type fakeStore struct {
	deleted []string
}

func (f *fakeStore) PresignUpload(_ context.Context, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	key := folder + "/" + fileName
	return &storage.PresignedURL{URL: "https://storage.test/put/" + key, FileKey: key, ExpiresAt: time.Now().Add(storage.PresignedURLTTL)}, nil
}

func (f *fakeStore) PresignDownload(_ context.Context, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://storage.test/get/" + fileKey, FileKey: fileKey, ExpiresAt: time.Now().Add(storage.PresignedURLTTL)}, nil
}

func (f *fakeStore) Download(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeStore) Delete(_ context.Context, fileKey string) error {
	f.deleted = append(f.deleted, fileKey)
	return nil
}

func (f *fakeStore) EnsureBucket(_ context.Context) error { return nil }

func testOffer(orgID uuid.UUID) *offerdomain.Offer {
	blockID := uuid.New()
	itemID := uuid.New()
	return &offerdomain.Offer{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Blocks: []*offerdomain.Block{
			{ID: blockID, Items: []*offerdomain.Item{{ID: itemID, BlockID: blockID}}},
		},
	}
}

func newTestService(offer *offerdomain.Offer) (*Service, *fakeStore) {
	store := &fakeStore{}
	svc := New(repository.NewMemory(), store, &fakeOffers{offer: offer}, &fakeAdjustments{}, logger.NewNop())
	return svc, store
}

func TestRequestUploadRecordsDescriptor(t *testing.T) {
	orgID := uuid.New()
	offer := testOffer(orgID)
	svc, _ := newTestService(offer)
	ctx := context.Background()

	slot, err := svc.RequestUpload(ctx, orgID, offer.ID, nil, transport.RequestUploadRequest{
		TargetKind:  "block",
		TargetID:    offer.Blocks[0].ID,
		FileName:    "menu.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	if err != nil {
		t.Fatalf("RequestUpload: %v", err)
	}
	if slot.Upload.URL == "" || slot.Upload.FileKey == "" {
		t.Fatalf("expected a presigned slot, got %+v", slot.Upload)
	}

	list, err := svc.List(ctx, orgID, offer.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(list))
	}
	if list[0].FileName != "menu.pdf" || list[0].TargetKind != "block" {
		t.Fatalf("unexpected descriptor: %+v", list[0])
	}
}

func TestRequestUploadRejectsUnknownTarget(t *testing.T) {
	orgID := uuid.New()
	offer := testOffer(orgID)
	svc, _ := newTestService(offer)

	_, err := svc.RequestUpload(context.Background(), orgID, offer.ID, nil, transport.RequestUploadRequest{
		TargetKind:  "block",
		TargetID:    uuid.New(),
		FileName:    "menu.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	if err == nil {
		t.Fatal("expected an error for a foreign block target")
	}
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRequestUploadOfferTargetMustBeOffer(t *testing.T) {
	orgID := uuid.New()
	offer := testOffer(orgID)
	svc, _ := newTestService(offer)

	_, err := svc.RequestUpload(context.Background(), orgID, offer.ID, nil, transport.RequestUploadRequest{
		TargetKind:  "offer",
		TargetID:    uuid.New(),
		FileName:    "terms.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	})
	if err == nil {
		t.Fatal("expected an error when the offer target is not the offer itself")
	}
}

func TestDeleteRemovesObject(t *testing.T) {
	orgID := uuid.New()
	offer := testOffer(orgID)
	svc, store := newTestService(offer)
	ctx := context.Background()

	slot, err := svc.RequestUpload(ctx, orgID, offer.ID, nil, transport.RequestUploadRequest{
		TargetKind:  "offer",
		TargetID:    offer.ID,
		FileName:    "terms.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	})
	if err != nil {
		t.Fatalf("RequestUpload: %v", err)
	}

	if err := svc.Delete(ctx, orgID, offer.ID, slot.Attachment.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != slot.Upload.FileKey {
		t.Fatalf("expected the stored object to be removed, got %v", store.deleted)
	}

	list, err := svc.List(ctx, orgID, offer.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no attachments after delete, got %d", len(list))
	}
}
