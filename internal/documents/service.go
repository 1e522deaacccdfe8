package documents

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/locauto/locauto/internal/types"
)

// Recorder persists the metadata of a generated document.
type Recorder interface {
	RecordDocument(ctx context.Context, doc types.GeneratedDocument) error
}

// ContractTemplate is the rendering template for rental contracts.
const ContractTemplate = "rental_contract"

// ContractPayload is the data handed to the rendering service for a
// rental contract.
type ContractPayload struct {
	Contract types.Contract `json:"contract"`
	Client   types.Client   `json:"client"`
	Vehicle  types.Vehicle  `json:"vehicle"`
}

// Service renders a document, stores it, records its metadata and returns
// a pre-signed download URL.
type Service struct {
	renderer Renderer
	storage  Storage
}

// NewService creates a document service.
func NewService(renderer Renderer, storage Storage) *Service {
	return &Service{renderer: renderer, storage: storage}
}

// GenerateContract produces the rental contract PDF for the given data.
// The caller provides the tenant's recorder so the document row lands in
// that tenant's database.
func (s *Service) GenerateContract(ctx context.Context, tenantID string, recorder Recorder, payload ContractPayload) (*types.DocumentResponse, error) {
	pdf, err := s.renderer.Render(ctx, ContractTemplate, payload)
	if err != nil {
		return nil, err
	}

	docID := ulid.Make().String()
	key := ObjectKey(tenantID, docID)
	if err := s.storage.Put(ctx, key, bytes.NewReader(pdf), int64(len(pdf))); err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("contract-%s.pdf", payload.Contract.ID)
	doc := types.GeneratedDocument{
		ID:         docID,
		ContractID: payload.Contract.ID,
		FileName:   fileName,
		ObjectKey:  key,
		CreatedAt:  time.Now().UTC(),
	}
	if err := recorder.RecordDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	url, _, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		return nil, err
	}

	return &types.DocumentResponse{URL: url, FileName: fileName}, nil
}
