//go:generate go run go.uber.org/mock/mockgen -source=identity.go -destination=../mocks/mock_identity_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"counsel-chat/domain"
	cerrors "counsel-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IIdentityRepository interface {
	SaveParticipant(p domain.Participant) error
	GetParticipant(id string) (domain.Participant, error)
	ResolveNames(ids []string) map[string]string
}

type IdentityRepository struct {
	db *badger.DB
}

func NewIdentityRepository(db *badger.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// diskParticipant is the stored shape of an identity record.
// Equivalent to DiskMessage for the identity domain.
type diskParticipant struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func identityKey(id string) []byte {
	return []byte("user:" + id)
}

// SaveParticipant upserts an identity record. Records mirror the external
// identity store; this subsystem only reads them to resolve display names.
func (r *IdentityRepository) SaveParticipant(p domain.Participant) error {
	data, err := json.Marshal(diskParticipant{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(identityKey(p.ID), data)
	})
}

func (r *IdentityRepository) GetParticipant(id string) (domain.Participant, error) {
	var stored diskParticipant
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(identityKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Participant{}, cerrors.ErrUnknownParticipant
	}
	if err != nil {
		return domain.Participant{}, err
	}
	return domain.Participant{ID: stored.ID, DisplayName: stored.DisplayName, Role: stored.Role}, nil
}

// ResolveNames batch-resolves sender ids to current display names for
// history reads. An unknown id falls back to the id itself so a renamed or
// purged account never blanks out a conversation.
func (r *IdentityRepository) ResolveNames(ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if _, done := names[id]; done {
			continue
		}
		p, err := r.GetParticipant(id)
		if err != nil {
			names[id] = id
			continue
		}
		names[id] = p.DisplayName
	}
	return names
}
