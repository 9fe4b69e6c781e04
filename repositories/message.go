//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"counsel-chat/domain"
	cerrors "counsel-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	History(room domain.RoomID) ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
	seq           atomic.Uint64
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the persisted shape of a message. The sender's display name
// is deliberately absent: history reads join it against the identity store,
// so a record always renders the sender's current name.
type DiskMessage struct {
	ID       uuid.UUID     `json:"id"`
	Room     domain.RoomID `json:"room"`
	SenderID string        `json:"sender_id"`
	Content  string        `json:"content"`
	At       time.Time     `json:"at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{seq_padded}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Break same-nanosecond ties by insertion order, via a process-local
//     monotonic sequence instead of a random suffix.
func (m *MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%012d",
		message.Room,
		message.At.UnixNano(),
		m.seq.Add(1),
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrPersistence, err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrPersistence, err)
	}
	return nil
}

// History retrieves all messages of a room in ascending timestamp order,
// using a prefix scan. Thanks to the padded timestamp in the key, messages
// are naturally sorted by time. When a limit is configured, only the most
// recent messages are kept; the result stays ascending either way.
// The call is restartable: it always reflects durable state at call time.
func (m *MessageRepository) History(room domain.RoomID) ([]DiskMessage, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this room, then walk back.
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached for %s", *m.limitMessages, room))
				break
			}
			item := it.Item()
			if err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte{}, value...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrHistoryFetch, err)
	}

	// The reverse scan collected newest first; flip into display order.
	diskMessages := make([]DiskMessage, 0, len(byteMessages))
	for i := len(byteMessages) - 1; i >= 0; i-- {
		var message DiskMessage
		if err = json.Unmarshal(byteMessages[i], &message); err != nil {
			return nil, fmt.Errorf("%w: %v", cerrors.ErrHistoryFetch, err)
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, nil
}
