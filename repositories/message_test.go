package repositories

import (
	"log/slog"
	"testing"
	"time"

	"counsel-chat/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_Multiple_Messages(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	room := domain.RoomForAppointment("42")
	content := "this message will self destruct in 5 seconds"
	at := time.Now().UTC().Truncate(time.Millisecond)
	diskMessages := []DiskMessage{
		{uuid.New(), room, "stu-101", content, at},
		{uuid.New(), room, "psy-201", content, at.Add(1 * time.Minute)},
		{uuid.New(), room, "stu-101", content, at.Add(2 * time.Minute)},
	}
	for _, dm := range diskMessages {
		err := repository.StoreMessage(dm)
		req.NoError(err)
	}

	fetchedMessages, err := repository.History(room)
	req.NoError(err)
	req.Len(fetchedMessages, len(diskMessages))
	req.Equal(diskMessages, fetchedMessages)
}

func Test_Record_Multiple_Messages_And_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	limit := 2
	repository := NewMessageRepository(db, slog.Default(), &limit)
	room := domain.RoomForAppointment("42")
	content := "this message will self destruct in 5 seconds"
	at := time.Now().UTC().Truncate(time.Millisecond)
	diskMessages := []DiskMessage{
		{uuid.New(), room, "stu-101", content, at},
		{uuid.New(), room, "psy-201", content, at.Add(1 * time.Minute)},
		{uuid.New(), room, "stu-102", content, at.Add(2 * time.Minute)},
	}
	for _, dm := range diskMessages {
		err := repository.StoreMessage(dm)
		req.NoError(err)
	}

	// The limit keeps the most recent messages, still in ascending order
	fetchedMessages, err := repository.History(room)
	req.NoError(err)
	req.Len(fetchedMessages, limit)
	req.Equal(diskMessages[1:], fetchedMessages)
}

func Test_History_Is_Isolated_Per_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	room1 := domain.RoomForAppointment("42")
	room2 := domain.RoomForAppointment("43")
	at := time.Now().UTC().Truncate(time.Millisecond)

	inRoom1 := DiskMessage{uuid.New(), room1, "stu-101", "only for room 1", at}
	inRoom2 := DiskMessage{uuid.New(), room2, "stu-102", "only for room 2", at}
	req.NoError(repository.StoreMessage(inRoom1))
	req.NoError(repository.StoreMessage(inRoom2))

	fetchedMessages, err := repository.History(room1)
	req.NoError(err)
	req.Equal([]DiskMessage{inRoom1}, fetchedMessages)
}

func Test_History_Same_Timestamp_Keeps_Insertion_Order(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	room := domain.RoomForAppointment("42")
	at := time.Now().UTC().Truncate(time.Millisecond)

	// Same room, same nanosecond: the sequence suffix must keep them apart
	// and return them in the order they were stored.
	first := DiskMessage{uuid.New(), room, "stu-101", "first", at}
	second := DiskMessage{uuid.New(), room, "psy-201", "second", at}
	third := DiskMessage{uuid.New(), room, "stu-101", "third", at}
	for _, dm := range []DiskMessage{first, second, third} {
		req.NoError(repository.StoreMessage(dm))
	}

	fetchedMessages, err := repository.History(room)
	req.NoError(err)
	req.Equal([]DiskMessage{first, second, third}, fetchedMessages)
}

func Test_History_Empty_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)

	fetchedMessages, err := repository.History(domain.RoomForAppointment("nobody"))
	req.NoError(err)
	req.Empty(fetchedMessages)
}
