package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"counsel-chat/contract"
	"counsel-chat/domain"
	"counsel-chat/domain/chat"
	"counsel-chat/domain/event"
	"counsel-chat/mocks"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFanoutWorker_Delivers_To_Every_Member_Including_Sender(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockSink := mocks.NewMockEventSink(ctrl)

	room := domain.RoomForAppointment("42")
	// Given three members in the room, one of them the sender
	roomSinks := []contract.EventSink{mockSink, mockSink, mockSink}
	mockRegistry.EXPECT().SinksForRoom(room).Return(roomSinks).Times(1)

	var received []event.MessagePosted
	mockSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			received = append(received, evt.(event.MessagePosted))
			return nil
		}).
		Times(3)

	fanoutWorker := NewFanoutWorker(log, mockRegistry, nil, nil, 10*time.Second)

	// When a message event reaches the fanout point
	evt := event.MessagePosted{Room: room, SenderID: "stu-101", Content: "hello"}
	fanoutWorker.Fanout(context.Background(), evt)

	// Then every member received it, the sender's sink included
	req.Len(received, 3)
	for _, got := range received {
		req.Equal(evt, got)
	}
}

func TestFanoutWorker_Run_Stamps_And_Preserves_Order(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockSink := mocks.NewMockEventSink(ctrl)

	room := domain.RoomForAppointment("42")
	mockRegistry.EXPECT().SinksForRoom(room).
		Return([]contract.EventSink{mockSink}).Times(3)

	done := make(chan struct{})
	var received []event.MessagePosted
	mockSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			received = append(received, evt.(event.MessagePosted))
			if len(received) == 3 {
				close(done)
			}
			return nil
		}).
		Times(3)

	commands := make(chan chat.Command, 3)
	fanoutWorker := NewFanoutWorker(log, mockRegistry, commands, nil, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanoutWorker.Run(ctx) }()

	// When three messages are dispatched in order
	for _, text := range []string{"one", "two", "three"} {
		commands <- chat.PostMessageCommand{Room: room, SenderID: "stu-101", Content: text}
	}

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("Fanout did not deliver in time")
	}

	// Then delivery order matches dispatch order
	req.Equal([]string{"one", "two", "three"},
		[]string{received[0].Content, received[1].Content, received[2].Content})

	// And every event carries a server-side id and timestamp
	for _, evt := range received {
		req.NotEqual(uuid.Nil, evt.ID)
		req.False(evt.At.IsZero())
	}
}

func TestFanoutWorker_Permanent_Sinks_Come_First(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	permanentSink := mocks.NewMockEventSink(ctrl)
	memberSink := mocks.NewMockEventSink(ctrl)

	room := domain.RoomForAppointment("42")
	mockRegistry.EXPECT().SinksForRoom(room).
		Return([]contract.EventSink{memberSink}).Times(1)

	var order []string
	permanentSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			order = append(order, "permanent")
			return nil
		}).Times(1)
	memberSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			order = append(order, "member")
			return nil
		}).Times(1)

	fanoutWorker := NewFanoutWorker(log, mockRegistry, nil,
		[]contract.EventSink{permanentSink}, 10*time.Second)

	fanoutWorker.Fanout(context.Background(), event.MessagePosted{Room: room})

	// The durability queue is fed before any member delivery
	req.Equal([]string{"permanent", "member"}, order)
}

func TestFanoutWorker_Sink_Error_Does_Not_Block_Others(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	slowSink := mocks.NewMockEventSink(ctrl)
	healthySink := mocks.NewMockEventSink(ctrl)

	room := domain.RoomForAppointment("42")
	mockRegistry.EXPECT().SinksForRoom(room).
		Return([]contract.EventSink{slowSink, healthySink}).Times(1)

	// Given one sink that never answers within the timeout
	slowSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			<-ctx.Done()
			return ctx.Err()
		}).Times(1)

	delivered := false
	healthySink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			delivered = true
			return nil
		}).Times(1)

	fanoutWorker := NewFanoutWorker(log, mockRegistry, nil, nil, 20*time.Millisecond)

	fanoutWorker.Fanout(context.Background(), event.MessagePosted{Room: room})

	// Then the healthy member still received the event
	req.True(delivered)
}

func TestFanoutWorker_No_Members_Is_A_Noop(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)

	room := domain.RoomForAppointment("nobody")
	mockRegistry.EXPECT().SinksForRoom(room).Return(nil).Times(1)

	fanoutWorker := NewFanoutWorker(log, mockRegistry, nil, nil, 10*time.Second)

	// A message to an empty room is dropped without error
	fanoutWorker.Fanout(context.Background(), event.MessagePosted{Room: room})
}
