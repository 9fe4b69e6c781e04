package ws

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"counsel-chat/auth"
	"counsel-chat/mocks"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSecret = "unit-test-secret"

func TestHandleWS_Rejects_Invalid_Token(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service := mocks.NewMockIChatService(ctrl)

	handler := NewHandler(slog.Default(), service, auth.NewTokenVerifier(testSecret), 16)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWS))
	defer server.Close()

	wsURL := strings.Replace(server.URL, "http", "ws", 1) + "?token=forged"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWS_Join_Is_Acknowledged(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service := mocks.NewMockIChatService(ctrl)
	service.EXPECT().JoinRoom(gomock.Any(), gomock.Any(), gomock.Any()).Times(1)
	service.EXPECT().Disconnect(gomock.Any()).AnyTimes()

	handler := NewHandler(slog.Default(), service, auth.NewTokenVerifier(testSecret), 16)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWS))
	defer server.Close()

	token, err := auth.GenerateToken(testSecret, "stu-101", "Maya L.",
		[]string{"student"}, 1*time.Hour)
	req.NoError(err)

	wsURL := strings.Replace(server.URL, "http", "ws", 1) + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.NoError(err)
	defer conn.Close()

	// When the connection joins a room
	req.NoError(conn.WriteJSON(Envelope{Type: TypeJoin, RoomID: "appt-42"}))

	// Then the server acknowledges before any message flows
	var ack JoinedEvent
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	req.NoError(conn.ReadJSON(&ack))
	req.Equal(TypeJoined, ack.Type)
	req.Equal("appt-42", ack.RoomID)
}

func TestHandleWS_Join_Without_Room_Is_An_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service := mocks.NewMockIChatService(ctrl)
	service.EXPECT().Disconnect(gomock.Any()).AnyTimes()

	handler := NewHandler(slog.Default(), service, auth.NewTokenVerifier(testSecret), 16)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWS))
	defer server.Close()

	token, err := auth.GenerateToken(testSecret, "stu-101", "Maya L.",
		[]string{"student"}, 1*time.Hour)
	req.NoError(err)

	wsURL := strings.Replace(server.URL, "http", "ws", 1) + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.NoError(err)
	defer conn.Close()

	req.NoError(conn.WriteJSON(Envelope{Type: TypeJoin}))

	var errEvent ErrorEvent
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	req.NoError(conn.ReadJSON(&errEvent))
	req.Equal(TypeError, errEvent.Type)
	req.Equal("bad_request", errEvent.Code)
}
