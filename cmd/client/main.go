package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"counsel-chat/domain"
	"counsel-chat/session"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL      string        `env:"CHAT_SERVER_URL,default=http://localhost:8080"`
	AppointmentID  string        `env:"CHAT_APPOINTMENT_ID,required=true"`
	Token          string        `env:"CHAT_TOKEN,required=true"`
	LogLevel       string        `env:"LOG_LEVEL,required=true"`
	HistoryTimeout time.Duration `env:"HISTORY_TIMEOUT,default=5s"`
	JoinTimeout    time.Duration `env:"JOIN_TIMEOUT,default=5s"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the room lifecycle: open the session, print history and live
// messages, and forward stdin lines until the user quits.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)
	room := domain.RoomForAppointment(config.AppointmentID)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the room: history and live channel in one call.
	controller := session.NewController(log, session.Options{
		BaseURL:        config.ServerURL,
		Token:          config.Token,
		Room:           room,
		HistoryTimeout: config.HistoryTimeout,
		JoinTimeout:    config.JoinTimeout,
		OnMessage: func(m domain.Message) {
			fmt.Printf("[%s] %s: %s\n",
				m.CreatedAt.Local().Format(time.TimeOnly), m.SenderName, m.Content)
		},
	})
	if err := controller.Open(ctx); err != nil {
		return exitRuntime, fmt.Errorf("could not open room %s: %w", room, err)
	}
	defer func() {
		log.Info("Leaving room...")
		_ = controller.Close()
	}()

	log.Info(">>> Joined! Type a message and press Enter (Ctrl+C to quit)...",
		"server", config.ServerURL, "room", room)

	// 4. Forward stdin lines until EOF or shutdown.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if err := controller.Send(line); err != nil {
				log.Warn("Message not sent", "error", err)
			}
		}
	}
}
