package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomdesk/internal/events"
	"roomdesk/internal/models"
)

// MessageSender is the part of the Telegram client the notifier uses.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// RetryConfig holds retry behavior for failed sends.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelays: []time.Duration{
			1 * time.Second,
			5 * time.Second,
			30 * time.Second,
		},
	}
}

// TelegramNotifier pushes booking and appointment updates to the
// configured admin chats. Sends are rate limited so a burst of bookings
// cannot trip the Telegram API limits.
type TelegramNotifier struct {
	sender  MessageSender
	chatIDs []int64
	limiter *rate.Limiter
	retry   RetryConfig
	logger  *zerolog.Logger
}

// NewTelegramNotifier builds a notifier around an authorized bot client.
func NewTelegramNotifier(sender MessageSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:  sender,
		chatIDs: chatIDs,
		limiter: rate.NewLimiter(rate.Limit(20), 30),
		retry:   DefaultRetryConfig(),
		logger:  logger,
	}
}

// NewBotClient connects to the Telegram API with the given token.
func NewBotClient(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

// Subscribe registers the notifier's event handlers on the bus. Handlers
// run on their own workers so retrying Telegram sends never holds up the
// publishing request.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bus.SubscribeAsync(events.BookingCreated, n.handleBookingEvent("New booking request"))
	bus.SubscribeAsync(events.BookingConfirmed, n.handleBookingEvent("Booking confirmed"))
	bus.SubscribeAsync(events.BookingDeleted, n.handleBookingEvent("Booking removed"))
	bus.SubscribeAsync(events.AppointmentCreated, n.handleAppointmentEvent("New appointment request"))
	bus.SubscribeAsync(events.AppointmentDecided, n.handleAppointmentEvent("Appointment decided"))
}

func (n *TelegramNotifier) handleBookingEvent(title string) events.EventHandler {
	return func(event events.Event) error {
		var booking models.Booking
		if err := json.Unmarshal(event.Payload, &booking); err != nil {
			return fmt.Errorf("decode booking event: %w", err)
		}

		text := fmt.Sprintf("%s\n%s, %s\n%s - %s\n%s (%s)",
			title,
			booking.RoomName,
			booking.StartTime.Format("Mon 02 Jan"),
			booking.StartTime.Format("15:04"),
			booking.EndTime.Format("15:04"),
			booking.CustomerName,
			booking.CustomerEmail)

		return n.Broadcast(context.Background(), text)
	}
}

func (n *TelegramNotifier) handleAppointmentEvent(title string) events.EventHandler {
	return func(event events.Event) error {
		var req models.AppointmentRequest
		if err := json.Unmarshal(event.Payload, &req); err != nil {
			return fmt.Errorf("decode appointment event: %w", err)
		}

		text := fmt.Sprintf("%s\n%s on %s, %s - %s\n%s (%s)",
			title,
			req.StaffUsername,
			req.Date,
			req.StartTime,
			req.EndTime,
			req.CustomerName,
			req.CustomerEmail)
		if req.Status != models.RequestPending {
			text += "\nStatus: " + req.Status
		}

		return n.Broadcast(context.Background(), text)
	}
}

// Broadcast sends the text to every configured chat.
func (n *TelegramNotifier) Broadcast(ctx context.Context, text string) error {
	for _, chatID := range n.chatIDs {
		if err := n.sendWithRetry(ctx, chatID, text); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to deliver notification")
		}
	}
	return nil
}

func (n *TelegramNotifier) sendWithRetry(ctx context.Context, chatID int64, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.retry.MaxRetries; attempt++ {
		_, err := n.sender.Send(tgbotapi.NewMessage(chatID, text))
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < n.retry.MaxRetries {
			delay := n.retry.RetryDelays[attempt]
			n.logger.Warn().Err(err).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Int64("chat_id", chatID).
				Msg("Retrying notification send")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
