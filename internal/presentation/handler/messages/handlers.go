package messages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/infrastructure/contracts"
	"github.com/2vw/equinox/internal/infrastructure/events"
	"github.com/2vw/equinox/internal/infrastructure/json"
	"github.com/2vw/equinox/internal/infrastructure/logging"
	"github.com/2vw/equinox/internal/infrastructure/metrics"
	"github.com/2vw/equinox/internal/infrastructure/snowflake"
	"github.com/2vw/equinox/internal/infrastructure/validate"
	"github.com/2vw/equinox/internal/presentation/utils"
	"github.com/go-chi/chi/v5"
)

// Handler drives a message action from request to fan-out: validate,
// resolve the room, dispatch on its type, assign an id, persist,
// respond, then publish. Persistence always completes before the
// response is written, and the response is always committed before
// publication is attempted.
type Handler struct {
	roomRepository    domain.RoomRepository
	messageRepository domain.MessageRepository
	generator         *snowflake.Generator
	publisher         events.Publisher
	logger            logging.Logger
	persistTimeout    time.Duration
	publishTimeout    time.Duration
}

func NewHandler(
	roomRepository domain.RoomRepository,
	messageRepository domain.MessageRepository,
	generator *snowflake.Generator,
	publisher events.Publisher,
	logger logging.Logger,
	persistTimeout time.Duration,
	publishTimeout time.Duration,
) *Handler {
	if persistTimeout <= 0 {
		persistTimeout = 5 * time.Second
	}
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}

	return &Handler{
		roomRepository:    roomRepository,
		messageRepository: messageRepository,
		generator:         generator,
		publisher:         publisher,
		logger:            logger,
		persistTimeout:    persistTimeout,
		publishTimeout:    publishTimeout,
	}
}

// CreateMessageHandler godoc
// @Summary      Create a new message
// @Description  Validates and persists a message in a text room, then broadcasts a message_create event to the gateway.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Param        request body createMessageRequest true "Message content"
// @Success      200 {object} createMessageResponse "Message created"
// @Failure      400 {object} json.ErrorResponse "Invalid room id, invalid content, or unsupported room type"
// @Failure      401 {object} json.ErrorResponse "Missing or invalid credential"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Security     TokenAuth
// @Router       /rooms/{roomId}/messages [post]
func (h *Handler) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseSnowflakeParam(r, "roomId")
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user := utils.UserFromContext(r.Context())
	if user == nil {
		json.WriteError(w, http.StatusUnauthorized, "Missing or invalid authentication")
		return
	}

	var req createMessageRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	// Content is checked before any storage round trip: a malformed
	// request must never cost a room lookup.
	if err := domain.ValidateContent(req.Content); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteNotFoundError(w, "Room not found")
		default:
			h.logError("failed to resolve room", roomID, 0, err)
			json.WriteInternalError(w)
		}
		return
	}

	if !room.SupportsMessages() {
		json.WriteError(w, http.StatusBadRequest, "Room type does not support message creation")
		return
	}

	id, err := h.generator.Generate()
	if err != nil {
		h.logError("failed to generate message id", roomID, 0, err)
		json.WriteInternalError(w)
		return
	}

	message, err := domain.NewMessage(id, room, user, req.Content, req.ReferenceID)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	// Once persisting starts, a client disconnect no longer cancels
	// the write; only the bounded timeout does.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.persistTimeout)
	defer cancel()

	if err := h.messageRepository.Create(persistCtx, message); err != nil {
		h.logError("failed to persist message", roomID, id, err)
		json.WriteInternalError(w)
		return
	}

	metrics.MessagesCreated.Inc()

	json.Write(w, http.StatusOK, createMessageResponse{
		Message: *message,
		Nonce:   req.Nonce,
	})

	// The response is committed; fan-out is best-effort and detached.
	h.publishDetached(contracts.EventMessageCreate, events.MessageEventData{
		Message: *message,
		Author:  events.NewAuthor(user),
	})
}

// DeleteMessageHandler godoc
// @Summary      Delete a message
// @Description  Removes a message by its full storage key and broadcasts a message_delete event.
// @Tags         messages
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Param        messageId path string true "Message ID"
// @Success      202 "Deletion accepted"
// @Failure      400 {object} json.ErrorResponse "Invalid ids"
// @Failure      401 {object} json.ErrorResponse "Missing or invalid credential"
// @Failure      404 {object} json.ErrorResponse "Room or message not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Security     TokenAuth
// @Router       /rooms/{roomId}/messages/{messageId} [delete]
func (h *Handler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseSnowflakeParam(r, "roomId")
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	messageID, err := parseSnowflakeParam(r, "messageId")
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user := utils.UserFromContext(r.Context())
	if user == nil {
		json.WriteError(w, http.StatusUnauthorized, "Missing or invalid authentication")
		return
	}

	if _, err := h.resolveRoom(w, r, roomID); err != nil {
		return
	}

	// The lookup recovers the full (id, created_at, room_id) key;
	// deleting by a partial key is invalid against the storage layout.
	message, err := h.messageRepository.GetByID(r.Context(), roomID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMessageNotFound):
			json.WriteNotFoundError(w, "Message not found")
		default:
			h.logError("failed to load message", roomID, messageID, err)
			json.WriteInternalError(w)
		}
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.persistTimeout)
	defer cancel()

	if err := h.messageRepository.Delete(persistCtx, message); err != nil {
		switch {
		case errors.Is(err, domain.ErrMessageNotFound):
			json.WriteNotFoundError(w, "Message not found")
		default:
			h.logError("failed to delete message", roomID, messageID, err)
			json.WriteInternalError(w)
		}
		return
	}

	metrics.MessagesDeleted.Inc()

	w.WriteHeader(http.StatusAccepted)

	// The event's author is the deleting caller, not the original
	// writer: the author's display profile is not reloaded here.
	h.publishDetached(contracts.EventMessageDelete, events.MessageEventData{
		Message: *message,
		Author:  events.NewAuthor(user),
	})
}

// TypingHandler godoc
// @Summary      Signal typing
// @Description  Broadcasts a typing_start event for the caller in the given room. Nothing is persisted.
// @Tags         messages
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Success      204 "Typing signal accepted"
// @Failure      400 {object} json.ErrorResponse "Invalid room id"
// @Failure      401 {object} json.ErrorResponse "Missing or invalid credential"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Security     TokenAuth
// @Router       /rooms/{roomId}/typing [post]
func (h *Handler) TypingHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseSnowflakeParam(r, "roomId")
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user := utils.UserFromContext(r.Context())
	if user == nil {
		json.WriteError(w, http.StatusUnauthorized, "Missing or invalid authentication")
		return
	}

	if _, err := h.resolveRoom(w, r, roomID); err != nil {
		return
	}

	metrics.TypingSignals.Inc()

	w.WriteHeader(http.StatusNoContent)

	h.publishDetached(contracts.EventTypingStart, events.TypingStartData{
		RoomID:    roomID,
		Author:    events.NewAuthor(user),
		Timestamp: time.Now().UTC(),
	})
}

// ListMessagesHandler godoc
// @Summary      List recent messages
// @Tags         messages
// @Produce      json
// @Param        roomId path string true "Room ID"
// @Param        limit query int false "Maximum messages to return (default 50, max 100)"
// @Success      200 {object} listMessagesResponse
// @Failure      400 {object} json.ErrorResponse "Invalid room id"
// @Failure      401 {object} json.ErrorResponse "Missing or invalid credential"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      500 {object} json.ErrorResponse "Internal server error"
// @Security     TokenAuth
// @Router       /rooms/{roomId}/messages [get]
func (h *Handler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseSnowflakeParam(r, "roomId")
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if user := utils.UserFromContext(r.Context()); user == nil {
		json.WriteError(w, http.StatusUnauthorized, "Missing or invalid authentication")
		return
	}

	if _, err := h.resolveRoom(w, r, roomID); err != nil {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messageRepository.ListByRoom(r.Context(), roomID, limit)
	if err != nil {
		h.logError("failed to list messages", roomID, 0, err)
		json.WriteInternalError(w)
		return
	}

	json.Write(w, http.StatusOK, listMessagesResponse{Messages: messages})
}

// resolveRoom loads the room and writes the error response itself on
// failure, returning a non-nil error so callers can bail out.
func (h *Handler) resolveRoom(w http.ResponseWriter, r *http.Request, roomID int64) (*domain.Room, error) {
	room, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteNotFoundError(w, "Room not found")
		default:
			h.logError("failed to resolve room", roomID, 0, err)
			json.WriteInternalError(w)
		}
		return nil, err
	}

	return room, nil
}

// publishDetached schedules a best-effort publication after the
// response has been committed. Failures are logged and counted, never
// retried, and never visible to the caller.
func (h *Handler) publishDetached(event string, data any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.publishTimeout)
		defer cancel()

		if err := h.publisher.Publish(ctx, event, data); err != nil {
			metrics.PublishFailures.WithLabelValues(event).Inc()
			h.logger.Error(logging.RabbitMQ, logging.Publication, "event publish failed", map[logging.ExtraKey]any{
				logging.EventName:    event,
				logging.ErrorMessage: err.Error(),
			})
		}
	}()
}

func (h *Handler) logError(msg string, roomID, messageID int64, err error) {
	extra := map[logging.ExtraKey]any{
		logging.RoomID:       roomID,
		logging.ErrorMessage: err.Error(),
	}
	if messageID != 0 {
		extra[logging.MessageID] = messageID
	}
	h.logger.Error(logging.Internal, logging.Persistence, msg, extra)
}

// parseSnowflakeParam parses a URL id parameter as a non-negative
// 64-bit integer. A malformed id is a validation failure, distinct
// from not-found: it never reaches storage.
func parseSnowflakeParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)

	if err := validate.Field(name, validate.Required(), validate.DigitsOnly())(raw); err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid id", name)
	}

	return id, nil
}
