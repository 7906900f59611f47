package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
	"github.com/Fafaw945/quiz-app/internal/game"
)

// DefaultRoom is used when a client does not name a room.
const DefaultRoom = "main"

const sendBuffer = 32

// WSHandler upgrades HTTP requests to websockets and pumps {type,payload}
// frames between the connection and the session service. The first frame a
// client must send is submit_identity; everything before that is refused.
type WSHandler struct {
	service  *game.Service
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWSHandler builds the websocket handler.
func NewWSHandler(service *game.Service, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeWS wires one websocket connection into the session use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoom
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	connID := uuid.New().String()
	log := h.log.With().Str("conn", connID).Str("room", roomID).Logger()

	send := make(chan domain.Envelope, sendBuffer)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for env := range send {
			if err := conn.WriteJSON(env); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				return
			}
		}
	}()

	joined := false
	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			break
		}

		switch env.Type {
		case domain.EventSubmitIdentity:
			var ident domain.IdentityPayload
			if err := json.Unmarshal(env.Payload, &ident); err != nil {
				h.notice(send, "invalid identity payload")
				continue
			}
			if err := h.service.Join(r.Context(), roomID, connID, send, ident); err != nil {
				h.notice(send, err.Error())
				continue
			}
			joined = true

		case domain.EventToggleReady:
			if !joined {
				h.notice(send, "identity required")
				continue
			}
			if err := h.service.ToggleReady(roomID, connID); err != nil {
				h.notice(send, err.Error())
			}

		case domain.EventRequestStart:
			if !joined {
				h.notice(send, "identity required")
				continue
			}
			if err := h.service.RequestStart(r.Context(), roomID, connID); err != nil {
				h.notice(send, err.Error())
			}

		case domain.EventSubmitAnswer:
			if !joined {
				h.notice(send, "identity required")
				continue
			}
			var sub domain.AnswerSubmission
			if err := json.Unmarshal(env.Payload, &sub); err != nil {
				h.notice(send, "invalid answer payload")
				continue
			}
			if err := h.service.SubmitAnswer(roomID, sub); err != nil {
				h.notice(send, err.Error())
			}

		default:
			h.notice(send, "unsupported message type")
		}
	}

	if joined {
		// Leave detaches the send channel from the room before we
		// close it, so no broadcast can hit a closed channel.
		h.service.Leave(roomID, connID)
	}
	close(send)
	<-writerDone
}

func (h *WSHandler) notice(send chan<- domain.Envelope, message string) {
	env, err := domain.NewEnvelope(domain.EventErrorNotice, domain.ErrorNoticePayload{Message: message})
	if err != nil {
		return
	}
	select {
	case send <- env:
	default:
	}
}
