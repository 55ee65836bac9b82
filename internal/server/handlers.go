package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/game"
)

type createRoomRequest struct {
	HostName string `json:"host_name"`
}

type joinRoomRequest struct {
	PlayerName string `json:"player_name"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type actionRequest struct {
	PlayerID string `json:"player_id"`
	Action   string `json:"action"`
}

type errorData struct {
	Kind    internal.ErrorKind `json:"kind"`
	Message string             `json:"message"`
}

func (s *Server) CreateRoom(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, startTime, errorData{
			Kind:    internal.ErrKindInvalidState,
			Message: "Malformed request body",
		})
		return
	}

	code, playerID, err := s.sync.Create(r.Context(), req.HostName)
	if err != nil {
		writeError(w, startTime, err)
		return
	}

	writeResponse(w, http.StatusCreated, startTime, internal.JoinResultData{
		RoomCode: code,
		PlayerID: playerID,
	})
}

func (s *Server) JoinRoom(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	code := mux.Vars(r)["code"]

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, startTime, errorData{
			Kind:    internal.ErrKindInvalidState,
			Message: "Malformed request body",
		})
		return
	}

	playerID, err := s.sync.Join(r.Context(), code, req.PlayerName)
	if err != nil {
		writeError(w, startTime, err)
		return
	}

	writeResponse(w, http.StatusOK, startTime, internal.JoinResultData{
		RoomCode: code,
		PlayerID: playerID,
	})
}

func (s *Server) GetRoom(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	code := mux.Vars(r)["code"]

	state, err := s.sync.Read(r.Context(), code)
	if err != nil {
		writeError(w, startTime, err)
		return
	}

	writeResponse(w, http.StatusOK, startTime, state)
}

func (s *Server) StartRoom(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	code := mux.Vars(r)["code"]

	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, startTime, errorData{
			Kind:    internal.ErrKindInvalidState,
			Message: "Malformed request body",
		})
		return
	}

	if err := s.sync.Start(r.Context(), code, req.PlayerID); err != nil {
		writeError(w, startTime, err)
		return
	}

	writeResponse(w, http.StatusOK, startTime, "Countdown started")
}

func (s *Server) PlayerAction(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	code := mux.Vars(r)["code"]

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, startTime, errorData{
			Kind:    internal.ErrKindInvalidState,
			Message: "Malformed request body",
		})
		return
	}

	if err := s.sync.Act(r.Context(), code, req.PlayerID, game.Action(req.Action)); err != nil {
		writeError(w, startTime, err)
		return
	}

	writeResponse(w, http.StatusOK, startTime, "Action recorded")
}

func (s *Server) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	code := mux.Vars(r)["code"]

	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, startTime, errorData{
			Kind:    internal.ErrKindInvalidState,
			Message: "Malformed request body",
		})
		return
	}

	if err := s.sync.Leave(r.Context(), code, req.PlayerID); err != nil {
		writeError(w, startTime, err)
		return
	}

	writeResponse(w, http.StatusOK, startTime, "Left room")
}

// statusOf maps the recoverable operation failures onto HTTP statuses.
// Anything without a kind is a real fault and surfaces as a 500.
func statusOf(err error) int {
	switch internal.KindOf(err) {
	case internal.ErrKindNotFound:
		return http.StatusNotFound
	case internal.ErrKindInvalidState:
		return http.StatusBadRequest
	case internal.ErrKindUnauthorized:
		return http.StatusForbidden
	case internal.ErrKindRoomFull, internal.ErrKindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, startTime int64, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("[writeError] Internal error: %v", err)
		writeResponse(w, status, startTime, errorData{Message: "Internal server error"})
		return
	}
	var ge *internal.GameError
	errors.As(err, &ge)
	writeResponse(w, status, startTime, errorData{
		Kind:    ge.Kind,
		Message: ge.Message,
	})
}

func writeResponse(w http.ResponseWriter, statusCode int, startTime int64, data any) {
	endTime := time.Now().UnixMilli()
	resp := internal.Response{
		StatusCode:    statusCode,
		RespStartTime: startTime,
		RespEndTime:   endTime,
		NetRespTime:   endTime - startTime,
		Data:          data,
	}

	// Set response headers
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)

	// Send JSON response
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
