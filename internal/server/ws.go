package server

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/scythe504/partydeck-backend/internal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the connection and streams state snapshots for
// one room: an immediate snapshot on connect, then one message per observed
// change. The client sends nothing over the socket; mutations go through
// the HTTP routes and presence through the synchronizer's own heartbeats.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade failed: ", err)
		return
	}
	roomCode := mux.Vars(r)["code"]

	// Subscription callbacks and the initial snapshot race on the socket.
	var writeMu sync.Mutex
	send := func(msg any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	state, err := s.sync.Read(r.Context(), roomCode)
	if err != nil {
		var ge *internal.GameError
		reason := "Room unavailable"
		if errors.As(err, &ge) {
			reason = ge.Message
		}
		_ = send(internal.Message[internal.RoomClosedData]{
			Type: "room_closed",
			Data: internal.RoomClosedData{RoomCode: roomCode, Reason: reason},
		})
		conn.Close()
		return
	}

	if err := send(stateUpdate(roomCode, state)); err != nil {
		log.Printf("[HandleWebSocket] Room %s: initial snapshot failed: %v", roomCode, err)
		conn.Close()
		return
	}

	cancel, err := s.sync.Subscribe(roomCode, func(st *internal.GameState) {
		if err := send(stateUpdate(roomCode, st)); err != nil {
			log.Printf("[HandleWebSocket] Room %s: write failed: %v", roomCode, err)
		}
	})
	if err != nil {
		log.Printf("[HandleWebSocket] Room %s: subscribe failed: %v", roomCode, err)
		conn.Close()
		return
	}

	// Reader loop exists only to notice the client going away.
	go func() {
		defer cancel()
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				log.Printf("[HandleWebSocket] Room %s: client disconnected", roomCode)
				return
			}
		}
	}()
}

func stateUpdate(roomCode string, state *internal.GameState) internal.Message[internal.StateUpdateData] {
	return internal.Message[internal.StateUpdateData]{
		Type: "state_update",
		Data: internal.StateUpdateData{RoomCode: roomCode, State: state},
	}
}
