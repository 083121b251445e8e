package http

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/runner"
	"github.com/aretw0/railchat/pkg/session"
)

// chatRequest is the incoming websocket message format.
type chatRequest struct {
	SessionID string `json:"session_id"` // empty keeps the socket's conversation
	Text      string `json:"text"`
}

// chatResponse is the outgoing websocket message format.
type chatResponse struct {
	Type      string             `json:"type"` // "turn" or "error"
	SessionID string             `json:"session_id"`
	Result    *domain.TurnResult `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(s.origins) == 0 || slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
		},
	}
}

// Chat handles GET /ws. A socket holds one conversation: the first message picks the
// session id, or a new one is generated, and later messages reuse it.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := ""
	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		switch {
		case req.SessionID != "":
			sessionID = req.SessionID
		case sessionID == "":
			sessionID = session.NewID()
		}

		if req.Text == "" {
			s.send(conn, chatResponse{Type: "error", SessionID: sessionID, Error: "text is required"})
			continue
		}

		res, err := runner.Respond(r.Context(), s.Sessions, s.Extractor, sessionID, req.Text)
		if err != nil {
			s.send(conn, chatResponse{Type: "error", SessionID: sessionID, Error: err.Error()})
			continue
		}
		s.publish(sessionID, res)
		s.send(conn, chatResponse{Type: "turn", SessionID: sessionID, Result: res})
		if res.Ended {
			closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "conversation ended")
			if err := conn.WriteMessage(websocket.CloseMessage, closing); err != nil {
				s.logger.Warn("websocket close failed", "error", err)
			}
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
}
