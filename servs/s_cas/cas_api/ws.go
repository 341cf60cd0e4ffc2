// servs/s_cas/cas_api/ws.go
package cas_api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSEvent is one message of a query stream.
type WSEvent struct {
	Type   string            `json:"type"` // match, done or error
	Record *cas_serv.Record  `json:"record,omitempty"`
	Stats  *x_cas.QueryStats `json:"stats,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// handleWS answers every QueryRequest message with one match event per
// key followed by a done event.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, rd, err := conn.NextReader()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		var req cas_serv.QueryRequest
		dec := json.NewDecoder(rd)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			if conn.WriteJSON(WSEvent{Type: "error", Error: err.Error()}) != nil {
				return
			}
			continue
		}

		res, _, err := s.query(req)
		if err != nil {
			if conn.WriteJSON(WSEvent{Type: "error", Error: err.Error()}) != nil {
				return
			}
			continue
		}
		for i := range res.Matches {
			if err := conn.WriteJSON(WSEvent{Type: "match", Record: &res.Matches[i]}); err != nil {
				return
			}
		}
		if err := conn.WriteJSON(WSEvent{Type: "done", Stats: &res.Stats}); err != nil {
			return
		}
	}
}
