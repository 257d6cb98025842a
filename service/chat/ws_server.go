package chat

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Meizuno/Chat/logger"
	"github.com/Meizuno/Chat/tools/errs"
	"github.com/Meizuno/Chat/tools/ids"
	"github.com/Meizuno/Chat/tools/safe"
	"github.com/Meizuno/Chat/tools/security"
)

// Origin policy is enforced by the gin middleware in front of this route.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServerConf tunes the relay endpoint.
type ServerConf struct {
	DefaultRoom   string
	SendQueueSize int
	JWT           security.Options
	RequireAuth   bool // reject handshakes without a valid bearer token
}

func (c *ServerConf) norm() {
	if c.DefaultRoom == "" {
		c.DefaultRoom = "ROOM"
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
}

// Server is the realtime room broker: it accepts websocket upgrades, files
// each connection into a room, and relays text frames.
type Server struct {
	hub  *Hub
	conf ServerConf
}

func NewServer(hub *Hub, conf ServerConf) *Server {
	safe.MustNotNil(hub, "hub")
	conf.norm()
	return &Server{hub: hub, conf: conf}
}

func (s *Server) Hub() *Hub { return s.hub }

// HandleWS is the upgrade endpoint. Connection lifecycle:
// handshake -> join room (+notice to the others) -> read loop -> leave.
func (s *Server) HandleWS(c *gin.Context) {
	// A token on the handshake is verified when present; whether a missing
	// token rejects the connection is the RequireAuth policy.
	if token := handshakeToken(c); token != "" {
		if _, err := security.Verify(s.conf.JWT, token, security.AudAccess); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errs.Msg(err)})
			return
		}
	} else if s.conf.RequireAuth {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Usually a plain HTTP request hitting the ws route.
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	roomName := c.Query("room")
	if roomName == "" {
		roomName = s.conf.DefaultRoom
	}

	client := NewClient(ids.GenerateString(), ws, s.conf.SendQueueSize)
	safe.SafeGo(client.WritePump)

	room := s.hub.Join(roomName, client)
	logger.Infof("[ws] joined room=%s connID=%s members=%d", roomName, client.ConnID, room.Size())

	s.readLoop(room, client)

	s.hub.Drop(room, client.ConnID)
	client.Close()
	logger.Infof("[ws] left room=%s connID=%s members=%d", roomName, client.ConnID, room.Size())
}

// readLoop relays inbound frames until the peer goes away. Explicit close
// and transport failure exit the same way.
func (s *Server) readLoop(room *Room, client *Client) {
	for {
		mt, data, err := client.WS.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Debugf("[ws] peer closed connID=%s err=%v", client.ConnID, err)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Debugf("[ws] read timeout connID=%s err=%v", client.ConnID, err)
			} else {
				logger.Debugf("[ws] read error connID=%s err=%v", client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		text := string(data)
		if expr, ok := strings.CutPrefix(text, "calc "); ok {
			s.replyCalc(client, expr)
		}

		// The raw message is always rebroadcast to the whole room, the
		// sender included.
		room.Broadcast(data)
	}
}

// replyCalc evaluates the command privately; the reply goes only to the
// requesting connection and an evaluator failure never ends the session.
func (s *Server) replyCalc(client *Client, expr string) {
	var reply string
	result, err := Eval(expr)
	if err != nil {
		reply = "Could not evaluate \"" + expr + "\": " + errs.Msg(err)
	} else {
		reply = "The result of \"" + expr + "\" is: " + FormatResult(result)
	}
	if !client.Enqueue([]byte(reply)) {
		logger.Debugf("[ws] calc reply dropped connID=%s", client.ConnID)
	}
}

func handshakeToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
