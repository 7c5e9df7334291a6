package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/webitel/screens-rating/internal/domain/model"
	wsmarshaller "github.com/webitel/screens-rating/internal/handler/marshaller/ws"
	"github.com/webitel/screens-rating/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// WSHandler runs one screen per connection: commands in, listener notifications out.
type WSHandler struct {
	logger   *slog.Logger
	screens  service.Screener
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, screens service.Screener) *WSHandler {
	return &WSHandler{
		logger:  logger,
		screens: screens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. IDENTITY: optional ?screenletId=, otherwise allocated
	identity := model.NoIdentity
	if raw := r.URL.Query().Get("screenletId"); raw != "" {
		id, err := model.ParseIdentity(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		identity = id
	}

	// 2. UPGRADE TO WEBSOCKET
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WS_UPGRADE_FAILED", "err", err)
		return
	}
	defer conn.Close()

	// 3. OPEN THE SCREEN. Listener notifications are queued for the writer.
	out := make(chan []byte, sendBuffer)
	s := &screen{out: out, seqs: make(map[uuid.UUID]int64), logger: h.logger}
	it, err := h.screens.Open(identity, s)
	if err != nil {
		h.logger.Error("WS_SCREEN_OPEN_FAILED", "err", err)
		return
	}
	defer it.Close()

	h.logger.Info("WS_OPENED", "identity", it.GetIdentity())
	s.send(wsmarshaller.MarshallConnected(it.GetIdentity()))

	done := make(chan struct{})
	go h.writePump(conn, out, done)

	// 4. READ PUMP: every command is one dispatch
	conn.SetReadLimit(4 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WS_READ_FAILED", "identity", it.GetIdentity(), "err", err)
			}
			break
		}

		cmd, err := wsmarshaller.ParseCommand(data)
		if err != nil {
			s.send(wsmarshaller.MarshallBadCommand(err))
			continue
		}
		if err := s.dispatch(r.Context(), it, cmd); err != nil {
			s.send(wsmarshaller.MarshallDispatchError(cmd.Seq, err))
		}
	}

	// 5. DRAIN: the writer sends a close frame and exits.
	s.close()
	<-done
	h.logger.Info("WS_CLOSED", "identity", it.GetIdentity())
}

func (h *WSHandler) writePump(conn *websocket.Conn, out <-chan []byte, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("WS_SEND_FAILED", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ service.RequestListener = (*screen)(nil)

// screen serialises notifications from the cell goroutine and the read pump.
type screen struct {
	mu     sync.Mutex
	out    chan []byte
	closed bool
	logger *slog.Logger

	// seqs maps request tokens to the command seq that produced them.
	seqMu sync.Mutex
	seqs  map[uuid.UUID]int64
}

// dispatch records the seq before the result can be delivered.
func (s *screen) dispatch(ctx context.Context, it *service.DeleteRatingInteractor, cmd *wsmarshaller.WSCommand) error {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	requestID, err := it.Dispatch(ctx, cmd.ClassName, cmd.ClassPK)
	if err != nil {
		return err
	}
	s.seqs[requestID] = cmd.Seq
	return nil
}

func (s *screen) OnDeleteOutcome(requestID uuid.UUID, err error) {
	s.seqMu.Lock()
	seq := s.seqs[requestID]
	delete(s.seqs, requestID)
	s.seqMu.Unlock()

	if err != nil {
		s.send(wsmarshaller.MarshallFailure(seq, requestID, err))
		return
	}
	s.send(wsmarshaller.MarshallSuccess(seq, requestID))
}

func (s *screen) OnDeleteSuccess() { s.OnDeleteOutcome(uuid.Nil, nil) }

func (s *screen) OnDeleteFailure(err error) { s.OnDeleteOutcome(uuid.Nil, err) }

func (s *screen) send(data []byte, err error) {
	if err != nil {
		s.logger.Error("WS_MARSHAL_FAILED", "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- data:
	default:
		s.logger.Warn("WS_SEND_BUFFER_FULL", "bytes", len(data))
	}
}

func (s *screen) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}
