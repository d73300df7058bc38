package console

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"forward-engine/core"
)

// request carries a remote command line to the frame loop.
type request struct {
	line  string
	reply chan<- Reply
}

// Reply is what a remote client receives for each line it sends.
type Reply struct {
	Line   string `json:"line"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Pump runs the remote requests queued since the last call. It must be
// called from the goroutine that owns the scene, once per frame.
func (c *Console) Pump() int {
	n := 0
	for {
		select {
		case req := <-c.requests:
			out, err := c.Submit(req.line)
			r := Reply{Line: req.line, Output: out}
			if err != nil {
				r.Error = err.Error()
			}
			req.reply <- r
			n++
		default:
			return n
		}
	}
}

// submitRemote queues line for the next Pump and waits for its reply.
func (c *Console) submitRemote(ctx context.Context, line string) (Reply, error) {
	reply := make(chan Reply, 1)
	select {
	case c.requests <- request{line: line, reply: reply}:
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler serves the remote console:
//
//	GET  /commands  registered commands as JSON
//	POST /exec      one command line in the body, JSON Reply back
//	GET  /ws        websocket, one text message per line, one JSON Reply each
func (c *Console) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/commands", c.handleCommands).Methods(http.MethodGet)
	r.HandleFunc("/exec", c.handleExec).Methods(http.MethodPost)
	r.HandleFunc("/ws", c.handleWebsocket)
	return r
}

type commandInfo struct {
	Name  string `json:"name"`
	Usage string `json:"usage,omitempty"`
	Help  string `json:"help"`
}

func (c *Console) handleCommands(w http.ResponseWriter, r *http.Request) {
	// The registry is fixed after New, so reading it off the frame loop is safe.
	var out []commandInfo
	for _, cmd := range c.Commands() {
		out = append(out, commandInfo{Name: cmd.Name, Usage: cmd.Usage, Help: cmd.Help})
	}
	writeJSON(w, out)
}

func (c *Console) handleExec(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Line string `json:"line"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reply, err := c.submitRemote(r.Context(), body.Line)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, reply)
}

func (c *Console) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.Logger().Warn("console websocket upgrade", "err", err)
		return
	}
	defer conn.Close()
	log := core.Logger().With("remote", r.RemoteAddr)
	log.Info("console client connected")

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("console websocket read", "err", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		reply, err := c.submitRemote(r.Context(), string(msg))
		if err != nil {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("console websocket write", "err", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		core.Logger().Warn("console response", "err", err)
	}
}

// Serve listens on addr until ctx is cancelled.
func (c *Console) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "console listen")
	}
	srv := &http.Server{Handler: c.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	core.Logger().Info("remote console listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "console serve")
	}
	return nil
}
