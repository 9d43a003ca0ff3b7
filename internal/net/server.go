package net

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"skoll/internal/engine"
	"skoll/internal/feed"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	defaultNWorkers     = 4
	defaultWriteTimeout = 5 * time.Second
	shutdownGrace       = 2 * time.Second
	requestChanSize     = 100
)

// ClientSession contains relevant information pertaining to an individual
// connected websocket session.
type ClientSession struct {
	conn *websocket.Conn

	// writeLock serializes frame writes; gorilla connections allow only
	// one concurrent writer.
	writeLock sync.Mutex

	// marketData marks the session as subscribed to the public stream of
	// ticks and executed trades.
	marketData bool
}

func (c *ClientSession) send(event Event) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(event)
}

// ClientRequest links a parsed request to the session that sent it.
type ClientRequest struct {
	session *ClientSession
	request Request
}

type Server struct {
	address string
	engine  *engine.Engine
	feed    *feed.Feed
	cancel  context.CancelFunc

	upgrader websocket.Upgrader

	clientSessions     map[string]*ClientSession
	clientSessionsLock sync.Mutex

	clientRequests chan ClientRequest
}

func New(address string, eng *engine.Engine, marketFeed *feed.Feed) *Server {
	return &Server{
		address:        address,
		engine:         eng,
		feed:           marketFeed,
		upgrader:       websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clientSessions: make(map[string]*ClientSession),
		clientRequests: make(chan ClientRequest, requestChanSize),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	s.cancel()
}

func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	// Setup a cancel on the context for future shutdown.
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	httpServer := &http.Server{Addr: s.address, Handler: mux}

	// Start the request workers. Per-symbol serialization lives in the
	// engine, so several workers can dispatch in parallel safely.
	for i := 0; i < defaultNWorkers; i++ {
		t.Go(func() error {
			return s.worker(t)
		})
	}

	// Start the market data feed and its broadcast loop.
	t.Go(func() error {
		return s.feed.Run(t)
	})
	t.Go(func() error {
		return s.broadcastTicks(t)
	})

	// Tear the listener down once the context is cancelled. Open sessions
	// are closed first so their read loops unblock and Shutdown can drain.
	t.Go(func() error {
		<-ctx.Done()
		s.closeClientSessions()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownGrace)
		defer done()
		return httpServer.Shutdown(shutdownCtx)
	})

	log.Info().Str("address", s.address).Msg("server running")

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	s.cancel()
	if werr := t.Wait(); err == nil {
		err = werr
	}
	return err
}

// handleUpgrade promotes an HTTP request to a websocket session and reads
// frames off it until the client goes away. Parsed requests are passed to
// the worker pool; the read loop never calls into the engine itself.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("error upgrading client connection")
		return
	}

	address := conn.RemoteAddr().String()
	session := &ClientSession{conn: conn}
	s.addClientSession(address, session)
	log.Info().Str("address", address).Msg("new client added")

	defer func() {
		s.deleteClientSession(address)
		if err := conn.Close(); err != nil {
			log.Error().Str("address", address).Err(err).Msg("error closing connection")
		}
		log.Info().Str("address", address).Msg("client disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("address", address).Msg("error reading from connection")
			}
			return
		}

		request, err := parseRequest(raw)
		if err != nil {
			log.Error().Err(err).Str("address", address).Msg("error parsing message")
			s.reply(session, errorEvent(err))
			continue
		}

		s.clientRequests <- ClientRequest{session: session, request: request}
	}
}

// worker drains the request channel and actions each request against the
// engine.
func (s *Server) worker(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case clientRequest := <-s.clientRequests:
			s.dispatch(clientRequest)
		}
	}
}

func (s *Server) dispatch(clientRequest ClientRequest) {
	session := clientRequest.session
	request := clientRequest.request

	switch request.Action {
	case SubmitOrder:
		payload, err := request.submitOrder()
		if err != nil {
			s.reply(session, errorEvent(err))
			return
		}

		order, trades, err := s.engine.SubmitOrder(
			payload.ClientID,
			payload.Symbol,
			payload.Price,
			payload.Quantity,
			payload.Side,
		)
		if err != nil {
			log.Error().Err(err).Str("client", payload.ClientID).Msg("order rejected")
			s.reply(session, errorEvent(err))
			return
		}

		log.Info().
			Str("order", order.UUID).
			Str("symbol", order.Symbol).
			Int("trades", len(trades)).
			Msg("order submitted")

		s.reply(session, orderSubmittedEvent(order))
		for _, trade := range trades {
			event := tradeExecutedEvent(trade)
			s.reply(session, event)
			s.broadcast(event, session)
		}

	case CancelOrder:
		payload, err := request.cancelOrder()
		if err != nil {
			s.reply(session, errorEvent(err))
			return
		}

		if err := s.engine.CancelOrder(payload.OrderID, payload.ClientID); err != nil {
			log.Error().Err(err).Str("order", payload.OrderID).Msg("cancellation failed")
			s.reply(session, errorEvent(err))
			return
		}

		log.Info().Str("order", payload.OrderID).Msg("order cancelled")
		s.reply(session, orderCancelledEvent(payload.OrderID))

	case SubscribeMarketData:
		s.clientSessionsLock.Lock()
		session.marketData = true
		s.clientSessionsLock.Unlock()
	}
}

// broadcastTicks forwards feed ticks to every subscribed session.
func (s *Server) broadcastTicks(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case tick := <-s.feed.Ticks():
			s.broadcast(marketDataEvent(tick), nil)
		}
	}
}

func (s *Server) reply(session *ClientSession, event Event) {
	if err := session.send(event); err != nil {
		log.Error().Err(err).Msg("unable to send event")
	}
}

// broadcast sends an event to every session subscribed to the public
// stream, except the one given (which already received its copy).
func (s *Server) broadcast(event Event, except *ClientSession) {
	s.clientSessionsLock.Lock()
	subscribed := make([]*ClientSession, 0, len(s.clientSessions))
	for _, session := range s.clientSessions {
		if session.marketData && session != except {
			subscribed = append(subscribed, session)
		}
	}
	s.clientSessionsLock.Unlock()

	for _, session := range subscribed {
		s.reply(session, event)
	}
}

// addClientSession is an atomic map add
func (s *Server) addClientSession(address string, session *ClientSession) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	s.clientSessions[address] = session
}

// deleteClientSession is an atomic map remove
func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	delete(s.clientSessions, address)
}

func (s *Server) closeClientSessions() {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	for address, session := range s.clientSessions {
		if err := session.conn.Close(); err != nil {
			log.Error().Str("address", address).Err(err).Msg("error closing connection")
		}
		delete(s.clientSessions, address)
	}
}
