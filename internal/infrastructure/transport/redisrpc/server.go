package redisrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/api/rpc"
	"github.com/99minutos/auth-service/internal/infrastructure/queue"
)

const (
	transportName         = "redis"
	defaultHandlerTimeout = 10 * time.Second
)

// Dispatcher is the part of rpc.Router the server depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, transport, command string, payload json.RawMessage) (any, *rpc.Error)
	Commands() []string
}

// Claimer decides which replica handles a request id.
type Claimer interface {
	Claim(ctx context.Context, requestID string) (bool, error)
}

type ServerConfig struct {
	Service        string
	Workers        int
	HandlerTimeout time.Duration
}

// Server subscribes to one channel per command and answers on the matching
// reply channel.
type Server struct {
	client   *redis.Client
	router   Dispatcher
	claims   Claimer
	pool     *queue.Pool
	channels map[string]string // channel -> command
	timeout  time.Duration
	log      zerolog.Logger
	ready    chan struct{}
}

// NewServer builds a Server. claims may be nil when a single replica runs.
func NewServer(client *redis.Client, router Dispatcher, claims Claimer, cfg ServerConfig, log zerolog.Logger) *Server {
	timeout := cfg.HandlerTimeout
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}

	channels := make(map[string]string)
	for _, cmd := range router.Commands() {
		channels[Channel(cfg.Service, cmd)] = cmd
	}

	return &Server{
		client:   client,
		router:   router,
		claims:   claims,
		pool:     queue.NewPool(cfg.Workers, log),
		channels: channels,
		timeout:  timeout,
		log:      log,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the subscriptions are active.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Serve handles messages until ctx is cancelled, then waits for in-flight
// handlers to finish.
func (s *Server) Serve(ctx context.Context) error {
	names := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		names = append(names, ch)
	}

	pubsub := s.client.Subscribe(ctx, names...)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	// Handlers outlive ctx so that shutdown lets them reply.
	s.pool.Start(context.WithoutCancel(ctx))
	defer s.pool.Close()

	close(s.ready)
	s.log.Info().Int("channels", len(names)).Msg("redis rpc server listening")

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := s.pool.Submit(ctx, func(jobCtx context.Context) { s.handle(jobCtx, msg) }); err != nil {
				s.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping message")
			}
		}
	}
}

func (s *Server) handle(ctx context.Context, msg *redis.Message) {
	command, ok := s.channels[msg.Channel]
	if !ok {
		return
	}

	var pkt requestPacket
	if err := json.Unmarshal([]byte(msg.Payload), &pkt); err != nil {
		s.log.Warn().Err(err).Str("channel", msg.Channel).Msg("malformed packet")
		return
	}

	if pkt.ID != "" && s.claims != nil {
		won, err := s.claims.Claim(ctx, pkt.ID)
		switch {
		case err != nil:
			metrics.RPCClaimsTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("request_id", pkt.ID).Msg("claim failed, handling anyway")
		case !won:
			metrics.RPCClaimsTotal.WithLabelValues("lost").Inc()
			return
		default:
			metrics.RPCClaimsTotal.WithLabelValues("won").Inc()
		}
	}

	hctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, rpcErr := s.router.Dispatch(hctx, transportName, command, pkt.Data)

	if pkt.ID == "" {
		return
	}

	reply := replyPacket{ID: pkt.ID, IsDisposed: true}
	if rpcErr != nil {
		reply.Err = rpcErr
	} else {
		reply.Response = result
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		s.log.Error().Err(err).Str("command", command).Msg("encode reply")
		return
	}
	if err := s.client.Publish(ctx, replyChannel(msg.Channel), payload).Err(); err != nil {
		s.log.Error().Err(err).Str("command", command).Str("request_id", pkt.ID).Msg("publish reply")
	}
}
