package redisrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var errSubscriptionClosed = errors.New("reply subscription closed")

// Client sends commands to a Server and waits for the reply.
type Client struct {
	rdb     *redis.Client
	service string
}

func NewClient(rdb *redis.Client, service string) *Client {
	return &Client{rdb: rdb, service: service}
}

// Send publishes command with payload and decodes the response into out,
// which may be nil. A failure reply is returned as *rpc.Error. Send blocks
// until the reply arrives or ctx is done.
func (c *Client) Send(ctx context.Context, command string, payload, out any) error {
	channel := Channel(c.service, command)

	sub := c.rdb.Subscribe(ctx, replyChannel(channel))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe reply: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	id := uuid.NewString()
	pkt, err := json.Marshal(requestPacket{ID: id, Pattern: Pattern(c.service, command), Data: data})
	if err != nil {
		return fmt.Errorf("encode packet: %w", err)
	}
	if err := c.rdb.Publish(ctx, channel, pkt).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", command, err)
	}

	replies := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-replies:
			if !ok {
				return errSubscriptionClosed
			}
			var rep incomingReply
			if err := json.Unmarshal([]byte(msg.Payload), &rep); err != nil || rep.ID != id {
				continue
			}
			if rep.Err != nil {
				return rep.Err
			}
			if out == nil || len(rep.Response) == 0 {
				return nil
			}
			if err := json.Unmarshal(rep.Response, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}
	}
}
