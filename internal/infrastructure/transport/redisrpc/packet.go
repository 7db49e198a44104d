// Package redisrpc carries RPC commands over Redis pub/sub using the framing
// of the NestJS Redis transport, so Node callers and Go callers share one wire
// format.
//
// A command is published on its channel as {"id","pattern","data"}; the reply
// goes to "<channel>.reply" as {"id","response"|"err","isDisposed":true}.
// Packets without an id are events and get no reply.
package redisrpc

import (
	"encoding/json"

	"github.com/99minutos/auth-service/internal/api/rpc"
)

const pingChannel = "authService.ping"

type requestPacket struct {
	ID      string          `json:"id,omitempty"`
	Pattern json.RawMessage `json:"pattern"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type replyPacket struct {
	ID         string     `json:"id"`
	Response   any        `json:"response,omitempty"`
	Err        *rpc.Error `json:"err,omitempty"`
	IsDisposed bool       `json:"isDisposed"`
}

type incomingReply struct {
	ID       string          `json:"id"`
	Response json.RawMessage `json:"response"`
	Err      *rpc.Error      `json:"err"`
}

// objectPattern field order is alphabetical to match the key-sorted
// normalization the NestJS transport applies to object patterns.
type objectPattern struct {
	Cmd     string `json:"cmd"`
	Service string `json:"service"`
}

// Pattern returns the message pattern for command on service.
func Pattern(service, command string) json.RawMessage {
	var v any = objectPattern{Cmd: command, Service: service}
	if command == rpc.CmdPing {
		v = pingChannel
	}
	raw, _ := json.Marshal(v)
	return raw
}

// Channel returns the pub/sub channel a command is published on.
func Channel(service, command string) string {
	if command == rpc.CmdPing {
		return pingChannel
	}
	return string(Pattern(service, command))
}

func replyChannel(channel string) string {
	return channel + ".reply"
}
