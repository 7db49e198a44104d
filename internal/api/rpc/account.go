package rpc

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// Command names understood by the auth service.
const (
	CmdPing         = "ping"
	CmdGetMe        = "get-me"
	CmdRegisterUser = "register-user"
	CmdLoginUser    = "login-user"
	CmdGetUser      = "get-user"
	CmdUpdateUser   = "update-user"
	CmdVerifyToken  = "verify-token"
)

type accountCommands struct {
	svc       ports.AccountService
	validator *payloadValidator
}

// RegisterAccountCommands registers every account command on r.
func RegisterAccountCommands(r *Router, svc ports.AccountService) {
	c := &accountCommands{svc: svc, validator: newPayloadValidator()}

	r.Handle(CmdPing, c.ping)
	r.Handle(CmdGetMe, c.getMe)
	r.Handle(CmdRegisterUser, c.registerUser)
	r.Handle(CmdLoginUser, c.loginUser)
	r.Handle(CmdGetUser, c.getUser)
	r.Handle(CmdUpdateUser, c.updateUser)
	r.Handle(CmdVerifyToken, c.verifyToken)
}

func (c *accountCommands) ping(context.Context, json.RawMessage) (any, error) {
	return PingResponse{Status: "ok"}, nil
}

func (c *accountCommands) getMe(ctx context.Context, payload json.RawMessage) (any, error) {
	var req tokenRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	user, err := c.svc.GetUserByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (c *accountCommands) verifyToken(ctx context.Context, payload json.RawMessage) (any, error) {
	var req tokenRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	user, err := c.svc.VerifyToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (c *accountCommands) registerUser(ctx context.Context, payload json.RawMessage) (any, error) {
	var req registerUserRequest
	if err := c.decodeValid(payload, &req); err != nil {
		return nil, err
	}
	user, err := c.svc.Register(ctx, ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (c *accountCommands) loginUser(ctx context.Context, payload json.RawMessage) (any, error) {
	var req loginUserRequest
	if err := c.decodeValid(payload, &req); err != nil {
		return nil, err
	}
	res, err := c.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return LoginResponse{Token: res.Token, User: toUserResponse(res.User)}, nil
}

// getUser accepts {"id": "..."} or a bare JSON string id.
func (c *accountCommands) getUser(ctx context.Context, payload json.RawMessage) (any, error) {
	var req getUserRequest
	if trimmed := bytes.TrimSpace(payload); len(trimmed) > 0 && trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &req.ID); err != nil {
			return nil, errInvalidPayload
		}
	} else if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if err := c.validator.Validate(&req); err != nil {
		return nil, err
	}

	user, ok, err := c.svc.GetUserByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

func (c *accountCommands) updateUser(ctx context.Context, payload json.RawMessage) (any, error) {
	var req updateUserRequest
	if err := c.decodeValid(payload, &req); err != nil {
		return nil, err
	}
	user, err := c.svc.UpdateUser(ctx, req.ID, req.toInput())
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (c *accountCommands) decodeValid(payload json.RawMessage, dst any) error {
	if err := decode(payload, dst); err != nil {
		return err
	}
	return c.validator.Validate(dst)
}

// decode unmarshals payload into dst. An empty or null payload leaves dst at
// its zero value.
func decode(payload json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return errInvalidPayload
	}
	return nil
}
