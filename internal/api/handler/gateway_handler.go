package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/rpc"
)

const (
	transportName = "http"
	maxBodyBytes  = 1 << 20
	// TokenKey is the echo context key the bearer middleware stores the token under.
	TokenKey = "token"
)

// Dispatcher is the part of rpc.Router the gateway depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, transport, command string, payload json.RawMessage) (any, *rpc.Error)
}

// GatewayHandler exposes RPC commands over HTTP for callers that cannot use
// the Redis transport.
type GatewayHandler struct {
	router Dispatcher
}

func NewGatewayHandler(router Dispatcher) *GatewayHandler {
	return &GatewayHandler{router: router}
}

// Invoke runs a command with the request body as payload.
//
// @Summary      Invoke an RPC command
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        command  path      string  true   "Command name (e.g. login-user)"
// @Param        body     body      object  false  "Command payload"
// @Success      200      {object}  object
// @Failure      400      {object}  rpc.Error
// @Failure      401      {object}  rpc.Error
// @Failure      404      {object}  rpc.Error
// @Failure      409      {object}  rpc.Error
// @Failure      500      {object}  rpc.Error
// @Router       /rpc/{command} [post]
func (h *GatewayHandler) Invoke(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, rpcErr := h.router.Dispatch(c.Request().Context(), transportName, c.Param("command"), body)
	if rpcErr != nil {
		return rpcErr
	}
	return c.JSON(http.StatusOK, result)
}

// Me returns the user owning the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  rpc.UserResponse
// @Failure      401  {object}  rpc.Error
// @Router       /v1/me [get]
func (h *GatewayHandler) Me(c echo.Context) error {
	var payload struct {
		Token *string `json:"token"`
	}
	if token, ok := c.Get(TokenKey).(string); ok {
		payload.Token = &token
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	result, rpcErr := h.router.Dispatch(c.Request().Context(), transportName, rpc.CmdGetMe, raw)
	if rpcErr != nil {
		return rpcErr
	}
	return c.JSON(http.StatusOK, result)
}
