package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"diet-coach/internal/tools"
)

// userIDArgument travels alongside the tool arguments and is stripped
// before they are parsed.
const userIDArgument = "user_id"

type toolDescription struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type toolsResponse struct {
	ServerInfo protocol.Implementation `json:"serverInfo"`
	Tools      []toolDescription       `json:"tools"`
}

func (s *Server) describeTools(c *echo.Context) error {
	all := tools.All()
	resp := toolsResponse{ServerInfo: s.info, Tools: make([]toolDescription, 0, len(all))}
	for _, schema := range all {
		resp.Tools = append(resp.Tools, toolDescription{
			Name:        schema.Name,
			Description: schema.Description,
			InputSchema: schema.Parameters,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// callTool executes one meal tool for the user named in the arguments.
// Invalid arguments come back as an isError result; nothing is stored.
func (s *Server) callTool(c *echo.Context) error {
	var request protocol.CallToolRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	args := make(map[string]any, len(request.Arguments))
	for k, v := range request.Arguments {
		args[k] = v
	}
	userID, _ := args[userIDArgument].(string)
	if strings.TrimSpace(userID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id argument is required")
	}
	delete(args, userIDArgument)

	today := s.clock().In(s.location).Format(tools.DateLayout)
	tool, ok := tools.Registry(s.executor, userID, today)[request.Name]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown tool: %s", request.Name))
	}

	input, err := json.Marshal(args)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid arguments")
	}

	ctx := c.Request().Context()
	out, err := tool.Call(ctx, string(input))
	switch {
	case errors.Is(err, tools.ErrUnparseable):
		s.logger.Warn("Rejected MCP tool call", zap.String("tool", request.Name), zap.Error(err))
		return c.JSON(http.StatusOK, errorResult(err))
	case err != nil:
		s.logger.Error("MCP tool call failed", zap.String("tool", request.Name), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to execute tool")
	}
	return c.JSON(http.StatusOK, textResult(out))
}

func textResult(text string) *protocol.CallToolResult {
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(err error) *protocol.CallToolResult {
	res := textResult(err.Error())
	res.IsError = true
	return res
}
