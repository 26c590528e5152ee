package mcp

import (
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appNotification "github.com/freightdesk/backend/internal/application/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// serverVersion MCP 服务版本
const serverVersion = "0.1.0"

// MCPServer MCP 服务器
type MCPServer struct {
	server  *mcp.Server
	handler http.Handler
	service *appNotification.Service
	logger  *slog.Logger
}

// NewServer 创建 MCP 服务器
func NewServer(service *appNotification.Service) *MCPServer {
	// 创建 MCP 服务器实例
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "freightdesk-notifications",
			Version: serverVersion,
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:  server,
		service: service,
		logger:  log.NewModuleLogger("mcp", "server"),
	}

	mcp.AddTool(server, &mcp.Tool{
		Name: "list_notifications",
		Description: `List freight notifications, newest first.
Parameters:
- page (int, optional): Page number starting at 1, defaults to 1
- limit (int, optional): Page size between 1 and 100, defaults to 20
- status (string, optional): read, unread, pending or sent
- unread_only (bool, optional): Only return unread notifications
- priority (string, optional): low, medium, high or critical

Returns: notifications on the page, total count and whether more pages exist.`,
	}, mcpServer.listNotificationsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_unread_count",
		Description: "Get the number of unread notifications. No parameters required.",
	}, mcpServer.getUnreadCountTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_notification_read",
		Description: "Mark a notification as read. Parameters: id (string, required) - notification ID. Marking an already read notification keeps its original read time. Returns: the updated notification.",
	}, mcpServer.markNotificationReadTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_all_notifications_read",
		Description: "Mark every unread notification as read. No parameters required. Returns: receipts for the notifications marked by this call.",
	}, mcpServer.markAllReadTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "create_notification",
		Description: `Create a notification and push it to live subscribers.
Parameters:
- type (string, required): e.g. shipment_update, delivery_alert, customs_clearance, payment_due
- priority (string, required): low, medium, high or critical
- title (string, required): Short headline
- message (string, optional): Body text
- data (object, optional): Extra fields such as shipmentId or trackingNumber

Returns: the created notification with its server assigned id and createdAt.`,
	}, mcpServer.createNotificationTool)

	// 创建 SSE Handler
	mcpServer.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Server 底层 MCP 服务器
func (s *MCPServer) Server() *mcp.Server {
	return s.server
}
