// Package ws pushes public workspace status boards to WebSocket clients.
//
// Subscribers join one workspace. Hub.Publish(workspaceID) rebuilds that
// workspace's board through the snapshot function and fans it out, which
// handlers do after recording an event. Hub.Run(ctx) repaints every
// subscribed workspace on an interval so day rollover reaches idle boards,
// and closes all connections when ctx is cancelled.
//
// Message format sent to clients:
//
//	{
//	  "event":        "board",
//	  "workspace_id": "…",
//	  "data":         [ /* same schema as GET /api/v1/public/workspaces/{id}/health */ ]
//	}
//
// Clients whose send buffer fills up are dropped.
package ws
