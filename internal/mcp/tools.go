package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("conversation_list",
	mcp.WithDescription("List recent conversations, most recently modified first, with their current task-list state."),
	mcp.WithTitleAnnotation("List conversations"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
	mcp.WithString("project",
		mcp.Description("Only list conversations from this project directory name"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 20, max 100)"),
		mcp.Min(0),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip for pagination"),
		mcp.Min(0),
	),
)

var searchToolDef = mcp.NewTool("conversation_search",
	mcp.WithDescription("Search conversations by their current task list. Each task scores one point per distinct query term it contains (case-insensitive). An empty query returns no results."),
	mcp.WithTitleAnnotation("Search conversations"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Whitespace-separated search terms"),
	),
	mcp.WithString("project",
		mcp.Description("Only search conversations from this project directory name"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 20, max 100)"),
		mcp.Min(0),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip for pagination"),
		mcp.Min(0),
	),
)

var chaptersToolDef = mcp.NewTool("conversation_chapters",
	mcp.WithDescription("Split a conversation into chapters, one per task completion, and list tasks that were never completed. Messages after the last completion are reported as open_range."),
	mcp.WithTitleAnnotation("Conversation chapters"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation session id"),
	),
)

var contextToolDef = mcp.NewTool("conversation_context",
	mcp.WithDescription("Read messages from a conversation. Address them with start/end (1-based, inclusive), around/radius, or recent; expand widens the range on both sides."),
	mcp.WithTitleAnnotation("Conversation context"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation session id"),
	),
	mcp.WithNumber("start",
		mcp.Description("First message index, at least 1"),
	),
	mcp.WithNumber("end",
		mcp.Description("Last message index, at least start"),
	),
	mcp.WithNumber("around",
		mcp.Description("Centre message index"),
	),
	mcp.WithNumber("radius",
		mcp.Description("Messages on each side of around (default 10)"),
	),
	mcp.WithNumber("recent",
		mcp.Description("Return the last N messages"),
	),
	mcp.WithNumber("expand",
		mcp.Description("Widen the range by this many messages on each side"),
		mcp.Min(0),
	),
)

var projectsToolDef = mcp.NewTool("conversation_projects",
	mcp.WithDescription("List project directories that contain conversations, with conversation counts."),
	mcp.WithTitleAnnotation("List projects"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)
