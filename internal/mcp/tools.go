package mcp

import "github.com/mark3labs/mcp-go/mcp"

var viewToolDef = mcp.NewTool("stories_view",
	mcp.WithDescription("Show the visible stories for the current search, category, tag selection and pagination cursor. Loads the data source on first use."),
	mcp.WithBoolean("include_html", mcp.Description("Also return the rendered story-card HTML fragment")),
)

var searchToolDef = mcp.NewTool("stories_search",
	mcp.WithDescription("Set the free-text query (case- and accent-insensitive substring of title or excerpt). An empty query clears the search. Resets pagination."),
	mcp.WithString("query", mcp.Description("Search text")),
	mcp.WithBoolean("include_html", mcp.Description("Also return the rendered story-card HTML fragment")),
)

var categoryToolDef = mcp.NewTool("stories_category",
	mcp.WithDescription(`Filter by category. "all" or empty clears the category filter. Resets pagination.`),
	mcp.WithString("category", mcp.Description(`Category name, or "all"`)),
	mcp.WithBoolean("include_html", mcp.Description("Also return the rendered story-card HTML fragment")),
)

var tagToolDef = mcp.NewTool("stories_tag",
	mcp.WithDescription("Toggle a tag in the selection (stories must carry every selected tag), or clear all tags. Resets pagination."),
	mcp.WithString("tag", mcp.Description("Tag to toggle")),
	mcp.WithBoolean("clear", mcp.Description("Deselect every tag instead of toggling")),
	mcp.WithBoolean("include_html", mcp.Description("Also return the rendered story-card HTML fragment")),
)

var moreToolDef = mcp.NewTool("stories_more",
	mcp.WithDescription("Load more: reveal the next page of matching stories. Does nothing when all matches are visible."),
	mcp.WithBoolean("include_html", mcp.Description("Also return the rendered story-card HTML fragment")),
)

var reloadToolDef = mcp.NewTool("stories_reload",
	mcp.WithDescription("Re-fetch the data source (optionally switching to another file path or URL) and reset filters and pagination."),
	mcp.WithString("source", mcp.Description("New data source path or http(s) URL")),
)

var tagsToolDef = mcp.NewTool("stories_tags",
	mcp.WithDescription("List the tag cloud and categories of the loaded stories."),
)

var recentToolDef = mcp.NewTool("stories_recent",
	mcp.WithDescription("List the most recent stories (last in the data source first)."),
	mcp.WithNumber("count", mcp.Description("How many stories (default from config)")),
)

var relatedToolDef = mcp.NewTool("story_related",
	mcp.WithDescription("List stories sharing at least one tag with the given story."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Story title")),
	mcp.WithNumber("limit", mcp.Description("Maximum results (default from config)")),
)

var likeToolDef = mcp.NewTool("story_like",
	mcp.WithDescription("Like a story by title, or read its like count."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Story title")),
	mcp.WithString("action", mcp.Description(`"like" (default) or "count"`), mcp.Enum("like", "count")),
)

var bookmarkToolDef = mcp.NewTool("story_bookmark",
	mcp.WithDescription("Toggle a bookmarked story link, or list bookmarks."),
	mcp.WithString("link", mcp.Description("Story link to toggle")),
	mcp.WithString("action", mcp.Description(`"toggle" (default) or "list"`), mcp.Enum("toggle", "list")),
)

var themeToolDef = mcp.NewTool("prefs_theme",
	mcp.WithDescription("Read, set or toggle the light/dark theme preference."),
	mcp.WithString("action", mcp.Description(`"get" (default), "set" or "toggle"`), mcp.Enum("get", "set", "toggle")),
	mcp.WithString("theme", mcp.Description(`"light" or "dark" (for set)`), mcp.Enum("light", "dark")),
)

var subscribeToolDef = mcp.NewTool("newsletter_subscribe",
	mcp.WithDescription("Subscribe an email address to the newsletter."),
	mcp.WithString("email", mcp.Required(), mcp.Description("Email address")),
)
