package criteria

import "github.com/jonathan/ado-testgen/internal/types"

type keyword struct {
	term   string
	weight float64
}

type subcategoryRule struct {
	term        string
	subcategory string
}

// keywordTable holds the weighted vocabulary for every scored category.
var keywordTable = map[types.Category][]keyword{
	types.CategoryAvailability: {
		{"visible", 2}, {"available", 2}, {"displayed", 2}, {"shown", 2}, {"appears", 1.5},
		{"menu", 1.5}, {"sidebar", 1.5}, {"panel", 1.5}, {"button", 1}, {"link", 1},
		{"access", 1}, {"entry point", 2},
	},
	types.CategoryLogging: {
		{"log", 2}, {"record", 2}, {"history", 2}, {"list", 1.5}, {"track", 2},
		{"audit", 1.5}, {"entry", 1.5}, {"item", 1}, {"updates", 1.5}, {"adds", 1},
		{"appends", 1},
	},
	types.CategoryOrdering: {
		{"newest", 2}, {"oldest", 2}, {"top", 1.5}, {"bottom", 1.5}, {"first", 1.5},
		{"last", 1.5}, {"chronological", 2}, {"order", 1.5}, {"sorted", 1.5},
		{"sequence", 1}, {"ascending", 1.5}, {"descending", 1.5},
	},
	types.CategoryLimit: {
		{"limit", 2}, {"only", 1.5}, {"last five", 2}, {"last 5", 2}, {"max", 2},
		{"maximum", 2}, {"removed", 1.5}, {"deleted", 1.5}, {"retention", 2},
		{"keep", 1.5}, {"maintain", 1}, {"preserve", 1},
	},
	types.CategoryRestrictions: {
		{"no manual", 2}, {"cannot", 2}, {"out of scope", 2}, {"not allowed", 2},
		{"restricted", 1.5}, {"prohibited", 1.5}, {"disabled", 1.5}, {"read-only", 1.5},
		{"not editable", 1.5}, {"not modifiable", 1.5},
	},
	types.CategoryDynamicRefresh: {
		{"updates automatically", 2}, {"real time", 2}, {"real-time", 2}, {"refreshes", 2},
		{"auto-update", 2}, {"live", 1.5}, {"dynamic", 1.5}, {"immediately", 1},
		{"instant", 1}, {"without refresh", 1.5},
	},
	types.CategoryReset: {
		{"resets", 2}, {"reset", 2}, {"new drawing", 2}, {"new file", 1.5}, {"loaded", 1.5},
		{"clear", 1.5}, {"cleared", 1.5}, {"empty", 1}, {"initial state", 1.5},
	},
	types.CategoryScrolling: {
		{"scroll", 2}, {"scrollable", 2}, {"exceeds visible height", 2},
		{"exceeds visible area", 1.5}, {"overflow", 1.5}, {"vertical scroll", 2},
		{"horizontal scroll", 1.5}, {"scrollbar", 1.5},
	},
	types.CategoryAccessibility: {
		{"508", 2}, {"wcag", 2}, {"keyboard", 2}, {"focus", 2}, {"accessible", 2},
		{"readable labels", 2}, {"aria", 1.5}, {"screen reader", 1.5},
		{"tab navigation", 1.5}, {"keyboard navigation", 2},
	},
}

// subcategoryTable is scanned in order; the first term contained in the
// criterion text decides the subcategory.
var subcategoryTable = map[types.Category][]subcategoryRule{
	types.CategoryAvailability: {
		{"menu", "Menu Entry"}, {"sidebar", "Sidebar Entry"}, {"panel", "Panel Display"},
		{"button", "Button Display"},
	},
	types.CategoryLogging: {
		{"history", "History Logging"}, {"audit", "Audit Trail"}, {"list", "List Update"},
	},
	types.CategoryOrdering: {
		{"newest", "Newest First"}, {"oldest", "Oldest First"}, {"chronological", "Chronological"},
	},
	types.CategoryLimit: {
		{"last five", "Last Five Retention"}, {"last 5", "Last Five Retention"},
		{"max", "Maximum Limit"},
	},
	types.CategoryRestrictions: {
		{"read-only", "Read-Only Restriction"}, {"disabled", "Disabled State"},
	},
	types.CategoryDynamicRefresh: {
		{"real time", "Real-Time Update"}, {"real-time", "Real-Time Update"},
	},
	types.CategoryReset: {
		{"new drawing", "New Drawing Reset"}, {"loaded", "Load Reset"},
	},
	types.CategoryScrolling: {
		{"vertical", "Vertical Scrolling"}, {"horizontal", "Horizontal Scrolling"},
	},
	types.CategoryAccessibility: {
		{"keyboard", "Keyboard Navigation"}, {"focus", "Focus Management"},
		{"wcag", "WCAG Compliance"},
	},
}

// defaultSubcategory applies when no subcategory term matches.
var defaultSubcategory = map[types.Category]string{
	types.CategoryAvailability:   "Visibility",
	types.CategoryLogging:        "Data Logging",
	types.CategoryOrdering:       "Sort Order",
	types.CategoryLimit:          "Data Retention",
	types.CategoryRestrictions:   "Access Restriction",
	types.CategoryDynamicRefresh: "Auto Refresh",
	types.CategoryReset:          "State Reset",
	types.CategoryScrolling:      "Scroll Behavior",
	types.CategoryAccessibility:  "Accessibility",
	types.CategoryOther:          "General",
}
