package store

// DefaultTag is one entry of the starter set seeded for new users.
type DefaultTag struct {
	Name  string
	Type  TagType
	Color string
}

// DefaultTags is the starter pin and priority set.
var DefaultTags = []DefaultTag{
	{Name: "Work", Type: TagTypePin, Color: "#4285F4"},
	{Name: "Personal", Type: TagTypePin, Color: "#34A853"},
	{Name: "Follow up", Type: TagTypePin, Color: "#FBBC05"},
	{Name: "High", Type: TagTypePriority, Color: "#EA4335"},
	{Name: "Medium", Type: TagTypePriority, Color: "#FB8C00"},
	{Name: "Low", Type: TagTypePriority, Color: "#9E9E9E"},
}
