package chat

// Identity is the nickname and display color bound to a connection.
type Identity struct {
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
}

// DefaultPalette is the fixed set of display colors handed out to new
// identities.
var DefaultPalette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#96CEB4",
	"#FFEEAD",
	"#D4A5A5",
	"#9B59B6",
	"#3498DB",
	"#E67E22",
	"#2ECC71",
}
