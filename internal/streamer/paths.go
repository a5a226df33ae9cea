package streamer

// CommandName is the tree key of a chat command.
type CommandName string

const (
	SongRequest   CommandName = "songRequest"
	Queue         CommandName = "queue"
	QueuePosition CommandName = "queuePosition"
	Banlist       CommandName = "banlist"
)

// Commands in the order the configuration page lists them.
var CommandNames = []CommandName{SongRequest, Queue, QueuePosition, Banlist}

// TogglePath locates a record holding an "enabled" flag. The root record is "".
type TogglePath string

// RootToggle is the chat integration master switch.
const RootToggle TogglePath = ""

// CommandToggle returns the toggle path of a command.
func CommandToggle(name CommandName) TogglePath {
	return TogglePath("commands." + string(name))
}

// BanlistFormatPath is the dotted location of the banlist reply format.
const BanlistFormatPath = "commands.banlist.format"

// IsTogglePath reports whether path is one of the known toggle locations.
func IsTogglePath(path string) bool {
	if TogglePath(path) == RootToggle {
		return true
	}
	for _, name := range CommandNames {
		if TogglePath(path) == CommandToggle(name) {
			return true
		}
	}
	return false
}
