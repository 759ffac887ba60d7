package ui

// Keybinding represents a keyboard shortcut with its display name.
type Keybinding struct {
	Key  string // actual key(s) to match
	Desc string // description for help display
}

// Global keybindings (always available)
var (
	KeyQuit        = Keybinding{Key: "q", Desc: "Quit"}
	KeyQuitAlt     = Keybinding{Key: "ctrl+c", Desc: "Quit"}
	KeyHelp        = Keybinding{Key: "?", Desc: "Show help"}
	KeyRestart     = Keybinding{Key: "r", Desc: "Restart node"}
	KeyMarket      = Keybinding{Key: "m", Desc: "Toggle market data"}
	KeyDismiss     = Keybinding{Key: "d", Desc: "Dismiss notification"}
	KeyRefreshUp   = Keybinding{Key: "+", Desc: "Increase refresh rate"}
	KeyRefreshDown = Keybinding{Key: "-", Desc: "Decrease refresh rate"}
)

// Log navigation keybindings
var (
	KeyUp     = Keybinding{Key: "up", Desc: "Scroll up"}
	KeyDown   = Keybinding{Key: "down", Desc: "Scroll down"}
	KeyTop    = Keybinding{Key: "g", Desc: "Oldest line"}
	KeyBottom = Keybinding{Key: "G", Desc: "Follow newest line"}
	KeyEsc    = Keybinding{Key: "esc", Desc: "Close help"}
)

// helpBindings lists the bindings shown in the help modal, in order.
var helpBindings = []Keybinding{
	KeyRestart, KeyMarket, KeyDismiss, KeyRefreshUp, KeyRefreshDown,
	KeyUp, KeyDown, KeyTop, KeyBottom, KeyHelp, KeyQuit,
}

// matchKey checks if the input matches the keybinding.
func matchKey(input string, keys ...Keybinding) bool {
	for _, k := range keys {
		if input == k.Key {
			return true
		}
	}
	return false
}
