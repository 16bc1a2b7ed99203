package display

// Terminal color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Plain disables escape codes, for pipes and dumb terminals
var Plain bool

// Paint wraps text in color unless Plain is set
func Paint(color, text string) string {
	if Plain {
		return text
	}
	return color + text + Reset
}

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Paint(Yellow, text+" > ")
}
