package models

type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventButton:
		return "button"
	default:
		return "unknown"
	}
}

// Event is an inbound user action, independent of the chat protocol.
type Event struct {
	Kind      EventKind
	UserID    UserID
	ChatID    int64
	UserName  string
	FirstName string

	// EventCommand
	Command string
	Args    []string

	// EventText
	Text string

	// EventButton
	CallbackID   string
	CallbackData string
	MessageID    int
}

type Button struct {
	Label string
	Token string
}

type OutMessage struct {
	Text     string
	Markdown bool
	Buttons  [][]Button
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type OutFile struct {
	Path     string
	FileName string
	Caption  string
}
