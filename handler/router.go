package handler

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ControlID is the decoded form of a component customID. Every control the
// bot emits is encoded as "<action>_<kind>:<sessionID>", e.g.
// "announceButton_send:3fa2...". The raw string is parsed exactly once,
// here at the dispatch boundary; handlers receive the decoded triple and
// never re-split it.
type ControlID struct {
	Action    string
	Kind      string
	SessionID string
}

// ParseControlID decodes raw into a ControlID. ok is false when raw does
// not carry the "<action>_<kind>:<sessionID>" shape.
func ParseControlID(raw string) (ControlID, bool) {
	base, session, found := strings.Cut(raw, ":")
	if !found || session == "" {
		return ControlID{}, false
	}
	action, kind, found := strings.Cut(base, "_")
	if !found || action == "" || kind == "" {
		return ControlID{}, false
	}
	return ControlID{Action: action, Kind: kind, SessionID: session}, true
}

type (
	// CommandHandler handles a slash command invocation.
	CommandHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)
	// ComponentHandler handles a message component interaction whose
	// customID decoded to ctl.
	ComponentHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, ctl ControlID)
)

var (
	commandHandlers   = make(map[string]CommandHandler)
	componentHandlers = make(map[string]ComponentHandler)
)

// AddCommandHandler registers a handler for a slash command.
func AddCommandHandler(name string, handler CommandHandler) {
	commandHandlers[name] = handler
}

// AddComponentHandler registers a handler for every component whose
// customID action matches action.
func AddComponentHandler(action string, handler ComponentHandler) {
	componentHandlers[action] = handler
}

// OnInteractionCreate is the main interaction router.
// It should be registered as the primary interaction handler in bot.Start.
func OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if handler, ok := commandHandlers[i.ApplicationCommandData().Name]; ok {
			handler(s, i)
		}
	case discordgo.InteractionMessageComponent:
		ctl, ok := ParseControlID(i.MessageComponentData().CustomID)
		if !ok {
			return
		}
		if handler, ok := componentHandlers[ctl.Action]; ok {
			handler(s, i, ctl)
		}
	}
}
