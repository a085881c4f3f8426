package bot

import (
	"errors"
	"fmt"
)

// CommandRequest is one mute/unmute command from the chat-side command
// dispatcher. From names the invoking channel and is used when Channels
// is empty.
type CommandRequest struct {
	Command  string   `json:"command"`
	Channels []string `json:"channels"`
	From     string   `json:"from"`
}

// HandleCommand executes a mute or unmute command and returns the reply
// to show the invoking actor.
func (b *Bot) HandleCommand(req CommandRequest) (string, error) {
	channels := req.Channels
	if len(channels) == 0 {
		if req.From == "" {
			return "", errors.New("no channels given and no invoking channel")
		}
		channels = []string{req.From}
	}

	switch req.Command {
	case "mute":
		b.router.Mute(channels)
		minutes := int(b.router.MuteInterval().Minutes())
		return fmt.Sprintf("notifications muted, resuming automatically in %d minutes", minutes), nil
	case "unmute":
		b.router.Unmute(channels)
		return "notifications resumed", nil
	default:
		return "", fmt.Errorf("unknown command: %s", req.Command)
	}
}
