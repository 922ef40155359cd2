package rcon

import (
	"context"
	"encoding/json"
	"strings"
)

// The plugin registers the command with this spelling.
const availabilityCommand = "get5_web_avaliable"

// AvailabilityReply is the decoded availability probe response.
// GameState 0 means the server is idle.
type AvailabilityReply struct {
	GameState     int    `json:"gamestate"`
	PluginVersion string `json:"plugin_version"`
}

// CheckAvailability probes whether a server can take a match. On failure
// the reply is nil and reason holds a user-facing explanation; the
// distinct failure modes (unreachable, plugin missing, already live,
// garbled reply) are never conflated.
func (c *Client) CheckAvailability(ctx context.Context, addr, password string) (*AvailabilityReply, string) {
	response, err := c.Exec(ctx, addr, password, availabilityCommand)
	if err != nil {
		return nil, "Failed to connect to server"
	}
	if strings.Contains(response, "Unknown command") {
		return nil, "Either get5 or get5_apistats plugin missing"
	}

	var reply AvailabilityReply
	if err := json.Unmarshal([]byte(response), &reply); err != nil {
		return nil, "Error reading " + availabilityCommand + " response"
	}
	if reply.GameState != 0 {
		return nil, "Server already has a get5 match setup"
	}
	return &reply, ""
}
