// Package streamer defines the typed configuration shapes a streamer edits
// and their conversion to and from configuration trees.
package streamer

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/justdancerequests/overlay/internal/configtree"
)

// DefaultBanlistFormat renders "Bad Habits - Ed Sheeran".
const DefaultBanlistFormat = "{TITLE} - {ARTIST}"

// Command toggles a single chat command.
type Command struct {
	Enabled bool `json:"enabled"`
}

// BanlistCommand is the !bl / !banlist command with its reply format.
type BanlistCommand struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format"`
}

// Commands groups the chat commands viewers can use.
type Commands struct {
	SongRequest   Command        `json:"songRequest"`
	Queue         Command        `json:"queue"`
	QueuePosition Command        `json:"queuePosition"`
	Banlist       BanlistCommand `json:"banlist"`
}

// ChatIntegration controls the chat bot joining the streamer's channel.
type ChatIntegration struct {
	Enabled  bool     `json:"enabled"`
	Commands Commands `json:"commands"`
}

// StreamerConfiguration is the canonical configuration of one streamer.
type StreamerConfiguration struct {
	ChatIntegration ChatIntegration `json:"chatIntegration"`
}

// Partial carries the configuration domains touched by a single edit.
// Nil domains are left alone on merge.
type Partial struct {
	ChatIntegration *ChatIntegration `json:"chatIntegration,omitempty"`
}

// Default returns the configuration of a streamer that never saved one.
func Default() StreamerConfiguration {
	return StreamerConfiguration{
		ChatIntegration: ChatIntegration{
			Commands: Commands{
				Banlist: BanlistCommand{Format: DefaultBanlistFormat},
			},
		},
	}
}

// Merge returns c with every domain present in p replaced.
func (c StreamerConfiguration) Merge(p Partial) StreamerConfiguration {
	if p.ChatIntegration != nil {
		c.ChatIntegration = *p.ChatIntegration
	}
	return c
}

// Tree converts the chat integration settings into a configuration tree.
func (c ChatIntegration) Tree() configtree.Tree {
	cmd := func(enabled bool) configtree.Tree {
		return configtree.Tree{"enabled": enabled}
	}
	return configtree.Tree{
		"enabled": c.Enabled,
		"commands": configtree.Tree{
			string(SongRequest):   cmd(c.Commands.SongRequest.Enabled),
			string(Queue):         cmd(c.Commands.Queue.Enabled),
			string(QueuePosition): cmd(c.Commands.QueuePosition.Enabled),
			string(Banlist): configtree.Tree{
				"enabled": c.Commands.Banlist.Enabled,
				"format":  c.Commands.Banlist.Format,
			},
		},
	}
}

// FromTree decodes a configuration tree into chat integration settings.
// Keys the shape does not know are ignored.
func FromTree(t configtree.Tree) (ChatIntegration, error) {
	var out ChatIntegration
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return out, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(t)); err != nil {
		return out, fmt.Errorf("decode chat integration: %w", err)
	}
	return out, nil
}

// FormatBanlistEntry renders one banlist line using the {TITLE} and {ARTIST}
// placeholders.
func FormatBanlistEntry(format, title, artist string) string {
	if format == "" {
		format = DefaultBanlistFormat
	}
	r := strings.NewReplacer("{TITLE}", title, "{ARTIST}", artist)
	return r.Replace(format)
}
