// Package cli parses glimpse command-line invocations.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe   Command = "serve"
	CommandSnap    Command = "snap"
	CommandRecord  Command = "record"
	CommandVoice   Command = "voice"
	CommandListen  Command = "listen"
	CommandStop    Command = "stop"
	CommandPause   Command = "pause"
	CommandResume  Command = "resume"
	CommandPrompt  Command = "prompt"
	CommandLog     Command = "log"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandServe:   {},
	CommandSnap:    {},
	CommandRecord:  {},
	CommandVoice:   {},
	CommandListen:  {},
	CommandStop:    {},
	CommandPause:   {},
	CommandResume:  {},
	CommandPrompt:  {},
	CommandLog:     {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// trailingTextCommands accept free text after the command word.
var trailingTextCommands = map[Command]struct{}{
	CommandSnap:   {},
	CommandPrompt: {},
	CommandStop:   {},
	CommandPause:  {},
	CommandResume: {},
	CommandLog:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	// Text carries the trailing argument: the user prompt for snap/prompt,
	// the session kind for stop/pause/resume, the filter for log.
	Text     string
	ShowHelp bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			if len(rest) > 0 {
				if _, ok := trailingTextCommands[cmd]; !ok {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
				parsed.Text = strings.Join(rest, " ")
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [text]

Commands:
  serve             Run the capture daemon (owns the IPC socket)
  snap [prompt]     Capture a screenshot; analyze it when a prompt is given
  record            Start a screen recording
  voice             Start a voice recording
  listen            Start system-audio monitoring
  stop [kind]       Stop a session (kind: screen|voice|listen, default screen)
  pause [kind]      Pause a recording session
  resume [kind]     Resume a paused session
  prompt TEXT       Submit a text prompt for analysis
  log [filter]      Show activity records (filter: errors or a category)
  status            Print live session states
  devices           List available audio input devices
  doctor            Run configuration and environment checks
  version           Print version information
  help              Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/glimpse/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
