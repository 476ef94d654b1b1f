// Command chirp encodes messages to audio, decodes recordings and pitch
// traces, and sends or listens on a sound device.
package main

import (
	"fmt"
	"os"
	"sort"

	"Chirpnet/cmd/chirpd/config"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/protocol"
)

type command struct {
	usage string
	run   func(args []string) error
}

var commands = map[string]command{
	"encode":   {"encode [-config file] [-o out.wav] [-raw] message", encodeCommand},
	"decode":   {"decode [-config file] [-trace out.txt] in.wav", decodeCommand},
	"replay":   {"replay [-config file] trace.txt", replayCommand},
	"simulate": {"simulate [-config file] [-gain g] [-noise n] message", simulateCommand},
	"send":     {"send [-config file] message...", sendCommand},
	"listen":   {"listen [-config file]", listenCommand},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: chirp <command> [flags]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  chirp %s\n", commands[name].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}
	if err := cmd.run(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "chirp %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// load reads filename, or returns the defaults when it is empty.
func load(filename string) (*config.Config, *protocol.Params, *logger.Logger, error) {
	cfg := config.Default()
	if filename != "" {
		var err error
		if cfg, err = config.LoadConfig(filename); err != nil {
			return nil, nil, nil, err
		}
	}
	params, err := config.CreateParams(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	log := config.CreateLogger(cfg)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}
	return cfg, params, log, nil
}
