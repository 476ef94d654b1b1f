package main

import (
	"context"
	"flag"
	"fmt"

	"Chirpnet/cmd/chirpd/config"
	"Chirpnet/pkg/async"
	"Chirpnet/pkg/logger"
)

func sendCommand(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	configFile := fs.String("config", "", "configuration file, defaults when empty")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("expected at least one message")
	}

	cfg, _, log, err := load(*configFile)
	if err != nil {
		return err
	}
	node, err := config.CreateNode(cfg, nil, log)
	if err != nil {
		return err
	}
	if err := node.Physical.Open(); err != nil {
		return err
	}
	defer node.Physical.Close()

	ctx, cancel := async.Interrupt(context.Background())
	defer cancel()
	for _, message := range fs.Args() {
		sendErr, err := async.AwaitContext(ctx, node.Transmitter.SendAsync(ctx, message))
		if err != nil {
			return err
		}
		if sendErr != nil {
			return sendErr
		}
	}
	return nil
}

func listenCommand(args []string) error {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	configFile := fs.String("config", "", "configuration file, defaults when empty")
	fs.Parse(args)

	cfg, _, log, err := load(*configFile)
	if err != nil {
		return err
	}
	node, err := config.CreateNode(cfg, nil, log)
	if err != nil {
		return err
	}
	if err := node.Physical.Open(); err != nil {
		return err
	}
	defer node.Physical.Close()

	ctx, cancel := async.Interrupt(context.Background())
	defer cancel()
	log.Info("listening, press enter to stop", logger.String("backend", cfg.Device.Backend))
	enter := async.EnterKey()
	for {
		select {
		case message := <-node.Receiver.Messages():
			fmt.Println(message)
		case <-enter:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
