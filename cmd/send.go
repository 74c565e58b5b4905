package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmottier/notihub/app"
	"github.com/jmottier/notihub/config"
)

var (
	sendChannel     string
	sendPayload     string
	sendPayloadFile string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Dispatch a single payload to a configured channel",
	RunE:  send,
}

func init() {
	sendCmd.Flags().StringVar(&sendChannel, "channel", "", "channel type identifier")
	sendCmd.Flags().StringVar(&sendPayload, "payload", "", "inline JSON payload")
	sendCmd.Flags().StringVar(&sendPayloadFile, "payload-file", "", "file containing the JSON payload")
	rootCmd.AddCommand(sendCmd)
}

func send(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	payload := []byte(sendPayload)
	if sendPayloadFile != "" {
		payload, err = os.ReadFile(sendPayloadFile)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out := svc.Dispatcher.Dispatch(ctx, sendChannel, payload)
	view := map[string]any{"ok": out.OK()}
	if out.OK() {
		view["result"] = out.Result
	} else {
		view["kind"] = string(out.Kind())
		view["error"] = out.Err.Error()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		return err
	}
	if !out.OK() {
		return fmt.Errorf("dispatch failed: %s", out.Kind())
	}
	return nil
}
