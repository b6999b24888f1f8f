package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/becomeliminal/recall-go-sdk/engine"
)

func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		Long: `Starts an interactive chat session.

Commands inside the session:
  /upload <path>  attach a plain-text file to your next message
  /reset          drop the pending attachment
  /quit           leave the session`,
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("How can I help you?")

	var pendingDocument string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil

		case line == "/reset":
			pendingDocument = ""
			fmt.Println("Dropped the pending attachment.")
			continue

		case strings.HasPrefix(line, "/upload "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/upload "))
			document, err := engine.ReadDocument(path)
			if err != nil {
				fmt.Printf("Could not load %s: %v\n", path, err)
				continue
			}
			pendingDocument = document
			fmt.Printf("Loaded %s (%d bytes). It will be attached to your next message.\n", path, len(document))
			continue
		}

		out, err := eng.Run(cmd.Context(), &engine.Input{
			Prompt:   line,
			Document: pendingDocument,
		})
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		pendingDocument = ""

		fmt.Println(out.Reply)
		if out.Err != nil {
			fmt.Printf("(turn failed: %v)\n", out.Err)
		}
	}
}
