package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatConversationID string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the agent service",
	Long: `Send a message to the agent service, or start an interactive session when
no message is given. Each message is routed to the best-scoring agent; document
questions are answered from the tenant's ingested documents with citations.

Examples:
  agentrag chat -t acme "what does the refund policy say?"
  agentrag chat -t acme                # interactive session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "conversation ID to continue")
}

func runChat(cmd *cobra.Command, args []string) error {
	d, err := openDeps(GetConfig())
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := context.Background()

	if len(args) > 0 {
		return sendMessage(ctx, d, args[0])
	}

	fmt.Printf("Chatting as tenant %q. Type 'exit' to quit.\n", tenant)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := sendMessage(ctx, d, line); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func sendMessage(ctx context.Context, d *deps, message string) error {
	result, conv, err := d.chat.Message(ctx, tenant, chatConversationID, message)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	// Later messages in this session continue the same conversation.
	chatConversationID = conv.ID

	fmt.Printf("\n[%s]", result.Agent)
	if result.Degraded {
		fmt.Print(" (degraded)")
	}
	fmt.Printf("\n%s\n", result.Text)

	if len(result.Citations) > 0 {
		fmt.Println("\nSources:")
		for i, c := range result.Citations {
			fmt.Printf("  [%d] %s (chars %d-%d, score %.2f)\n", i+1, c.DocName, c.Start, c.End, c.Score)
		}
	}
	fmt.Println()

	return nil
}
