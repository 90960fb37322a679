package main

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"easychat-service/models"
	"easychat-service/service/chat_client_service"
	"easychat-service/service/socket_client_service"
	"easychat-service/tool"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var chatCmd = &cobra.Command{
	Use:   "chat <peerId>",
	Short: "Open a live conversation with a user",
	Long: "Prints recent history and live events. Lines typed are sent as messages.\n" +
		"Commands: /older loads older history, /quit exits.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(args[0])
	},
}

func runChat(peerID string) error {
	me, err := identity()
	if err != nil {
		return err
	}
	api, err := newAPIClient()
	if err != nil {
		return err
	}
	defer api.Close()

	socket := socket_client_service.NewManager(&socket_client_service.Config{
		ServerURL: socketURL(viper.GetString("server")),
		UserID:    me,
		Timeout:   int(viper.GetDuration("timeout").Seconds()),
	}, nil)

	rec := chat_client_service.NewReconciler(chat_client_service.ReconcilerConfig{UserID: me}, api, socket)
	defer rec.Close()
	rec.OnChange(func(c chat_client_service.Change) {
		switch c.Kind {
		case chat_client_service.ChangeMessage, chat_client_service.ChangeUpdated:
			printMessage(me, c.Message)
		case chat_client_service.ChangeUnread:
			fmt.Printf("  (%d unread from %s)\n", rec.Unread(c.PeerID), c.PeerID)
		case chat_client_service.ChangeTyping:
			if c.PeerID == peerID && rec.IsTyping(peerID) {
				fmt.Printf("  %s is typing...\n", peerID)
			}
		case chat_client_service.ChangeOnline:
			state := "offline"
			if rec.IsOnline(peerID) {
				state = "online"
			}
			fmt.Printf("  %s is %s\n", peerID, state)
		}
	})
	rec.Bind(socket)

	if err := socket.Start(); err != nil {
		return err
	}
	defer socket.Stop()

	ctx := context.Background()
	history, err := rec.OpenConversation(ctx, peerID)
	if err != nil {
		return err
	}
	for _, m := range history {
		printMessage(me, m)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/older":
			n, err := rec.LoadOlder(ctx)
			if err != nil {
				fmt.Printf("  ! %v\n", err)
				continue
			}
			fmt.Printf("  loaded %d older messages\n", n)
			for _, m := range rec.Displayed()[:n] {
				printMessage(me, m)
			}
			continue
		}

		_ = rec.SetTyping(peerID)
		if _, err := rec.Send(ctx, peerID, line, ""); err != nil {
			if chat_client_service.IsBlocked(err) {
				fmt.Println("  ! message not sent: one of you has blocked the other")
			} else {
				fmt.Printf("  ! %v\n", err)
			}
		}
		_ = rec.SetStopTyping(peerID)
	}
	return scanner.Err()
}

func printMessage(me string, m *models.Message) {
	if m == nil {
		return
	}
	who := m.SenderID
	if who == me {
		who = "me"
	}
	body := m.Text
	if m.Image != "" {
		body = strings.TrimSpace(body + " [image]")
	}
	fmt.Printf("[%s] %s: %s\n", tool.FormatMessageTime(m.CreatedAt), who, body)
	if m.Translation != nil && m.SenderID != me {
		fmt.Printf("        (%s → %s) %s\n", m.Translation.DetectedLanguage, m.Translation.TranslatedTo, m.Translation.TranslatedText)
	}
}

// socketURL strips any path so the socket.io path option applies at the host root.
func socketURL(server string) string {
	u, err := url.Parse(server)
	if err != nil {
		return server
	}
	u.Path = ""
	return u.String()
}
