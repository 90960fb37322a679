package main

import (
	"context"
	"fmt"

	"easychat-service/models"
	"easychat-service/tool"

	"github.com/spf13/cobra"
)

var (
	registerName string
	registerLang string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create the user record for the current identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		defer api.Close()
		user, err := api.Register(context.Background(), registerName, registerLang)
		if err != nil {
			return err
		}
		printUser(user)
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		defer api.Close()
		user, err := api.Me(context.Background())
		if err != nil {
			return err
		}
		printUser(user)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List conversations with last message previews",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		defer api.Close()
		users, err := api.Sidebar(context.Background())
		if err != nil {
			return err
		}
		for _, u := range users {
			line := fmt.Sprintf("%-24s %-20s", u.ID, u.FullName)
			if u.IsBlocked {
				line += " [blocked]"
			}
			if u.LastMessage != nil {
				line += fmt.Sprintf(" %s %q", tool.FormatMessageTime(u.LastMessage.CreatedAt), u.LastMessage.Text)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <peerId>",
	Short: "Block a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		defer api.Close()
		return api.Block(context.Background(), args[0])
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <peerId>",
	Short: "Unblock a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		defer api.Close()
		return api.Unblock(context.Background(), args[0])
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List blocked users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		defer api.Close()
		blocks, err := api.Blocks(context.Background())
		if err != nil {
			return err
		}
		for _, b := range blocks {
			fmt.Printf("%s  since %s\n", b.BlockedID, tool.MakeDate(b.CreatedAt.UnixMilli()))
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&registerLang, "lang", "", "Preferred language, e.g. en, es")
	_ = registerCmd.MarkFlagRequired("name")
}

func printUser(u *models.User) {
	fmt.Printf("id:       %s\nname:     %s\nlanguage: %s\ncreated:  %s\n",
		u.ID, u.FullName, u.Language(), tool.MakeDate(u.CreatedAt.UnixMilli()))
}
