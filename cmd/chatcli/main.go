// Command chatcli is a terminal client for easychat-service.
package main

import (
	"fmt"
	"os"
	"time"

	"easychat-service/service/chat_client_service"
	"easychat-service/tool"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Terminal client for the easychat service",
}

func init() {
	viper.SetEnvPrefix("CHATCLI")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().StringP("server", "s", "http://localhost:5001",
		"Base URL of the chat server")
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().StringP("user", "u", "",
		"User id sent as X-User-Id (header auth mode)")
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))

	rootCmd.PersistentFlags().StringP("key", "k", "",
		"Hex secp256k1 private key; enables signed requests")
	viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))

	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second,
		"Request timeout")
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.AddCommand(registerCmd, meCmd, usersCmd, blockCmd, unblockCmd, blocksCmd, chatCmd)
}

// identity returns the user id the server will see for this client.
func identity() (string, error) {
	if key := viper.GetString("key"); key != "" {
		pub, err := tool.PublicKeyFromPrivate(key)
		if err != nil {
			return "", err
		}
		return tool.UserIDFromPublicKey(pub)
	}
	if user := viper.GetString("user"); user != "" {
		return user, nil
	}
	return "", fmt.Errorf("either --user or --key is required")
}

func newAPIClient() (*chat_client_service.APIClient, error) {
	return chat_client_service.NewAPIClient(&chat_client_service.APIConfig{
		BaseURL: viper.GetString("server"),
		UserID:  viper.GetString("user"),
		PrivKey: viper.GetString("key"),
		Timeout: viper.GetDuration("timeout"),
	})
}
