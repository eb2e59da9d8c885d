//go:build darwin

package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/mblarsen/alerter/internal/notification"
)

const notificationSettingsURL = "x-apple.systempreferences:com.apple.preference.notifications"

var enableNotificationsCmd = &cobra.Command{
	Use:   "enable-notifications",
	Short: "Guides you to enable notifications on macOS.",
	Long: `Sends a test notification so the sender shows up in System Settings, then
opens the Notifications pane.

Pick the sender bundle (see --sender) and set its alert style to "Alerts" so
action buttons and replies stay on screen until you answer them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd.Context())
		sender := cfg.Sender
		if cmd.Flags().Changed("sender") {
			sender = senderFlag
		}
		if err := ensureBundle(cfg, sender); err != nil {
			return err
		}

		b := newBridge(cfg)
		if !b.InitNotificationSystem(sender) {
			return errInit
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sending a test notification as %s...\n", sender)
		done := make(chan struct{})
		go func() {
			defer close(done)
			b.Deliver(cmd.Context(), notification.Options{
				Title:   "alerter",
				Message: "Notifications are now enabled for alerter!",
				Timeout: 5,
			})
		}()

		fmt.Fprintln(cmd.OutOrStdout(), "Opening System Settings > Notifications...")
		err := exec.Command("open", notificationSettingsURL).Run()
		<-done
		return err
	},
}

func init() {
	rootCmd.AddCommand(enableNotificationsCmd)
}
