package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mblarsen/alerter/internal/bridge"
	"github.com/mblarsen/alerter/internal/config"
	"github.com/mblarsen/alerter/internal/notification"
	"github.com/mblarsen/alerter/internal/transform"
)

// version is set at build time.
var version = "dev"

var (
	errNothingToDo = errors.New("one of --message, --remove or --list is required (or pipe a message on stdin)")
	errInit        = errors.New("unable to initialize notification system, make sure the notification service is running")
	errInterrupted = errors.New("interrupted")
)

// newBridge returns the bridge the command drives. Can be swapped for tests.
var newBridge = func(cfg *config.Config) *bridge.Bridge {
	return bridge.Default(bridge.Config{
		PollInterval: cfg.DismissPoll,
		ListTimeout:  cfg.ListTimeout,
	})
}

var rootCmd = &cobra.Command{
	Use:   "alerter",
	Short: "Send desktop notifications from the command line and wait for the user.",
	Long: `alerter delivers a desktop notification, waits until the user clicks it,
chooses an action, replies, closes it or the timeout expires, and prints what
happened to stdout.

Event outputs (without --json):
  @CONTENTCLICKED   the notification body was clicked
  @ACTIONCLICKED    one of the action buttons was chosen
  @REPLIED          a reply was submitted
  closed            the notification was closed
  timeout           nobody interacted before --timeout
  failed            the notification could not be delivered

On Linux the notification service cannot enumerate notifications, so --list
and --remove only see notifications sent by the same process.`,
	Example: `  alerter --message "Hello, World!"
  echo "Build complete" | alerter --sound default
  alerter --message "Deploy now?" --actions "Yes,No,Later" --title Deployment --json
  alerter --message "Release name?" --reply "Send,Type a name"
  alerter --list ALL --format yaml`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	RunE:          runAlert,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg.Level(logLevelFlag))
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

var (
	configFlag    string
	logLevelFlag  string
	formatFlag    string
	selectFlag    string
	messageFlag   string
	titleFlag     string
	subtitleFlag  string
	replyFlag     string
	actionsFlag   string
	dropdownFlag  string
	closeFlag     string
	appIconFlag   string
	contentFlag   string
	soundFlag     string
	timeoutFlag   int
	groupFlag     string
	senderFlag    string
	ignoreDnDFlag bool
	jsonFlag      bool
	removeFlag    string
	listFlag      string
)

func init() {
	f := rootCmd.Flags()
	f.StringVar(&messageFlag, "message", "", "The notification message body (or pipe it on stdin)")
	f.StringVar(&removeFlag, "remove", "", "Remove notifications with this group ID ('ALL' for every notification; on Linux, this process only)")
	f.StringVar(&listFlag, "list", "", "List notifications with this group ID ('ALL' for every notification; on Linux, this process only)")
	f.StringVar(&titleFlag, "title", config.DefaultTitle, "The notification title")
	f.StringVar(&subtitleFlag, "subtitle", "", "The notification subtitle")
	f.StringVar(&replyFlag, "reply", "", "Show a reply field: 'button label[,placeholder]' (empty for the default)")
	f.StringVar(&actionsFlag, "actions", "", "Comma-separated action button labels")
	f.StringVar(&dropdownFlag, "dropdownLabel", "", "Label of the actions dropdown when there are several actions")
	f.StringVar(&closeFlag, "closeLabel", "", "Label of the close button")
	f.StringVar(&appIconFlag, "appIcon", "", "Absolute path or URL of an image replacing the app icon")
	f.StringVar(&contentFlag, "contentImage", "", "Absolute path or URL of an image shown in the notification")
	f.StringVar(&soundFlag, "sound", "", "Sound name ('default' for the system sound)")
	f.IntVar(&timeoutFlag, "timeout", 0, "Close the notification after this many seconds (0 waits forever)")
	f.StringVar(&groupFlag, "group", "", "Group ID for later listing or removal")
	f.BoolVar(&ignoreDnDFlag, "ignoreDnD", false, "Deliver even when Do Not Disturb is on")
	f.BoolVar(&jsonFlag, "json", false, "Print the outcome as a JSON record")
	f.StringVar(&formatFlag, "format", "", "Render JSON output as json, yaml or toml")
	f.StringVar(&selectFlag, "select", "", "Print only this gjson path of the JSON output")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "Path to the config file")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&senderFlag, "sender", config.DefaultSender, "Bundle identifier to send the notification as")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion(version),
		fang.WithErrorHandler(printError),
	)
	if err != nil {
		return 1
	}
	return 0
}

// effective merges explicitly set flags over the config file.
func effective(cmd *cobra.Command, cfg *config.Config) (notification.Options, string) {
	flags := cmd.Flags()
	opts := notification.Options{
		Title:         cfg.Title,
		Subtitle:      subtitleFlag,
		Message:       messageFlag,
		GroupID:       groupFlag,
		Actions:       actionsFlag,
		DropdownLabel: dropdownFlag,
		CloseLabel:    closeFlag,
		AppIcon:       appIconFlag,
		ContentImage:  contentFlag,
		Sound:         cfg.Sound,
		Timeout:       cfg.Timeout,
		IgnoreDnD:     cfg.IgnoreDnD,
		JSONOutput:    cfg.JSON,
	}
	sender := cfg.Sender
	if flags.Changed("title") {
		opts.Title = titleFlag
	}
	if flags.Changed("sound") {
		opts.Sound = soundFlag
	}
	if flags.Changed("timeout") {
		opts.Timeout = timeoutFlag
	}
	if flags.Changed("ignoreDnD") {
		opts.IgnoreDnD = ignoreDnDFlag
	}
	if flags.Changed("json") {
		opts.JSONOutput = jsonFlag
	}
	if flags.Changed("sender") {
		sender = senderFlag
	}
	if flags.Changed("reply") {
		reply := strings.TrimSpace(replyFlag)
		opts.Reply = &reply
	}
	return opts, sender
}

func runAlert(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd.Context())
	opts, sender := effective(cmd, cfg)

	if opts.Message == "" && listFlag == "" && removeFlag == "" {
		opts.Message = readMessage(cmd.InOrStdin())
	}
	if opts.Message == "" && listFlag == "" && removeFlag == "" {
		return errNothingToDo
	}

	if err := ensureBundle(cfg, sender); err != nil {
		slog.Warn("Continuing without app bundle", "err", err)
	}

	b := newBridge(cfg)
	if !b.InitNotificationSystem(sender) {
		return errInit
	}

	out := cmd.OutOrStdout()
	if listFlag != "" {
		return render(out, b.ListNotifications(cmd.Context(), listFlag))
	}

	if removeFlag != "" {
		b.RemoveNotifications(removeFlag)
		if opts.Message == "" {
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := b.DeliverNotification(ctx, opts)
	if ctx.Err() != nil && cmd.Context().Err() == nil {
		b.Cleanup()
		return errInterrupted
	}
	if opts.JSONOutput {
		return render(out, result)
	}
	_, err := fmt.Fprintln(out, result)
	return err
}

// render prints JSON output through the --format/--select pipeline.
func render(w io.Writer, jsonOutput string) error {
	if formatFlag == "" && selectFlag == "" {
		_, err := fmt.Fprintln(w, jsonOutput)
		return err
	}
	pipeline, err := transform.ForOutput(formatFlag, selectFlag)
	if err != nil {
		return err
	}
	rendered, err := pipeline.Run(jsonOutput)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(rendered, "\n"))
	return err
}
