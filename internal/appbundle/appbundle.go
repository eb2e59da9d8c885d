// Package appbundle builds the minimal .app wrapper the notification service
// needs to attribute notifications to a bundle, and re-executes the process
// from inside it.
package appbundle

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mblarsen/alerter/internal/fileutil"
)

// DisableEnv turns bundling off when set to a non-empty value other than "0".
const DisableEnv = "ALERTER_NO_BUNDLE"

// Name is the wrapper's directory name.
const Name = "alerter.app"

// execer is an interface to allow mocking of exec.Command.
type execer interface {
	Command(name string, arg ...string) *exec.Cmd
}

type realExecer struct{}

func (e *realExecer) Command(name string, arg ...string) *exec.Cmd {
	return exec.Command(name, arg...)
}

// Overridable for testing.
var cmdExecer execer = &realExecer{}

// Bundle is a wrapper app bundle on disk.
type Bundle struct {
	Dir        string
	Identifier string
	Version    string
}

// ExecutablePath is where the bundled copy of the binary lives.
func (b Bundle) ExecutablePath() string {
	return filepath.Join(b.Dir, "Contents", "MacOS", "alerter")
}

// InfoPlistPath is the bundle's Info.plist.
func (b Bundle) InfoPlistPath() string {
	return filepath.Join(b.Dir, "Contents", "Info.plist")
}

// Contains reports whether path lies inside the bundle.
func (b Bundle) Contains(path string) bool {
	inside, err := fileutil.IsPathInsideRoot(b.Dir, path)
	return err == nil && inside
}

// Disabled reports whether DisableEnv asks to skip bundling.
func Disabled() bool {
	v := os.Getenv(DisableEnv)
	return v != "" && v != "0"
}

// InApp reports whether exe already runs from some .app bundle.
func InApp(exe string) bool {
	return strings.Contains(filepath.ToSlash(exe), ".app/Contents/MacOS/")
}

// Ensure creates or refreshes the bundle around a copy of exe. The copy is
// re-signed whenever the binary or Info.plist changed.
func (b Bundle) Ensure(exe string) (changed bool, err error) {
	binChanged, err := fileutil.CopyFile(exe, b.ExecutablePath(), 0755)
	if err != nil {
		return false, err
	}

	plistChanged, err := fileutil.WriteIfChanged(b.InfoPlistPath(), InfoPlist(b.Identifier, b.Version), 0644)
	if err != nil {
		return false, fmt.Errorf("failed to write Info.plist: %w", err)
	}

	if !binChanged && !plistChanged {
		return false, nil
	}
	if err := b.sign(); err != nil {
		return true, err
	}
	slog.Debug("Refreshed app bundle", "dir", b.Dir, "id", b.Identifier)
	return true, nil
}

// sign ad-hoc signs the bundle so the notification service accepts it.
func (b Bundle) sign() error {
	out, err := cmdExecer.Command("codesign", "--force", "--sign", "-", b.Dir).CombinedOutput()
	if err != nil {
		return fmt.Errorf("codesign failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

const infoPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>CFBundleIdentifier</key>
    <string>%s</string>
    <key>CFBundleName</key>
    <string>alerter</string>
    <key>CFBundleExecutable</key>
    <string>alerter</string>
    <key>CFBundlePackageType</key>
    <string>APPL</string>
    <key>CFBundleShortVersionString</key>
    <string>%s</string>
    <key>LSUIElement</key>
    <true/>
    <key>NSUserNotificationAlertStyle</key>
    <string>alert</string>
</dict>
</plist>
`

// InfoPlist renders the bundle's Info.plist.
func InfoPlist(id, version string) []byte {
	if version == "" {
		version = "0.0.0"
	}
	return []byte(fmt.Sprintf(infoPlistTemplate, escape(id), escape(version)))
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
