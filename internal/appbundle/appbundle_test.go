package appbundle

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExecer struct {
	CommandFunc func(name string, arg ...string) *exec.Cmd
}

func (m *mockExecer) Command(name string, arg ...string) *exec.Cmd {
	return m.CommandFunc(name, arg...)
}

// recordingExecer swaps in a mock that records codesign invocations.
func recordingExecer(t *testing.T, fail bool) *[][]string {
	t.Helper()
	original := cmdExecer
	t.Cleanup(func() { cmdExecer = original })

	var calls [][]string
	cmdExecer = &mockExecer{
		CommandFunc: func(name string, arg ...string) *exec.Cmd {
			calls = append(calls, append([]string{name}, arg...))
			if fail {
				return exec.Command("false")
			}
			return exec.Command("true")
		},
	}
	return &calls
}

func fakeBinary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alerter")
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

func TestEnsure(t *testing.T) {
	calls := recordingExecer(t, false)
	exe := fakeBinary(t, "v1")
	b := Bundle{Dir: filepath.Join(t.TempDir(), Name), Identifier: "com.example.fake", Version: "1.2.3"}

	changed, err := b.Ensure(exe)
	require.NoError(t, err)
	assert.True(t, changed)

	content, err := os.ReadFile(b.ExecutablePath())
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))

	plist, err := os.ReadFile(b.InfoPlistPath())
	require.NoError(t, err)
	assert.Contains(t, string(plist), "<string>com.example.fake</string>")
	assert.Contains(t, string(plist), "<string>1.2.3</string>")

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"codesign", "--force", "--sign", "-", b.Dir}, (*calls)[0])

	t.Run("unchanged bundle is not re-signed", func(t *testing.T) {
		changed, err := b.Ensure(exe)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Len(t, *calls, 1)
	})

	t.Run("new identifier rewrites the plist", func(t *testing.T) {
		b2 := b
		b2.Identifier = "com.example.other"
		changed, err := b2.Ensure(exe)
		require.NoError(t, err)
		assert.True(t, changed)
		plist, _ := os.ReadFile(b2.InfoPlistPath())
		assert.Contains(t, string(plist), "com.example.other")
		assert.Len(t, *calls, 2)
	})
}

func TestEnsure_CodesignFailure(t *testing.T) {
	recordingExecer(t, true)
	b := Bundle{Dir: filepath.Join(t.TempDir(), Name), Identifier: "com.example.fake"}

	_, err := b.Ensure(fakeBinary(t, "v1"))
	assert.ErrorContains(t, err, "codesign failed")
}

func TestInfoPlist_Escapes(t *testing.T) {
	plist := string(InfoPlist("a<b&c", ""))
	assert.Contains(t, plist, "a&lt;b&amp;c")
	assert.Contains(t, plist, "<string>0.0.0</string>")
}

func TestContains(t *testing.T) {
	b := Bundle{Dir: "/Users/me/.local/share/alerter/alerter.app"}
	assert.True(t, b.Contains(b.ExecutablePath()))
	assert.False(t, b.Contains("/usr/local/bin/alerter"))
}

func TestInApp(t *testing.T) {
	assert.True(t, InApp("/Applications/Foo.app/Contents/MacOS/alerter"))
	assert.False(t, InApp("/usr/local/bin/alerter"))
}

func TestDisabled(t *testing.T) {
	for value, want := range map[string]bool{"": false, "0": false, "1": true, "yes": true} {
		t.Setenv(DisableEnv, value)
		assert.Equal(t, want, Disabled(), "value %q", value)
	}
}
