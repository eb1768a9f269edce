package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EchoTools/kfntools/internal/config"
	"github.com/EchoTools/kfntools/pkg/ecb"
	"github.com/EchoTools/kfntools/pkg/kfn"
)

var testKey = []byte("0123456789abcdef")

const testSongScript = "[General]\r\nTitle=Test\r\n\r\n" +
	"[Eff1]\r\nID=1\r\n\r\n" +
	"[Eff77]\r\nID=77\r\n"

type cliTestEnv struct {
	dir        string
	configPath string
	cfg        *config.Config
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Chdir(base)

	configPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(configPath, []byte("log_level = \"error\"\nlog_format = \"json\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	return &cliTestEnv{dir: base, configPath: configPath, cfg: cfg}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// lockedContainer builds an encrypted container with one SONG script and one
// audio payload.
func lockedContainer(t *testing.T) *kfn.Container {
	t.Helper()

	encrypt := func(plain []byte) []byte {
		data, err := ecb.Encrypt(plain, testKey)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		return data
	}
	audio := []byte("not really mp3 data")

	c := &kfn.Container{}
	c.Headers.Set(kfn.Tag{'D', 'I', 'F', 'M'}, kfn.Uint32Value(1))
	c.Headers.Set(kfn.Tag{'T', 'I', 'T', 'L'}, kfn.BytesValue([]byte("Test Song")))
	c.Headers.Set(kfn.TagRights, kfn.Uint32Value(1))
	c.Headers.Set(kfn.TagKey, kfn.BytesValue(append([]byte(nil), testKey...)))
	c.Subfiles = []*kfn.Subfile{
		{Name: []byte("Song.ini"), Type: kfn.TypeSong, Data: encrypt([]byte(testSongScript)), Length: uint32(len(testSongScript)), Encrypted: true},
		{Name: []byte("song.mp3"), Type: kfn.TypeAudio, Data: encrypt(audio), Length: uint32(len(audio)), Encrypted: true},
	}
	return c
}

func writeLockedFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := lockedContainer(t).MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write kfn: %v", err)
	}
	return data
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
