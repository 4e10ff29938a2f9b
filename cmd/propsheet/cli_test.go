package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/propsheet/propsheet/cmd/propsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expectedCommands = []string{"extract", "sources", "ingest", "serve", "expire"}

func newTestMain(t *testing.T) *main.Main {
	t.Helper()
	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")
	m.EnvFiles = nil
	return m
}

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()
	for _, cmd := range expectedCommands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
}

func TestCLI_ParsesEnvironmentDefaults(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	parser, err := kong.New(cli, kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--ledger-mode", "check-then-debit", "--max-images", "3", "ingest", "acc/abc", "https://cdn.example.com/1.jpg"})

	require.NoError(t, err)
	assert.Equal(t, "check-then-debit", cli.LedgerMode)
	assert.Equal(t, 3, cli.MaxImages)
	assert.Equal(t, "acc/abc", cli.Ingest.Key)
	assert.Equal(t, []string{"https://cdn.example.com/1.jpg"}, cli.Ingest.URLs)
	assert.Equal(t, "text", cli.LogFormat)
}

func TestCLI_RejectsUnknownLedgerMode(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	parser, err := kong.New(cli, kong.Exit(func(int) {}), kong.Writers(&bytes.Buffer{}, &bytes.Buffer{}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--ledger-mode", "optimistic", "sources"})

	require.Error(t, err)
}

func TestMain_Run_HelpShowsKongOutput(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := newTestMain(t).Run(context.Background(), []string{"--help"}, stdout, stderr)
	require.NoError(t, err)

	helpOutput := stdout.String()
	for _, cmd := range expectedCommands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := newTestMain(t).Run(context.Background(), nil, stdout, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
	assert.Contains(t, stdout.String(), "extract")
}

func TestMain_Run_Sources(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := newTestMain(t).Run(context.Background(), []string{"sources"}, stdout, stderr)

	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(stdout.Bytes()), []byte("\n"))
	assert.Len(t, lines, 7)
	assert.Equal(t, "Foxter", string(lines[0]))
	assert.Contains(t, stdout.String(), "Colnaghi")
}

func TestMain_Run_IngestRequiresStorage(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := newTestMain(t).Run(context.Background(), []string{"ingest", "acc/abc", "https://cdn.example.com/1.jpg"}, stdout, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BUCKET or STORAGE_DIR")
}
