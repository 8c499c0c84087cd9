package chat

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michalij0/chat/internal/chat/history"
)

func TestParseCommand(test *testing.T) {
	cases := []struct {
		line     string
		expected Command
		err      error
	}{
		{"list", Command{Name: CommandList}, nil},
		{"LiSt\r", Command{Name: CommandList}, nil},
		{"HELP", Command{Name: CommandHelp}, nil},
		{"recent", Command{Name: CommandRecent}, nil},
		{"recent 5", Command{CommandRecent, "5"}, nil},
		{"kick 0123456789abcdef", Command{CommandKick, "0123456789abcdef"}, nil},
		{"kick   0123456789abcdef  ", Command{CommandKick, "0123456789abcdef"}, nil},
		{"say hello world", Command{CommandSay, "hello world"}, nil},
		{"say ", Command{CommandSay, ""}, nil},
		{"KICK 0123456789abcdef", Command{}, ErrUnknownCommand},
		{"Say hi", Command{}, ErrUnknownCommand},
		{"kick", Command{}, ErrUnknownCommand},
		{"list all", Command{}, ErrUnknownCommand},
		{"", Command{}, ErrUnknownCommand},
		{"whatever", Command{}, ErrUnknownCommand},
	}
	for _, c := range cases {
		actual, err := ParseCommand(c.line)
		if c.err != nil {
			assert.ErrorIs(test, err, c.err, "line %q", c.line)
			continue
		}
		if assert.NoError(test, err, "line %q", c.line) {
			assert.Equal(test, c.expected, actual, "line %q", c.line)
		}
	}
}

func TestServer_Exec_list(test *testing.T) {
	s := startServer(test, nil)
	out := bytes.Buffer{}
	require.NoError(test, s.Exec("list", &out))
	assert.Equal(test, "Connected clients (0):\n", out.String())

	a := dial(test, s)
	b := dial(test, s)
	a.expect(test, s.joinedMessage(b.uid))

	out.Reset()
	require.NoError(test, s.Exec("LIST", &out))
	ids := []string{a.uid, b.uid}
	sort.Strings(ids)
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(test, lines, 3)
	assert.Equal(test, "Connected clients (2):", lines[0])
	for i, id := range ids {
		assert.True(test, strings.HasPrefix(lines[i+1], id+" (IP: 127.0.0.1:"), lines[i+1])
	}
}

func TestServer_Exec_kick(test *testing.T) {
	s := startServer(test, nil)
	a := dial(test, s)
	b := dial(test, s)
	a.expect(test, s.joinedMessage(b.uid))

	out := bytes.Buffer{}
	assert.ErrorIs(test, s.Exec("kick nobody", &out), ErrClientNotFound)
	assert.Equal(test, "Client not found: nobody\n", out.String())
	a.expectSilence(test)

	out.Reset()
	require.NoError(test, s.Exec("kick "+b.uid, &out))
	assert.Equal(test, fmt.Sprintf("Client removed: %s\n", b.uid), out.String())
	a.expect(test, s.kickedMessage(b.uid))
	b.expect(test, s.kickedMessage(b.uid))
	b.expectClosed(test)
}

func TestServer_Exec_recent(test *testing.T) {
	stack, err := history.NewStack(5)
	require.NoError(test, err)
	s := startServer(test, nil, WithMessageHistory(stack))
	a := dial(test, s)
	a.send(test, "ping")
	a.expect(test, "Me: ping\n")

	out := bytes.Buffer{}
	require.NoError(test, s.Exec("recent 3", &out))
	assert.True(test, strings.HasSuffix(out.String(), a.uid+": ping\n"), out.String())

	out.Reset()
	assert.ErrorIs(test, s.Exec("recent zero", &out), ErrUnknownCommand)
	assert.Contains(test, out.String(), "Usage")

	out.Reset()
	require.NoError(test, s.Exec("help", &out))
	for _, cmd := range []string{CommandList, CommandKick, CommandSay, CommandRecent} {
		assert.Contains(test, out.String(), cmd)
	}
}

func TestServer_Exec_ignored(test *testing.T) {
	s := startServer(test, nil)
	a := dial(test, s)

	out := bytes.Buffer{}
	for _, line := range []string{"", "hello", "Say hi", "KICK " + a.uid} {
		assert.ErrorIs(test, s.Exec(line, &out), ErrUnknownCommand)
	}
	assert.Empty(test, out.String())
	a.expectSilence(test)
	assert.Equal(test, 1, s.Len())
}

func TestServer_RunConsole(test *testing.T) {
	s := startServer(test, nil)
	a := dial(test, s)

	in := strings.NewReader("LIST\nbogus\nkick nobody\nsay hello\n")
	out := bytes.Buffer{}
	require.NoError(test, s.RunConsole(context.Background(), in, &out))

	assert.Contains(test, out.String(), "Connected clients (1):\n"+a.uid)
	assert.Contains(test, out.String(), "Client not found: nobody\n")
	a.expect(test, "Server: hello\n")
	a.expectSilence(test)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out.Reset()
	require.NoError(test, s.RunConsole(ctx, strings.NewReader("say late\n"), &out))
	a.expectSilence(test)
}
