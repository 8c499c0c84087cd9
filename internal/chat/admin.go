package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/michalij0/chat/internal/chat/broker"
)

var (
	// ErrUnknownCommand - returns for operator input which is not a command.
	ErrUnknownCommand = errors.New("chat: unknown command")
	// ErrClientNotFound - returns when no connected client has the identifier.
	ErrClientNotFound = errors.New("chat: client not found")
)

// Operator commands.
const (
	CommandList   = "list"
	CommandKick   = "kick"
	CommandSay    = "say"
	CommandRecent = "recent"
	CommandHelp   = "help"
)

const defaultRecent = 10

// Command - parsed operator command.
type Command struct {
	Name string
	Arg  string
}

// ParseCommand - parses single console line.
// "list", "help" and "recent" are case-insensitive, "kick <uid>", "say <message>"
// and "recent <n>" require exact lower-case prefix followed by a space.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case strings.EqualFold(line, CommandList):
		return Command{Name: CommandList}, nil
	case strings.EqualFold(line, CommandHelp):
		return Command{Name: CommandHelp}, nil
	case strings.EqualFold(line, CommandRecent):
		return Command{Name: CommandRecent}, nil
	case strings.HasPrefix(line, CommandKick+" "):
		return Command{CommandKick, strings.TrimSpace(line[len(CommandKick)+1:])}, nil
	case strings.HasPrefix(line, CommandSay+" "):
		return Command{CommandSay, strings.TrimSpace(line[len(CommandSay)+1:])}, nil
	case strings.HasPrefix(line, CommandRecent+" "):
		return Command{CommandRecent, strings.TrimSpace(line[len(CommandRecent)+1:])}, nil
	default:
		return Command{}, ErrUnknownCommand
	}
}

// List - returns connected clients ordered by identifier.
func (s *Server) List() []broker.Entry {
	list := s.broker.List()
	sort.Slice(list, func(i, j int) bool {
		if list[i].UID == list[j].UID {
			return list[i].Addr < list[j].Addr
		}
		return list[i].UID < list[j].UID
	})
	return list
}

// Kick - announces removal of the client to everyone (the client included) and disconnects it.
// If the client is parting at the same moment, only one of kick and part wins.
func (s *Server) Kick(uid string) error {
	conn, _, ok := s.broker.Find(uid)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, uid)
	}
	entry, ok := s.broker.Unregister(conn)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, uid)
	}

	log := s.logger.With(clientAttr(entry))
	msg := s.kickedMessage(entry.UID)
	if err := s.broker.SendMessage(conn, msg); err != nil {
		log.Debug("kick notice not delivered", slog.Any("err", err))
	}
	s.broker.Broadcast(nil, msg)
	s.broker.Drop(conn)
	log.Info("client kicked")
	return nil
}

// Say - broadcasts operator message to all clients, returns num of deliveries.
func (s *Server) Say(body string) int {
	s.logger.Info("operator says", slog.String("text", body))
	return s.broker.Broadcast(nil, s.operatorMessage(body))
}

// Recent - returns up to n latest relayed messages, oldest first.
func (s *Server) Recent(n int) []string {
	return s.history.Tail(n)
}

// Exec - runs operator command line and prints its result into out.
// Returns ErrUnknownCommand for anything which is not a command, caller may ignore it.
func (s *Server) Exec(line string, out io.Writer) error {
	cmd, err := ParseCommand(line)
	if err != nil {
		return err
	}

	switch cmd.Name {
	case CommandList:
		list := s.List()
		fmt.Fprintf(out, "Connected clients (%d):\n", len(list))
		for _, e := range list {
			fmt.Fprintf(out, "%s (IP: %s)\n", e.UID, e.Addr)
		}
	case CommandKick:
		if err := s.Kick(cmd.Arg); err != nil {
			fmt.Fprintf(out, "Client not found: %s\n", cmd.Arg)
			return err
		}
		fmt.Fprintf(out, "Client removed: %s\n", cmd.Arg)
	case CommandSay:
		s.Say(cmd.Arg)
	case CommandRecent:
		n := defaultRecent
		if cmd.Arg != "" {
			n, err = strconv.Atoi(cmd.Arg)
			if err != nil || n < 1 {
				fmt.Fprintf(out, "Usage: recent [n], n > 0\n")
				return fmt.Errorf("%w: recent %q", ErrUnknownCommand, cmd.Arg)
			}
		}
		for _, line := range s.Recent(n) {
			fmt.Fprintln(out, line)
		}
	case CommandHelp:
		fmt.Fprint(out, "Commands:\n"+
			"  list           connected clients\n"+
			"  kick <uid>     disconnect client\n"+
			"  say <message>  message to all clients\n"+
			"  recent [n]     latest relayed messages\n")
	}
	return nil
}

// RunConsole - reads operator commands line by line until input is exhausted or ctx is done.
// Unknown commands are silently ignored.
func (s *Server) RunConsole(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.Exec(scanner.Text(), out); err != nil && !errors.Is(err, ErrUnknownCommand) {
			s.logger.Debug("operator command failed", slog.Any("err", err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("chat.Server.RunConsole: %w", err)
	}
	return nil
}
