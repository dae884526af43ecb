// Package admin implements the operator console: line commands read from
// stdin (or any reader) that mutate the same registry and fan-out paths the
// protocol uses, plus a graceful-shutdown trigger.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-relay/domain"
	"chat-relay/runtime"
)

type Console struct {
	log      *slog.Logger
	registry *runtime.Registry
	sessions *runtime.SessionManager
	fanout   *runtime.Distributor
	in       io.Reader
	out      io.Writer

	// shutdown starts the drain; wired to the server context cancel.
	shutdown func()
}

func NewConsole(log *slog.Logger, registry *runtime.Registry, sessions *runtime.SessionManager,
	fanout *runtime.Distributor, in io.Reader, out io.Writer, shutdown func()) *Console {
	return &Console{
		log:      log,
		registry: registry,
		sessions: sessions,
		fanout:   fanout,
		in:       in,
		out:      out,
		shutdown: shutdown,
	}
}

// Run reads commands until /stop, end of input, or context cancellation
// between lines. Reading from a terminal cannot be interrupted mid-line;
// the process exiting takes care of that.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if stop := c.handle(sc.Text()); stop {
			return nil
		}
	}
	return sc.Err()
}

// handle executes one command line and reports whether it was /stop.
func (c *Console) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case "/stop":
		fmt.Fprintln(c.out, color.Yellow.Sprint("shutting down, draining clients"))
		c.shutdown()
		return true
	case "/addchat":
		c.addChat(rest)
	case "/removechat":
		c.removeChat(rest)
	case "/removeuser":
		c.removeUser(rest)
	case "/list":
		c.list()
	case "/help":
		fmt.Fprintln(c.out, "/addchat <name> | /removechat <id-or-name> | /removeuser <username> | /list | /stop")
	default:
		fmt.Fprintln(c.out, color.Red.Sprintf("unknown command %q, try /help", command))
	}
	return false
}

func (c *Console) addChat(name string) {
	if name == "" {
		fmt.Fprintln(c.out, color.Red.Sprint("usage: /addchat <name>"))
		return
	}
	chat := c.registry.CreateChat(name)
	c.fanout.ChatChange(chat.ID, domain.ChangeConnected)
	c.log.Info("chat room added from console", "id", int(chat.ID), "name", name)
	fmt.Fprintln(c.out, color.Green.Sprintf("chat %d %s", int(chat.ID), name))
}

// removeChat removes one room by id, or every room carrying the given name
// when the argument is not numeric.
func (c *Console) removeChat(arg string) {
	if arg == "" {
		fmt.Fprintln(c.out, color.Red.Sprint("usage: /removechat <id-or-name>"))
		return
	}
	var doomed []*domain.ChatRoom
	if id, err := strconv.Atoi(arg); err == nil {
		chat, err := c.registry.GetChat(domain.ChatID(id))
		if err != nil {
			fmt.Fprintln(c.out, color.Red.Sprint("chat id not found"))
			return
		}
		doomed = append(doomed, chat)
	} else {
		doomed = c.registry.ChatsByName(arg)
		if len(doomed) == 0 {
			fmt.Fprintln(c.out, color.Red.Sprint("no chat with that name"))
			return
		}
	}
	for _, chat := range doomed {
		if c.registry.RemoveChat(chat.ID) {
			c.fanout.ChatChange(chat.ID, domain.ChangeDisconnected)
			fmt.Fprintln(c.out, color.Green.Sprintf("removed chat %d %s", int(chat.ID), chat.Name))
		}
	}
}

func (c *Console) removeUser(name string) {
	if name == "" {
		fmt.Fprintln(c.out, color.Red.Sprint("usage: /removeuser <username>"))
		return
	}
	if !c.sessions.EvictUser(domain.Username(name)) {
		fmt.Fprintln(c.out, color.Red.Sprint("user not found"))
		return
	}
	c.log.Info("user removed from console", "username", name)
	fmt.Fprintln(c.out, color.Green.Sprintf("removed user %s", name))
}

func (c *Console) list() {
	users := tablewriter.NewWriter(c.out)
	users.SetHeader([]string{"Username", "Nickname", "Pending messages"})
	for _, u := range c.registry.Users() {
		users.Append([]string{string(u.Username), u.Nickname, strconv.Itoa(u.Mailbox.PendingMessages())})
	}
	users.Render()

	chats := tablewriter.NewWriter(c.out)
	chats.SetHeader([]string{"Chat ID", "Name"})
	for _, chat := range c.registry.Chats() {
		chats.Append([]string{strconv.Itoa(int(chat.ID)), chat.Name})
	}
	chats.Render()
}
