// ABOUTME: Terminal rendering sink for the routing controller
// ABOUTME: Colorized output for messages, presence changes, unread counts, notices

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/parley/internal/conversation"
	"github.com/2389/parley/internal/presence"
	"github.com/2389/parley/internal/router"
)

// terminalUI implements router.Sink by printing to stdout. Async renders may
// interleave with the prompt; that is the accepted terminal-chat tradeoff.
type terminalUI struct {
	self   *color.Color
	other  *color.Color
	dim    *color.Color
	notice *color.Color
	errc   *color.Color
}

func newTerminalUI() *terminalUI {
	return &terminalUI{
		self:   color.New(color.FgGreen),
		other:  color.New(color.FgCyan),
		dim:    color.New(color.Faint),
		notice: color.New(color.FgYellow),
		errc:   color.New(color.FgRed),
	}
}

// MessageReceived renders an inbound message for the active context.
func (t *terminalUI) MessageReceived(context string, msg conversation.Message) {
	if context == router.ContextPublic {
		t.other.Printf("\n[public] %s: %s\n", msg.Sender, msg.Text)
		return
	}
	t.other.Printf("\n[%s] %s\n", msg.Sender, msg.Text)
}

// UnreadChanged reports accumulation in a non-active conversation.
func (t *terminalUI) UnreadChanged(_, peerLabel string, unread int) {
	t.dim.Printf("\n* %s (%d unread), /open %s to read\n", peerLabel, unread, peerLabel)
}

// PresenceChanged renders the online list after a snapshot.
func (t *terminalUI) PresenceChanged(online []presence.Entry) {
	if len(online) == 0 {
		t.dim.Printf("\n* nobody else online\n")
		return
	}
	names := make([]string, len(online))
	for i, entry := range online {
		names[i] = entry.Identity
	}
	t.dim.Printf("\n* online: %s\n", strings.Join(names, ", "))
}

// SessionChanged reports authentication transitions.
func (t *terminalUI) SessionChanged(identity string, authenticated bool) {
	if authenticated {
		t.notice.Printf("\nlogged in as %s\n", identity)
	}
}

// Notice surfaces a user-visible message from the server.
func (t *terminalUI) Notice(text string) {
	t.notice.Printf("\n%s\n", text)
}

func (t *terminalUI) noticef(format string, args ...any) {
	t.notice.Printf(format+"\n", args...)
}

func (t *terminalUI) errorf(format string, args ...any) {
	t.errc.Printf("[error] "+format+"\n", args...)
}

// prompt prints the input prompt for the current active context.
func (t *terminalUI) prompt(ctrl *router.Controller) {
	active := ctrl.Active()
	if active == router.ContextPublic {
		fmt.Print("[public]> ")
		return
	}

	label := active
	for _, summary := range ctrl.Conversations() {
		if summary.ConnectionID == active {
			label = summary.PeerLabel
			break
		}
	}
	fmt.Printf("[%s]> ", label)
}

// printOnline renders the /users listing.
func (t *terminalUI) printOnline(online []presence.Entry) {
	if len(online) == 0 {
		fmt.Println("Nobody else is online.")
		return
	}
	fmt.Println("Online users:")
	for _, entry := range online {
		fmt.Printf("  %s\n", entry.Identity)
	}
}

// printChats renders the /chats listing, most recently active first.
func (t *terminalUI) printChats(summaries []conversation.Summary) {
	if len(summaries) == 0 {
		fmt.Println("No private conversations yet.")
		return
	}
	fmt.Println("Private conversations:")
	for _, s := range summaries {
		if s.Unread > 0 {
			fmt.Printf("  %s (%d unread)\n", s.PeerLabel, s.Unread)
			continue
		}
		fmt.Printf("  %s\n", s.PeerLabel)
	}
}

// printHistory replays a private conversation after /open.
func (t *terminalUI) printHistory(peerLabel string, history []conversation.Message) {
	t.noticef("chat with %s", peerLabel)
	for _, msg := range history {
		if msg.FromSelf() {
			t.self.Printf("you: %s\n", msg.Text)
			continue
		}
		t.other.Printf("%s: %s\n", msg.Sender, msg.Text)
	}
}
