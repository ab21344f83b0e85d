package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"hifi-remote/internal/ports"
)

// ConsoleNotifier prints alerts to the terminal.
type ConsoleNotifier struct {
	out   io.Writer
	title *color.Color
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = color.Error
	}
	return &ConsoleNotifier{out: out, title: color.New(color.FgRed, color.Bold)}
}

func (n *ConsoleNotifier) Alert(title, message string) {
	_, _ = fmt.Fprintf(n.out, "%s %s\n", n.title.Sprint(title+":"), message)
}

// Notifiers fans an alert out to every notifier.
type Notifiers []ports.Notifier

func (ns Notifiers) Alert(title, message string) {
	for _, n := range ns {
		n.Alert(title, message)
	}
}
