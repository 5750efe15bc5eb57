package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"frontdown/internal/backup"
)

// InteractiveDecision implements backup.DecisionCallback by asking on
// stdin/stdout when it is attached to a terminal. When stdin is not a
// TTY (a cron job, a CI run) there is no one to ask, so Confirm reports
// false rather than blocking forever, without logging anything. The job
// treats that as a declined prompt: it skips the affected source and goes
// on with the next one, whereas ActionAbort ends the run with an error.
type InteractiveDecision struct {
	In  *os.File
	Out io.Writer
}

// NewInteractiveDecision builds a decision callback over os.Stdin/os.Stdout.
func NewInteractiveDecision() *InteractiveDecision {
	return &InteractiveDecision{In: os.Stdin, Out: os.Stdout}
}

func (d *InteractiveDecision) Confirm(situation string, details map[string]any) (bool, error) {
	if !term.IsTerminal(int(d.In.Fd())) {
		return false, nil
	}

	fmt.Fprintf(d.Out, "%s\n", situation)
	for k, v := range details {
		fmt.Fprintf(d.Out, "  %s: %v\n", k, v)
	}
	fmt.Fprint(d.Out, "Proceed? [y/N] ")

	reader := bufio.NewReader(d.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

var _ backup.DecisionCallback = (*InteractiveDecision)(nil)
