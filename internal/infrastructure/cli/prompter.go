package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/termflow/internal/domain"
)

// Prompter asks for command approval on the terminal. Off a TTY it is
// disabled and callers should reject instead of blocking on stdin.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	isTTY bool
}

// NewPrompter constructs a prompter referencing stdio. Passing non-nil
// readers (tests) forces interactive mode.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	isTTY := true
	if in == nil {
		in = os.Stdin
		fd := os.Stdin.Fd()
		isTTY = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	if out == nil {
		out = os.Stderr
	}
	return &Prompter{in: bufio.NewReader(in), out: out, isTTY: isTTY}
}

// Enabled reports whether the prompter can actually ask.
func (p *Prompter) Enabled() bool { return p.isTTY }

// Confirm presents one approval request and reads the answer. Critical
// risk demands a typed "yes"; everything else takes y/N.
func (p *Prompter) Confirm(req domain.ApprovalRequest) (bool, error) {
	fmt.Fprintf(p.out, "\n%s risk command requires approval:\n  %s\n", strings.ToUpper(string(req.Risk)), req.Command)
	fmt.Fprintf(p.out, "(auto-rejects in %s)\n", req.Timeout)

	if req.Risk == domain.RiskCritical {
		fmt.Fprint(p.out, "Type 'yes' to run: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(line) == "yes", nil
	}

	fmt.Fprint(p.out, "Run it? [y/N]: ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}
