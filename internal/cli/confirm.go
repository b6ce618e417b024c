package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// StdinConfirmer asks on Out and reads the answer from In. Anything other
// than y or yes, including end of input, is a no.
type StdinConfirmer struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func (c *StdinConfirmer) AskYesNo(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}
	fmt.Fprintf(c.Out, "%s [y/N]: ", message)
	line, err := c.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
