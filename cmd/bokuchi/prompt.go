package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// linePrompter stands in for native file dialogs: it asks for a path on the
// terminal. An empty answer cancels.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter() *linePrompter {
	return &linePrompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

func (p *linePrompter) PickOpenPath(ctx context.Context) (string, error) {
	path, err := p.ask("Open file: ")
	return absolute(path), err
}

func (p *linePrompter) PickSavePath(ctx context.Context, suggested string) (string, error) {
	path, err := p.ask(fmt.Sprintf("Save as [%s]: ", suggested))
	if err != nil || path != "" {
		return absolute(path), err
	}
	// a bare enter accepts the suggestion only when it is a real path
	if strings.ContainsAny(suggested, `/\`) {
		return suggested, nil
	}
	return "", nil
}

func (p *linePrompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// absolute anchors a typed path at the working directory. Stored paths must
// not depend on where the next command runs.
func absolute(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
