// Package seed collects the bootstrap values for a fresh deployment from an
// interactive terminal: the signup passphrase, the admin account and the
// registration limits.
package seed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Seeder is the part of SettingsService used by Run.
type Seeder interface {
	Seed(ctx context.Context, req services.SeedRequest) error
}

// GetSimpleText prints a prompt to w and reads a single line from reader.
// If EOF occurs after some input was read, the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetSecret reads a value from the terminal without echo.
func GetSecret(prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetLimit reads a non-negative integer. An empty answer keeps def.
func GetLimit(reader *bufio.Reader, prompt string, def int, w io.Writer) (int, error) {
	s, err := GetSimpleText(reader, fmt.Sprintf("%s [%d]", prompt, def), w)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// Collect prompts for every seed value.
func Collect(reader *bufio.Reader, w io.Writer) (services.SeedRequest, error) {
	var req services.SeedRequest
	var err error

	if req.AdminName, err = GetSimpleText(reader, "Admin name", w); err != nil {
		return req, err
	}
	if req.AdminPassword, err = GetSecret("Admin password", w); err != nil {
		return req, err
	}
	if req.Passphrase, err = GetSecret("Signup passphrase", w); err != nil {
		return req, err
	}
	if req.MaxProfessors, err = GetLimit(reader, "Max professors", services.DefaultMaxProfessors, w); err != nil {
		return req, err
	}
	if req.MaxClassesPerProfessor, err = GetLimit(reader, "Max classes per professor", services.DefaultMaxClassesPerProfessor, w); err != nil {
		return req, err
	}
	return req, nil
}

// Run collects the seed values and stores them.
func Run(ctx context.Context, reader *bufio.Reader, w io.Writer, s Seeder) error {
	req, err := Collect(reader, w)
	if err != nil {
		return err
	}
	if err := s.Seed(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(w, "Success!")
	return nil
}
