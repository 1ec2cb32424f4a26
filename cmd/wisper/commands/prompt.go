package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"wisper/internal/config"
	"wisper/internal/crypto"
)

// prompter asks the operator for session details. Reads honour ctx so an
// interrupt is not stuck behind a blocked prompt.
type prompter struct {
	r   *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{r: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

type lineResult struct {
	line string
	err  error
}

func (p *prompter) ask(ctx context.Context, label string, hidden bool) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	ch := make(chan lineResult, 1)
	go func() {
		if hidden && p.tty {
			b, err := term.ReadPassword(p.fd)
			fmt.Fprintln(p.out)
			ch <- lineResult{string(b), err}
			return
		}
		line, err := p.r.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- lineResult{strings.TrimRight(line, "\r\n"), err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// offerNewKey prints a fresh key when the operator asks for one.
func (p *prompter) offerNewKey(ctx context.Context) error {
	for {
		resp, err := p.ask(ctx, "Need a new key? (y/n)", false)
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(resp)) {
		case "y":
			k := crypto.GenerateKey()
			fmt.Fprintf(p.out, "New secret key: %s\n", k)
			fmt.Fprintf(p.out, "Fingerprint: %s\n", crypto.Fingerprint(k))
			crypto.WipeKey(&k)
			return nil
		case "n":
			return nil
		}
	}
}

func (p *prompter) secretKey(ctx context.Context) (crypto.Key, error) {
	for {
		s, err := p.ask(ctx, "Enter secret key", true)
		if err != nil {
			return crypto.Key{}, err
		}
		k, err := crypto.ParseKey(s)
		if err == nil {
			fmt.Fprintln(p.out, "Key accepted")
			return k, nil
		}
		fmt.Fprintln(p.out, "Invalid key")
	}
}

func (p *prompter) alias(ctx context.Context) (string, error) {
	for {
		a, err := p.ask(ctx, "Enter alias", false)
		if err != nil {
			return "", err
		}
		if config.ValidAlias(a) {
			return a, nil
		}
		fmt.Fprintln(p.out, "Alias must only contain alphanumeric characters")
	}
}

func (p *prompter) passphrase(ctx context.Context, confirm bool) (string, error) {
	for {
		pass, err := p.ask(ctx, "Passphrase", true)
		if err != nil {
			return "", err
		}
		if pass == "" {
			fmt.Fprintln(p.out, "Passphrase must not be empty")
			continue
		}
		if !confirm {
			return pass, nil
		}
		again, err := p.ask(ctx, "Repeat passphrase", true)
		if err != nil {
			return "", err
		}
		if again == pass {
			return pass, nil
		}
		fmt.Fprintln(p.out, "Passphrases do not match")
	}
}
