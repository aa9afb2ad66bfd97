package command

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies what a message asks the bot to do.
type Kind string

const (
	KindEcho   Kind = "echo"
	KindAI     Kind = "ai"
	KindDomain Kind = "domain"
)

// Domain names a domain lookup backend.
type Domain string

const (
	DomainInventory Domain = "inventory"
	DomainRecipe    Domain = "recipe"
)

// DefaultGreeting is sent to the AI backend when the prefix has no text after it.
const DefaultGreeting = "こんにちは"

// Command is the routing decision for one message.
type Command struct {
	Kind    Kind
	Domain  Domain // set for KindDomain
	Payload string
	Pro     bool // use the larger AI model
}

func (c Command) String() string {
	switch c.Kind {
	case KindDomain:
		return fmt.Sprintf("domain(%s) %q", c.Domain, c.Payload)
	case KindAI:
		if c.Pro {
			return fmt.Sprintf("ai(pro) %q", c.Payload)
		}
		return fmt.Sprintf("ai %q", c.Payload)
	default:
		return fmt.Sprintf("echo %q", c.Payload)
	}
}

// rule maps a set of prefixes to a command. When bounded is set the prefix
// must be followed by whitespace, a colon or the end of the text.
type rule struct {
	prefixes []string
	bounded  bool
	build    func(arg string) Command
}

// rules are checked in order; the first match wins.
var rules = []rule{
	{
		prefixes: []string{"#inventory", "#在庫"},
		bounded:  true,
		build: func(arg string) Command {
			return Command{Kind: KindDomain, Domain: DomainInventory, Payload: arg}
		},
	},
	{
		prefixes: []string{"#recipe", "#レシピ"},
		bounded:  true,
		build: func(arg string) Command {
			return Command{Kind: KindDomain, Domain: DomainRecipe, Payload: arg}
		},
	},
	{
		prefixes: []string{"pro:"},
		build: func(arg string) Command {
			return Command{Kind: KindAI, Payload: orGreeting(arg), Pro: true}
		},
	},
	{
		prefixes: []string{"ai:"},
		build: func(arg string) Command {
			return Command{Kind: KindAI, Payload: orGreeting(arg)}
		},
	},
	{
		prefixes: []string{"ai"},
		bounded:  true,
		build: func(arg string) Command {
			return Command{Kind: KindAI, Payload: orGreeting(arg)}
		},
	},
}

// Route decides what to do with a message. It is pure and total: every
// input yields a command, falling back to echoing the original text.
func Route(text string) Command {
	normalized := strings.TrimLeftFunc(norm.NFKC.String(text), unicode.IsSpace)

	for _, r := range rules {
		for _, p := range r.prefixes {
			rest, ok := cutPrefixFold(normalized, p)
			if !ok {
				continue
			}
			if r.bounded && !atBoundary(rest) {
				continue
			}
			return r.build(strings.TrimSpace(strings.TrimPrefix(rest, ":")))
		}
	}

	return Command{Kind: KindEcho, Payload: text}
}

// cutPrefixFold is strings.CutPrefix with case-insensitive matching.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func atBoundary(rest string) bool {
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return r == ':' || unicode.IsSpace(r)
}

func orGreeting(arg string) string {
	if arg == "" {
		return DefaultGreeting
	}
	return arg
}
