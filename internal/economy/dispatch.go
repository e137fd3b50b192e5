package economy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kingrea/economy/internal/chat"
)

// DefaultPrefix is used when the dispatcher is built with an empty prefix.
const DefaultPrefix = "!"

type command struct {
	usage   string
	summary string
	gated   bool
	run     func(ctx chat.Context, args []string) error
}

// Dispatcher maps chat messages onto economy commands.
type Dispatcher struct {
	econ     *Economy
	prefix   string
	commands map[string]*command
	aliases  map[string]string
}

// NewDispatcher builds the command table for econ.
func NewDispatcher(econ *Economy, prefix string) *Dispatcher {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	d := &Dispatcher{
		econ:     econ,
		prefix:   prefix,
		commands: map[string]*command{},
		aliases: map[string]string{
			"bal": "balance",
			"inv": "inventory",
		},
	}
	d.commands["use"] = &command{
		usage:   "use <item>",
		summary: "consume one item",
		gated:   true,
		run: func(ctx chat.Context, args []string) error {
			if len(args) == 0 {
				return d.usage(ctx, "use")
			}
			return econ.Use(ctx, strings.Join(args, " "))
		},
	}
	d.commands["buy"] = &command{
		usage:   "buy <item> [quantity]",
		summary: "buy items with wallet coins",
		gated:   true,
		run: func(ctx chat.Context, args []string) error {
			item, qty, ok := parseBuyArgs(args)
			if !ok {
				return d.usage(ctx, "buy")
			}
			return econ.Buy(ctx, item, qty)
		},
	}
	d.commands["balance"] = &command{
		usage:   "balance",
		summary: "show wallet and bank",
		gated:   true,
		run: func(ctx chat.Context, _ []string) error {
			return econ.Balance(ctx)
		},
	}
	d.commands["inventory"] = &command{
		usage:   "inventory",
		summary: "list owned items",
		gated:   true,
		run: func(ctx chat.Context, _ []string) error {
			return econ.Inventory(ctx)
		},
	}
	d.commands["savedata"] = &command{
		usage:   "savedata",
		summary: "write the ledger to disk (admin)",
		gated:   true,
		run: func(ctx chat.Context, _ []string) error {
			return econ.SaveData(ctx)
		},
	}
	d.commands["loaddata"] = &command{
		usage:   "loaddata",
		summary: "reload the ledger from disk (admin)",
		run: func(ctx chat.Context, _ []string) error {
			return econ.LoadData(ctx)
		},
	}
	d.commands["help"] = &command{
		usage:   "help",
		summary: "list commands",
		run: func(ctx chat.Context, _ []string) error {
			return ctx.Send(d.helpText())
		},
	}
	return d
}

// Prefix returns the command prefix in use.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Dispatch runs the command in content, if any. It reports whether content
// was an economy command. Soft failures are answered through ctx and return
// a nil error; ErrNotReady and ErrNotPermitted are swallowed the same way
// since the caller has already been told.
func (d *Dispatcher) Dispatch(ctx chat.Context, content string) (bool, error) {
	name, args, ok := chat.ParseCommand(d.prefix, content)
	if !ok {
		return false, nil
	}
	if canonical, isAlias := d.aliases[name]; isAlias {
		name = canonical
	}
	cmd, ok := d.commands[name]
	if !ok {
		return false, nil
	}
	if cmd.gated {
		if err := d.econ.Check(ctx); err != nil {
			return true, swallowReported(err)
		}
	}
	return true, swallowReported(cmd.run(ctx, args))
}

func swallowReported(err error) error {
	switch err {
	case ErrNotReady, ErrNotPermitted:
		return nil
	}
	return err
}

func (d *Dispatcher) usage(ctx chat.Context, name string) error {
	return ctx.Send(fmt.Sprintf("Usage: %s%s", d.prefix, d.commands[name].usage))
}

func (d *Dispatcher) helpText() string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Commands:")
	for _, name := range names {
		cmd := d.commands[name]
		fmt.Fprintf(&b, "\n%s%s - %s", d.prefix, cmd.usage, cmd.summary)
	}
	return b.String()
}

// parseBuyArgs splits "<item words...> [quantity]". A trailing integer is the
// quantity; anything else is part of the item name.
func parseBuyArgs(args []string) (string, int64, bool) {
	if len(args) == 0 {
		return "", 0, false
	}
	qty := int64(1)
	if len(args) > 1 {
		last := args[len(args)-1]
		if n, err := strconv.ParseInt(last, 10, 64); err == nil {
			qty = n
			args = args[:len(args)-1]
		} else if looksNumeric(last) {
			// fractional or out of range
			return strings.Join(args[:len(args)-1], " "), 0, true
		}
	}
	return strings.Join(args, " "), qty, true
}

func looksNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
