// Package flagx extracts the few flags that must be read before the full
// flag set of a command is known, such as the config and dotenv paths.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the flags named in allowed, together with their
// values. Both "-c conf.json" and "-c=conf.json" forms are recognised; a
// following token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowed []string) []string {
	keep := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		keep[f] = true
	}

	out := []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if keep[name] {
				out = append(out, arg)
			}
			continue
		}
		if !keep[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// lookup parses a single string flag known under several names out of args.
// The last occurrence wins; a missing flag yields "".
func lookup(args []string, names ...string) string {
	var v string
	dashed := make([]string, len(names))
	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for i, n := range names {
		dashed[i] = "-" + n
		fs.StringVar(&v, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, dashed))
	return v
}

// ConfigFile returns the JSON config path given with -c or -config.
func ConfigFile() string {
	return lookup(os.Args[1:], "c", "config")
}

// EnvFile returns the dotenv path given with -env.
func EnvFile() string {
	return lookup(os.Args[1:], "env")
}
