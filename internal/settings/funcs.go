package settings

import (
	"os/user"
	"strings"

	strftime "github.com/ncruces/go-strftime"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// ResolverFunc computes the value of a ${name:args} interpolation.
type ResolverFunc func(r *Resolver, args []string) (any, error)

const defaultTimeFormat = "%Y%m%d_%H%M%S"

// RegisterResolver adds or replaces a named resolver. Its arguments are
// split on commas and trimmed.
func (r *Resolver) RegisterResolver(name string, fn ResolverFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = fn
	delete(r.rawArgs, name)
}

// RegisterRawResolver is like RegisterResolver but fn receives the
// argument text unchanged as its only argument.
func (r *Resolver) RegisterRawResolver(name string, fn ResolverFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = fn
	r.rawArgs[name] = true
}

func registerBuiltins(r *Resolver) {
	r.resolvers["pharaoh.project_dir"] = func(r *Resolver, _ []string) (any, error) {
		return r.opts.ProjectRoot, nil
	}
	r.resolvers["now.strf"] = func(r *Resolver, args []string) (any, error) {
		return strftime.Format(timeFormat(args), r.opts.Now().Local()), nil
	}
	r.resolvers["utcnow.strf"] = func(r *Resolver, args []string) (any, error) {
		return strftime.Format(timeFormat(args), r.opts.Now().UTC()), nil
	}
	r.rawArgs["now.strf"] = true
	r.rawArgs["utcnow.strf"] = true
	r.resolvers["user"] = func(r *Resolver, _ []string) (any, error) {
		return currentUser(r.opts.Environ()), nil
	}
	r.resolvers["env"] = func(r *Resolver, args []string) (any, error) {
		if len(args) == 0 {
			return nil, oerrors.NewValidationError("the env resolver needs a variable name", "", "", "Use ${env:NAME} or ${env:NAME,default}")
		}
		if v, ok := lookupEnv(r.opts.Environ(), args[0]); ok {
			return v, nil
		}
		if len(args) > 1 {
			return strings.Join(args[1:], ","), nil
		}
		return nil, oerrors.NewNotFoundError("environment variable "+args[0]+" is not set", "", "")
	}
}

// timeFormat returns the raw layout argument, which may contain commas.
func timeFormat(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return defaultTimeFormat
	}
	return args[0]
}

func lookupEnv(environ []string, name string) (string, bool) {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == name {
			return v, true
		}
	}
	return "", false
}

func currentUser(environ []string) string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v, _ := lookupEnv(environ, key); v != "" {
			return v
		}
	}
	return "unknown"
}
