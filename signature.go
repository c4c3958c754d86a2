package memocache

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Param declares one parameter of a memoized computation.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Arg declares a parameter without a default. An omitted value binds to nil.
func Arg(name string) Param { return Param{Name: name} }

// ArgDefault declares a parameter with a default. Passing the default explicitly
// and omitting it produce the same cache key.
func ArgDefault(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Signature describes a computation: where it lives and what it accepts.
// Empty Package, Owner or Name fields are filled from the function's symbol name.
type Signature struct {
	Package string // import path; e.g. "example.com/forum/models"
	Owner   string // receiver type name for methods
	Name    string

	// Receiver makes the first bound slot the receiver's string form (fmt %v).
	// Two receivers that print alike share cache entries.
	Receiver bool

	Params []Param
}

// Args carries the arguments of one call.
type Args struct {
	Receiver   any
	Positional []any
	Keyword    map[string]any
}

// Pos builds Args from positional values.
func Pos(v ...any) Args { return Args{Positional: v} }

// Recv builds Args for a computation declared with Signature.Receiver.
func Recv(r any, v ...any) Args { return Args{Receiver: r, Positional: v} }

// Kw returns a copy of a with one keyword argument set.
func (a Args) Kw(name string, v any) Args {
	kw := make(map[string]any, len(a.Keyword)+1)
	for k, val := range a.Keyword {
		kw[k] = val
	}
	kw[name] = v
	a.Keyword = kw
	return a
}

// Bound is the normalized argument tuple handed to a computation.
// Every declared parameter has a slot; omitted ones without a default hold nil.
type Bound struct {
	receiver any
	names    []string
	values   []any
}

// Receiver returns the receiver passed with Recv, or nil.
func (b Bound) Receiver() any { return b.receiver }

// Get returns the value bound to name. ok is false for undeclared names.
func (b Bound) Get(name string) (any, bool) {
	for i, n := range b.names {
		if n == name {
			return b.values[i], true
		}
	}
	return nil, false
}

// Values returns the bound values in declaration order.
func (b Bound) Values() []any {
	out := make([]any, len(b.values))
	copy(out, b.values)
	return out
}

// Value returns the value bound to name as T, or T's zero value when it is
// undeclared, nil or of another type.
func Value[T any](b Bound, name string) T {
	v, _ := b.Get(name)
	t, _ := v.(T)
	return t
}

// identity returns "<package>.<Owner>.<Name>", or "<package>.<Name>" without an owner.
func (s Signature) identity() string {
	if s.Owner == "" {
		return s.Package + "." + s.Name
	}
	return s.Package + "." + s.Owner + "." + s.Name
}

// resolve fills empty identity fields from fn's symbol name.
func (s Signature) resolve(fn any) (Signature, error) {
	if s.Package == "" || s.Name == "" || (s.Receiver && s.Owner == "") {
		pkg, owner, name, closure := symbolName(fn)
		if s.Name == "" {
			if closure {
				return s, usagef("%s.%s is a closure; set Signature.Name", pkg, name)
			}
			s.Name = name
			if s.Owner == "" {
				s.Owner = owner
			}
		}
		if s.Package == "" {
			s.Package = pkg
		}
	}
	switch {
	case s.Package == "" || s.Name == "":
		return s, usagef("cannot derive a name for the computation; set Signature.Package and Signature.Name")
	case s.Receiver && s.Owner == "":
		return s, usagef("%s takes a receiver but has no owner type; set Signature.Owner", s.identity())
	}

	seen := make(map[string]bool, len(s.Params))
	for _, p := range s.Params {
		if p.Name == "" {
			return s, usagef("%s: parameter without a name", s.identity())
		}
		if seen[p.Name] {
			return s, usagef("%s: duplicate parameter %q", s.identity(), p.Name)
		}
		seen[p.Name] = true
	}
	return s, nil
}

// bind folds a into one canonical tuple: per parameter the keyword value, else the
// next unconsumed positional value, else the default, else nil.
// The returned key tuple starts with the receiver's string form when s.Receiver.
func (s Signature) bind(a Args) (Bound, []any, error) {
	for k := range a.Keyword {
		if !s.declares(k) {
			return Bound{}, nil, fmt.Errorf("%w: %s got unexpected keyword %q", ErrBadArgs, s.identity(), k)
		}
	}
	if s.Receiver && a.Receiver == nil {
		return Bound{}, nil, fmt.Errorf("%w: %s needs a receiver", ErrBadArgs, s.identity())
	}

	b := Bound{
		receiver: a.Receiver,
		names:    make([]string, len(s.Params)),
		values:   make([]any, len(s.Params)),
	}
	next := 0
	for i, p := range s.Params {
		b.names[i] = p.Name
		if v, ok := a.Keyword[p.Name]; ok {
			b.values[i] = v
			continue
		}
		if next < len(a.Positional) {
			b.values[i] = a.Positional[next]
			next++
			continue
		}
		if p.HasDefault {
			b.values[i] = p.Default
		}
	}
	if next < len(a.Positional) {
		return Bound{}, nil, fmt.Errorf("%w: %s takes %d arguments, got %d extra",
			ErrBadArgs, s.identity(), len(s.Params), len(a.Positional)-next)
	}

	tuple := b.values
	if s.Receiver {
		tuple = make([]any, 0, len(b.values)+1)
		tuple = append(tuple, fmt.Sprint(a.Receiver))
		tuple = append(tuple, b.values...)
	}
	return b, tuple, nil
}

func (s Signature) declares(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// symbolName splits the runtime symbol of fn.
//
//	example.com/forum/models.CountTopics          -> (example.com/forum/models, "", CountTopics)
//	example.com/forum/models.(*Topic).Replies-fm  -> (example.com/forum/models, Topic, Replies)
//	example.com/forum/models.Topic.Title-fm       -> (example.com/forum/models, Topic, Title)
//	example.com/forum/models.init.func1           -> closure
func symbolName(fn any) (pkg, owner, name string, closure bool) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "", "", "", false
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "", "", "", false
	}
	full := strings.TrimSuffix(f.Name(), "-fm")
	full = strings.ReplaceAll(full, "[...]", "")

	slash := strings.LastIndexByte(full, '/')
	dot := strings.IndexByte(full[slash+1:], '.')
	if dot < 0 {
		return "", "", full, false
	}
	dot += slash + 1
	// the last path element has its dots escaped in symbol names
	pkg = strings.ReplaceAll(full[:dot], "%2e", ".")
	parts := strings.Split(full[dot+1:], ".")

	for _, p := range parts[1:] {
		if strings.HasPrefix(p, "func") || strings.HasPrefix(p, "gowrap") {
			return pkg, "", strings.Join(parts, "."), true
		}
	}
	if len(parts) >= 2 {
		owner = strings.TrimSuffix(strings.TrimPrefix(parts[0], "(*"), ")")
		return pkg, owner, parts[len(parts)-1], false
	}
	return pkg, "", parts[0], false
}
