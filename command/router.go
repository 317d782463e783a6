package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Handler produces the response text for a routed command.
type Handler func(ctx context.Context, cmd Command) (string, error)

// Matcher reports whether a normalized command selects a route.
type Matcher func(normalized string) bool

// Route pairs a name with its matcher and handler.
type Route struct {
	Name   string
	Match  Matcher
	Handle Handler
}

// Result is the outcome of a dispatched command.
type Result struct {
	Route    string
	Response string
}

// Router holds an ordered route table. The first route whose matcher accepts
// the command wins; the fallback handles everything else.
type Router struct {
	routes   []Route
	names    map[string]bool
	fallback *Route
	mu       sync.RWMutex
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{names: make(map[string]bool)}
}

// Register appends route to the table. Registration order is match priority.
func (r *Router) Register(route Route) error {
	if route.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[route.Name] {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, route.Name)
	}
	r.names[route.Name] = true
	r.routes = append(r.routes, route)
	return nil
}

// Fallback sets the route used when nothing else matches.
func (r *Router) Fallback(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = &Route{Name: name, Handle: handler}
}

// Routes returns the registered route names in priority order.
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.routes))
	for _, route := range r.routes {
		names = append(names, route.Name)
	}
	return names
}

// Resolve returns the route that would handle normalized.
func (r *Router) Resolve(normalized string) (Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if route.Match != nil && route.Match(normalized) {
			return route, nil
		}
	}
	if r.fallback == nil {
		return Route{}, ErrNoFallback
	}
	return *r.fallback, nil
}

// Dispatch resolves cmd and runs its handler. A handler error or panic is
// returned wrapped in ErrHandlerFailure alongside the resolved route name.
func (r *Router) Dispatch(ctx context.Context, cmd Command) (result Result, err error) {
	route, err := r.Resolve(cmd.Normalized)
	if err != nil {
		return Result{}, err
	}
	result.Route = route.Name

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrHandlerFailure, route.Name, p)
		}
	}()

	response, herr := route.Handle(ctx, cmd)
	if herr != nil {
		return result, fmt.Errorf("%w: %s: %w", ErrHandlerFailure, route.Name, herr)
	}
	result.Response = response
	return result, nil
}

// Exact matches when the whole command, minus trailing punctuation, equals
// one of words.
func Exact(words ...string) Matcher {
	return func(normalized string) bool {
		s := strings.TrimRightFunc(normalized, unicode.IsPunct)
		s = strings.TrimSpace(s)
		for _, w := range words {
			if s == w {
				return true
			}
		}
		return false
	}
}

// Phrase matches when the command's words contain one of phrases as a
// contiguous word sequence. "desligar a luz" does not match "ligar a luz".
func Phrase(phrases ...string) Matcher {
	split := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		if tokens := Tokens(p); len(tokens) > 0 {
			split = append(split, tokens)
		}
	}
	return func(normalized string) bool {
		tokens := Tokens(normalized)
		for _, phrase := range split {
			if containsSequence(tokens, phrase) {
				return true
			}
		}
		return false
	}
}

// Contains matches on a plain substring.
func Contains(fragments ...string) Matcher {
	return func(normalized string) bool {
		for _, f := range fragments {
			if strings.Contains(normalized, f) {
				return true
			}
		}
		return false
	}
}

// Prefix matches when any word of the command starts with one of stems, so
// "horas" matches "hora" and "ajude" matches "ajud".
func Prefix(stems ...string) Matcher {
	return func(normalized string) bool {
		for _, token := range Tokens(normalized) {
			for _, stem := range stems {
				if strings.HasPrefix(token, stem) {
					return true
				}
			}
		}
		return false
	}
}

// Any matches when any of matchers does.
func Any(matchers ...Matcher) Matcher {
	return func(normalized string) bool {
		for _, m := range matchers {
			if m(normalized) {
				return true
			}
		}
		return false
	}
}

// Tokens splits s into words on anything that is not a letter or digit.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TrailingInt returns the signed integer in the last whitespace-separated
// field of s, ignoring trailing punctuation such as "%".
func TrailingInt(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	last := strings.TrimRightFunc(fields[len(fields)-1], unicode.IsPunct)
	n, err := strconv.Atoi(last)
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsSequence(tokens, seq []string) bool {
	if len(seq) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j := range seq {
			if tokens[i+j] != seq[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
