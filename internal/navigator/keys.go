package navigator

import (
	"errors"
	"fmt"
	"strings"
)

// Action is what a key press asks the session to do.
type Action int

// Actions
const (
	ActionSkip Action = iota
	ActionBack
	ActionKeep
	ActionDelete
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionBack:
		return "back"
	case ActionKeep:
		return "keep"
	case ActionDelete:
		return "delete"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Key names
const (
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyEscape    = "escape"
	KeyQ         = "q"
	KeySpace     = "space"
	KeyBackspace = "backspace"
	KeyEnter     = "enter"
	KeyTab       = "tab"
)

// ReservedKeys cannot be bound to keep or delete.
var ReservedKeys = []string{KeyLeft, KeyRight, KeyEscape, KeyQ}

var keyAliases = map[string]string{
	"esc":      KeyEscape,
	"spacebar": KeySpace,
	"return":   KeyEnter,
	"bs":       KeyBackspace,
}

// NormalizeKey lowercases a key name and resolves aliases.
func NormalizeKey(key string) string {
	if key == " " {
		return KeySpace
	}
	k := strings.ToLower(strings.TrimSpace(key))
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// Bindings maps the configurable keys.
type Bindings struct {
	Save   string
	Delete string
}

// DefaultBindings returns space to keep and backspace to delete.
func DefaultBindings() Bindings {
	return Bindings{Save: KeySpace, Delete: KeyBackspace}
}

// Validate checks that both keys are set, distinct and not reserved.
func (b Bindings) Validate() error {
	save, del := NormalizeKey(b.Save), NormalizeKey(b.Delete)
	if save == "" || del == "" {
		return errors.New("save and delete keys must be set")
	}
	if save == del {
		return fmt.Errorf("save and delete keys must differ (both %q)", save)
	}
	for _, r := range ReservedKeys {
		if save == r {
			return fmt.Errorf("save key %q is reserved for navigation", save)
		}
		if del == r {
			return fmt.Errorf("delete key %q is reserved for navigation", del)
		}
	}
	return nil
}

// Action resolves a key press. Unbound keys, right arrow included, skip.
func (b Bindings) Action(key string) Action {
	k := NormalizeKey(key)
	switch k {
	case KeyLeft:
		return ActionBack
	case KeyEscape, KeyQ:
		return ActionQuit
	case NormalizeKey(b.Save):
		return ActionKeep
	case NormalizeKey(b.Delete):
		return ActionDelete
	default:
		return ActionSkip
	}
}

// Help is the key legend drawn on every frame.
func (b Bindings) Help() string {
	return fmt.Sprintf("%s: keep | %s: delete | Left: back | Right: skip | Esc: quit",
		title(NormalizeKey(b.Save)), title(NormalizeKey(b.Delete)))
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
