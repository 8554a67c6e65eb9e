package action

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var tokenSeparator = regexp.MustCompile(`[\W_]+`)

// ClassName derives a type name from an action name: the action is split on
// non-word characters and underscores, each token is capitalized and the
// result is wrapped in prefix and suffix.
//
//	ClassName("order_item", "Grocery", "Action") == "GroceryOrderItemAction"
func ClassName(action, prefix, suffix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, token := range tokenSeparator.Split(action, -1) {
		if token == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(token)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(token[size:]))
	}
	b.WriteString(suffix)
	return b.String()
}

// TypeName returns the bare type name of v, dereferencing pointers.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// Catalog maps type names to action constructors.
type Catalog struct {
	mu    sync.RWMutex
	types map[string]Constructor
}

func NewCatalog() *Catalog {
	return &Catalog{types: map[string]Constructor{}}
}

// Add registers ctor under the type name of the action it builds.
func (c *Catalog) Add(ctor Constructor) error {
	if ctor == nil {
		return fmt.Errorf("%w: constructor is required", ErrConfiguration)
	}
	name := TypeName(ctor(Call{}))
	if name == "" {
		return fmt.Errorf("%w: constructor must build a named type", ErrConfiguration)
	}
	return c.AddNamed(name, ctor)
}

// AddNamed registers ctor under an explicit type name.
func (c *Catalog) AddNamed(name string, ctor Constructor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.types[name]; ok {
		return fmt.Errorf("%w: type %q already in catalog", ErrConfiguration, name)
	}
	c.types[name] = ctor
	return nil
}

func (c *Catalog) Lookup(name string) (Constructor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctor, ok := c.types[name]
	return ctor, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// Convention resolves actions through ClassName and a Catalog.
type Convention struct {
	catalog *Catalog
	prefix  string
	suffix  string
	logger  *slog.Logger
}

func NewConvention(log *slog.Logger, catalog *Catalog, prefix, suffix string) *Convention {
	return &Convention{
		catalog: catalog,
		prefix:  prefix,
		suffix:  suffix,
		logger:  log.With(slog.String("dispatcher", PolicyConvention)),
	}
}

func (c *Convention) Execute(ctx context.Context, name string, call Call) error {
	typeName := ClassName(name, c.prefix, c.suffix)
	ctor, ok := c.catalog.Lookup(typeName)
	if !ok {
		c.logger.Debug("no action type", slog.String("action", name), slog.String("type", typeName))
		return nil
	}
	return run(ctx, name, ctor, call)
}
