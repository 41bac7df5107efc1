package instrument

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog indexes instruments by job level. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	byLevel map[string]Instrument
}

// NewCatalog normalizes and validates every instrument. Weight faults are
// surfaced here, at load time, rather than per scoring call.
func NewCatalog(instruments ...Instrument) (*Catalog, error) {
	c := &Catalog{byLevel: make(map[string]Instrument, len(instruments))}
	ids := make(map[string]bool, len(instruments))
	for _, in := range instruments {
		in = in.normalize()
		if err := in.Validate(); err != nil {
			return nil, err
		}
		level := levelKey(in.Level)
		if _, dup := c.byLevel[level]; dup {
			return nil, fmt.Errorf("%w: level %q defined twice", ErrInvalidInstrument, in.Level)
		}
		if ids[in.ID] {
			return nil, fmt.Errorf("%w: instrument id %q defined twice", ErrInvalidInstrument, in.ID)
		}
		ids[in.ID] = true
		c.byLevel[level] = in
	}
	return c, nil
}

// Lookup returns the instrument for a job level (case-insensitive).
func (c *Catalog) Lookup(level string) (Instrument, error) {
	in, ok := c.byLevel[levelKey(level)]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	return in, nil
}

// Levels returns the known levels in sorted order.
func (c *Catalog) Levels() []string {
	out := make([]string, 0, len(c.byLevel))
	for _, in := range c.byLevel {
		out = append(out, in.Level)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of instruments.
func (c *Catalog) Len() int { return len(c.byLevel) }

func levelKey(level string) string { return strings.ToLower(strings.TrimSpace(level)) }

// document is the YAML layout of a catalog file.
type document struct {
	Instruments []Instrument `koanf:"instruments"`
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	return load(file.Provider(path))
}

// Parse reads a YAML catalog from memory.
func Parse(data []byte) (*Catalog, error) {
	return load(bytesProvider(data))
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func load(p koanf.Provider) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	var doc document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	if len(doc.Instruments) == 0 {
		return nil, fmt.Errorf("%w: no instruments defined", ErrLoadCatalog)
	}
	return NewCatalog(doc.Instruments...)
}

// bytesProvider feeds an in-memory YAML document to koanf.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) { return b, nil }

func (b bytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("bytes provider does not support Read")
}
