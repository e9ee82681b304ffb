package notice

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every key must be defined in.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Catalog holds the notice messages of every bundled locale.
type Catalog struct {
	builder *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag
	locales map[string]map[string]string
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads locales/<locale>/<namespace>.yaml files from fsys.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob notice catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no notice catalogs found")
	}
	sort.Strings(paths)

	c := &Catalog{locales: map[string]map[string]string{}}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if err := c.add(path, file); err != nil {
			return nil, err
		}
	}

	base, ok := c.locales[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	for locale, msgs := range c.locales {
		for key := range msgs {
			if _, ok := base[key]; !ok {
				return nil, fmt.Errorf("catalog %s: key %q missing from base locale", locale, key)
			}
		}
	}

	c.builder = catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale)))
	tags := []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range c.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		if locale != BaseLocale {
			tags = append(tags, tag)
		}
		for key, value := range c.locales[locale] {
			if err := c.builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
		}
	}
	c.tags = tags
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

func (c *Catalog) add(path string, file catalogFile) error {
	fromPath := filepath.Base(filepath.Dir(path))
	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", path)
	}
	if locale != fromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", path, locale, fromPath)
	}
	if file.Messages == nil {
		return fmt.Errorf("catalog %s: messages map is required", path)
	}

	msgs, ok := c.locales[locale]
	if !ok {
		msgs = map[string]string{}
		c.locales[locale] = msgs
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", path)
		}
		if _, dup := msgs[key]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", path, key, locale)
		}
		msgs[key] = value
	}
	return nil
}

// Locales returns the bundled locale identifiers, sorted.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.locales))
	for locale := range c.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Printer returns a printer for the closest bundled match to locale.
func (c *Catalog) Printer(locale string) *Printer {
	tag := c.tags[0]
	if t, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		if _, idx, conf := c.matcher.Match(t); conf != language.No {
			tag = c.tags[idx]
		}
	}
	return &Printer{p: message.NewPrinter(tag, message.Catalog(c.builder)), tag: tag}
}

// Printer renders notice keys in one locale.
type Printer struct {
	p   *message.Printer
	tag language.Tag
}

// Locale reports the printer's language tag.
func (p *Printer) Locale() string { return p.tag.String() }

// Text renders key with args using the locale's number formatting.
func (p *Printer) Text(key Key, args ...any) string {
	return p.p.Sprintf(string(key), args...)
}
