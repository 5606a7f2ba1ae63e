// Package catalog holds the selector catalog: every Lightning element the
// pages touch, as ordered candidate lists kept outside the code.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"lightcheck/internal/interact"
)

//go:embed catalog.yaml
var defaultYAML []byte

var (
	ErrUnknownObject = errors.New("catalog: unknown object")
	ErrUnknownField  = errors.New("catalog: unknown field")
)

// Selectors is an ordered candidate list, most specific first.
type Selectors []string

// Target turns the list into an interact.Target named name.
func (s Selectors) Target(name string) (interact.Target, error) {
	return interact.CSSTarget(name, s...)
}

type Login struct {
	URL      string    `yaml:"url" json:"url"`
	Username Selectors `yaml:"username" json:"username"`
	Password Selectors `yaml:"password" json:"password"`
	Submit   Selectors `yaml:"submit" json:"submit"`
	Error    Selectors `yaml:"error" json:"error"`
}

type Lightning struct {
	AppLauncher       Selectors `yaml:"app_launcher" json:"app_launcher"`
	AppLauncherSearch Selectors `yaml:"app_launcher_search" json:"app_launcher_search"`
	GlobalSearch      Selectors `yaml:"global_search" json:"global_search"`
	ToastMessage      Selectors `yaml:"toast_message" json:"toast_message"`
	ToastContainer    Selectors `yaml:"toast_container" json:"toast_container"`
	Spinners          Selectors `yaml:"spinners" json:"spinners"`
	Modal             Selectors `yaml:"modal" json:"modal"`
	ModalSave         Selectors `yaml:"modal_save" json:"modal_save"`
	NavBar            Selectors `yaml:"nav_bar" json:"nav_bar"`
}

// Object describes one sObject's list view and record form.
type Object struct {
	ListPath     string               `yaml:"list_path" json:"list_path"`
	CreatedToast string               `yaml:"created_toast" json:"created_toast"`
	NewButton    Selectors            `yaml:"new_button" json:"new_button"`
	SaveButton   Selectors            `yaml:"save_button" json:"save_button"`
	Fields       map[string]Selectors `yaml:"fields" json:"fields"`
	Picklists    map[string]Selectors `yaml:"picklists" json:"picklists"`
}

// Catalog is the full selector set.
type Catalog struct {
	Login     Login             `yaml:"login" json:"login"`
	Lightning Lightning         `yaml:"lightning" json:"lightning"`
	Objects   map[string]Object `yaml:"objects" json:"objects"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Load(defaultYAML, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadFromPath reads a catalog file (YAML or JSON) and validates it.
// Format is detected by extension (.yaml/.yml, .json) or by content.
func LoadFromPath(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a catalog from bytes. ext is a format hint; empty means
// detect from content.
func Load(data []byte, ext string) (*Catalog, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		ext = ".json"
	}
	var c Catalog
	if ext == ".json" {
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse catalog json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects empty candidate lists and blank selectors.
func (c *Catalog) Validate() error {
	var errs []error
	check := func(where string, s Selectors) {
		if len(s) == 0 {
			errs = append(errs, fmt.Errorf("%s: no candidates", where))
			return
		}
		for i, sel := range s {
			if strings.TrimSpace(sel) == "" {
				errs = append(errs, fmt.Errorf("%s[%d]: blank selector", where, i))
			}
		}
	}
	check("login.username", c.Login.Username)
	check("login.password", c.Login.Password)
	check("login.submit", c.Login.Submit)
	check("login.error", c.Login.Error)
	check("lightning.toast_container", c.Lightning.ToastContainer)
	check("lightning.spinners", c.Lightning.Spinners)
	check("lightning.modal", c.Lightning.Modal)
	check("lightning.nav_bar", c.Lightning.NavBar)
	for _, name := range c.ObjectNames() {
		o := c.Objects[name]
		if !strings.HasPrefix(o.ListPath, "/") {
			errs = append(errs, fmt.Errorf("objects.%s.list_path: %q is not an absolute path", name, o.ListPath))
		}
		check("objects."+name+".new_button", o.NewButton)
		check("objects."+name+".save_button", o.SaveButton)
		for f, s := range o.Fields {
			check("objects."+name+".fields."+f, s)
		}
		for f, s := range o.Picklists {
			check("objects."+name+".picklists."+f, s)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

// ObjectNames returns the catalogued objects, sorted.
func (c *Catalog) ObjectNames() []string {
	names := make([]string, 0, len(c.Objects))
	for n := range c.Objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Object looks up an object by API name.
func (c *Catalog) Object(name string) (Object, error) {
	o, ok := c.Objects[name]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}
	return o, nil
}

// Field returns the Target for a text field of o.
func (o Object) Field(name string) (interact.Target, error) {
	s, ok := o.Fields[name]
	if !ok {
		return interact.Target{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return s.Target(name)
}

// Picklist returns the Target for the trigger of a picklist of o.
func (o Object) Picklist(name string) (interact.Target, error) {
	s, ok := o.Picklists[name]
	if !ok {
		return interact.Target{}, fmt.Errorf("%w: picklist %s", ErrUnknownField, name)
	}
	return s.Target(name)
}
