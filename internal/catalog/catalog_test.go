package catalog

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testdataPath(name string) string {
	_, f, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(f), "testdata", name)
}

func TestDefault(t *testing.T) {
	c := Default()
	if diff := cmp.Diff([]string{"Lead", "Opportunity"}, c.ObjectNames()); diff != "" {
		t.Errorf("objects (-want +got):\n%s", diff)
	}
	if c.Login.URL != "https://login.salesforce.com" {
		t.Errorf("login url = %q", c.Login.URL)
	}
	want := Selectors{"div.slds-spinner_container", "div.slds-spinner", "lightning-spinner"}
	if diff := cmp.Diff(want, c.Lightning.Spinners); diff != "" {
		t.Errorf("spinners (-want +got):\n%s", diff)
	}
}

func TestDefault_LeadFields(t *testing.T) {
	lead, err := Default().Object("Lead")
	if err != nil {
		t.Fatal(err)
	}
	if lead.ListPath != "/lightning/o/Lead/list" {
		t.Errorf("ListPath = %q", lead.ListPath)
	}
	company, err := lead.Field("company")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"css=input[name='Company']", "css=input[placeholder='Company']"}
	if diff := cmp.Diff(want, company.Strings()); diff != "" {
		t.Errorf("company candidates (-want +got):\n%s", diff)
	}
	if _, err := lead.Picklist("lead_status"); err != nil {
		t.Errorf("lead_status: %v", err)
	}
	if _, err := lead.Field("nope"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}

func TestObject_Unknown(t *testing.T) {
	if _, err := Default().Object("Account"); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("err = %v, want ErrUnknownObject", err)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	c, err := LoadFromPath(testdataPath("catalog.json"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	o, err := c.Object("Case")
	if err != nil {
		t.Fatal(err)
	}
	if o.ListPath != "/lightning/o/Case/list" || len(o.Fields["subject"]) != 1 {
		t.Errorf("got %+v", o)
	}
}

func TestLoad_DetectJSON(t *testing.T) {
	_, err := Load([]byte(`{"login":{}}`), "")
	if err == nil || !strings.Contains(err.Error(), "login.username") {
		t.Errorf("err = %v, want validation failure from the json branch", err)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	_, err := LoadFromPath(testdataPath("broken.yaml"))
	if err == nil {
		t.Fatal("want validation error")
	}
	for _, want := range []string{"login.username: no candidates", "lightning.modal[0]: blank selector", "objects.Lead.list_path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(testdataPath("nope.yaml")); err == nil {
		t.Error("want read error")
	}
}
