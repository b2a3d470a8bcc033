package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/registry"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/store"
)

// CatalogueYAML is a small but complete command catalogue used across
// package tests: two nouns, three commands, every argument type.
const CatalogueYAML = `commands:
  - name: user-create
    noun: user
    verb: create
    summary: Create a user account
    args:
      - name: username
        type: string
        required: true
        summary: Login name
      - name: admin
        type: bool
        summary: Grant admin rights
  - name: user-delete
    noun: user
    verb: delete
    summary: Delete a user account
    args:
      - name: username
        type: string
        required: true
  - name: quota-set
    noun: quota
    verb: set
    summary: Set a storage quota
    args:
      - name: username
        type: string
        required: true
      - name: gigabytes
        type: int
        required: true
      - name: burst-factor
        type: float
`

// WriteCatalogueFile writes CatalogueYAML under a temp dir and returns the
// path. The file is removed with the test's temp dir.
func WriteCatalogueFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "commands.yaml")
	if err := os.WriteFile(path, []byte(CatalogueYAML), 0o644); err != nil {
		t.Fatalf("Failed to write fixture catalogue: %v", err)
	}
	return path
}

// LoadCatalogue parses CatalogueYAML.
func LoadCatalogue(t *testing.T) *registry.Catalogue {
	t.Helper()

	cat, err := registry.Parse([]byte(CatalogueYAML))
	if err != nil {
		t.Fatalf("Failed to parse fixture catalogue: %v", err)
	}
	return cat
}

// PeopleStore builds a frozen store with a small social graph: names,
// ages, and a knows-chain a -> b -> c -> d used by path and join tests.
func PeopleStore(t *testing.T) *store.TripleStore {
	t.Helper()

	name := rdf.IRI("http://ex/name")
	age := rdf.IRI("http://ex/age")
	knows := rdf.IRI("http://ex/knows")

	b := store.NewBuilder()
	b.InsertAll([]rdf.Triple{
		rdf.T("http://ex/a", name, rdf.NewLiteral("Alice")),
		rdf.T("http://ex/a", age, rdf.NewLiteral("42")),
		rdf.T("http://ex/b", name, rdf.NewLiteral("Bob")),
		rdf.T("http://ex/b", age, rdf.NewLiteral("35")),
		rdf.T("http://ex/c", name, rdf.NewLiteral("Carol")),
		rdf.T("http://ex/c", age, rdf.NewLiteral("28")),
		rdf.T("http://ex/d", name, rdf.NewLiteral("Dave")),
		rdf.T("http://ex/a", knows, rdf.IRI("http://ex/b")),
		rdf.T("http://ex/b", knows, rdf.IRI("http://ex/c")),
		rdf.T("http://ex/c", knows, rdf.IRI("http://ex/d")),
	})
	return b.Build()
}
