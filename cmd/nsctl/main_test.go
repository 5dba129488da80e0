package main

import (
	"path/filepath"
	"testing"

	"github.com/urfave/cli"

	"github.com/andreyvit/naming"
)

func run(t testing.TB, args ...string) error {
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app.Run(append([]string{"nsctl"}, args...))
}

func TestCommands(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ns")

	for _, args := range [][]string{
		{"init"},
		{"mkctx", "a"},
		{"mkctx", "a/b.dir"},
		{"bind", "a/b.dir/leaf", "IOR:0001"},
		{"bind", "a/x", "IOR:0002"},
		{"bind", "--force", "a/x", "IOR:0003"},
		{"unbind", "a/x"},
		{"resolve", "a/b.dir/leaf"},
		{"ls", "--batch", "1", "a"},
		{"keys"},
	} {
		if err := run(t, append([]string{"--dir", dir}, args...)...); err != nil {
			t.Fatalf("** %v: %v", args, err)
		}
	}

	store, err := naming.OpenFileStore(dir, naming.FileStoreOptions{})
	if err != nil {
		t.Fatal(err)
	}
	m, err := naming.Open(store, naming.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	root, err := m.Activate(m.RootKey())
	if err != nil {
		t.Fatal(err)
	}
	path, _ := naming.ParseName("a/b.dir/leaf")
	bv, err := m.ResolvePath(root, path)
	if err != nil {
		t.Fatal(err)
	}
	if bv != (naming.BindingValue{Type: naming.ObjectBinding, Ref: "IOR:0001"}) {
		t.Errorf("** got %v, wanted object IOR:0001", bv)
	}
	a, err := m.ResolveContext(root, path[:1])
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() != 1 {
		t.Errorf("** got %d bindings in a, wanted 1", a.Len())
	}
}

func TestCommands_errors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ns")
	if err := run(t, "resolve", "a"); err == nil {
		t.Errorf("** resolve without a store succeeded")
	}
	if err := run(t, "--dir", dir, "keys"); err == nil {
		t.Errorf("** opening a missing store succeeded")
	}
	if err := run(t, "--dir", dir, "init"); err != nil {
		t.Fatal(err)
	}
	if err := run(t, "--dir", dir, "mkctx", "a/b"); err == nil {
		t.Errorf("** mkctx under a missing context succeeded")
	}
	if err := run(t, "--dir", dir, "ls", "--batch", "0"); err == nil {
		t.Errorf("** ls with a zero batch succeeded")
	}
}
