package main

import (
	"bytes"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"user", "add"},
		{"recipe", "import"},
		{"client", "show"},
		{"client", "add"},
		{"client", "check"},
		{"client", "sync"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Errorf("find %v: %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("find %v returned %q", path, cmd.Name())
		}
	}
}

func TestMigrateAndUserAdd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SHOPLIST_DATABASE_PATH", dir+"/test.db")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		root := newRootCommand()
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"--config-dir", dir}, args...))
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out.String())
		}
		return out.String()
	}

	if got := run("migrate"); !bytes.Contains([]byte(got), []byte("schema version")) {
		t.Errorf("migrate output = %q", got)
	}
	if got := run("user", "add", "Ann@Example.com", "--password", "hunter2"); !bytes.Contains([]byte(got), []byte("ann@example.com")) {
		t.Errorf("user add output = %q", got)
	}
}

func TestClientRequiresConfiguration(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SHOPLIST_CLIENT_TOKEN", "")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config-dir", dir, "client", "show"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected missing token error")
	}
}
