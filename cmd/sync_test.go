package cmd

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRunSyncMissingTokenCompletesNormally(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	t.Setenv("CRM_ACCESS_TOKEN", "")
	t.Setenv("HUBSPOT_ACCESS_TOKEN", "")

	hook := test.NewGlobal()
	t.Cleanup(func() { logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks)) })

	if err := runSync(nil, []string{"roster-that-does-not-exist.csv"}); err != nil {
		t.Fatalf("expected missing token to finish without error, got %v", err)
	}
	if len(hook.Entries) != 2 || hook.Entries[0].Level != logrus.ErrorLevel {
		t.Fatalf("expected two error log lines, got %d", len(hook.Entries))
	}
}

func TestRunSyncMissingRosterFails(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	t.Setenv("CRM_ACCESS_TOKEN", "token")
	t.Setenv("CRM_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })

	if err := runSync(nil, []string{"roster-that-does-not-exist.csv"}); err == nil {
		t.Fatalf("expected missing roster to fail the run")
	}
}
