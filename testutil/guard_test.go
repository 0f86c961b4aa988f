package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"internal", InternalImportForbidden, "hotelcare/internal/core", true},
		{"internal pkg", InternalImportForbidden, "hotelcare/pkg/domain", false},
		{"core", CoreImportForbidden, "hotelcare/internal/core", true},
		{"blob core", CoreImportForbidden, "hotelcare/internal/blob/core", false},
		{"core infra", CoreImportForbidden, "hotelcare/internal/infra/document/feed", false},
		{"sqlite", DriverImportForbidden, "modernc.org/sqlite", true},
		{"pgx stdlib", DriverImportForbidden, "github.com/jackc/pgx/v5/stdlib", true},
		{"s3", DriverImportForbidden, "github.com/aws/aws-sdk-go-v2/service/s3", true},
		{"uuid", DriverImportForbidden, "github.com/google/uuid", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s: predicate(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
	if !AnyOf(CoreImportForbidden, DriverImportForbidden)("modernc.org/sqlite") {
		t.Fatalf("AnyOf should match when one predicate matches")
	}
	if AnyOf()("x") {
		t.Fatalf("empty AnyOf matches nothing")
	}
}

func TestAssertNoDirectImportsPasses(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, InternalImportForbidden, "none")
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, _ ...any) { r.msg = format }

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport _ \"hotelcare/internal/core\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package tmp\nimport _ \"modernc.org/sqlite\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, AnyOf(CoreImportForbidden, DriverImportForbidden))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "hotelcare/internal/core") {
		t.Fatalf("expected one core violation, got %v", viols)
	}
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "layering", viols)
	if rec.msg == "" {
		t.Fatalf("expected Fatalf to be called")
	}
}
