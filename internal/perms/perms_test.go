package perms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

const sampleFile = `
[[player]]
id = "4b7f9a2e-1c3d-4e5f-8a9b-0c1d2e3f4a5b"
permissions = ["network.staff", "network.moderate"]

[[player]]
id = "5c8e0b3f-2d4e-5f60-9bac-1d2e3f4a5b6c"
group = 4
nickname = true
`

var (
	staffID   = uuid.MustParse("4b7f9a2e-1c3d-4e5f-8a9b-0c1d2e3f4a5b")
	partnerID = uuid.MustParse("5c8e0b3f-2d4e-5f60-9bac-1d2e3f4a5b6c")
)

func TestParse(t *testing.T) {
	l, err := Parse(sampleFile)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !l.HasPermission(staffID, "network.staff") {
		t.Error("staff permission missing")
	}
	if l.HasPermission(staffID, "network.admin") {
		t.Error("unlisted permission granted")
	}
	if l.GroupID(staffID) != 0 {
		t.Errorf("GroupID(staff) = %d, want 0", l.GroupID(staffID))
	}

	if l.GroupID(partnerID) != 4 {
		t.Errorf("GroupID(partner) = %d, want 4", l.GroupID(partnerID))
	}
	if !l.HasNickname(partnerID) {
		t.Error("partner nickname missing")
	}

	unknown := uuid.New()
	if l.HasPermission(unknown, "network.staff") || l.GroupID(unknown) != 0 || l.HasNickname(unknown) {
		t.Error("unknown player should have no grants")
	}
}

func TestParse_RejectsBadID(t *testing.T) {
	_, err := Parse("[[player]]\nid = \"not-a-uuid\"\n")
	if err == nil {
		t.Fatal("expected error for malformed player id")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perms.toml")
	if err := os.WriteFile(path, []byte(sampleFile), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !l.HasPermission(staffID, "network.staff") {
		t.Error("staff permission missing after Load")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEmpty(t *testing.T) {
	l := Empty()
	if l.HasPermission(uuid.New(), "network.staff") {
		t.Error("empty lookup granted a permission")
	}
}
