package identity

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestExtendedFieldsAreReadableWithoutCasting(t *testing.T) {
	t.Parallel()

	session := Session{
		User: User{
			Base:      Base{Name: "Ana", Email: "ana@acme.test"},
			Extension: Extension{ID: "u-1", Role: "pharmacist", OrganizationName: "Acme Pharmacy"},
		},
		Expires: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
	}
	if session.User.Role != "pharmacist" {
		t.Fatalf("Role = %q", session.User.Role)
	}
	if session.User.OrganizationName != "Acme Pharmacy" {
		t.Fatalf("OrganizationName = %q", session.User.OrganizationName)
	}
	if session.User.Name != "Ana" {
		t.Fatalf("Name = %q", session.User.Name)
	}
}

func TestSessionJSONFlattensBaseAndExtension(t *testing.T) {
	t.Parallel()

	session := Session{
		User: User{
			Base:      Base{Name: "Ana", Email: "ana@acme.test"},
			Extension: Extension{ID: "u-1", Role: "pharmacist", OrganizationName: "Acme Pharmacy"},
		},
		Expires: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(payload)
	want := `{"user":{"name":"Ana","email":"ana@acme.test","id":"u-1","role":"pharmacist","organizationName":"Acme Pharmacy"},"expires":"2026-11-01T00:00:00Z"}`
	if got != want {
		t.Fatalf("json = %s\nwant   %s", got, want)
	}
	if strings.Contains(got, "image") {
		t.Fatalf("expected empty image to be omitted: %s", got)
	}
}

func TestUserHasRoleIgnoresCase(t *testing.T) {
	t.Parallel()

	user := User{Extension: Extension{Role: "Pharmacist"}}
	if !user.HasRole("admin", "pharmacist") {
		t.Fatalf("expected role match")
	}
	if user.HasRole("admin") {
		t.Fatalf("expected role mismatch")
	}
	if (User{}).HasRole("") {
		t.Fatalf("expected unset role never to match")
	}
}

func TestUserDisplayNameFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		user User
		want string
	}{
		{user: User{Base: Base{Name: "Ana", Email: "ana@acme.test"}}, want: "Ana"},
		{user: User{Base: Base{Email: "ana@acme.test"}, Extension: Extension{ID: "u-1"}}, want: "ana@acme.test"},
		{user: User{Extension: Extension{ID: "u-1"}}, want: "u-1"},
		{user: User{}, want: ""},
	}
	for _, tc := range tests {
		if got := tc.user.DisplayName(); got != tc.want {
			t.Fatalf("DisplayName() = %q, want %q", got, tc.want)
		}
	}
}

func TestSessionActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	user := User{Extension: Extension{ID: "u-1"}}
	if !(Session{User: user, Expires: now.Add(time.Minute)}).Active(now) {
		t.Fatalf("expected unexpired session to be active")
	}
	if (Session{User: user, Expires: now}).Active(now) {
		t.Fatalf("expected session expiring now to be inactive")
	}
	if (Session{Expires: now.Add(time.Hour)}).Active(now) {
		t.Fatalf("expected anonymous session to be inactive")
	}
}
