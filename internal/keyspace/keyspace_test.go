package keyspace

import "testing"

func TestKeySpaceDerivation(t *testing.T) {
	ks := New("cc")
	if got, want := ks.Status("orders"), "cc:S:orders"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
	if got, want := ks.Queue("orders"), "cc:Q:orders"; got != want {
		t.Errorf("Queue() = %q, want %q", got, want)
	}
	if got, want := ks.Data("orders", "eu"), "cc:D:orders:eu"; got != want {
		t.Errorf("Data() = %q, want %q", got, want)
	}
	if got, want := ks.Time("orders", "eu"), "cc:T:orders:eu"; got != want {
		t.Errorf("Time() = %q, want %q", got, want)
	}
}

func TestListIDFromGlobKeys(t *testing.T) {
	ks := New("cc")
	if got, want := ks.ListIDFromDataKey("orders", "cc:D:orders:eu"), "eu"; got != want {
		t.Errorf("ListIDFromDataKey() = %q, want %q", got, want)
	}
	if got, want := ks.ListIDFromTimeKey("orders", "cc:T:orders:eu"), "eu"; got != want {
		t.Errorf("ListIDFromTimeKey() = %q, want %q", got, want)
	}
}

func TestValidateName(t *testing.T) {
	cases := []struct {
		name    string
		s       string
		wantErr bool
	}{
		{"empty", "", true},
		{"colon", "a:b", true},
		{"ok", "orders", false},
	}
	for _, c := range cases {
		err := ValidateName("N", c.s)
		if (err != nil) != c.wantErr {
			t.Errorf("%s: ValidateName(%q) error = %v, wantErr %v", c.name, c.s, err, c.wantErr)
		}
	}
}
