package domain

import "testing"

func TestBasicInfo_FillGaps_KeepsPopulatedFields(t *testing.T) {
	existing := BasicInfo{FirstName: "Alice", Email: "alice@x.com"}
	incoming := BasicInfo{FirstName: "Alicia", LastName: "Smith", Phone: "555"}

	got := existing.FillGaps(incoming)

	want := BasicInfo{FirstName: "Alice", LastName: "Smith", Email: "alice@x.com", Phone: "555"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestBasicInfo_MergeOver_IncomingWinsButNeverBlanks(t *testing.T) {
	existing := BasicInfo{FirstName: "Alice", LastName: "Smith", Email: "alice@x.com", Phone: "555"}
	incoming := BasicInfo{FirstName: "Alicia", Phone: ""}

	got := existing.MergeOver(incoming)

	want := BasicInfo{FirstName: "Alicia", LastName: "Smith", Email: "alice@x.com", Phone: "555"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

// Every merge keeps a populated field when the incoming field is empty.
func TestBasicInfo_MergesNeverDowngrade(t *testing.T) {
	values := []string{"", "x", "y"}
	field := func(b BasicInfo, i int) string {
		return [...]string{b.FirstName, b.LastName, b.Email, b.Phone, b.Avatar}[i]
	}
	build := func(v string, i int) BasicInfo {
		var b BasicInfo
		switch i {
		case 0:
			b.FirstName = v
		case 1:
			b.LastName = v
		case 2:
			b.Email = v
		case 3:
			b.Phone = v
		case 4:
			b.Avatar = v
		}
		return b
	}

	for i := 0; i < 5; i++ {
		for _, ev := range values {
			for _, iv := range values {
				existing, incoming := build(ev, i), build(iv, i)
				for name, merged := range map[string]BasicInfo{
					"FillGaps":  existing.FillGaps(incoming),
					"MergeOver": existing.MergeOver(incoming),
				} {
					if iv == "" && ev != "" && field(merged, i) != ev {
						t.Fatalf("%s downgraded field %d: existing=%q incoming=%q got=%q", name, i, ev, iv, field(merged, i))
					}
					if ev == "" && iv != "" && field(merged, i) != iv {
						t.Fatalf("%s did not fill empty field %d", name, i)
					}
				}
			}
		}
	}
}

func TestBasicInfo_FillGaps_IsIdempotent(t *testing.T) {
	existing := BasicInfo{FirstName: "Alice"}
	incoming := BasicInfo{FirstName: "Other", LastName: "Smith", Email: "a@x.com"}

	once := existing.FillGaps(incoming)
	twice := once.FillGaps(incoming)
	if once != twice {
		t.Fatalf("not a fixed point: %+v vs %+v", once, twice)
	}
}

func TestBasicInfo_Normalize(t *testing.T) {
	got := BasicInfo{FirstName: " Bob ", Email: " Bob@X.com"}.Normalize()
	if got.FirstName != "Bob" || got.Email != "bob@x.com" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestValidBloodType(t *testing.T) {
	for _, ok := range []string{"", "A+", "O-", "AB+"} {
		if !ValidBloodType(ok) {
			t.Fatalf("%q should be valid", ok)
		}
	}
	for _, bad := range []string{"C+", "a+", "AB"} {
		if ValidBloodType(bad) {
			t.Fatalf("%q should be invalid", bad)
		}
	}
}
