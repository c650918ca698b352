package pattern

import "testing"

func TestFileResourceTypedAccessor(t *testing.T) {
	r := ToFileResource("RES:1", "src/ui/Button.tsx")
	path, err := r.AsFilePath()
	if err != nil {
		t.Fatalf("AsFilePath: %v", err)
	}
	if path != "src/ui/Button.tsx" {
		t.Fatalf("AsFilePath = %q", path)
	}
	if _, err := r.AsPatternID(); err == nil {
		t.Fatal("expected AsPatternID to reject a file resource")
	}
}

func TestPatternResourceTypedAccessor(t *testing.T) {
	p := &Pattern{ID: "PAT:UI:BUTTON", Title: "Button"}
	r := ToPatternResource("RES:2", p)
	id, err := r.AsPatternID()
	if err != nil {
		t.Fatalf("AsPatternID: %v", err)
	}
	if id != "PAT:UI:BUTTON" {
		t.Fatalf("AsPatternID = %q", id)
	}
	if _, err := r.AsBriefText(); err == nil {
		t.Fatal("expected AsBriefText to reject a pattern resource")
	}
}

func TestBriefResourceTypedAccessor(t *testing.T) {
	r := ToBriefResource("RES:3", "summary text")
	text, err := r.AsBriefText()
	if err != nil {
		t.Fatalf("AsBriefText: %v", err)
	}
	if text != "summary text" {
		t.Fatalf("AsBriefText = %q", text)
	}
	if _, err := r.AsFilePath(); err == nil {
		t.Fatal("expected AsFilePath to reject a brief resource")
	}
}
