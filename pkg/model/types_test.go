package model

import (
	"strings"
	"testing"
)

func TestKind_IsValid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want bool
	}{
		{"Label", KindLabel, true},
		{"Control", KindControl, true},
		{"IconLabel", KindIconLabel, true},
		{"Invalid", "button", false},
		{"Empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("Kind.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWidget_Validate(t *testing.T) {
	tests := []struct {
		name    string
		widget  Widget
		wantErr string
	}{
		{"Label", &Label{Caption: "Hello"}, ""},
		{"LabelBlank", &Label{Caption: "  "}, "cannot be empty"},
		{"Control", &Control{Caption: "Save", Action: "file.save"}, ""},
		{"ControlNoAction", &Control{Caption: "Save"}, "has no action"},
		{"IconLabel", &IconLabel{Caption: "Docs", Icon: IconFolder}, ""},
		{"IconLabelNoIcon", &IconLabel{Caption: "Docs"}, "has no icon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.widget.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWidget_CloneIsIndependent(t *testing.T) {
	orig := &Control{Caption: "Run", Action: "run"}
	cp := orig.Clone().(*Control)

	if cp == orig {
		t.Fatal("expected a new value")
	}
	cp.Caption = "Stop"
	if orig.Caption != "Run" {
		t.Errorf("clone mutation leaked into original: %q", orig.Caption)
	}
}

func TestEnvelope_Unwrap(t *testing.T) {
	w, err := Envelope{Text: "bare"}.Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	if w.Kind() != KindLabel || w.Text() != "bare" {
		t.Errorf("expected empty kind to read as label, got %s %q", w.Kind(), w.Text())
	}

	if _, err := (Envelope{Kind: "slider"}).Unwrap(); err == nil {
		t.Error("expected unknown kind to fail")
	}
}

func TestMarshalWidget(t *testing.T) {
	data, err := MarshalWidget(&IconLabel{Caption: "Settings", Icon: IconGear})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"kind":"icon_label"`) {
		t.Errorf("expected kind tag in %s", data)
	}

	w, err := UnmarshalWidget(data)
	if err != nil {
		t.Fatal(err)
	}
	il, ok := w.(*IconLabel)
	if !ok || il.Icon != IconGear || il.Caption != "Settings" {
		t.Errorf("unexpected widget %#v", w)
	}

	if _, err := UnmarshalWidget([]byte("{")); err == nil {
		t.Error("expected malformed JSON to fail")
	}
}

func TestAsWidget(t *testing.T) {
	if _, ok := AsWidget("text"); ok {
		t.Error("expected plain string not to be a widget")
	}
	if w, ok := AsWidget(&Label{Caption: "x"}); !ok || w.Text() != "x" {
		t.Error("expected label to be a widget")
	}
}
