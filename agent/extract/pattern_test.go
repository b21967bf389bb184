package extract

import (
	"context"
	"reflect"
	"testing"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

func TestExtractEmail(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "plain address",
			text: "reach me at jane.doe@example.com please",
			want: "jane.doe@example.com",
		},
		{
			name: "tags and subdomain kept verbatim",
			text: "billing goes to jane+invoices@mail.example.co.uk now",
			want: "jane+invoices@mail.example.co.uk",
		},
		{
			name: "leftmost of several",
			text: "first@example.com then second@example.org",
			want: "first@example.com",
		},
		{
			name: "bare at-sign is not an address",
			text: "meet @ noon",
			want: "",
		},
		{
			name: "single-letter tld rejected",
			text: "broken@example.c",
			want: "",
		},
		{
			name: "empty text",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.ExtractEmail(tt.text); got != tt.want {
				t.Fatalf("ExtractEmail(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractPhoneSurfaceForms(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()
	const want = "+1-305-555-1234"

	tests := []struct {
		name string
		text string
	}{
		{name: "parenthesized", text: "call (305) 555-1234 today"},
		{name: "parenthesized with country code", text: "call +1 (305) 555-1234 today"},
		{name: "dashed", text: "call 305-555-1234 today"},
		{name: "dashed with trunk digit", text: "call 1-305-555-1234 today"},
		{name: "dotted", text: "call 305.555.1234 today"},
		{name: "spaced with country code", text: "call +1 305 555 1234 today"},
		{name: "bare ten digits", text: "call 3055551234 today"},
		{name: "bare eleven digits with trunk", text: "call 13055551234 today"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.ExtractPhone(tt.text); got != want {
				t.Fatalf("ExtractPhone(%q) = %q, want %q", tt.text, got, want)
			}
		})
	}
}

func TestExtractPhoneRejectsInvalidRuns(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()

	tests := []struct {
		name string
		text string
	}{
		{name: "too short", text: "order 555-1234"},
		{name: "nine digit run", text: "ref 123456789"},
		{name: "twelve digit run", text: "ref 123456789012"},
		{name: "eleven digits without trunk prefix", text: "ref 23055551234"},
		{name: "empty text", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.ExtractPhone(tt.text); got != "" {
				t.Fatalf("ExtractPhone(%q) = %q, want empty", tt.text, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "ten digits", raw: "3055551234", want: "+1-305-555-1234", wantOK: true},
		{name: "eleven digits drops trunk", raw: "13055551234", want: "+1-305-555-1234", wantOK: true},
		{name: "formatted input", raw: "+1 (305) 555-1234", want: "+1-305-555-1234", wantOK: true},
		{name: "nine digits", raw: "305555123", wantOK: false},
		{name: "eleven digits wrong trunk", raw: "23055551234", wantOK: false},
		{name: "no digits", raw: "call me", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NANP.Normalize(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractContactsIndependentFields(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()

	got := e.ExtractContacts("email jane@example.com, phone pending")
	want := contractx.ContactRecord{Email: "jane@example.com"}
	if got != want {
		t.Fatalf("ExtractContacts() = %#v, want %#v", got, want)
	}

	got = e.ExtractContacts("call 305-555-1234, no email on file")
	want = contractx.ContactRecord{Phone: "+1-305-555-1234"}
	if got != want {
		t.Fatalf("ExtractContacts() = %#v, want %#v", got, want)
	}

	got = e.ExtractContacts("nothing useful here")
	if !got.IsEmpty() {
		t.Fatalf("ExtractContacts() = %#v, want empty", got)
	}
}

func TestExtractNeverErrors(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()
	record, err := e.Extract(context.Background(), "jane@example.com or 305-555-1234")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if record.Email != "jane@example.com" || record.Phone != "+1-305-555-1234" {
		t.Fatalf("Extract() = %#v", record)
	}
	if e.Method() != contractx.MethodRegex {
		t.Fatalf("Method() = %q", e.Method())
	}
}

func TestExtractAllEmails(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()
	text := "cc a@example.com and b@example.org, then a@example.com again"

	first := e.ExtractAllEmails(text)
	want := []string{"a@example.com", "b@example.org", "a@example.com"}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("ExtractAllEmails() = %#v, want %#v", first, want)
	}

	second := e.ExtractAllEmails(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated call diverged: %#v vs %#v", first, second)
	}

	if got := e.ExtractAllEmails("no addresses"); got != nil {
		t.Fatalf("ExtractAllEmails() = %#v, want nil", got)
	}
}

func TestExtractAllPhones(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()
	text := "home (305) 555-1234, work 212.555.0000, home again 305-555-1234"

	first := e.ExtractAllPhones(text)
	want := []string{"+1-305-555-1234", "+1-212-555-0000"}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("ExtractAllPhones() = %#v, want %#v", first, want)
	}

	second := e.ExtractAllPhones(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated call diverged: %#v vs %#v", first, second)
	}
}

func TestPatternPriorityOverTextOrder(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor()

	// A bare digit run earlier in the text does not outrank a delimited form:
	// patterns are tried in specificity order across the whole text.
	got := e.ExtractPhone("id 2125550000 then call 305-555-1234")
	if got != "+1-305-555-1234" {
		t.Fatalf("ExtractPhone() = %q, want +1-305-555-1234", got)
	}
}
