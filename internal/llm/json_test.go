package llm

import "testing"

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"headline": "Big news", "count": 3}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["headline"] != "Big news" {
		t.Errorf("expected headline='Big news', got %v", result["headline"])
	}
	if result["count"] != float64(3) {
		t.Errorf("expected count=3, got %v", result["count"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"headline\": \"Big news\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["headline"] != "Big news" {
		t.Errorf("expected headline='Big news', got %v", result["headline"])
	}
}

func TestParseJSONResponseWithPlainFence(t *testing.T) {
	text := "```\n{\"headline\": \"Big news\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["headline"] != "Big news" {
		t.Errorf("expected headline='Big news', got %v", result["headline"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	if result := ParseJSONResponse("not json at all"); result != nil {
		t.Error("expected nil for invalid JSON")
	}
}

func TestParseJSONResponseEmpty(t *testing.T) {
	if result := ParseJSONResponse(""); result != nil {
		t.Error("expected nil for empty string")
	}
}

func TestParseJSONResponseWhitespace(t *testing.T) {
	result := ParseJSONResponse("  \n  {\"key\": \"value\"}  \n  ")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"no fence here", "no fence here"},
		{"```json\n1,2,3\n```", "1,2,3"},
		{"```\nmulti\nline\n```", "multi\nline"},
		{"  ```\npadded\n```  ", "padded"},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
