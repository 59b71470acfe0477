package logger

import "testing"

func TestSanitizeKVs(t *testing.T) {
	redactOnce.Do(func() {})
	redactionEnabled = true
	hashSalt = ""

	got := sanitizeKVs([]any{
		"op", "create_goal",
		"email", "learner@example.mil",
		"authorization", "Bearer abc",
		"user_id", "7c1e",
		"payload", map[string]any{"api_key": "k", "name": "Goal"},
		"dangling",
	})
	if len(got) != 11 {
		t.Fatalf("len: want=11 got=%d", len(got))
	}
	if got[1] != "create_goal" {
		t.Fatalf("op: want=create_goal got=%v", got[1])
	}
	if got[3] != redacted || got[5] != redacted {
		t.Fatalf("credentials not redacted: %v %v", got[3], got[5])
	}
	if s, _ := got[7].(string); len(s) != len("hash:")+12 {
		t.Fatalf("user_id: want hashed got=%v", got[7])
	}
	m := got[9].(map[string]any)
	if m["api_key"] != redacted || m["name"] != "Goal" {
		t.Fatalf("nested map: got=%v", m)
	}
	if got[10] != "dangling" {
		t.Fatalf("dangling key dropped: %v", got[10])
	}
}

func TestSanitizeKVsDisabled(t *testing.T) {
	redactOnce.Do(func() {})
	redactionEnabled = false
	defer func() { redactionEnabled = true }()

	got := sanitizeKVs([]any{"email", "a@b.c"})
	if got[1] != "a@b.c" {
		t.Fatalf("want passthrough got=%v", got[1])
	}
}
