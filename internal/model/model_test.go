package model

import (
	"testing"
	"time"
)

func TestTouchMonotonic(t *testing.T) {
	var task Task
	task.Touch()
	first := task.LastModified
	if first == 0 {
		t.Fatal("Touch left a zero stamp")
	}

	// Repeated touches within the same millisecond still advance.
	for i := 0; i < 10; i++ {
		prev := task.LastModified
		task.Touch()
		if task.LastModified <= prev {
			t.Fatalf("stamp did not advance: %d -> %d", prev, task.LastModified)
		}
	}
}

func TestTouchFutureStamp(t *testing.T) {
	future := time.Now().Add(time.Hour).UnixMilli()
	task := Task{LastModified: future}
	task.Touch()
	if task.LastModified != future+1 {
		t.Errorf("stamp = %d, want %d", task.LastModified, future+1)
	}
}

func TestIsSecretKey(t *testing.T) {
	secret := []string{
		"geminiApiKey", "api_key", "proxyToken", "TOKEN",
		"clientSecret", "password", "oauthCredentials",
	}
	for _, k := range secret {
		if !IsSecretKey(k) {
			t.Errorf("IsSecretKey(%q) = false", k)
		}
	}

	plain := []string{"theme", "soundVolume", "pollSeconds", "name"}
	for _, k := range plain {
		if IsSecretKey(k) {
			t.Errorf("IsSecretKey(%q) = true", k)
		}
	}
}

func TestSanitized(t *testing.T) {
	s := Settings{
		"theme":        "dark",
		"geminiApiKey": "AIza-secret",
	}
	got := s.Sanitized()
	if _, ok := got["geminiApiKey"]; ok {
		t.Error("secret key survived sanitization")
	}
	if got["theme"] != "dark" {
		t.Error("plain key dropped")
	}
	if _, ok := s["geminiApiKey"]; !ok {
		t.Error("source map was modified")
	}

	if Settings(nil).Sanitized() != nil {
		t.Error("nil settings should sanitize to nil")
	}
}

func TestGoalsByID(t *testing.T) {
	goals := []Goal{{ID: "g1", Title: "A"}, {ID: "g2", Title: "B"}}
	m := GoalsByID(goals)
	if len(m) != 2 || m["g2"].Title != "B" {
		t.Errorf("index = %+v", m)
	}
}
