// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

var testingSecrets *Secrets

func checkSecrets() bool {
	if testingSecrets != nil {
		return true
	}
	data, err := os.ReadFile("telegram-creds.json")
	if err != nil {
		return false
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return false
	}
	if err := s.Check(); err != nil {
		return false
	}
	testingSecrets = s
	return true
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	if !checkSecrets() {
		t.Skip("no credentials")
		return
	}

	c, err := New(ctx, testingSecrets)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	t.Logf("Authorized on account %s", c.BotUserName())

	c.SendMessage(ctx, time.Now(), "hello")
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"mercari pokemon 5000", []string{"mercari", "pokemon", "5000"}},
		{`mercari 'hololive plush' 5000`, []string{"mercari", "hololive plush", "5000"}},
		{`"one two"  three`, []string{"one two", "three"}},
		{`''`, []string{""}},
		{`a 'b c`, []string{"a", "b c"}},
	}
	for _, test := range tests {
		if got := splitArgs(test.input); !reflect.DeepEqual(got, test.want) {
			t.Errorf("splitArgs(%q) = %#v, want %#v", test.input, got, test.want)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	short := "hello"
	if got := splitMessage(short); len(got) != 1 || got[0] != short {
		t.Fatalf("splitMessage(%q) = %#v", short, got)
	}

	line := strings.Repeat("x", 100)
	long := strings.TrimSuffix(strings.Repeat(line+"\n", 100), "\n")
	chunks := splitMessage(long)
	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d", len(chunks))
	}
	var total int
	for _, chunk := range chunks {
		if len(chunk) > maxMessageLen {
			t.Fatalf("chunk length %d exceeds the message limit", len(chunk))
		}
		for _, l := range strings.Split(chunk, "\n") {
			if len(l) != 100 {
				t.Fatalf("line was split mid-way: %d", len(l))
			}
			total++
		}
	}
	if total != 100 {
		t.Fatalf("want 100 lines across chunks, got %d", total)
	}
}
