package core

import (
	"encoding/json"
	"testing"
)

func TestJarPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"com.mojang:patchy:1.1", "com/mojang/patchy/1.1/patchy-1.1.jar"},
		{"org.lwjgl:lwjgl:3.3.3:natives-linux", "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar"},
		{"de.oceanlabs.mcp:mcp_config:1.20.1@zip", "de/oceanlabs/mcp/mcp_config/1.20.1/mcp_config-1.20.1.zip"},
		{"broken:name", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := JarPath(tt.name); got != tt.want {
			t.Errorf("JarPath(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLibrary_EmptyRulesSurviveRoundTrip(t *testing.T) {
	var lib Library
	if err := json.Unmarshal([]byte(`{"name":"a:b:1","rules":[]}`), &lib); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if lib.Rules == nil {
		t.Fatal("empty rules decoded as nil")
	}

	data, err := json.Marshal(lib)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back Library
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Rules == nil {
		t.Errorf("rules lost in round trip: %s", data)
	}
	if IsRequired(back, PlatformLinux) {
		t.Error("empty rules should still disallow after round trip")
	}

	var noRules Library
	json.Unmarshal([]byte(`{"name":"a:b:1"}`), &noRules)
	data, _ = json.Marshal(noRules)
	var back2 Library
	json.Unmarshal(data, &back2)
	if back2.Rules != nil {
		t.Errorf("absent rules became present: %s", data)
	}
}
