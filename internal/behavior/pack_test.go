package behavior

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin_GroupsPopulated(t *testing.T) {
	p := Builtin()

	groups := map[string][]string{
		"read primitives":      p.ReadPrimitives,
		"egress primitives":    p.EgressPrimitives,
		"outbound markers":     p.OutboundMarkers,
		"sensitive paths":      p.SensitivePaths,
		"recon primitives":     p.ReconPrimitives,
		"persistence surfaces": p.PersistenceSurfaces,
		"packaging primitives": p.PackagingPrimitives,
		"elevation primitives": p.ElevationPrimitives,
		"credential paths":     p.CredentialPaths,
		"intel indicators":     p.IntelIndicators,
	}
	for name, group := range groups {
		if len(group) == 0 {
			t.Errorf("builtin pack has empty %s", name)
		}
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "builtin" {
		t.Errorf("pack name = %q, want builtin", p.Name)
	}
}

func TestLoad_MergesOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	contents := `name: site-pack
version: "2"
egress_primitives:
  - "customuploader "
intel_indicators:
  - "drop.internal.example"
`
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "site-pack" || p.Version != "2" {
		t.Errorf("metadata not applied: %q %q", p.Name, p.Version)
	}
	if !contains(p.EgressPrimitives, "customuploader ") {
		t.Error("custom egress primitive not merged")
	}
	if !contains(p.EgressPrimitives, "curl") {
		t.Error("builtin egress primitive lost during merge")
	}
	if !contains(p.IntelIndicators, "drop.internal.example") {
		t.Error("custom intel indicator not merged")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed pack")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
