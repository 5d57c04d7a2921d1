// Package behavior defines the keyword packs that drive the behavioral
// detectors. The built-in pack ships compiled in; an optional YAML pack can
// be merged over it to extend the vocabulary without rebuilding.
package behavior

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pack is the detector vocabulary: keyword groups shared by the behavioral
// and chain analyzers.
type Pack struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`

	// ReadPrimitives collect or search local data (find, grep, cat, ...).
	ReadPrimitives []string `yaml:"read_primitives"`

	// EgressPrimitives move data off the host (curl, wget, nc, ...).
	EgressPrimitives []string `yaml:"egress_primitives"`

	// OutboundMarkers are flags/fragments that make egress outbound
	// rather than a plain download (-X POST, --data, ...).
	OutboundMarkers []string `yaml:"outbound_markers"`

	// SensitivePaths mark likely-confidential targets (/etc, password, ...).
	SensitivePaths []string `yaml:"sensitive_paths"`

	// ReconPrimitives enumerate identity, processes, or network state.
	ReconPrimitives []string `yaml:"recon_primitives"`

	// PersistenceSurfaces are autostart write targets (crontab, rc files, ...).
	PersistenceSurfaces []string `yaml:"persistence_surfaces"`

	// PackagingPrimitives bundle data before egress (tar, zip, ...).
	PackagingPrimitives []string `yaml:"packaging_primitives"`

	// ElevationPrimitives switch to a privileged user (sudo su -, ...).
	ElevationPrimitives []string `yaml:"elevation_primitives"`

	// CredentialPaths are secret stores whose reads indicate credential access.
	CredentialPaths []string `yaml:"credential_paths"`

	// IntelIndicators are known drop/paste endpoints consulted only when
	// threat-intel checks are enabled.
	IntelIndicators []string `yaml:"intel_indicators"`
}

// Builtin returns the compiled-in pack.
func Builtin() *Pack {
	return &Pack{
		Name:        "builtin",
		Description: "Built-in behavioral detector vocabulary",
		Version:     "1",
		ReadPrimitives: []string{
			"find ", "grep ", "cat ", "head ", "tail ", "awk ", "sed ", "locate ",
		},
		EgressPrimitives: []string{
			"curl", "wget", "scp ", "rsync ", "nc ", "ncat", "netcat", "ftp ",
		},
		OutboundMarkers: []string{
			"-x post", "--data", "--post-data", "--post-file", "--upload-file",
			"-f ", "--form", "-t ", "> /dev/tcp/",
		},
		SensitivePaths: []string{
			"/etc", "password", "passwd", "shadow", "secret", "token",
			".ssh", ".aws", ".gnupg", "credential",
		},
		ReconPrimitives: []string{
			"whoami", "uname -a", "ps aux", "netstat", "lsof", "ss -",
			"id", "ifconfig", "ip addr", "last", "w",
		},
		PersistenceSurfaces: []string{
			"crontab", "systemctl enable", ".bashrc", ".zshrc", ".profile",
			"/etc/rc", "/etc/init.d", "/etc/systemd/system", "launchctl load",
			"update-rc.d",
		},
		PackagingPrimitives: []string{
			"tar ", "zip ", "gzip ", "7z ", "xz ",
		},
		ElevationPrimitives: []string{
			"sudo su", "sudo -i", "sudo -s", "su -", "su root", "pkexec",
		},
		CredentialPaths: []string{
			"/etc/shadow", "/etc/sudoers", "id_rsa", "id_ed25519",
			".aws/credentials", ".netrc", ".pgpass", ".docker/config.json",
			"keychain", ".gnupg",
		},
		IntelIndicators: []string{
			"transfer.sh", "file.io", "0x0.st", "paste.ee", "pastebin.com/raw",
			"ngrok.io", "requestbin", "webhook.site",
		},
	}
}

// Load merges the YAML pack at path over the built-in pack: non-empty pack
// fields extend (not replace) the built-in groups. A missing file yields the
// built-in pack unchanged.
func Load(path string) (*Pack, error) {
	base := Builtin()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse behavior pack %s: %w", path, err)
	}

	mergeInto(base, &pack)
	if pack.Name != "" {
		base.Name = pack.Name
	}
	if pack.Version != "" {
		base.Version = pack.Version
	}
	return base, nil
}

func mergeInto(target, pack *Pack) {
	target.ReadPrimitives = union(target.ReadPrimitives, pack.ReadPrimitives)
	target.EgressPrimitives = union(target.EgressPrimitives, pack.EgressPrimitives)
	target.OutboundMarkers = union(target.OutboundMarkers, pack.OutboundMarkers)
	target.SensitivePaths = union(target.SensitivePaths, pack.SensitivePaths)
	target.ReconPrimitives = union(target.ReconPrimitives, pack.ReconPrimitives)
	target.PersistenceSurfaces = union(target.PersistenceSurfaces, pack.PersistenceSurfaces)
	target.PackagingPrimitives = union(target.PackagingPrimitives, pack.PackagingPrimitives)
	target.ElevationPrimitives = union(target.ElevationPrimitives, pack.ElevationPrimitives)
	target.CredentialPaths = union(target.CredentialPaths, pack.CredentialPaths)
	target.IntelIndicators = union(target.IntelIndicators, pack.IntelIndicators)
}

func union(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			base = append(base, s)
		}
	}
	return base
}
