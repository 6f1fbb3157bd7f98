package schematic

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Netlist renders the schematic as netlist text: title, one line per
// element in schematic order, directives, .end.
func (s *Schematic) Netlist(title string) (string, error) {
	nets, err := s.Nets()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\"%s\"\n", title)
	seen := make(map[string]bool)
	for i, sym := range s.Symbols {
		def := symbolDefs[sym.Kind]
		name := sym.InstName
		if name == "" {
			return "", fmt.Errorf("%s symbol at (%d,%d) has no InstName", sym.Kind, sym.At.X, sym.At.Y)
		}
		if !strings.HasPrefix(strings.ToUpper(name), def.prefix) {
			name = def.prefix + name
		}
		if seen[strings.ToUpper(name)] {
			return "", fmt.Errorf("duplicate element name %s", name)
		}
		seen[strings.ToUpper(name)] = true

		fields := append([]string{name}, nets.Pins[i]...)
		value := sym.Value
		switch {
		case value != "":
		case def.prefix == "V" || def.prefix == "I":
			// the source name is its value
		case def.prefix == "F" || def.prefix == "H":
			return "", fmt.Errorf("%s: missing controlling source and gain", name)
		default:
			value = name
		}
		if value != "" {
			fields = append(fields, value)
		}
		if sym.SpiceLine != "" {
			fields = append(fields, sym.SpiceLine)
		}
		sb.WriteString(strings.Join(fields, " "))
		sb.WriteByte('\n')
	}
	for _, d := range s.Directives {
		if strings.EqualFold(d.Text, ".end") {
			continue
		}
		sb.WriteString(d.Text)
		sb.WriteByte('\n')
	}
	sb.WriteString(".end\n")
	return sb.String(), nil
}

// WriteNetlist writes the netlist text to path and returns it.
func (s *Schematic) WriteNetlist(title, path string) (string, error) {
	text, err := s.Netlist(title)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return text, nil
}

// MakeNetlist converts the schematic at ascPath into a netlist file at
// outPath and returns the netlist text.
func MakeNetlist(ascPath, title, outPath string) (string, error) {
	s, err := Load(ascPath)
	if err != nil {
		return "", err
	}
	text, err := s.WriteNetlist(title, outPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(ascPath), err)
	}
	return text, nil
}
