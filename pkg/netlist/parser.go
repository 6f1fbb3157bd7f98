package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/edp1096/symspice/pkg/expr"
)

type NetlistData struct {
	Elements []Element     // Circuit elements
	Nodes    map[string]int // Node name and order of appearance
	ParDefs  []ParDef       // .param definitions in order
	Title    string         // Circuit title
}

type Element struct {
	Type      string            // Part type (R, L, C, V, etc.)
	Name      string            // Part name
	Nodes     []string          // Node names
	Refs      []string          // Controlling elements (F, H)
	Value     expr.Rational     // Part value
	ValueText string            // Value as written; empty when defaulted
	Params    map[string]string // Extra key=value fields
}

type ParDef struct {
	Name  string
	Text  string
	Value expr.Rational
}

// Number of nodes per element type.
var nodeCount = map[string]int{
	"R": 2, "C": 2, "L": 2, "V": 2, "I": 2,
	"E": 4, "G": 4,
	"F": 2, "H": 2,
}

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	assignRe   = regexp.MustCompile(`\s*=\s*`)
	identRe    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	ignoredDot = map[string]bool{".lib": true, ".inc": true, ".include": true, ".backanno": true, ".options": true, ".option": true}
)

func Parse(input string) (*NetlistData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	netlistData := &NetlistData{
		Nodes: make(map[string]int),
	}

	// Title or comment
	if scanner.Scan() {
		title := strings.TrimSpace(scanner.Text())
		title = strings.TrimSpace(strings.TrimPrefix(title, "*"))
		netlistData.Title = strings.Trim(title, `"`)
	}

	var currentLine string
	lineNo := 1
	flush := func() error {
		if currentLine == "" {
			return nil
		}
		err := parseLine(netlistData, currentLine)
		currentLine = ""
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		return nil
	}

	ended := false
	for scanner.Scan() && !ended {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Inline comments
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		// Empty line or full comment line
		if len(line) == 0 || strings.HasPrefix(line, "*") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		// Line continue
		if strings.HasPrefix(line, "+") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "+"))
			if currentLine != "" {
				currentLine += " " + line
			}
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		if strings.EqualFold(line, ".end") {
			ended = true
			continue
		}
		currentLine = line
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Process final line if exists
	if err := flush(); err != nil {
		return nil, err
	}

	return netlistData, nil
}

func parseLine(netlistData *NetlistData, line string) error {
	line = spaceRe.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotOperator(netlistData, line)
	}

	element, err := parseElement(line)
	if err != nil {
		return err
	}

	for _, e := range netlistData.Elements {
		if strings.EqualFold(e.Name, element.Name) {
			return fmt.Errorf("duplicate element name: %s", element.Name)
		}
	}

	netlistData.Elements = append(netlistData.Elements, *element)
	for _, node := range element.Nodes {
		if _, exists := netlistData.Nodes[node]; !exists {
			netlistData.Nodes[node] = len(netlistData.Nodes)
		}
	}
	return nil
}

// Parse .param; ignore library and annotation directives.
func parseDotOperator(netlistData *NetlistData, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return fmt.Errorf("invalid dot command")
	}

	cmd := strings.ToLower(fields[0])
	switch {
	case cmd == ".param" || cmd == ".params":
		return parseParams(netlistData, strings.TrimSpace(line[len(fields[0]):]))
	case ignoredDot[cmd]:
		return nil
	default:
		return fmt.Errorf("unsupported dot command: %s", fields[0])
	}
}

// parseParams reads "a=1k b = {tau/a} c=2*a".
func parseParams(netlistData *NetlistData, text string) error {
	pairs, err := splitAssignments(text)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("empty .param")
	}

	for _, pair := range pairs {
		if !identRe.MatchString(pair[0]) {
			return fmt.Errorf("invalid parameter name: %q", pair[0])
		}
		value, err := expr.Parse(pair[1])
		if err != nil {
			return fmt.Errorf("parameter %s: %w", pair[0], err)
		}
		def := ParDef{Name: pair[0], Text: pair[1], Value: value}

		replaced := false
		for i := range netlistData.ParDefs {
			if netlistData.ParDefs[i].Name == def.Name {
				netlistData.ParDefs[i] = def
				replaced = true
			}
		}
		if !replaced {
			netlistData.ParDefs = append(netlistData.ParDefs, def)
		}
	}
	return nil
}

// splitAssignments splits "a=1 b={x + y}" into name/value pairs. Values
// may contain spaces inside braces or parentheses.
func splitAssignments(text string) ([][2]string, error) {
	text = assignRe.ReplaceAllString(strings.TrimSpace(text), "=")
	var pairs [][2]string
	for len(text) > 0 {
		eq := strings.Index(text, "=")
		if eq <= 0 {
			return nil, fmt.Errorf("invalid assignment: %q", text)
		}
		name := strings.TrimSpace(text[:eq])
		rest := text[eq+1:]

		depth, end := 0, len(rest)
		for i, c := range rest {
			switch c {
			case '{', '(':
				depth++
			case '}', ')':
				depth--
			case ' ':
				if depth == 0 {
					end = i
				}
			}
			if end != len(rest) {
				break
			}
		}
		if depth < 0 {
			return nil, fmt.Errorf("unbalanced brackets in %q", rest)
		}
		value := strings.TrimSpace(rest[:end])
		if value == "" {
			return nil, fmt.Errorf("missing value for %s", name)
		}
		pairs = append(pairs, [2]string{name, value})
		text = strings.TrimSpace(rest[end:])
	}
	return pairs, nil
}

// Parse circuit element
func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid element format: %s", line)
	}

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(string(fields[0][0])),
		Params: make(map[string]string),
	}

	n, ok := nodeCount[elem.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported element type %s in %s", elem.Type, elem.Name)
	}
	if len(fields) < 1+n {
		return nil, fmt.Errorf("%s: need %d nodes", elem.Name, n)
	}
	elem.Nodes = fields[1 : 1+n]
	rest := fields[1+n:]

	// Current controlled sources name their controlling element first.
	if elem.Type == "F" || elem.Type == "H" {
		if len(rest) == 0 {
			return nil, fmt.Errorf("%s: missing controlling element", elem.Name)
		}
		elem.Refs = []string{rest[0]}
		rest = rest[1:]
	}

	var positional []string
	var named []string
	for i, f := range rest {
		if strings.Contains(f, "=") {
			named = rest[i:]
			break
		}
		positional = append(positional, f)
	}
	if len(named) > 0 {
		pairs, err := splitAssignments(strings.Join(named, " "))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", elem.Name, err)
		}
		for _, p := range pairs {
			elem.Params[strings.ToLower(p[0])] = p[1]
		}
	}

	valueText := strings.Join(positional, " ")
	if v, ok := elem.Params["value"]; ok {
		valueText = v
		delete(elem.Params, "value")
	}
	// Source type keywords (DC, AC) carry no symbolic meaning.
	if elem.Type == "V" || elem.Type == "I" {
		valueText = stripSourceKeywords(valueText)
	}

	switch {
	case valueText != "":
		value, err := expr.Parse(valueText)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid value %q: %w", elem.Name, valueText, err)
		}
		elem.Value = value
		elem.ValueText = valueText
	case elem.Type == "V" || elem.Type == "I":
		// A source without value is represented by its own name.
		elem.Value = expr.Symbol(elem.Name)
	default:
		return nil, fmt.Errorf("%s: missing value", elem.Name)
	}

	return elem, nil
}

func stripSourceKeywords(text string) string {
	words := strings.Fields(text)
	for len(words) > 0 {
		w := strings.ToUpper(words[0])
		if w != "DC" && w != "AC" && w != "V" && w != "I" {
			break
		}
		words = words[1:]
	}
	if len(words) > 1 {
		// "AC 1 0": keep the magnitude only
		words = words[:1]
	}
	return strings.Join(words, " ")
}
