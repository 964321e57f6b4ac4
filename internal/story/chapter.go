package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Chapter is one chapter document as it appears on the wire, before merging.
// Nodes keep the order in which they were written.
type Chapter struct {
	Title             string
	Description       string
	StartNode         string
	DifficultyClasses map[string]int
	Nodes             []ChapterNode
}

// ChapterNode is a node entry of a chapter document keyed by Key.
type ChapterNode struct {
	Key     string
	ID      string
	Chapter string
	Title   string
	Text    string
	Choices []ChapterChoice
}

type ChapterChoice struct {
	ID           string
	Text         string
	Requirements map[string]int
	Effects      map[string]int
	NextNode     string
	SkillCheck   *ChapterSkillCheck
}

type ChapterSkillCheck struct {
	Skill          string
	Difficulty     json.RawMessage
	SuccessNode    string
	FailureNode    string
	SuccessEffects map[string]int
	FailureEffects map[string]int
}

// ParseChapter decodes a JSON chapter document. Shape problems at the document
// level return ErrMalformedDocument; problems inside a node return
// ErrMalformedNode.
func ParseChapter(data []byte) (Chapter, error) {
	if !gjson.ValidBytes(data) {
		return Chapter{}, malformedDocument("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Chapter{}, malformedDocument("document must be an object")
	}

	var ch Chapter
	title := root.Get("title")
	if title.Type != gjson.String {
		return Chapter{}, malformedDocument("title must be a string")
	}
	ch.Title = title.String()

	var err error
	if ch.Description, err = optionalString(root, "description"); err != nil {
		return Chapter{}, malformedDocument("%v", err)
	}
	if ch.StartNode, err = optionalString(root, "startNode"); err != nil {
		return Chapter{}, malformedDocument("%v", err)
	}
	if dcs := root.Get("gameRules.difficultyClasses"); dcs.Exists() {
		if ch.DifficultyClasses, err = intMap(dcs); err != nil {
			return Chapter{}, malformedDocument("gameRules.difficultyClasses: %v", err)
		}
	}

	nodes := root.Get("nodes")
	if !nodes.IsObject() {
		return Chapter{}, malformedDocument("nodes must be an object keyed by node id")
	}
	nodes.ForEach(func(key, value gjson.Result) bool {
		var n ChapterNode
		n, err = parseNode(key.String(), value)
		if err != nil {
			return false
		}
		ch.Nodes = append(ch.Nodes, n)
		return true
	})
	if err != nil {
		return Chapter{}, err
	}
	return ch, nil
}

func parseNode(key string, v gjson.Result) (ChapterNode, error) {
	if !v.IsObject() {
		return ChapterNode{}, malformedNode(key, "node must be an object")
	}
	n := ChapterNode{Key: key}

	title := v.Get("title")
	if title.Type != gjson.String {
		return ChapterNode{}, malformedNode(key, "title must be a string")
	}
	n.Title = title.String()
	text := v.Get("text")
	if text.Type != gjson.String {
		return ChapterNode{}, malformedNode(key, "text must be a string")
	}
	n.Text = text.String()

	var err error
	if n.ID, err = optionalString(v, "id"); err != nil {
		return ChapterNode{}, malformedNode(key, "%v", err)
	}
	if c := v.Get("chapter"); c.Exists() {
		if c.Type != gjson.String && c.Type != gjson.Number {
			return ChapterNode{}, malformedNode(key, "chapter must be a string or number")
		}
		n.Chapter = c.String()
	}

	choices := v.Get("choices")
	if !choices.Exists() {
		return n, nil
	}
	if !choices.IsArray() {
		return ChapterNode{}, malformedNode(key, "choices must be an array")
	}
	for i, cv := range choices.Array() {
		c, err := parseChoice(cv)
		if err != nil {
			return ChapterNode{}, malformedNode(key, "choice %d: %v", i, err)
		}
		n.Choices = append(n.Choices, c)
	}
	return n, nil
}

func parseChoice(v gjson.Result) (ChapterChoice, error) {
	if !v.IsObject() {
		return ChapterChoice{}, fmt.Errorf("choice must be an object")
	}
	var (
		c   ChapterChoice
		err error
	)
	if c.ID, err = optionalString(v, "id"); err != nil {
		return c, err
	}
	if c.Text, err = optionalString(v, "text"); err != nil {
		return c, err
	}
	if c.NextNode, err = optionalString(v, "nextNode"); err != nil {
		return c, err
	}
	if r := v.Get("requirements"); r.Exists() {
		if c.Requirements, err = intMap(r); err != nil {
			return c, fmt.Errorf("requirements: %w", err)
		}
	}
	if e := v.Get("effects"); e.Exists() {
		if c.Effects, err = intMap(e); err != nil {
			return c, fmt.Errorf("effects: %w", err)
		}
	}

	sc := v.Get("skillCheck")
	if !sc.Exists() {
		return c, nil
	}
	if !sc.IsObject() {
		return c, fmt.Errorf("skillCheck must be an object")
	}
	check := &ChapterSkillCheck{}
	if check.Skill, err = optionalString(sc, "skill"); err != nil {
		return c, fmt.Errorf("skillCheck: %w", err)
	}
	if check.SuccessNode, err = optionalString(sc, "successNode"); err != nil {
		return c, fmt.Errorf("skillCheck: %w", err)
	}
	if check.FailureNode, err = optionalString(sc, "failureNode"); err != nil {
		return c, fmt.Errorf("skillCheck: %w", err)
	}
	if d := sc.Get("difficulty"); d.Exists() {
		if d.Type != gjson.String && d.Type != gjson.Number {
			return c, fmt.Errorf("skillCheck: difficulty must be a string or number")
		}
		check.Difficulty = json.RawMessage(d.Raw)
	}
	if e := sc.Get("successEffects"); e.Exists() {
		if check.SuccessEffects, err = intMap(e); err != nil {
			return c, fmt.Errorf("skillCheck.successEffects: %w", err)
		}
	}
	if e := sc.Get("failureEffects"); e.Exists() {
		if check.FailureEffects, err = intMap(e); err != nil {
			return c, fmt.Errorf("skillCheck.failureEffects: %w", err)
		}
	}
	c.SkillCheck = check
	return c, nil
}

func optionalString(v gjson.Result, field string) (string, error) {
	f := v.Get(field)
	if !f.Exists() || f.Type == gjson.Null {
		return "", nil
	}
	if f.Type != gjson.String {
		return "", fmt.Errorf("%s must be a string", field)
	}
	return f.String(), nil
}

// maxWireInt bounds integer fields. It is exact as a float64 and fits a
// 32-bit int.
const maxWireInt = math.MaxInt32

func intMap(v gjson.Result) (map[string]int, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("must be an object of integers")
	}
	out := map[string]int{}
	var err error
	v.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number || value.Num != math.Trunc(value.Num) {
			err = fmt.Errorf("%s must be an integer", key.String())
			return false
		}
		if math.Abs(value.Num) > maxWireInt {
			err = fmt.Errorf("%s must be an integer between %d and %d", key.String(), int64(-maxWireInt), int64(maxWireInt))
			return false
		}
		out[key.String()] = int(value.Num)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UnmarshalJSON decodes a chapter through ParseChapter so node order survives.
func (c *Chapter) UnmarshalJSON(b []byte) error {
	ch, err := ParseChapter(b)
	if err != nil {
		return err
	}
	*c = ch
	return nil
}

// UnmarshalYAML accepts the same shape written as YAML. Mapping order is kept.
func (c *Chapter) UnmarshalYAML(value *yaml.Node) error {
	var buf bytes.Buffer
	if err := yamlToJSON(value, &buf); err != nil {
		return malformedDocument("%v", err)
	}
	return c.UnmarshalJSON(buf.Bytes())
}

func yamlToJSON(n *yaml.Node, buf *bytes.Buffer) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return yamlToJSON(n.Content[0], buf)
	case yaml.AliasNode:
		return yamlToJSON(n.Alias, buf)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := yamlToJSON(n.Content[i+1], buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := yamlToJSON(item, buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		return scalarToJSON(n, buf)
	default:
		return fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func scalarToJSON(n *yaml.Node, buf *bytes.Buffer) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatInt(i, 10))
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		b, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(b)
	default:
		b, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
