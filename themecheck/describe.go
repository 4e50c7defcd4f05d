package themecheck

import (
	"fmt"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/rendertheme"
)

// DescribeRules renders a theme's rule tree as indented text, one rule per
// line, in declaration (= evaluation) order.
func DescribeRules(theme *rendertheme.RenderTheme) (string, errorsx.Error) {
	sb := new(strings.Builder)

	err := theme.TraverseRules(func(rule *rendertheme.Rule, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(describeRule(rule))
		sb.WriteByte('\n')
	})
	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

func describeRule(rule *rendertheme.Rule) string {
	line := fmt.Sprintf("%s %s closed=%s zoom=%d-%d k=%s v=%s",
		rule.Kind(),
		rule.Element(),
		rule.Closed(),
		rule.ZoomMin(),
		rule.ZoomMax(),
		strings.Join(rule.Keys(), "|"),
		strings.Join(rule.Values(), "|"),
	)

	instructions := rule.RenderInstructions()
	if len(instructions) == 0 {
		return line
	}

	var names []string
	for _, instruction := range instructions {
		names = append(names, InstructionName(instruction))
	}
	return line + " [" + strings.Join(names, ", ") + "]"
}

func InstructionName(instruction rendertheme.RenderInstruction) string {
	switch instruction.(type) {
	case *rendertheme.Area:
		return "area"
	case *rendertheme.Line:
		return "line"
	case *rendertheme.Caption:
		return "caption"
	case *rendertheme.PathText:
		return "pathtext"
	case *rendertheme.Circle:
		return "circle"
	case *rendertheme.Symbol:
		return "symbol"
	default:
		return fmt.Sprintf("%T", instruction)
	}
}
