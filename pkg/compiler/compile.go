package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/coldog/minipack/pkg/builderr"
)

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Targets lists the accepted target names.
func Targets() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTarget maps a target name such as "es2015" to its esbuild value.
func ParseTarget(name string) (api.Target, error) {
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown target %q (want one of %s)", name, strings.Join(Targets(), ", "))
	}
	return t, nil
}

// Emitter rewrites parsed modules as CommonJS: static imports become
// require() calls and exports are attached to module.exports.
type Emitter struct {
	Target api.Target
	Minify bool
}

// Emit returns the module's code in the target dialect.
func (e *Emitter) Emit(tree *Tree) (string, error) {
	result := api.Transform(string(tree.Source), api.TransformOptions{
		Loader:            api.LoaderJS,
		Format:            api.FormatCommonJS,
		Target:            e.Target,
		MinifyWhitespace:  e.Minify,
		MinifyIdentifiers: e.Minify,
		MinifySyntax:      e.Minify,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", builderr.New(builderr.KindEmit).Detail("%s", formatMessages(result.Errors)).Build()
	}
	return string(result.Code), nil
}

func formatMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column+1, m.Text))
		} else {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, "; ")
}
