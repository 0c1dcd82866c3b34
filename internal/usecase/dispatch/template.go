package dispatch

import (
	"sort"
	"strings"
)

// render reemplaza cada %token% conocido, todas las apariciones. Los tokens
// desconocidos quedan tal cual.
func render(tmpl string, vars map[string]string) string {
	if tmpl == "" || len(vars) == 0 {
		return tmpl
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "%"+k+"%", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
