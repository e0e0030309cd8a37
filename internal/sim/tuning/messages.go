package tuning

import (
	"fmt"
	"strconv"
	"strings"
)

// Message renders the template for key. Unknown keys render as the key
// followed by the arguments so nothing is silently dropped.
func (t Tuning) Message(key string, args ...any) string {
	tmpl, ok := t.Messages[key]
	if !ok {
		if len(args) == 0 {
			return key
		}
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, fmt.Sprint(a))
		}
		return key + ": " + strings.Join(parts, ", ")
	}
	if len(args) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(args))
	for i, a := range args {
		pairs = append(pairs, "%"+strconv.Itoa(i)+"%", fmt.Sprint(a))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
