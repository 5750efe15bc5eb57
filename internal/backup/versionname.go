package backup

import (
	"strconv"
	"strings"
	"time"
)

// versionNameTokens maps the strftime directives the original tool's
// version_name field used to Go's reference-time layout fragments. Only the
// directives that make sense in a directory name are translated; the rest of
// the pattern is handed to time.Format as part of the layout, so plain text
// is copied unchanged unless it contains Go layout elements (digits such as
// 1-6, names such as Jan or Mon), which are formatted. This is an Open Question the design notes
// call out explicitly (no strftime library exists anywhere in the example
// corpus) — translating the small, fixed set of directives actually used
// in practice keeps config files portable without adopting a new pattern
// language.
var versionNameTokens = map[string]string{
	"%Y": "2006",
	"%y": "06",
	"%m": "01",
	"%d": "02",
	"%H": "15",
	"%M": "04",
	"%S": "05",
}

// FormatVersionName renders pattern (a strftime-style string) against t.
func FormatVersionName(pattern string, t time.Time) string {
	layout := pattern
	for token, repl := range versionNameTokens {
		layout = strings.ReplaceAll(layout, token, repl)
	}
	return t.Format(layout)
}

// DisambiguateName finds an available instance directory name by trying
// base, then base_2, base_3, ... until exists reports false, matching the
// original tool's mkdir(exist_ok=False)-retry loop.
func DisambiguateName(base string, exists func(name string) (bool, error)) (string, error) {
	ok, err := exists(base)
	if err != nil {
		return "", err
	}
	if !ok {
		return base, nil
	}
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		ok, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !ok {
			return candidate, nil
		}
	}
}
