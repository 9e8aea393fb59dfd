// Package challenges checks challenge submissions for required concepts. Submitted code is
// inspected as text and never executed.
package challenges

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

// Mode selects how feedback is phrased.
type Mode string

const (
	ModePython Mode = "python"
	ModeCSS    Mode = "css"
)

// Result is the outcome of a check.
type Result struct {
	Mode    Mode
	Passed  bool
	Missing []string
}

// Check reports which keywords are absent from code. Matching is case-sensitive, as the
// keywords are language tokens.
func Check(mode Mode, code string, keywords []string) Result {
	res := Result{Mode: mode}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if !strings.Contains(code, kw) {
			res.Missing = append(res.Missing, kw)
		}
	}
	res.Passed = len(res.Missing) == 0
	return res
}

// Feedback renders the console message for res. successMsg is shown on a pass.
func Feedback(res Result, keywords []string, successMsg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<div id="challenge-feedback" data-check-passed="`)
		if res.Passed {
			hw.Raw(`true">`)
			if successMsg == "" {
				successMsg = "Success! Logic verified."
			}
			hw.Raw(`<span class="text-green-400 font-bold">`).Text(successMsg).Raw(`</span>`)
			hw.Raw(`<span class="text-blue-300 block">Great job! The solution has been unlocked below.</span>`)
		} else {
			hw.Raw(`false">`)
			switch res.Mode {
			case ModeCSS:
				hw.Raw(`<span class="text-red-500 font-bold">Not quite. Try using: `).Text(res.Missing[0]).Raw(`</span>`)
			default:
				hw.Raw(`<span class="text-red-400">Error: Missing some key concepts. Did you use: `).Text(strings.Join(keywords, ", ")).Raw(`?</span>`)
			}
		}
		hw.Raw(`</div>`)
		return hw.Err()
	})
}
