package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

// FAQEntry is one question of the FAQ accordion.
type FAQEntry struct {
	Question string
	Answer   string
}

// FAQ renders the accordion. Items start collapsed; the page script toggles them.
func FAQ(entries []FAQEntry) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(entries) == 0 {
			return nil
		}
		hw := markup.NewWriter(w)
		hw.Raw(`<div id="faq" class="space-y-4">`)
		for i, e := range entries {
			hw.Raw(`<div class="faq-item bg-[#16213E] border border-gray-700 rounded-xl" data-faq-index="`).Rawf("%d", i).Raw(`">`)
			hw.Raw(`<button type="button" class="faq-question w-full flex justify-between items-center p-5 text-left font-semibold text-white" aria-expanded="false">`).Text(e.Question)
			hw.Raw(`<i data-lucide="chevron-down" class="w-5 h-5 transition-transform"></i></button>`)
			hw.Raw(`<div class="faq-answer hidden px-5 pb-5 text-gray-400">`).Text(e.Answer).Raw(`</div></div>`)
		}
		hw.Raw(`</div>`)
		return hw.Err()
	})
}
