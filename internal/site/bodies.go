package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authwidget"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/cards"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/curriculum"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/grid"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/pages"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/reveal"
)

const noActiveChallenge = "No active challenge right now. Check back later!"

var (
	courseTypes = []content.Type{content.TypeCourse, content.TypeNetworking}
	feedTypes   = []content.Type{content.TypePost, content.TypeDaily}

	courseFilters = []string{"All", "Programming", "Web Dev", "Networking", "Game Dev"}
)

// pageContext carries the per-render state: the route, its prefix and the reveal observer the
// grids re-arm.
type pageContext struct {
	site     *Site
	route    pages.Route
	prefix   string
	query    url.Values
	auth     authstate.Stream
	observer *reveal.Observer
	grids    *grid.Controller

	title       string
	description string
	status      int
}

func (pc *pageContext) link(target string) string {
	return paths.Apply(pc.prefix, target)
}

func (pc *pageContext) body() (templ.Component, error) {
	switch pc.route.Kind {
	case pages.KindHome:
		return pc.home(), nil
	case pages.KindDaily:
		return pc.daily(), nil
	case pages.KindCourses:
		return pc.courses(), nil
	case pages.KindChallenges:
		return pc.challenges(), nil
	case pages.KindCurriculum:
		return pc.curriculumIndex(), nil
	case pages.KindLevel:
		return pc.level(), nil
	case pages.KindDashboard:
		return pc.dashboard(), nil
	case pages.KindLogin:
		return pc.login(), nil
	case pages.KindMarkdown:
		return pc.markdown()
	default:
		pc.status = http.StatusNotFound
		return pc.notFound(), nil
	}
}

func (pc *pageContext) items() []content.Item {
	return pc.site.store.Items()
}

func (pc *pageContext) home() templ.Component {
	cfg := pc.site.cfg
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="hero pt-32 pb-20 text-center" id="hero"><div class="container mx-auto px-6">`)
		hw.Raw(`<h1 class="text-5xl font-extrabold text-white mb-6">`).Text(cfg.Site.Name).Raw(`</h1>`)
		if cfg.Site.Tagline != "" {
			hw.Raw(`<p class="text-xl text-gray-400 mb-8">`).Text(cfg.Site.Tagline).Raw(`</p>`)
		}
		hw.Raw(`<a href="`).URL(pc.link("courses.html")).Raw(`" class="btn btn-primary">Explore Courses</a></div></section>`)

		items := pc.items()
		hw.Raw(`<section class="container mx-auto px-6 py-16"><div class="flex justify-between items-end mb-8"><h2 class="text-3xl font-bold text-white">Latest Posts</h2>`)
		hw.Raw(`<a href="`).URL(pc.link("daily.html")).Raw(`" class="text-[#FFE66D] text-sm font-semibold">View all</a></div>`)
		hw.Component(ctx, pc.grids.Component(grid.Container{
			ID:        "posts-container",
			Class:     "grid md:grid-cols-3 gap-8",
			Types:     []content.Type{content.TypePost},
			Style:     cards.StylePost,
			Limit:     cfg.Content.HomePostLimit,
			Recency:   true,
			EmptyText: "No posts found.",
			Prefix:    pc.prefix,
		}, items, ""))
		hw.Raw(`</section>`)

		hw.Raw(`<section class="container mx-auto px-6 py-16"><div class="flex justify-between items-end mb-8"><h2 class="text-3xl font-bold text-white">Popular Courses</h2>`)
		hw.Raw(`<a href="`).URL(pc.link("courses.html")).Raw(`" class="text-[#FFE66D] text-sm font-semibold">View all</a></div>`)
		hw.Component(ctx, pc.grids.Component(grid.Container{
			ID:        "courses-container",
			Class:     "grid md:grid-cols-3 gap-8",
			Types:     courseTypes,
			Style:     cards.StyleCourse,
			Limit:     cfg.Content.HomeCourseLimit,
			EmptyText: "No courses found.",
			Prefix:    pc.prefix,
		}, items, ""))
		hw.Raw(`</section>`)
		return hw.Err()
	})
}

func (pc *pageContext) daily() templ.Component {
	filter := grid.Filter(pc.query.Get("category"))
	pc.title = grid.Title(filter, "Posts")
	items := pc.items()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="container mx-auto px-6 pt-32 pb-16">`)
		hw.Raw(`<h1 id="grid-title" class="text-4xl font-extrabold text-white mb-8">`).Text(pc.title).Raw(`</h1>`)
		pc.filterBar(hw, "daily.html", categories(content.FilterTypes(items, feedTypes...)), filter)
		hw.Component(ctx, pc.grids.Component(grid.Container{
			ID:        "posts-container",
			Class:     "grid md:grid-cols-3 gap-8",
			Types:     feedTypes,
			Style:     cards.StylePost,
			Recency:   true,
			EmptyText: "No posts found.",
			Prefix:    pc.prefix,
		}, items, filter))
		hw.Raw(`</section>`)
		return hw.Err()
	})
}

func (pc *pageContext) courses() templ.Component {
	filter := grid.Filter(pc.query.Get("category"))
	pc.title = grid.Title(filter, "Courses")
	items := pc.items()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="container mx-auto px-6 pt-32 pb-16">`)
		hw.Raw(`<h1 id="grid-title" class="text-4xl font-extrabold text-white mb-8">`).Text(pc.title).Raw(`</h1>`)
		pc.filterBar(hw, "courses.html", courseFilters, filter)
		hw.Component(ctx, pc.grids.Component(grid.Container{
			ID:        "courses-container",
			Class:     "grid md:grid-cols-3 gap-8",
			Types:     courseTypes,
			Style:     cards.StyleCourse,
			EmptyText: "No courses found.",
			Prefix:    pc.prefix,
		}, items, filter))
		hw.Raw(`</section>`)
		return hw.Err()
	})
}

// filterBar writes one link per category; the link matching the active filter is marked.
func (pc *pageContext) filterBar(hw *markup.Writer, page string, labels []string, active grid.Filter) {
	hw.Raw(`<div id="filter-bar" class="flex flex-wrap gap-3 mb-10">`)
	for _, label := range labels {
		f := grid.Filter(label)
		href := page
		if f.Active() {
			href += "?category=" + url.QueryEscape(f.Key())
		}
		selected := f.Key() == active.Key() || (!f.Active() && !active.Active())
		hw.Raw(`<a href="`).URL(pc.link(href)).Raw(`" class="filter-btn px-4 py-2 rounded-full text-sm font-semibold`)
		if selected {
			hw.Raw(` active bg-[#FFE66D] text-[#1A1A2E]" aria-current="true"`)
		} else {
			hw.Raw(` bg-[#16213E] text-gray-300"`)
		}
		hw.Raw(` data-filter="`).Text(f.Key()).Raw(`">`).Text(label).Raw(`</a>`)
	}
	hw.Raw(`</div>`)
}

// categories lists "All" followed by the distinct categories of items in first-seen order.
func categories(items []content.Item) []string {
	out := []string{"All"}
	seen := map[string]bool{}
	for _, item := range items {
		c := strings.TrimSpace(item.Category)
		key := grid.Filter(c).Key()
		if key == "" || key == "all" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func (pc *pageContext) challenges() templ.Component {
	active, past := grid.SplitChallenges(pc.site.store.OfType(content.TypeChallenge))
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="container mx-auto px-6 pt-32 pb-16">`)
		hw.Raw(`<h1 class="text-4xl font-extrabold text-white mb-8">Weekly Challenges</h1>`)
		hw.Raw(`<div id="active-challenge-container" class="bg-[#16213E] rounded-2xl border border-gray-700 overflow-hidden mb-16">`)
		if active == nil {
			hw.Raw(`<div class="p-12 text-center text-gray-500" data-challenge-empty>`).Text(noActiveChallenge).Raw(`</div>`)
		} else {
			v := cards.Build(*active, pc.prefix)
			hw.Component(ctx, cards.Card(cards.StyleChallengeActive, v))
			pc.challengeTools(hw, *active)
		}
		hw.Raw(`</div>`)

		hw.Raw(`<h2 class="text-2xl font-bold text-white mb-6">Past Challenges</h2>`)
		hw.Component(ctx, pc.grids.Component(grid.Container{
			ID:        "past-challenges-grid",
			Class:     "grid md:grid-cols-3 gap-6",
			Style:     cards.StyleChallengePast,
			EmptyText: "No past challenges yet.",
			Prefix:    pc.prefix,
		}, past, ""))
		hw.Raw(`</section>`)
		return hw.Err()
	})
}

// challengeTools writes the keyword checker and the discussion thread of a challenge.
func (pc *pageContext) challengeTools(hw *markup.Writer, item content.Item) {
	slug := challengeSlug(item)
	base := pc.link("challenges/" + url.PathEscape(slug))
	hw.Raw(`<div class="p-8 border-t border-gray-700" id="submit-form">`)
	if len(item.Keywords) > 0 {
		hw.Raw(`<form method="post" action="`).URL(base+"/check").Raw(`" data-fragment-target="challenge-feedback" class="space-y-4">`)
		hw.Raw(`<textarea name="code" rows="8" class="w-full bg-[#0b1021] text-green-300 font-mono p-4 rounded-lg" placeholder="Write your code here..."></textarea>`)
		hw.Raw(`<button type="submit" class="btn btn-primary">Run Check</button></form>`)
		hw.Raw(`<div id="challenge-feedback" class="mt-4 font-mono text-sm"></div>`)
	}
	hw.Raw(`<div class="mt-10"><h3 class="text-xl font-bold text-white mb-4">Discussion</h3>`)
	hw.Raw(`<div id="comments" data-comments-endpoint="`).URL(base+"/comments").Raw(`"></div>`)
	hw.Raw(`<form method="post" action="`).URL(base+"/comments").Raw(`" data-fragment-target="comments-list" class="mt-6 space-y-3">`)
	hw.Raw(`<input name="name" required maxlength="60" placeholder="Your name" class="w-full bg-[#0b1021] p-3 rounded-lg text-white">`)
	hw.Raw(`<textarea name="message" required rows="3" placeholder="Share your thoughts..." class="w-full bg-[#0b1021] p-3 rounded-lg text-white"></textarea>`)
	hw.Raw(`<button type="submit" class="btn btn-primary">Post Comment</button></form></div></div>`)
}

func challengeSlug(item content.Item) string {
	if item.ID != "" {
		return item.ID
	}
	return cards.Slug(item.Title)
}

func (pc *pageContext) curriculumIndex() templ.Component {
	var levels []curriculum.Level
	if pc.site.curriculum != nil {
		levels = pc.site.curriculum.Levels()
	}
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="container mx-auto px-6 pt-32 pb-16">`)
		hw.Raw(`<h1 class="text-4xl font-extrabold text-white mb-8">Curriculum</h1>`)
		hw.Raw(`<div id="levels-container" class="grid md:grid-cols-2 lg:grid-cols-3 gap-8">`)
		if len(levels) == 0 {
			hw.Raw(`<p class="col-span-full text-center text-gray-500 py-12" data-grid-empty>No levels published yet.</p>`)
		}
		for i, lvl := range levels {
			id := "level-" + lvl.ID
			pc.observer.Observe(id)
			hw.Raw(`<a id="`).Text(id).Raw(`" href="`).URL(pc.link(pages.LevelPath(lvl.ID))).Raw(`" class="card reveal-up p-8 block"`)
			if d := reveal.Delay(i, pc.site.cfg.Reveal.DelayBase); d > 0 {
				hw.Rawf(` style="transition-delay:%dms"`, d.Milliseconds())
			}
			hw.Raw(`><span class="text-sm font-bold text-[#4CC9F0] uppercase">`).Text(lvl.Age).Raw(`</span>`)
			hw.Raw(`<h3 class="text-xl font-bold text-white mt-2 mb-3">`).Text(lvl.Title).Raw(`</h3>`)
			hw.Raw(`<p class="text-gray-400 text-sm">`).Text(lvl.Description).Raw(`</p></a>`)
		}
		hw.Raw(`</div></section>`)
		return hw.Err()
	})
}

func (pc *pageContext) level() templ.Component {
	id := pc.route.Slug
	if id == "" {
		id = strings.TrimSpace(pc.query.Get("level"))
	}
	var (
		lvl curriculum.Level
		err = curriculum.ErrLevelNotFound
	)
	if pc.site.curriculum != nil && id != "" {
		lvl, err = pc.site.curriculum.Lookup(id)
	}
	if err != nil {
		pc.status = http.StatusNotFound
		pc.title = "Level Not Found"
		return curriculum.NotFound(pc.prefix)
	}
	pc.title = lvl.Title
	pc.description = lvl.Description
	for i := range lvl.Modules {
		pc.observer.Observe(fmt.Sprintf("module-%d", i+1))
	}
	return curriculum.Detail(lvl, pc.prefix)
}

func (pc *pageContext) dashboard() templ.Component {
	var user authstate.User
	if pc.auth != nil {
		guard := authwidget.NewGuard()
		cancel := guard.Attach(pc.auth)
		user = guard.User()
		cancel()
	}
	items := pc.items()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="container mx-auto px-6 pt-32 pb-16" id="dashboard">`)
		hw.Raw(`<h1 class="text-4xl font-extrabold text-white mb-2">Welcome back!</h1>`)
		if user.Email != "" {
			hw.Raw(`<p class="text-gray-400 mb-10" data-dashboard-email>Signed in as `).Text(user.Email).Raw(`</p>`)
		}
		hw.Raw(`<h2 class="text-2xl font-bold text-white mb-6">Continue Learning</h2>`)
		hw.Component(ctx, pc.grids.Component(grid.Container{
			ID:        "dashboard-courses",
			Class:     "grid md:grid-cols-3 gap-8",
			Types:     courseTypes,
			Style:     cards.StyleCourse,
			Limit:     pc.site.cfg.Content.HomeCourseLimit,
			EmptyText: "No courses found.",
			Prefix:    pc.prefix,
		}, items, ""))
		hw.Raw(`</section>`)
		return hw.Err()
	})
}

func (pc *pageContext) login() templ.Component {
	signup := pc.query.Get("mode") == "signup"
	pc.title = "Sign In"
	if signup {
		pc.title = "Sign Up"
	}
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="container mx-auto px-6 pt-32 pb-16 max-w-md">`)
		hw.Raw(`<h1 class="text-3xl font-extrabold text-white mb-8">`).Text(pc.title).Raw(`</h1>`)
		hw.Raw(`<form id="login-form" method="post" action="/auth/session" data-mode="`)
		if signup {
			hw.Raw(`signup`)
		} else {
			hw.Raw(`signin`)
		}
		hw.Raw(`" class="space-y-4">`)
		hw.Raw(`<input type="email" name="email" required autocomplete="email" placeholder="Email" class="w-full bg-[#16213E] p-3 rounded-lg text-white">`)
		hw.Raw(`<input type="password" name="password" required autocomplete="current-password" placeholder="Password" class="w-full bg-[#16213E] p-3 rounded-lg text-white">`)
		hw.Raw(`<input type="hidden" name="idToken" value="">`)
		hw.Raw(`<button type="submit" class="btn btn-primary w-full justify-center">`).Text(pc.title).Raw(`</button>`)
		hw.Raw(`<p id="login-error" class="text-red-400 text-sm" role="alert"></p></form>`)
		if signup {
			hw.Raw(`<p class="text-gray-400 text-sm mt-6">Already have an account? <a href="`).URL(pc.link("login.html")).Raw(`" class="text-[#FFE66D]">Sign In</a></p>`)
		} else {
			hw.Raw(`<p class="text-gray-400 text-sm mt-6">New here? <a href="`).URL(pc.link("login.html?mode=signup")).Raw(`" class="text-[#FFE66D]">Create an account</a></p>`)
		}
		hw.Raw(`</section>`)
		return hw.Err()
	})
}

func (pc *pageContext) markdown() (templ.Component, error) {
	page, err := pc.site.library.Lookup(pc.route.Slug)
	if err != nil {
		if errors.Is(err, pages.ErrNotFound) {
			pc.site.logger.Debug("page not found", zap.String("slug", pc.route.Slug))
			pc.status = http.StatusNotFound
			return pc.notFound(), nil
		}
		return nil, err
	}
	pc.title = page.Title
	pc.description = page.Description
	var faq []pages.FAQEntry
	if page.Slug == "faq" {
		for _, e := range pc.site.cfg.Site.FAQ {
			faq = append(faq, pages.FAQEntry{Question: e.Question, Answer: e.Answer})
		}
	}
	contactForm := page.Slug == "contact"
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<article class="container mx-auto px-6 pt-32 pb-16 max-w-3xl">`)
		hw.Raw(`<div class="prose" id="page-body" data-page-slug="`).Text(page.Slug).Raw(`">`).Raw(string(page.Body)).Raw(`</div>`)
		hw.Component(ctx, pages.FAQ(faq))
		if contactForm {
			pc.contactForm(hw)
		}
		hw.Raw(`</article>`)
		return hw.Err()
	}), nil
}

func (pc *pageContext) contactForm(hw *markup.Writer) {
	email := pc.site.cfg.Contact.Email
	hw.Raw(`<form id="contact-form" method="post" action="/contact" data-fragment-target="contact-result" class="space-y-4 mt-10">`)
	hw.Raw(`<input name="name" required placeholder="Your name" class="w-full bg-[#16213E] p-3 rounded-lg text-white">`)
	hw.Raw(`<input type="email" name="email" required placeholder="Your email" class="w-full bg-[#16213E] p-3 rounded-lg text-white">`)
	hw.Raw(`<textarea name="message" required rows="5" placeholder="Your message" class="w-full bg-[#16213E] p-3 rounded-lg text-white"></textarea>`)
	hw.Raw(`<button type="submit" class="btn btn-primary">Send Message</button></form>`)
	hw.Raw(`<div id="contact-result"></div>`)
	if email != "" {
		hw.Raw(`<p class="text-gray-400 mt-8">Or email us at <a href="`).URL("mailto:"+email).Raw(`" class="text-[#FFE66D]" id="contact-email">`).Text(email).Raw(`</a>`)
		hw.Raw(` <button type="button" data-copy-email="`).Text(email).Raw(`" class="text-gray-400 hover:text-white" aria-label="Copy email"><i data-lucide="copy" class="inline w-4 h-4"></i></button></p>`)
	}
}

func (pc *pageContext) notFound() templ.Component {
	pc.title = "Page Not Found"
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="container mx-auto px-6 pt-32 pb-16 text-center" id="not-found">`)
		hw.Raw(`<h1 class="text-4xl font-extrabold text-white mb-4">Page Not Found</h1>`)
		hw.Raw(`<p class="text-gray-400 mb-8">We couldn't find that page.</p>`)
		hw.Raw(`<a href="`).URL(pc.link("index.html")).Raw(`" class="btn btn-primary">Back Home</a></section>`)
		return hw.Err()
	})
}
