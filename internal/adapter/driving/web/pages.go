package web

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/ciannotate/internal/adapter/driving/web/viewmodel"
)

// pageWriter accumulates the first write error so page components read as a
// flat sequence of writes.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) component(ctx context.Context, c templ.Component) {
	if p.err != nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

// Layout wraps body in the HTML document shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(` - ciannotate</title><link rel="stylesheet" href="/static/style.css"></head><body>`)
		p.component(ctx, body)
		p.raw(`</body></html>`)
		return p.err
	})
}

func conclusionSpan(p *pageWriter, conclusion string) {
	p.raw(`<span class="conclusion-`)
	p.text(conclusion)
	p.raw(`">`)
	p.text(conclusion)
	p.raw(`</span>`)
}

// RunPage renders a single recorded run.
func RunPage(run vm.RunDetailViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		p.raw(`<header><p class="muted"><a href="`)
		p.text(run.RepoPath)
		p.raw(`">`)
		p.text(run.Repository)
		p.raw(`</a> @ <code>`)
		p.text(run.HeadSHA)
		p.raw(`</code></p><h1>`)
		p.text(run.CheckName)
		p.raw(`: `)
		conclusionSpan(p, run.Conclusion)
		p.raw(`</h1></header>`)

		p.raw(`<section><h2>`)
		p.text(run.Title)
		p.raw(`</h2><p>`)
		p.text(run.Summary)
		p.raw(`</p><table><tbody>`)
		p.raw(`<tr><th>Format</th><td>`)
		p.text(run.Format)
		p.raw(`</td></tr><tr><th>Duration</th><td>`)
		p.text(run.Duration)
		p.raw(`</td></tr><tr><th>Completed</th><td>`)
		p.text(run.CompletedAt)
		p.raw(`</td></tr><tr><th>Annotations</th><td>`)
		p.text(strconv.Itoa(run.Annotations))
		p.raw(`</td></tr>`)
		if run.HasCheckRun {
			p.raw(`<tr><th>Check run</th><td><a href="`)
			p.text(run.CheckRunURL)
			p.raw(`">`)
			p.text(run.CheckRunURL)
			p.raw(`</a></td></tr>`)
		}
		p.raw(`</tbody></table>`)
		if run.ShowsDropped {
			p.raw(`<p class="muted">`)
			p.text(fmt.Sprintf("%d outcomes exceeded the annotation limit and appear only below.", run.Dropped))
			p.raw(`</p>`)
		}
		p.raw(`</section>`)

		if run.HasDigest {
			p.raw(`<section><h2>Outcomes</h2>`)
			// DigestHTML is sanitized by RenderMarkdown.
			p.component(ctx, templ.Raw(run.DigestHTML))
			p.raw(`</section>`)
		}

		return p.err
	})
}

// RunsPage renders the run history of a repository.
func RunsPage(list vm.RunListViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		p.raw(`<header><h1>`)
		p.text(list.Repository)
		p.raw(`</h1><p><img alt="coverage" src="`)
		p.text(list.BadgePath)
		p.raw(`"></p></header>`)

		if len(list.Runs) == 0 {
			p.raw(`<p class="muted">No report runs recorded yet.</p>`)
			return p.err
		}

		p.raw(`<table><thead><tr><th>Run</th><th>Commit</th><th>Check</th><th>Result</th><th>Tests</th><th>Completed</th></tr></thead><tbody>`)
		for _, run := range list.Runs {
			p.raw(`<tr><td><a href="`)
			p.text(run.DetailPath)
			p.raw(`">#`)
			p.text(strconv.FormatInt(run.ID, 10))
			p.raw(`</a></td><td><code>`)
			p.text(run.HeadSHA)
			p.raw(`</code></td><td>`)
			p.text(run.CheckName)
			p.raw(`</td><td>`)
			conclusionSpan(p, run.Conclusion)
			p.raw(`</td><td>`)
			p.text(run.Counts)
			p.raw(`</td><td>`)
			p.text(run.CompletedAt)
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)

		return p.err
	})
}
