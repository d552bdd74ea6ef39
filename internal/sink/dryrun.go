package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"golang.org/x/sync/errgroup"
)

const diffWorkers = 8

// DryRun reports what a commit would do without touching anything.
type DryRun struct {
	host  tree.Host
	out   io.Writer
	diffs bool
}

type DryRunOption func(*DryRun)

// WithDiffs includes a unified diff for every overwrite.
func WithDiffs(diffs bool) DryRunOption {
	return func(d *DryRun) {
		d.diffs = diffs
	}
}

// NewDryRun returns a sink that writes its report to out. Overwrites are diffed against host,
// which may be nil.
func NewDryRun(host tree.Host, out io.Writer, opts ...DryRunOption) *DryRun {
	d := &DryRun{host: host, out: out, diffs: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Entry describes a single action of a dry run.
type Entry struct {
	Action action.Action
	Diff   *FileDiff
	before []byte
}

func (d *DryRun) Commit(ctx context.Context, actions []action.Action) error {
	entries, err := d.Entries(ctx, actions)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Fprintln(d.out, renderEntry(e))
	}
	fmt.Fprintln(d.out, styles.Dimmed.Render(summarize(actions)))
	return nil
}

// Entries resolves the previous content of every overwritten file in order, then computes the
// diffs concurrently. A host file that cannot be read fails the whole report.
func (d *DryRun) Entries(ctx context.Context, actions []action.Action) ([]Entry, error) {
	staged := map[string][]byte{}
	removed := map[string]bool{}

	previous := func(p string) ([]byte, error) {
		if c, ok := staged[p]; ok {
			return c, nil
		}
		if removed[p] || d.host == nil || !d.host.IsFile(p) {
			return nil, nil
		}
		c, err := d.host.Read(p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", p)
		}
		return c, nil
	}

	entries := make([]Entry, len(actions))
	for i, a := range actions {
		entries[i] = Entry{Action: a}

		switch a.Kind {
		case action.KindCreate:
			staged[a.Path] = a.Content
		case action.KindOverwrite:
			before, err := previous(a.Path)
			if err != nil {
				return nil, err
			}
			entries[i].before = before
			staged[a.Path] = a.Content
		case action.KindRename:
			content, err := previous(a.Path)
			if err != nil {
				return nil, err
			}
			staged[a.To] = content
			delete(staged, a.Path)
			removed[a.Path] = true
		case action.KindDelete:
			delete(staged, a.Path)
			removed[a.Path] = true
		}
	}

	if !d.diffs {
		return entries, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(diffWorkers)
	for i := range entries {
		if entries[i].Action.Kind != action.KindOverwrite {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			diff := ComputeFileDiff(entries[i].Action.Path, entries[i].before, entries[i].Action.Content)
			entries[i].Diff = &diff
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}

func renderEntry(e Entry) string {
	a := e.Action

	var style lipgloss.Style
	detail := ""
	switch a.Kind {
	case action.KindCreate:
		style = styles.DiffAdded
		detail = humanize.Bytes(uint64(len(a.Content)))
	case action.KindOverwrite:
		style = styles.Info
		detail = humanize.Bytes(uint64(len(a.Content)))
		if e.Diff != nil {
			detail = fmt.Sprintf("%s, +%d -%d", detail, e.Diff.Stats.Added, e.Diff.Stats.Removed)
		}
	case action.KindRename:
		style = styles.Warning
		detail = "to " + a.To
	case action.KindDelete:
		style = styles.DiffRemoved
	}

	line := fmt.Sprintf("%-9s %s", style.Render(a.Kind.String()), a.Path)
	if detail != "" {
		line += " " + styles.Dimmed.Render("("+detail+")")
	}

	if e.Diff == nil || e.Diff.DiffText == "" {
		return line
	}

	var sb strings.Builder
	sb.WriteString(line)
	for _, l := range strings.Split(strings.TrimRight(e.Diff.DiffText, "\n"), "\n") {
		sb.WriteString("\n    ")
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			sb.WriteString(styles.Dimmed.Render(l))
		case strings.HasPrefix(l, "+"):
			sb.WriteString(styles.DiffAdded.Render(l))
		case strings.HasPrefix(l, "-"):
			sb.WriteString(styles.DiffRemoved.Render(l))
		case strings.HasPrefix(l, "@@"):
			sb.WriteString(styles.DiffHunk.Render(l))
		default:
			sb.WriteString(l)
		}
	}
	return sb.String()
}

func summarize(actions []action.Action) string {
	counts := map[action.Kind]int{}
	var written uint64
	for _, a := range actions {
		counts[a.Kind]++
		written += uint64(len(a.Content))
	}

	return fmt.Sprintf("%s: %d created, %d overwritten, %d renamed, %d deleted, %s written",
		pluralize(len(actions), "action"),
		counts[action.KindCreate],
		counts[action.KindOverwrite],
		counts[action.KindRename],
		counts[action.KindDelete],
		humanize.Bytes(written),
	)
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}
