// Package batch runs a file of advisory requests with bounded concurrency.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

// Entry is one line of a batch file. Image may be a path or a doublestar
// glob; a glob expands into one identify request per matching file.
type Entry struct {
	Kind      string   `yaml:"kind"`
	Language  string   `yaml:"language,omitempty"`
	Text      string   `yaml:"text,omitempty"`
	Medicines []string `yaml:"medicines,omitempty"`
	Image     string   `yaml:"image,omitempty"`
	Lat       float64  `yaml:"lat,omitempty"`
	Lng       float64  `yaml:"lng,omitempty"`
}

// Load reads a YAML batch file. Relative image paths resolve against the
// file's directory. lang fills in entries that name no language.
func Load(path string, lang advisory.Language) ([]advisory.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing batch file %s: %w", path, err)
	}
	return Expand(entries, filepath.Dir(path), lang)
}

// Expand turns entries into requests.
func Expand(entries []Entry, baseDir string, lang advisory.Language) ([]advisory.Request, error) {
	var reqs []advisory.Request
	for i, e := range entries {
		kind, ok := advisory.ParseKind(e.Kind)
		if !ok {
			return nil, fmt.Errorf("entry %d: unknown kind %q", i+1, e.Kind)
		}
		req := advisory.Request{
			Kind:      kind,
			Language:  lang,
			Text:      e.Text,
			Medicines: e.Medicines,
			Location:  advisory.Coordinates{Lat: e.Lat, Lng: e.Lng},
		}
		if e.Language != "" {
			l, ok := advisory.ParseLanguage(e.Language)
			if !ok {
				return nil, fmt.Errorf("entry %d: unsupported language %q", i+1, e.Language)
			}
			req.Language = l
		}

		if kind != advisory.KindImageIdentify {
			reqs = append(reqs, req)
			continue
		}
		paths, err := ExpandImages(baseDir, e.Image)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		for _, p := range paths {
			img, err := advisory.LoadImage(p)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			r := req
			r.Image = img
			reqs = append(reqs, r)
		}
	}
	return reqs, nil
}

// ExpandImages resolves pattern against baseDir. A plain path is returned
// as is; a glob must match at least one file.
func ExpandImages(baseDir, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, errors.New("identify entries need an image path or glob")
	}
	if !filepath.IsAbs(pattern) && baseDir != "" {
		pattern = filepath.Join(baseDir, pattern)
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("bad image glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no images match %q", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// Advisor answers advisory requests.
type Advisor interface {
	Submit(ctx context.Context, req advisory.Request) (*advisory.Result, error)
}

// ProgressFunc is called after each request settles.
type ProgressFunc func(done, total int, label string)

// Outcome pairs a request with its result or error.
type Outcome struct {
	Request advisory.Request
	Result  *advisory.Result
	Err     error
}

// Result holds the outcomes in request order.
type Result struct {
	Outcomes []Outcome
	Failed   int
}

// Results returns the successful results in request order.
func (r *Result) Results() []*advisory.Result {
	out := make([]*advisory.Result, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Result != nil {
			out = append(out, o.Result)
		}
	}
	return out
}

// Batcher runs requests concurrently with a parallelism limit.
type Batcher struct {
	concurrency int
	advisor     Advisor
	onProgress  ProgressFunc
}

// NewBatcher creates a Batcher. concurrency below 1 means 1.
func NewBatcher(concurrency int, advisor Advisor, onProgress ProgressFunc) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{concurrency: concurrency, advisor: advisor, onProgress: onProgress}
}

// errQuotaSkipped marks requests skipped after the provider ran out of quota.
var errQuotaSkipped = errors.New("skipped (API quota exhausted)")

// Run submits every request. Once the provider reports an exhausted quota
// the remaining requests are skipped.
func (b *Batcher) Run(ctx context.Context, reqs []advisory.Request) *Result {
	total := len(reqs)
	result := &Result{Outcomes: make([]Outcome, total)}
	if total == 0 {
		return result
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var quotaExhausted atomic.Bool

	sem := make(chan struct{}, b.concurrency)
	var processed atomic.Int64
	var wg sync.WaitGroup

	settle := func(i int, res *advisory.Result, err error) {
		result.Outcomes[i] = Outcome{Request: reqs[i], Result: res, Err: err}
		count := processed.Add(1)
		if b.onProgress != nil {
			b.onProgress(int(count), total, label(reqs[i]))
		}
	}

	for i := range reqs {
		if quotaExhausted.Load() {
			settle(i, nil, errQuotaSkipped)
			continue
		}
		select {
		case <-ctx.Done():
			settle(i, nil, ctx.Err())
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := b.advisor.Submit(ctx, reqs[i])
			if err != nil && isQuotaError(err) {
				quotaExhausted.Store(true)
				cancel()
			}
			settle(i, res, err)
		}(i)
	}
	wg.Wait()

	for _, o := range result.Outcomes {
		if o.Err != nil {
			result.Failed++
		}
	}
	return result
}

func isQuotaError(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		s := e.Error()
		if strings.Contains(s, "RESOURCE_EXHAUSTED") || strings.Contains(s, "quota") {
			return true
		}
	}
	return false
}

func label(req advisory.Request) string {
	return string(req.Kind) + ": " + req.Describe()
}
