// Package history keeps a semantic index of successful advisory answers so
// earlier results can be found again by meaning rather than exact wording.
package history

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/orchestrator"
	"github.com/mediguide-lk/mediguide/internal/report"
)

const collectionName = "advisories"

// Metadata keys.
const (
	metaKind        = "kind"
	metaLanguage    = "language"
	metaQuery       = "query"
	metaActor       = "actor"
	metaCompletedAt = "completed_at"
)

// Hit is one search result.
type Hit struct {
	ID          string        `json:"id"`
	Kind        advisory.Kind `json:"kind"`
	Language    string        `json:"language,omitempty"`
	Query       string        `json:"query"`
	CompletedAt time.Time     `json:"completedAt"`
	Content     string        `json:"content"`
	Similarity  float32       `json:"similarity"`
}

// Index stores rendered advisory results in a chromem collection.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection

	wg sync.WaitGroup
}

// Open creates an index. With an empty dir the index lives in memory;
// otherwise it is persisted under dir.
func Open(embed chromem.EmbeddingFunc, dir string) (*Index, error) {
	var db *chromem.DB
	if dir == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(dir, true)
		if err != nil {
			return nil, fmt.Errorf("opening history index: %w", err)
		}
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col}, nil
}

// Add indexes one result under actor.
func (x *Index) Add(ctx context.Context, actor string, res *advisory.Result) error {
	content := report.Markdown(res)
	if content == "" {
		return nil
	}
	completed := res.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	doc := chromem.Document{
		ID:      uuid.New().String(),
		Content: content,
		Metadata: map[string]string{
			metaKind:        string(res.Kind),
			metaLanguage:    string(res.Language),
			metaQuery:       res.Query,
			metaActor:       actor,
			metaCompletedAt: strconv.FormatInt(completed.Unix(), 10),
		},
	}
	if err := x.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("indexing %s result: %w", res.Kind, err)
	}
	return nil
}

// Observe indexes successful requests in the background. It satisfies
// orchestrator.Observer.
func (x *Index) Observe(ctx context.Context, ev orchestrator.Event) {
	if ev.Err != nil || ev.Result == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		if err := x.Add(ctx, ev.Actor, ev.Result); err != nil {
			log.Printf("history: %v", err)
		}
	}()
}

// Wait blocks until background indexing has finished.
func (x *Index) Wait() {
	x.wg.Wait()
}

// Query restricts a search.
type Query struct {
	Text  string
	Actor string
	Kind  advisory.Kind
	Limit int
}

// Search returns the closest earlier results for the actor.
func (x *Index) Search(ctx context.Context, q Query) ([]Hit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}
	// chromem-go requires 0 < nResults <= collection size.
	count := x.collection.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	if limit > count {
		limit = count
	}

	where := map[string]string{metaActor: q.Actor}
	if q.Kind != "" {
		where[metaKind] = string(q.Kind)
	}

	results, err := x.collection.Query(ctx, q.Text, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		h := Hit{
			ID:         r.ID,
			Kind:       advisory.Kind(r.Metadata[metaKind]),
			Language:   r.Metadata[metaLanguage],
			Query:      r.Metadata[metaQuery],
			Content:    r.Content,
			Similarity: r.Similarity,
		}
		if sec, err := strconv.ParseInt(r.Metadata[metaCompletedAt], 10, 64); err == nil {
			h.CompletedAt = time.Unix(sec, 0).UTC()
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Count returns the number of indexed results.
func (x *Index) Count() int {
	return x.collection.Count()
}
