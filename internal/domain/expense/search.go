package expense

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

// noteDocument is the indexed shape of an expense note.
type noteDocument struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	Note         string  `json:"note"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
	Datetime     string  `json:"datetime"`
}

// NoteHit is one full-text search hit over expense notes.
type NoteHit struct {
	ExpenseID uuid.UUID
	Note      string
	Score     float64
}

// NoteIndex provides full-text search over expense notes using Bleve.
type NoteIndex struct {
	index   bleve.Index
	indexMu sync.RWMutex
	path    string
}

// NewNoteIndex creates a note index. An empty path builds an in-memory index,
// otherwise the index is persisted at path and reopened across restarts.
func NewNoteIndex(path string) (*NoteIndex, error) {
	ni := &NoteIndex{path: path}

	var (
		index bleve.Index
		err   error
	)
	indexMapping := buildNoteMapping()

	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, indexMapping)
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open note index: %w", err)
	}

	ni.index = index
	return ni, nil
}

func buildNoteMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("user_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("note", textFieldMapping)
	docMapping.AddFieldMappingsAt("category_name", textFieldMapping)
	docMapping.AddFieldMappingsAt("datetime", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("amount", bleve.NewNumericFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// Index adds or replaces one expense in the index.
func (ni *NoteIndex) Index(e *Expense) error {
	ni.indexMu.Lock()
	defer ni.indexMu.Unlock()

	return ni.index.Index(e.ID.String(), toNoteDocument(e))
}

// IndexBatch adds or replaces many expenses in one batch.
func (ni *NoteIndex) IndexBatch(expenses []Expense) error {
	ni.indexMu.Lock()
	defer ni.indexMu.Unlock()

	batch := ni.index.NewBatch()
	for i := range expenses {
		if err := batch.Index(expenses[i].ID.String(), toNoteDocument(&expenses[i])); err != nil {
			return fmt.Errorf("failed to index expense %s: %w", expenses[i].ID, err)
		}
	}
	if err := ni.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Remove drops one expense from the index.
func (ni *NoteIndex) Remove(expenseID uuid.UUID) error {
	ni.indexMu.Lock()
	defer ni.indexMu.Unlock()

	return ni.index.Delete(expenseID.String())
}

// Search runs a fuzzy full-text query over the user's expense notes.
func (ni *NoteIndex) Search(userID uuid.UUID, query string, limit int) ([]NoteHit, error) {
	ni.indexMu.RLock()
	defer ni.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	userQuery := bleve.NewTermQuery(userID.String())
	userQuery.SetField("user_id")

	searchRequest := bleve.NewSearchRequest(bleve.NewConjunctionQuery(matchQuery, userQuery))
	searchRequest.Size = limit
	searchRequest.Fields = []string{"note"}

	searchResults, err := ni.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("note search failed: %w", err)
	}

	hits := make([]NoteHit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		expenseID, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		note, _ := hit.Fields["note"].(string)
		hits = append(hits, NoteHit{ExpenseID: expenseID, Note: note, Score: hit.Score})
	}
	return hits, nil
}

// Close releases the underlying index.
func (ni *NoteIndex) Close() error {
	ni.indexMu.Lock()
	defer ni.indexMu.Unlock()

	return ni.index.Close()
}

func toNoteDocument(e *Expense) noteDocument {
	categoryName := ""
	if e.CategoryName != nil {
		categoryName = *e.CategoryName
	}
	amount, _ := e.Amount.Round(2).Float64()
	return noteDocument{
		ID:           e.ID.String(),
		UserID:       e.UserID.String(),
		Note:         e.Note,
		CategoryName: categoryName,
		Amount:       amount,
		Datetime:     e.TransactionDatetime.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
