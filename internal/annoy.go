package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	IndexFilename   = "vectors.ann"
	MappingFilename = "tokens.json"
	DefaultTrees    = 10
)

var (
	ErrIndexNotBuilt = errors.New("index not built")
	ErrIndexBuilt    = errors.New("index already built")
)

var _ VectorIndex = (*AnnoyIndex)(nil)

// AnnoyIndex is an angular nearest-neighbour index over token vectors.
type AnnoyIndex struct {
	mu        sync.RWMutex
	idx       interfaces.AnnoyIndex[float32, uint32]
	dimension int
	tokenToID map[string]uint32
	idToToken map[uint32]string
	nextID    uint32
	basePath  string
	source    string
	built     bool
}

type indexMapping struct {
	TokenToID map[string]uint32 `json:"token_to_id"`
	IDToToken map[uint32]string `json:"id_to_token"`
	NextID    uint32            `json:"next_id"`
	Dimension int               `json:"dimension"`
	Source    string            `json:"source,omitempty"`
}

func NewAnnoyIndex(basePath string, dimension int) (*AnnoyIndex, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	idx := builder.Index[float32, uint32]().
		AngularDistance(dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	return &AnnoyIndex{
		idx:       idx,
		dimension: dimension,
		tokenToID: make(map[string]uint32),
		idToToken: make(map[uint32]string),
		basePath:  basePath,
	}, nil
}

func (a *AnnoyIndex) Dimension() int {
	return a.dimension
}

func (a *AnnoyIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.tokenToID)
}

// Source identifies the vectors the index was built from.
func (a *AnnoyIndex) Source() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.source
}

func (a *AnnoyIndex) SetSource(source string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = source
}

func (a *AnnoyIndex) Built() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.built
}

// Add queues a vector for the next Build. A built or loaded index is
// immutable; rebuild into a fresh index instead.
func (a *AnnoyIndex) Add(ctx context.Context, token string, vec []float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return ErrIndexBuilt
	}
	if len(vec) != a.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, a.dimension, len(vec))
	}

	id, exists := a.tokenToID[token]
	if !exists {
		id = a.nextID
		a.nextID++
		a.tokenToID[token] = id
		a.idToToken[id] = token
	}

	a.idx.AddItem(id, vec)
	return nil
}

// AddVectors adds every row of vs.
func (a *AnnoyIndex) AddVectors(ctx context.Context, vs *Vectors) error {
	for i, tok := range vs.Tokens {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Add(ctx, tok, vs.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

func (a *AnnoyIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.built {
		return nil, ErrIndexNotBuilt
	}
	if len(query) != a.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, a.dimension, len(query))
	}

	k = min(k, len(a.tokenToID))
	if k <= 0 {
		return nil, nil
	}

	searchCtx := a.idx.CreateContext()
	ids, distances := a.idx.GetNnsByVector(query, k, -1, searchCtx)

	results := make([]Neighbor, 0, len(ids))
	for i, id := range ids {
		token, exists := a.idToToken[id]
		if !exists {
			continue
		}

		// angular distance is in [0, 2]
		var score float32
		if i < len(distances) {
			score = 1.0 - distances[i]/2.0
		}
		results = append(results, Neighbor{Token: token, Score: score})
	}
	return results, nil
}

func (a *AnnoyIndex) Build(ctx context.Context, numTrees int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return ErrIndexBuilt
	}
	if numTrees <= 0 {
		numTrees = DefaultTrees
	}
	a.idx.Build(numTrees, -1)
	a.built = true
	return nil
}

func (a *AnnoyIndex) Save(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.built {
		return ErrIndexNotBuilt
	}

	indexPath := filepath.Join(a.basePath, IndexFilename)
	if err := a.idx.Save(indexPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	data, err := json.Marshal(indexMapping{
		TokenToID: a.tokenToID,
		IDToToken: a.idToToken,
		NextID:    a.nextID,
		Dimension: a.dimension,
		Source:    a.source,
	})
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	if err := os.WriteFile(filepath.Join(a.basePath, MappingFilename), data, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// Load restores a saved index. A directory without a mapping file leaves the
// index empty and unbuilt.
func (a *AnnoyIndex) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return ErrIndexBuilt
	}
	mapping, err := readMapping(a.basePath)
	if err != nil || mapping == nil {
		return err
	}
	if mapping.Dimension != 0 && mapping.Dimension != a.dimension {
		return fmt.Errorf("%w: index has dimension %d, expected %d", ErrDimensionMismatch, mapping.Dimension, a.dimension)
	}

	a.tokenToID = mapping.TokenToID
	a.idToToken = mapping.IDToToken
	a.nextID = mapping.NextID
	a.source = mapping.Source

	indexPath := filepath.Join(a.basePath, IndexFilename)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return nil
	}
	if err := a.idx.Load(indexPath); err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	a.built = true
	return nil
}

func (a *AnnoyIndex) Contains(ctx context.Context, token string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, exists := a.tokenToID[token]
	return exists
}

// IndexSource reports the source recorded in the index saved under basePath,
// and whether a complete saved index exists there.
func IndexSource(basePath string) (string, bool, error) {
	mapping, err := readMapping(basePath)
	if err != nil || mapping == nil {
		return "", false, err
	}
	if _, err := os.Stat(filepath.Join(basePath, IndexFilename)); err != nil {
		return "", false, nil
	}
	return mapping.Source, true, nil
}

func readMapping(basePath string) (*indexMapping, error) {
	data, err := os.ReadFile(filepath.Join(basePath, MappingFilename))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var mapping indexMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("unmarshal mapping: %w", err)
	}
	return &mapping, nil
}
