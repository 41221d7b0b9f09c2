package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
)

// FormatVersion is bumped whenever the artifact layout changes; the loader
// rejects artifacts written with a different version.
const FormatVersion = 1

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")

	metaFormatVersion = []byte("format_version")
	metaModel         = []byte("model")
	metaDimension     = []byte("dimension")
	metaCatalogHash   = []byte("catalog_hash")
)

// Meta describes the artifact provenance: which model produced the vectors
// and which catalog snapshot they were built from.
type Meta struct {
	FormatVersion int
	Model         string
	Dimension     int
	CatalogHash   string
}

// Index is the in-memory embedding matrix, loaded once at startup and
// read-only afterwards. ids[i] owns vectors[i]; ids are sorted ascending so
// equal-score search results tie-break deterministically.
type Index struct {
	meta    Meta
	ids     []string
	vectors [][]float32
}

// Meta returns the artifact provenance.
func (ix *Index) Meta() Meta { return ix.meta }

// Len reports the number of indexed indicators.
func (ix *Index) Len() int { return len(ix.ids) }

// Dimension reports the vector width.
func (ix *Index) Dimension() int { return ix.meta.Dimension }

// CatalogHash fingerprints a catalog snapshot: SHA-256 over the sorted
// id/title/description lines. The builder stores it in the artifact and the
// loader compares it against the live catalog.
func CatalogHash(c *catalog.Catalog) string {
	kpis := append([]catalog.KPI(nil), c.KPIs()...)
	sort.Slice(kpis, func(i, j int) bool { return kpis[i].ID < kpis[j].ID })

	h := sha256.New()
	for _, k := range kpis {
		fmt.Fprintf(h, "%s\t%s\t%s\n", k.ID, k.Title, k.Description)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// WriteArtifact stores the vectors and provenance as a single bbolt file.
// Existing content at the path is replaced.
func WriteArtifact(path string, meta Meta, vectors map[string][]float32) error {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketVectors, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
		}

		vb, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		for id, vec := range vectors {
			if len(vec) != meta.Dimension {
				return fmt.Errorf("vector for %s has dimension %d, want %d", id, len(vec), meta.Dimension)
			}
			if err := vb.Put([]byte(id), encodeVector(vec)); err != nil {
				return err
			}
		}

		mb, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		if err := mb.Put(metaFormatVersion, []byte(strconv.Itoa(FormatVersion))); err != nil {
			return err
		}
		if err := mb.Put(metaModel, []byte(meta.Model)); err != nil {
			return err
		}
		if err := mb.Put(metaDimension, []byte(strconv.Itoa(meta.Dimension))); err != nil {
			return err
		}
		return mb.Put(metaCatalogHash, []byte(meta.CatalogHash))
	})
}

// LoadIndex reads the artifact and validates it against the live catalog
// and the configured model. Any mismatch — format version, model id,
// dimension, or indicator id set — is an ErrIndexIntegrity; the server must
// not start on a partial or stale index.
func LoadIndex(path string, cat *catalog.Catalog, model string) (*Index, error) {
	db, err := bolt.Open(path, 0o400, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer db.Close()

	var (
		meta    Meta
		ids     []string
		vectors [][]float32
	)

	err = db.View(func(tx *bolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		if mb == nil {
			return fmt.Errorf("%w: missing meta bucket", ErrIndexIntegrity)
		}

		meta.FormatVersion, _ = strconv.Atoi(string(mb.Get(metaFormatVersion)))
		if meta.FormatVersion != FormatVersion {
			return fmt.Errorf("%w: artifact format version %d, want %d",
				ErrIndexIntegrity, meta.FormatVersion, FormatVersion)
		}

		meta.Model = string(mb.Get(metaModel))
		if meta.Model != model {
			return fmt.Errorf("%w: artifact built with model %q, configured model %q",
				ErrIndexIntegrity, meta.Model, model)
		}

		meta.Dimension, _ = strconv.Atoi(string(mb.Get(metaDimension)))
		if meta.Dimension <= 0 {
			return fmt.Errorf("%w: invalid dimension %d", ErrIndexIntegrity, meta.Dimension)
		}

		meta.CatalogHash = string(mb.Get(metaCatalogHash))
		if got := CatalogHash(cat); meta.CatalogHash != got {
			return fmt.Errorf("%w: artifact catalog hash %.12s does not match live catalog %.12s",
				ErrIndexIntegrity, meta.CatalogHash, got)
		}

		vb := tx.Bucket(bucketVectors)
		if vb == nil {
			return fmt.Errorf("%w: missing vectors bucket", ErrIndexIntegrity)
		}

		// bbolt iterates keys in byte order, which matches the sorted-ids
		// invariant the searcher relies on for tie-breaking.
		return vb.ForEach(func(k, v []byte) error {
			vec, err := decodeVector(v)
			if err != nil {
				return fmt.Errorf("%w: vector for %s: %v", ErrIndexIntegrity, k, err)
			}
			if len(vec) != meta.Dimension {
				return fmt.Errorf("%w: vector for %s has dimension %d, want %d",
					ErrIndexIntegrity, k, len(vec), meta.Dimension)
			}
			ids = append(ids, string(k))
			vectors = append(vectors, vec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if err := checkIDSet(ids, cat); err != nil {
		return nil, err
	}

	return &Index{meta: meta, ids: ids, vectors: vectors}, nil
}

// checkIDSet enforces the 1:1 invariant: every catalog indicator has
// exactly one vector and no vector is orphaned.
func checkIDSet(ids []string, cat *catalog.Catalog) error {
	indexed := make(map[string]bool, len(ids))
	for _, id := range ids {
		indexed[id] = true
	}

	var missing, orphaned []string
	for _, k := range cat.KPIs() {
		if !indexed[k.ID] {
			missing = append(missing, k.ID)
		}
		delete(indexed, k.ID)
	}
	for id := range indexed {
		orphaned = append(orphaned, id)
	}

	if len(missing) > 0 || len(orphaned) > 0 {
		return fmt.Errorf("%w: %d catalog indicators without vectors, %d orphaned vectors (e.g. missing=%s orphaned=%s)",
			ErrIndexIntegrity, len(missing), len(orphaned), first(missing), first(orphaned))
	}
	return nil
}

func first(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	sort.Strings(ids)
	return ids[0]
}

// encodeVector packs a float32 slice as little-endian bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, x := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("truncated vector (%d bytes)", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}

// CanonicalText is the text form an indicator is embedded under: title and
// description joined, matching the builder and any future re-embedding.
func CanonicalText(k catalog.KPI) string {
	if strings.TrimSpace(k.Description) == "" {
		return k.Title
	}
	return k.Title + ". " + k.Description
}
