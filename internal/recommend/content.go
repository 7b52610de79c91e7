// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

import (
	"context"
	"math"
	"sort"
	"strings"
)

// ContentIndex holds the pairwise cosine similarity matrix over one
// generation's movie corpus, with the id/row mapping it was built
// against. The mapping is owned by the generation and never reused
// across generations. Fields are exported for snapshot encoding; the
// index is immutable after Build.
type ContentIndex struct {
	// Matrix is the N x N cosine similarity matrix. Matrix[i][j] is
	// symmetric and in [0,1] because TF-IDF weights are non-negative.
	Matrix [][]float64

	// Rows maps movie id to matrix row.
	Rows map[int]int

	// IDs maps matrix row back to movie id.
	IDs []int
}

// BuildContentIndex vectorizes each movie's metadata with TF-IDF and
// computes the full pairwise cosine similarity matrix. The computation
// is O(N^2) in movie count and runs off the serving path.
//
// Duplicate movie ids are rejected before any state is built.
func BuildContentIndex(ctx context.Context, movies []MovieRecord, cfg ContentConfig) (*ContentIndex, error) {
	rows := make(map[int]int, len(movies))
	ids := make([]int, 0, len(movies))

	for i := range movies {
		id := movies[i].ID
		if _, dup := rows[id]; dup {
			return nil, &ValidationError{Field: "movies", Reason: "duplicate movie id"}
		}
		rows[id] = len(ids)
		ids = append(ids, id)
	}

	docs := make([][]string, len(movies))
	for i := range movies {
		docs[i] = tokenize(movieDocument(&movies[i]), cfg.MinTokenLength)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := vectorizeTFIDF(docs)

	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	// Vectors are L2-normalized, so cosine similarity reduces to the
	// sparse dot product.
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			s := sparseDot(vectors[i], vectors[j])
			matrix[i][j] = s
			matrix[j][i] = s
		}
	}

	return &ContentIndex{Matrix: matrix, Rows: rows, IDs: ids}, nil
}

// movieDocument concatenates a movie's textual fields in a fixed order.
// Missing fields contribute nothing rather than failing.
func movieDocument(m *MovieRecord) string {
	var b strings.Builder
	b.WriteString(m.Title)
	for _, g := range m.Genres {
		b.WriteByte(' ')
		b.WriteString(g)
	}
	if m.Director != "" {
		b.WriteByte(' ')
		b.WriteString(m.Director)
	}
	for _, c := range m.Cast {
		b.WriteByte(' ')
		b.WriteString(c)
	}
	if m.Description != "" {
		b.WriteByte(' ')
		b.WriteString(m.Description)
	}
	for _, k := range m.Keywords {
		b.WriteByte(' ')
		b.WriteString(k)
	}
	for _, t := range m.MoodTags {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	if m.ContentRating != "" {
		b.WriteByte(' ')
		b.WriteString(m.ContentRating)
	}
	for _, p := range m.StreamingPlatforms {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	return b.String()
}

// tokenize lowercases the document, splits on non-alphanumeric runs,
// drops short tokens and stop words.
func tokenize(doc string, minLen int) []string {
	if minLen < 1 {
		minLen = 1
	}

	lower := strings.ToLower(doc)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !isWordRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < minLen {
			continue
		}
		if isStopWord(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z'
}

// vectorizeTFIDF produces one L2-normalized sparse TF-IDF vector per
// document. IDF uses smoothed weighting: ln((1+N)/(1+df)) + 1, which
// keeps terms appearing in every document at a positive weight.
func vectorizeTFIDF(docs [][]string) []map[int]float64 {
	vocab := make(map[string]int)
	df := make(map[int]int)

	counts := make([]map[int]int, len(docs))
	for d, tokens := range docs {
		tf := make(map[int]int, len(tokens))
		for _, tok := range tokens {
			termID, ok := vocab[tok]
			if !ok {
				termID = len(vocab)
				vocab[tok] = termID
			}
			tf[termID]++
		}
		counts[d] = tf
		for termID := range tf {
			df[termID]++
		}
	}

	numDocs := float64(len(docs))
	vectors := make([]map[int]float64, len(docs))
	for d, tf := range counts {
		vec := make(map[int]float64, len(tf))
		var norm float64
		for termID, count := range tf {
			idf := math.Log((1+numDocs)/float64(1+df[termID])) + 1
			w := float64(count) * idf
			vec[termID] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for termID := range vec {
				vec[termID] /= norm
			}
		}
		vectors[d] = vec
	}
	return vectors
}

// sparseDot computes the dot product of two sparse vectors, iterating
// the smaller one.
func sparseDot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for termID, av := range a {
		if bv, ok := b[termID]; ok {
			sum += av * bv
		}
	}
	return sum
}

// Similar returns up to n movies most similar to movieID, in descending
// similarity order, ties broken by ascending movie id. The movie itself
// is always excluded. Returns ErrNotFound when movieID is not in the
// index.
func (ci *ContentIndex) Similar(movieID, n int) ([]ScoredMovie, error) {
	row, ok := ci.Rows[movieID]
	if !ok {
		return nil, ErrNotFound
	}
	if n <= 0 {
		return nil, nil
	}

	scores := ci.Matrix[row]
	out := make([]ScoredMovie, 0, len(ci.IDs)-1)
	for r, id := range ci.IDs {
		if r == row {
			continue
		}
		out = append(out, ScoredMovie{MovieID: id, Score: scores[r]})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MovieID < out[j].MovieID
	})

	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Size returns the number of movies in the index.
func (ci *ContentIndex) Size() int {
	return len(ci.IDs)
}

// Contains reports whether movieID is part of the index.
func (ci *ContentIndex) Contains(movieID int) bool {
	_, ok := ci.Rows[movieID]
	return ok
}
