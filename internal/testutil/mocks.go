// Package testutil provides test doubles and database fixtures shared
// across packages.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockEmbedder returns deterministic vectors derived from the input
// text, so identical text always embeds identically. Safe for
// concurrent use.
type MockEmbedder struct {
	// Dim is the vector length; defaults to 768.
	Dim int

	// DocumentErr fails EmbedDocument when set.
	DocumentErr error

	// QueryErr fails EmbedQuery when set.
	QueryErr error

	mu             sync.Mutex
	documentInputs []string
	queryInputs    []string
}

func (m *MockEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.documentInputs = append(m.documentInputs, text)
	m.mu.Unlock()

	if m.DocumentErr != nil {
		return nil, m.DocumentErr
	}
	return deterministicVector(text, m.dim()), nil
}

func (m *MockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.queryInputs = append(m.queryInputs, text)
	m.mu.Unlock()

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return deterministicVector(text, m.dim()), nil
}

// DocumentInputs returns every text passed to EmbedDocument.
func (m *MockEmbedder) DocumentInputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.documentInputs...)
}

// QueryInputs returns every text passed to EmbedQuery.
func (m *MockEmbedder) QueryInputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queryInputs...)
}

func (m *MockEmbedder) dim() int {
	if m.Dim > 0 {
		return m.Dim
	}
	return 768
}

// deterministicVector hashes text into a repeatable unit-ish vector.
func deterministicVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := range vec {
		word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		vec[i] = float32(word%2000)/1000.0 - 1.0
		sum = sha256.Sum256(sum[:])
	}
	return vec
}

// MockGenerator replays a fixed response and records every prompt.
// Safe for concurrent use.
type MockGenerator struct {
	// Response is returned on every call unless Err is set.
	Response string

	// Err fails Generate when set.
	Err error

	mu      sync.Mutex
	prompts []string
}

func (m *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Prompts returns every prompt passed to Generate.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount returns how many times Generate was invoked.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
