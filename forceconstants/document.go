// SPDX-License-Identifier: MIT

package forceconstants

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/kappa/structure"
)

// Document is the on-disk YAML form of ForceConstants. Second-order blocks are
// listed sparsely: absent (i, replica, j) blocks are zero.
type Document struct {
	Atoms       AtomsDocument       `yaml:"atoms"`
	SecondOrder SecondOrderDocument `yaml:"second_order"`
	ThirdOrder  []ThirdDocument     `yaml:"third_order,omitempty"`
	Cutoff      *float64            `yaml:"cutoff,omitempty"`
}

// AtomsDocument mirrors structure.Atoms.
type AtomsDocument struct {
	Cell      [3][3]float64 `yaml:"cell"`
	Positions [][3]float64  `yaml:"positions"`
	Masses    []float64     `yaml:"masses,flow"`
	PBC       [3]bool       `yaml:"pbc,flow"`
}

// SecondOrderDocument lists the replicas and the non-zero 3×3 blocks.
type SecondOrderDocument struct {
	Supercell [3]int          `yaml:"supercell,flow"`
	Replicas  [][3]float64    `yaml:"replicas"`
	Blocks    []BlockDocument `yaml:"blocks"`
}

// BlockDocument is D0[i,:,replica,j,:] in row-major order (eV/Å²).
type BlockDocument struct {
	I       int        `yaml:"i"`
	Replica int        `yaml:"replica"`
	J       int        `yaml:"j"`
	Values  [9]float64 `yaml:"values,flow"`
}

// ThirdDocument is one Φ[I,J,K] coefficient (eV/Å³).
type ThirdDocument struct {
	I     int     `yaml:"i"`
	J     int     `yaml:"j"`
	K     int     `yaml:"k"`
	Value float64 `yaml:"value"`
}

// Decode reads a YAML document and builds validated ForceConstants.
func Decode(r io.Reader) (*ForceConstants, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("Decode: %w", err)
	}

	return doc.Build()
}

// Load decodes the YAML document at path.
func Load(path string) (*ForceConstants, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Build converts the document into ForceConstants.
func (doc *Document) Build() (*ForceConstants, error) {
	a := doc.Atoms
	atoms, err := structure.New(a.Positions, a.Masses, a.Cell, a.PBC)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	n := atoms.N()
	nR := len(doc.SecondOrder.Replicas)
	values := make([]float64, 9*n*n*nR)
	for idx, b := range doc.SecondOrder.Blocks {
		if b.I < 0 || b.I >= n || b.J < 0 || b.J >= n || b.Replica < 0 || b.Replica >= nR {
			return nil, fmt.Errorf("Build: block %d: %w", idx, ErrIndexOutOfRange)
		}
		for k, v := range b.Values {
			off := (((b.I*3+k/3)*nR+b.Replica)*n+b.J)*3 + k%3
			values[off] += v
		}
	}
	second, err := NewSecondOrder(n, doc.SecondOrder.Replicas, doc.SecondOrder.Supercell, values)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	var opts []Option
	if len(doc.ThirdOrder) > 0 {
		entries := make([]Entry, len(doc.ThirdOrder))
		for i, e := range doc.ThirdOrder {
			entries[i] = Entry{I: e.I, J: e.J, K: e.K, Value: e.Value}
		}
		third, err := NewThirdOrder(n, nR, entries)
		if err != nil {
			return nil, fmt.Errorf("Build: %w", err)
		}
		opts = append(opts, WithThirdOrder(third))
	}
	if doc.Cutoff != nil {
		opts = append(opts, WithCutoff(*doc.Cutoff))
	}

	return New(atoms, second, opts...)
}

// NewDocument converts ForceConstants back into the YAML form. Zero blocks are omitted.
func NewDocument(fc *ForceConstants) *Document {
	atoms := fc.Atoms()
	s := fc.SecondOrder()
	doc := &Document{
		Atoms: AtomsDocument{
			Cell:      atoms.Cell(),
			Positions: atoms.Positions(),
			Masses:    atoms.Masses(),
			PBC:       atoms.PBC(),
		},
		SecondOrder: SecondOrderDocument{
			Supercell: s.Supercell(),
			Replicas:  s.Replicas(),
		},
	}
	n, nR := s.NAtoms(), s.NReplicas()
	var i, r, j, k int
	for i = 0; i < n; i++ {
		for r = 0; r < nR; r++ {
			for j = 0; j < n; j++ {
				var block BlockDocument
				nonZero := false
				for k = 0; k < 9; k++ {
					block.Values[k] = s.At(i, k/3, r, j, k%3)
					nonZero = nonZero || block.Values[k] != 0
				}
				if !nonZero {
					continue
				}
				block.I, block.Replica, block.J = i, r, j
				doc.SecondOrder.Blocks = append(doc.SecondOrder.Blocks, block)
			}
		}
	}
	if t, err := fc.ThirdOrder(); err == nil {
		t.Each(func(e Entry) {
			doc.ThirdOrder = append(doc.ThirdOrder, ThirdDocument{I: e.I, J: e.J, K: e.K, Value: e.Value})
		})
	}
	if c, ok := fc.Cutoff(); ok {
		doc.Cutoff = &c
	}

	return doc
}

// Encode writes fc as a YAML document.
func Encode(w io.Writer, fc *ForceConstants) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(fc)); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}

	return enc.Close()
}
