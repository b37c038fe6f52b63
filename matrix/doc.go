// SPDX-License-Identifier: MIT

// Package matrix holds the dense real kernels of the reference linear-algebra backend.
//
// What:
//   - Dense: row-major float64 storage with bounds- and NaN-checked accessors.
//   - Mul, LU, Inverse: deterministic product and Doolittle factorization (no pivoting).
//   - Eigen / EigenSorted: classical Jacobi rotations for symmetric matrices.
//   - EmbedHermitian / ExtractHermitian / EigenHermitian: complex Hermitian
//     eigenproblems solved on the 2n×2n real embedding.
//
// Why:
//   - Reproducible results on every platform (fixed loop orders, no pivoting).
//   - A slow but transparent oracle against which faster backends are checked.
//
// Errors:
//   - Every kernel returns sentinels from errors.go wrapped with an operation tag.
package matrix
