// SPDX-License-Identifier: MIT

// Package model defines the substitution-model contract consumed by the
// likelihood engine, and ships reference codon models that implement it.
//
// Contract:
//
//   - Model supplies transition matrices M(t), their parameter derivatives
//     dM, the stationary state and its derivatives, and the list of free
//     parameters with their current values and limits.
//   - MixtureModel does the same per discrete category of one distributed
//     parameter, adding fixed category weights and the derivative of every
//     category's value with respect to the distribution parameters.
//   - Read accessors (M, DM, Stationary, ...) must be safe for concurrent use
//     between UpdateParams calls; the engine computes gradients in parallel.
//   - Returned matrices are read-only for callers. Implementations may share
//     one matrix across sites or categories.
//
// Reference models:
//
//   - YNGKPM0: Goldman–Yang codon model with transition/transversion ratio
//     kappa, dN/dS ratio omega, rate scaler mu and either fixed F3X4 or free
//     F1X4 (stick-breaking eta) codon frequencies.
//   - YNGKPM5: the same with omega gamma-distributed across equally weighted
//     categories (parameters alpha_omega, beta_omega).
//
// Matrix exponentials use the eigendecomposition of the symmetrised
// reversible rate matrix, so derivatives of M are exact:
//
//	M(t)    = A diag(exp(μtλ)) A⁻¹
//	dM/dθ   = A ((A⁻¹ dQ/dθ A) ∘ F) A⁻¹,  F_xy = (e^{μtλx} − e^{μtλy}) / (λx − λy)
//	dM/dμ   = t Q M(t)
package model
