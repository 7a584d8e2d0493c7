// SPDX-License-Identifier: MIT

package model

// DDiscreteGamma exposes dDiscreteGamma to package model_test.
var DDiscreteGamma = dDiscreteGamma
