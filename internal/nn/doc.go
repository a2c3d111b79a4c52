// Package nn provides the neural building blocks that surround the ODE
// solver: linear and convolutional layers, residual blocks, downsamplers,
// classification heads and the continuous-depth ODELayer whose forward pass
// is an integration run rather than a fixed arithmetic sequence.
//
// Modules are inference-only: parameters are exposed opaquely through
// Parameters() and there is no gradient machinery here.
package nn
