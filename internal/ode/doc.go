// Package ode implements an explicit Runge-Kutta integrator driven by
// Butcher tableaus, with optional embedded-pair adaptive step-size control.
//
// The package is built from four pieces:
//
//   - [Tableau]: immutable description of an explicit method (stage times,
//     stage coupling, solution weights, optional embedded weights)
//   - [Stepper]: one step of the method, producing the next state and, for
//     embedded tableaus, a local error estimate
//   - [StepControl]: accept/reject decision and next trial step size
//   - [Integrator]: walks [t0, t1], feeding error estimates back into the
//     controller until the endpoint is reached
//
// # Example
//
//	integ := ode.New(ode.DormandPrince(), ode.DefaultStepControl())
//	res, err := integ.Integrate(ctx, field, y0, ode.DefaultConfig())
//
// # Thread Safety
//
// Integrator instances are NOT safe for concurrent use: each owns scratch
// buffers for stage evaluations. Tableaus are read-only and may be shared;
// separate Integrator values may run concurrently as long as the vector
// field itself is reentrant.
package ode
