// Package asyncx holds the small set of concurrency helpers the mailer
// needs.
//
// # Futures
//
// A [Future] represents a value computed in the background. [Run] starts
// the work immediately; callers may [Future.Await] it or simply drop the
// handle and let it finish on its own. This is how long fan-outs are
// exposed: the notifier returns a Future, the HTTP layer detaches, tests
// await.
//
//	fut := asyncx.Run(func() (Summary, error) {
//	    return blast(ctx, recipients)
//	})
//	summary, err := fut.Await()
//
// # Fan-out
//
// [AllSettled] runs independent probes concurrently and returns one
// [Result] per function, never short-circuiting.
package asyncx
